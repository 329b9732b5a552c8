package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	hashengine "github.com/mattkeenan/libhash/pkg"
)

type commandContext struct {
	configPath string
	algorithm  string
	hashBuffer string
	verbose    int
	debug      string

	configOnce sync.Once
	config     *hashengine.Config
	configErr  error
}

// resolvedConfigPath prefers --config, then the same environment variable the C library reads
func (c *commandContext) resolvedConfigPath() string {
	if path := strings.TrimSpace(c.configPath); path != "" {
		return path
	}
	return os.Getenv(hashengine.ConfigEnvVar)
}

// overrides converts command-line flags to ApplyOverrides "key:value" entries
func (c *commandContext) overrides() []string {
	var overrides []string
	if c.algorithm != "" {
		overrides = append(overrides, "default:"+c.algorithm)
	}
	if c.hashBuffer != "" {
		overrides = append(overrides, "hash_buffer:"+c.hashBuffer)
	}
	if c.verbose > 0 {
		overrides = append(overrides, fmt.Sprintf("level:%d", c.verbose))
	}
	if c.debug != "" {
		overrides = append(overrides, "debug:"+c.debug)
	}
	return overrides
}

func (c *commandContext) ensureConfig() (*hashengine.Config, error) {
	c.configOnce.Do(func() {
		path := c.resolvedConfigPath()
		cfg, err := hashengine.LoadConfig(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config %s: %w", path, err)
			return
		}
		if err := cfg.ApplyOverrides(c.overrides()); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid configuration: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "hashdir",
		Short:         "Hash every file under one or more directories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			hashengine.SetLogWriter(cmd.ErrOrStderr())
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path (default $"+hashengine.ConfigEnvVar+")")
	flags.StringVarP(&ctx.algorithm, "algorithm", "a", "", "Digest algorithm (md5, sha1, sha256, sha512, blake3, xxhash64)")
	flags.StringVar(&ctx.hashBuffer, "buffer", "", "Read buffer size per file, e.g. 64K or 2M")
	flags.CountVarP(&ctx.verbose, "verbose", "v", "Increase verbosity (repeat for more)")
	flags.StringVar(&ctx.debug, "debug", "", "Comma-separated debug flags (walk, worker, queue, boundary, lifecycle)")

	rootCmd.AddCommand(newHashCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
