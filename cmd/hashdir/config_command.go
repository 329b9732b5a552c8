package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	hashengine "github.com/mattkeenan/libhash/pkg"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after flag overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			all := cfg.GetAllConfig()

			out := cmd.OutOrStdout()
			if path := cfg.Path(); path != "" {
				fmt.Fprintf(out, "# %s\n", path)
			} else {
				fmt.Fprintln(out, "# built-in defaults")
			}
			fmt.Fprintln(out, "[filehash]")
			fmt.Fprintf(out, "default = %s\n\n", all.Hash.Default)
			fmt.Fprintln(out, "[performance]")
			fmt.Fprintf(out, "hash_buffer = %s\n", all.Performance.HashBuffer)
			fmt.Fprintf(out, "terminate_grace = %s\n", all.Performance.TerminateGrace)
			fmt.Fprintf(out, "force_grace = %s\n\n", all.Performance.ForceGrace)
			fmt.Fprintln(out, "[verbose]")
			fmt.Fprintf(out, "level = %d\n", all.Verbose.Level)
			fmt.Fprintf(out, "debug = %s\n", all.Verbose.Debug)
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a configuration file holding the defaults",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = os.Getenv(hashengine.ConfigEnvVar)
			}
			if target == "" {
				return fmt.Errorf("no destination: pass --path or set %s", hashengine.ConfigEnvVar)
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := hashengine.DefaultConfig().SaveTo(target); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}
