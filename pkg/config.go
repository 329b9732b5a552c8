package hashengine

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-ini/ini"
)

// Config represents the engine configuration file
type Config struct {
	configPath string
	ini        *ini.File
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Default hash algorithm
}

// PerformanceConfig represents performance and shutdown tuning
type PerformanceConfig struct {
	HashBuffer     string        // Read buffer size per file (default: "2M")
	TerminateGrace time.Duration // Wait for cooperative stop on Terminate (default: 5s)
	ForceGrace     time.Duration // Wait after interrupting in-flight reads (default: 1s)
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // Default verbose level (0=quiet, 1=basic, 2=detailed, 3=trace)
	Debug string // Default debug flags (comma-separated)
}

// AllConfig represents all configuration options
type AllConfig struct {
	Hash        *HashConfig
	Performance *PerformanceConfig
	Verbose     *VerboseConfig
}

// LoadConfig loads configuration from path. An empty path or a missing file
// yields the defaults; nothing is written to disk.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		configPath: path,
	}

	if path == "" {
		cfg.ini = ini.Empty()
		return cfg, cfg.setDefaults()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		if err := cfg.setDefaults(); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ini = iniFile

	return cfg, nil
}

// DefaultConfig returns an in-memory configuration holding the defaults
func DefaultConfig() *Config {
	cfg := &Config{ini: ini.Empty()}
	if err := cfg.setDefaults(); err != nil {
		// ini.Empty never rejects these fixed section and key names
		panic(err)
	}
	return cfg
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() error {
	defaults := []struct {
		section string
		key     string
		value   string
	}{
		{"filehash", "default", DefaultHashAlgorithm},
		{"performance", "hash_buffer", DefaultHashBuffer},
		{"performance", "terminate_grace", DefaultTerminateGrace.String()},
		{"performance", "force_grace", DefaultForceGrace.String()},
		{"verbose", "level", "0"},
		{"verbose", "debug", ""},
	}

	for _, d := range defaults {
		if _, err := c.ini.Section(d.section).NewKey(d.key, d.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", d.section, d.key, err)
		}
	}

	return nil
}

// Path returns the file this configuration was loaded from, if any
func (c *Config) Path() string {
	return c.configPath
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{
		Default: DefaultHashAlgorithm,
	}

	if c.ini.HasSection("filehash") {
		section := c.ini.Section("filehash")
		if section.HasKey("default") {
			if value := section.Key("default").String(); value != "" {
				hashConfig.Default = value
			}
		}
	}

	return hashConfig
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		HashBuffer:     DefaultHashBuffer,
		TerminateGrace: DefaultTerminateGrace,
		ForceGrace:     DefaultForceGrace,
	}

	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if section.HasKey("hash_buffer") {
			if bufferSize := section.Key("hash_buffer").String(); bufferSize != "" {
				performanceConfig.HashBuffer = bufferSize
			}
		}
		if section.HasKey("terminate_grace") {
			if grace, err := section.Key("terminate_grace").Duration(); err == nil && grace >= 0 {
				performanceConfig.TerminateGrace = grace
			}
		}
		if section.HasKey("force_grace") {
			if grace, err := section.Key("force_grace").Duration(); err == nil && grace >= 0 {
				performanceConfig.ForceGrace = grace
			}
		}
	}

	return performanceConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Hash:        c.GetHashConfig(),
		Performance: c.GetPerformanceConfig(),
		Verbose:     c.GetVerboseConfig(),
	}
}

// Validate checks every value the engine will consume on Init
func (c *Config) Validate() error {
	all := c.GetAllConfig()
	if err := ValidateHashAlgorithm(all.Hash.Default); err != nil {
		return err
	}
	if _, err := ParseHumanSize(all.Performance.HashBuffer); err != nil {
		return fmt.Errorf("invalid hash_buffer: %w", err)
	}
	for _, key := range []string{"terminate_grace", "force_grace"} {
		if err := c.validateGrace(key); err != nil {
			return err
		}
	}
	return ValidateVerboseLevel(all.Verbose.Level)
}

// validateGrace rejects a grace period that is set but unparseable or negative,
// which the getter would otherwise quietly replace with the default
func (c *Config) validateGrace(key string) error {
	if !c.ini.HasSection("performance") {
		return nil
	}
	section := c.ini.Section("performance")
	if !section.HasKey(key) || section.Key(key).String() == "" {
		return nil
	}
	grace, err := section.Key(key).Duration()
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if grace < 0 {
		return fmt.Errorf("invalid %s: %v is negative", key, grace)
	}
	return nil
}

// SaveTo writes the configuration to path and remembers it for later Save calls
func (c *Config) SaveTo(path string) error {
	if err := c.ini.SaveTo(path); err != nil {
		return err
	}
	c.configPath = path
	return nil
}

// Save saves the configuration back to the file it was loaded from
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("config has no file path")
	}
	return c.ini.SaveTo(c.configPath)
}

// ApplyOverrides applies command-line overrides to the configuration
// Accepts strings like "default:sha256", "hash_buffer:64K", "level:2", "debug:walk"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "default":
			c.ini.Section("filehash").Key("default").SetValue(value)
		case "hash_buffer", "terminate_grace", "force_grace":
			c.ini.Section("performance").Key(key).SetValue(value)
		case "level", "debug":
			c.ini.Section("verbose").Key(key).SetValue(value)
		default:
			return fmt.Errorf("unsupported override key '%s' (supported: default, hash_buffer, terminate_grace, force_grace, level, debug)", key)
		}
	}

	return nil
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	if _, ok := HashTypeFromName(algorithm); !ok {
		return fmt.Errorf("unsupported hash algorithm: %s (supported: md5, sha1, sha256, sha512, blake3, xxhash64)", algorithm)
	}
	return nil
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}
