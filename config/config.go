package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/sandfs/internal/util"
)

// CLI style verbosity values accepted by [ConfigOverride.LogLvl]
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// EnvPrefix is the prefix for environment overrides, e.g. SANDFS_NODE_LIMIT
const EnvPrefix = "SANDFS"

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	// DefaultNodeLimit caps the node count of each volume
	DefaultNodeLimit = 10000

	// DefaultMaxGlobPattern bounds glob pattern length to keep matching cheap
	DefaultMaxGlobPattern = 256

	DefaultLogging = true

	DefaultBackend  = "memory"
	DefaultCompress = false
	DefaultUseSSL   = true

	DefaultFsName = "sandfs"
	DefaultName   = "sandfs"
)

// Config contains runtime configuration values for the engine and its collaborators.
type Config struct {
	LogLvl         util.LogLevel // Global log level (Default info)
	NodeLimit      int           // Maximum nodes per volume (Default 10000)
	MaxGlobPattern int           // Maximum glob pattern length in characters (Default 256)
	Logging        bool          // Whether the engine emits operation logs (Default true)

	Persistence PersistenceOptions
	MountOptions
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
//
// LogLvl is a CLI verbosity between 1 (error) and 5 (trace), not a [util.LogLevel].
type ConfigOverride struct {
	LogLvl         *int  `yaml:"verbose,omitempty" json:"verbose,omitempty" toml:"verbose,omitempty" envconfig:"VERBOSE"`
	NodeLimit      *int  `yaml:"node_limit,omitempty" json:"node_limit,omitempty" toml:"node_limit,omitempty" envconfig:"NODE_LIMIT"`
	MaxGlobPattern *int  `yaml:"max_glob_pattern,omitempty" json:"max_glob_pattern,omitempty" toml:"max_glob_pattern,omitempty" envconfig:"MAX_GLOB_PATTERN"`
	Logging        *bool `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty" envconfig:"LOGGING"`

	Namespace *string `yaml:"namespace,omitempty" json:"namespace,omitempty" toml:"namespace,omitempty" envconfig:"NAMESPACE"`
	Backend   *string `yaml:"backend,omitempty" json:"backend,omitempty" toml:"backend,omitempty" envconfig:"BACKEND"`
	Dir       *string `yaml:"dir,omitempty" json:"dir,omitempty" toml:"dir,omitempty" envconfig:"DIR"`
	Compress  *bool   `yaml:"compress,omitempty" json:"compress,omitempty" toml:"compress,omitempty" envconfig:"COMPRESS"`
	Endpoint  *string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" toml:"endpoint,omitempty" envconfig:"ENDPOINT"`
	Bucket    *string `yaml:"bucket,omitempty" json:"bucket,omitempty" toml:"bucket,omitempty" envconfig:"BUCKET"`
	AccessKey *string `yaml:"access_key,omitempty" json:"access_key,omitempty" toml:"access_key,omitempty" envconfig:"ACCESS_KEY"`
	SecretKey *string `yaml:"secret_key,omitempty" json:"secret_key,omitempty" toml:"secret_key,omitempty" envconfig:"SECRET_KEY"`
	UseSSL    *bool   `yaml:"use_ssl,omitempty" json:"use_ssl,omitempty" toml:"use_ssl,omitempty" envconfig:"USE_SSL"`
	Prefix    *string `yaml:"prefix,omitempty" json:"prefix,omitempty" toml:"prefix,omitempty" envconfig:"PREFIX"`

	FsName *string `yaml:"fs_name,omitempty" json:"fs_name,omitempty" toml:"fs_name,omitempty" envconfig:"FS_NAME"`
	Name   *string `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty" envconfig:"NAME"`
	Debug  *bool   `yaml:"debug,omitempty" json:"debug,omitempty" toml:"debug,omitempty" envconfig:"DEBUG"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl:         DefaultLogLvl,
		NodeLimit:      DefaultNodeLimit,
		MaxGlobPattern: DefaultMaxGlobPattern,
		Logging:        DefaultLogging,
		Persistence: PersistenceOptions{
			Backend:  DefaultBackend,
			Compress: DefaultCompress,
			UseSSL:   DefaultUseSSL,
		},
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
	}
}

// NewConfig returns the default config with override applied. A nil override
// yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = util.LevelFromVerbosity(*override.LogLvl)
	}
	if override.NodeLimit != nil {
		c.NodeLimit = *override.NodeLimit
	}
	if override.MaxGlobPattern != nil {
		c.MaxGlobPattern = *override.MaxGlobPattern
	}
	if override.Logging != nil {
		c.Logging = *override.Logging
	}

	p := &c.Persistence
	p.Namespace = util.ValueOrDefault(override.Namespace, p.Namespace)
	p.Backend = util.ValueOrDefault(override.Backend, p.Backend)
	p.Dir = util.ValueOrDefault(override.Dir, p.Dir)
	p.Compress = util.ValueOrDefault(override.Compress, p.Compress)
	p.Endpoint = util.ValueOrDefault(override.Endpoint, p.Endpoint)
	p.Bucket = util.ValueOrDefault(override.Bucket, p.Bucket)
	p.AccessKey = util.ValueOrDefault(override.AccessKey, p.AccessKey)
	p.SecretKey = util.ValueOrDefault(override.SecretKey, p.SecretKey)
	p.UseSSL = util.ValueOrDefault(override.UseSSL, p.UseSSL)
	p.Prefix = util.ValueOrDefault(override.Prefix, p.Prefix)

	c.FsName = util.ValueOrDefault(override.FsName, c.FsName)
	c.Name = util.ValueOrDefault(override.Name, c.Name)
	c.Debug = util.ValueOrDefault(override.Debug, c.Debug)
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports YAML (.yaml, .yml), JSON (.json) and TOML (.toml) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &override)
	case ".json":
		err = json.Unmarshal(data, &override)
	case ".toml":
		err = toml.Unmarshal(data, &override)
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	return &override, nil
}

// LoadEnvOverride reads overrides from SANDFS_* environment variables.
// Unset variables leave the corresponding field nil.
func LoadEnvOverride() (*ConfigOverride, error) {
	var override ConfigOverride
	if err := envconfig.Process(EnvPrefix, &override); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}
	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
