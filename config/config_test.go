package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/sandfs/internal/util"
)

// TestNewConfig_WithNilOverride tests that NewConfig creates a config with all default values
// when no override is provided.
func TestNewConfig_WithNilOverride(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(nil)

	require.NotNil(t, cfg)
	assert.Equal(t, createDefaultCfg(), cfg, "must use default values when no config provided")
}

// TestNewConfig_WithAllOverride tests that NewConfig properly applies every override.
func TestNewConfig_WithAllOverride(t *testing.T) {
	t.Parallel()

	override := createOverride()
	override.LogLvl = util.Pointer(TraceVerbose)
	cfg := NewConfig(override)

	expCfg := &Config{
		LogLvl:         util.TraceLevel,
		NodeLimit:      *override.NodeLimit,
		MaxGlobPattern: *override.MaxGlobPattern,
		Logging:        *override.Logging,
		Persistence: PersistenceOptions{
			Namespace: *override.Namespace,
			Backend:   *override.Backend,
			Dir:       *override.Dir,
			Compress:  *override.Compress,
			Endpoint:  *override.Endpoint,
			Bucket:    *override.Bucket,
			AccessKey: *override.AccessKey,
			SecretKey: *override.SecretKey,
			UseSSL:    *override.UseSSL,
			Prefix:    *override.Prefix,
		},
		MountOptions: MountOptions{
			Debug:  true,
			FsName: "test_fs",
			Name:   "test_name",
		},
	}
	require.NotNil(t, cfg)
	assert.Equal(t, expCfg, cfg, "must override all provided fields")
}

func TestConfig_Merge_LogLvlConversion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		verboseValue  int
		expectedLevel util.LogLevel
	}{
		{"verbose_1_error", 1, util.ErrorLevel},
		{"verbose_2_warn", 2, util.WarnLevel},
		{"verbose_3_info", 3, util.InfoLevel},
		{"verbose_4_debug", 4, util.DebugLevel},
		{"verbose_5_trace", 5, util.TraceLevel},
		{"verbose_0_clamped_to_1", 0, util.ErrorLevel},
		{"verbose_100_clamped_to_5", 100, util.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			override := &ConfigOverride{
				LogLvl: &tt.verboseValue,
			}

			cfg := NewConfig(override)

			assert.Equal(t, tt.expectedLevel, cfg.LogLvl,
				"CLI verbose %d should map to util.LogLevel %v", tt.verboseValue, tt.expectedLevel)
		})
	}
}

func TestConfig_Merge_NilOverrideVals(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(&ConfigOverride{})

	require.NotNil(t, cfg)
	assert.Equal(t, createDefaultCfg(), cfg, "must use default values for nil override fields")
}

func TestConfig_Merge_PartialOverride(t *testing.T) {
	t.Parallel()

	override := &ConfigOverride{
		Namespace: util.Pointer("project"),
		NodeLimit: util.Pointer(DefaultNodeLimit + 1),
	}
	cfg := NewConfig(override)

	expCfg := createDefaultCfg()
	expCfg.Persistence.Namespace = "project"
	expCfg.NodeLimit = DefaultNodeLimit + 1

	require.NotNil(t, cfg)
	assert.Equal(t, expCfg, cfg, "must override all provided fields and leave rest default")
}

func TestLoadConfigOverrideFile_Valid(t *testing.T) {
	t.Parallel()

	type tc struct {
		ext     string
		marshal func(any) ([]byte, error)
	}

	cases := []tc{
		{ext: ".yaml", marshal: yaml.Marshal},
		{ext: ".yml", marshal: yaml.Marshal},
		{ext: ".json", marshal: json.Marshal},
		{ext: ".toml", marshal: toml.Marshal},
	}

	for _, c := range cases {
		t.Run("valid"+c.ext, func(t *testing.T) {
			t.Parallel()
			override := createOverride()
			data, err := c.marshal(override)
			require.NoError(t, err)
			path := filepath.Join(t.TempDir(), "override"+c.ext)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			loaded, err := LoadConfigOverrideFile(path)

			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, *override, *loaded)
		})
	}
}

func TestLoadConfigOverrideFile_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "override.json")
	require.NoError(t, os.WriteFile(path, []byte("{node_limit"), 0o600))

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config file")
}

// TestLoadConfigOverrideFile_NonExistentFile tests error handling
// when trying to load a file that doesn't exist.
func TestLoadConfigOverrideFile_NonExistentFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does_not_exist.yaml")

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "expected not exist error, got %v", err)
}

// TestLoadConfigOverrideFile_UnsupportedExtension tests error handling
// for file extensions that aren't supported (.txt, .xml, etc).
func TestLoadConfigOverrideFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "override.txt")
	require.NoError(t, os.WriteFile(path, []byte("node_limit: 1"), 0o600))

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config file extension")
}

func TestNewConfigFromFile(t *testing.T) {
	t.Parallel()

	t.Run("Merges file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("namespace: demo\nbackend: billy\n"), 0o600))

		cfg, err := NewConfigFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "demo", cfg.Persistence.Namespace)
		assert.Equal(t, "billy", cfg.Persistence.Backend)
		assert.Equal(t, DefaultNodeLimit, cfg.NodeLimit)
	})
	t.Run("File error", func(t *testing.T) {
		t.Parallel()
		_, err := NewConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
	})
}

// Not parallel: t.Setenv mutates process state.
func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SANDFS_NAMESPACE", "env_ns")
	t.Setenv("SANDFS_NODE_LIMIT", "42")
	t.Setenv("SANDFS_COMPRESS", "true")

	override, err := LoadEnvOverride()
	require.NoError(t, err)

	require.NotNil(t, override.Namespace)
	assert.Equal(t, "env_ns", *override.Namespace)
	require.NotNil(t, override.NodeLimit)
	assert.Equal(t, 42, *override.NodeLimit)
	require.NotNil(t, override.Compress)
	assert.True(t, *override.Compress)
	assert.Nil(t, override.Backend, "unset variables must stay nil")

	cfg := NewConfig(override)
	assert.Equal(t, 42, cfg.NodeLimit)
	assert.Equal(t, DefaultBackend, cfg.Persistence.Backend)
}

func TestLoadEnvOverride_BadValue(t *testing.T) {
	t.Setenv("SANDFS_NODE_LIMIT", "lots")

	_, err := LoadEnvOverride()
	require.Error(t, err)
}

func createDefaultCfg() *Config {
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

// createOverride makes a ConfigOverride with all non-default values
func createOverride() *ConfigOverride {
	testLogVerbose := TraceVerbose
	if DefaultLogLvl == util.TraceLevel {
		testLogVerbose = DebugVerbose
	}
	return &ConfigOverride{
		LogLvl:         util.Pointer(testLogVerbose),
		NodeLimit:      util.Pointer(DefaultNodeLimit + 1),
		MaxGlobPattern: util.Pointer(DefaultMaxGlobPattern + 1),
		Logging:        util.Pointer(!DefaultLogging),
		Namespace:      util.Pointer("test_ns"),
		Backend:        util.Pointer("minio"),
		Dir:            util.Pointer("/tmp/sandfs"),
		Compress:       util.Pointer(!DefaultCompress),
		Endpoint:       util.Pointer("localhost:9000"),
		Bucket:         util.Pointer("snapshots"),
		AccessKey:      util.Pointer("access"),
		SecretKey:      util.Pointer("secret"),
		UseSSL:         util.Pointer(!DefaultUseSSL),
		Prefix:         util.Pointer("sandfs/"),
		FsName:         util.Pointer("test_fs"),
		Name:           util.Pointer("test_name"),
		Debug:          util.Pointer(true),
	}
}
