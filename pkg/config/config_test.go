package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, 9300, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Empty(t, config.Security.APIKey)
	assert.Equal(t, int64(1<<24), config.Security.MaxUploadBytes)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, 5, config.Compression.BlockSize)
	assert.True(t, config.Compression.StrictFooter)
	assert.Equal(t, 14.7, config.Datalog.DefaultStoich)
	assert.NoError(t, config.Validate())
}

func TestGenerateSecureKey(t *testing.T) {
	t.Run("generate 32 byte key", func(t *testing.T) {
		key, err := GenerateSecureKey(32)
		require.NoError(t, err)
		assert.Len(t, key, 64)

		_, err = hex.DecodeString(key)
		assert.NoError(t, err)
	})

	t.Run("generate different keys", func(t *testing.T) {
		key1, err := GenerateSecureKey(16)
		require.NoError(t, err)
		key2, err := GenerateSecureKey(16)
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		expectedConfig := &Config{
			DataDir: "/custom/data",
			Port:    9000,
			Bind:    "0.0.0.0",
			Security: Security{
				APIKey:         "test-api-key",
				MaxUploadBytes: 4096,
			},
			Logging: Logging{
				Level: "debug",
			},
			Compression: Compression{
				BlockSize:    3,
				StrictFooter: false,
			},
			Datalog: Datalog{
				DefaultStoich:  9.0,
				FaultCodeTable: "/etc/ecudl/codes.yaml",
			},
		}

		require.NoError(t, SaveConfig(expectedConfig, configPath))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "partial.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("port: 9400\nlogging:\n  level: warn\n"), 0644))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, 9400, loadedConfig.Port)
		assert.Equal(t, "warn", loadedConfig.Logging.Level)
		assert.Equal(t, 5, loadedConfig.Compression.BlockSize)
		assert.True(t, loadedConfig.Compression.StrictFooter)
		assert.Equal(t, 14.7, loadedConfig.Datalog.DefaultStoich)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("block size outside container range", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("compression:\n  block_size: 9\n"), 0644))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "block_size")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative port", func(c *Config) { c.Port = -1 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"block size zero", func(c *Config) { c.Compression.BlockSize = 0 }},
		{"stoich zero", func(c *Config) { c.Datalog.DefaultStoich = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := DefaultConfig()

	require.NoError(t, SaveConfig(config, configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	dataDir := "/custom/data/dir"

	config, err := BootstrapConfig(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, config.DataDir)
	assert.Equal(t, 9300, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)

	assert.Len(t, config.Security.APIKey, 64)
	_, err = hex.DecodeString(config.Security.APIKey)
	assert.NoError(t, err)

	assert.True(t, ConfigExists(configPath))

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "ecudl")
}

func TestConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	require.NoError(t, os.WriteFile(existingPath, []byte("test"), 0644))

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestSaveConfigErrorHandling(t *testing.T) {
	// a regular file where a directory is needed
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := SaveConfig(DefaultConfig(), filepath.Join(blocker, "sub", "config.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}
