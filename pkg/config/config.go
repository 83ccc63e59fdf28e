/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/ecudatalog/pkg/opdl"
)

// Config represents the ecudl configuration
type Config struct {
	DataDir     string      `yaml:"data_dir"`
	Port        int         `yaml:"port"`
	Bind        string      `yaml:"bind"`
	Security    Security    `yaml:"security"`
	Logging     Logging     `yaml:"logging"`
	Compression Compression `yaml:"compression"`
	Datalog     Datalog     `yaml:"datalog"`
}

// Security contains security-related configuration
type Security struct {
	APIKey         string `yaml:"api_key"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// Compression controls how FlashPro logs are written into OPDL containers
type Compression struct {
	BlockSize    int  `yaml:"block_size"`
	StrictFooter bool `yaml:"strict_footer"`
}

// Datalog contains document decoding defaults
type Datalog struct {
	DefaultStoich  float64 `yaml:"default_stoich"`
	FaultCodeTable string  `yaml:"fault_code_table"` // optional YAML table replacing the built-in one
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    9300,
		Bind:    "127.0.0.1",
		Security: Security{
			MaxUploadBytes: opdl.MaxPayloadSize + 1,
		},
		Logging: Logging{
			Level: "info",
		},
		Compression: Compression{
			BlockSize:    opdl.DefaultBlockSize,
			StrictFooter: true,
		},
		Datalog: Datalog{
			DefaultStoich: 14.7,
		},
	}
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if !opdl.ValidBlockSize(c.Compression.BlockSize) {
		return fmt.Errorf("compression.block_size %d must be between 1 and 5", c.Compression.BlockSize)
	}
	if c.Datalog.DefaultStoich <= 0 {
		return fmt.Errorf("datalog.default_stoich must be positive, got %v", c.Datalog.DefaultStoich)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// the file holds the API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./ecudl.yaml"
	}

	// ~/.config/ecudl/config.yaml on Linux and macOS
	return filepath.Join(homeDir, ".config", "ecudl", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
