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
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the pxdb configuration
type Config struct {
	Export  Export  `yaml:"export"`
	Decode  Decode  `yaml:"decode"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Export controls how values are rendered to text by the export sinks
type Export struct {
	DateFormat       string `yaml:"date_format"`
	TimeFormat       string `yaml:"time_format"`
	TimestampFormat  string `yaml:"timestamp_format"`
	CurrencyDecimals int    `yaml:"currency_decimals"`
	NumberDecimals   int    `yaml:"number_decimals"`
	NullText         string `yaml:"null_text"`
}

// Decode contains table decoding options
type Decode struct {
	CodePage int    `yaml:"code_page"` // 0 = use the table header
	Layout   string `yaml:"layout"`    // auto, linked or packed
}

// Server contains inspection server configuration
type Server struct {
	Bind   string `yaml:"bind"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // empty disables authentication
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Export: Export{
			DateFormat:       "YYYY-MM-DD",
			TimeFormat:       "HH:MI:SS",
			TimestampFormat:  "YYYY-MM-DD HH:MI:SS",
			CurrencyDecimals: 2,
			NumberDecimals:   6,
			NullText:         "",
		},
		Decode: Decode{
			Layout: "auto",
		},
		Server: Server{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks values that cannot be caught by YAML decoding
func (c *Config) Validate() error {
	switch strings.ToLower(c.Decode.Layout) {
	case "", "auto", "linked", "packed":
	default:
		return fmt.Errorf("decode.layout must be auto, linked or packed, got %q", c.Decode.Layout)
	}
	if c.Decode.CodePage < 0 {
		return fmt.Errorf("decode.code_page must not be negative")
	}
	if c.Export.CurrencyDecimals < 0 || c.Export.NumberDecimals < 0 {
		return fmt.Errorf("export decimals must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
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
		return nil, fmt.Errorf("invalid config file: %w", err)
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

	// 0600 because the file may hold the server API key
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

// BootstrapConfig writes a default configuration to configPath. When
// withAPIKey is set a random server API key is generated.
func BootstrapConfig(configPath string, withAPIKey bool) (*Config, error) {
	config := DefaultConfig()

	if withAPIKey {
		key, err := GenerateSecureKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate API key: %w", err)
		}
		config.Server.APIKey = key
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./pxdb.yaml"
	}

	// For Linux/macOS, use ~/.config/pxdb/config.yaml
	return filepath.Join(homeDir, ".config", "pxdb", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
