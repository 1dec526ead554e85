// config.go - Configuration management for the pool client
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the client configuration
type Config struct {
	// File paths
	LedgerPath string `json:"ledger_path"`
	WalletPath string `json:"wallet_path"`

	// Remote store; empty means the local ledger file is authoritative
	StoreURL string `json:"store_url"`

	// Protocol settings
	TokenTag        string   `json:"token_tag"`
	Denominations   []uint64 `json:"denominations"`
	RangeBits       int      `json:"range_bits"`
	MaxDecryptValue uint64   `json:"max_decrypt_value"`

	// Performance
	FetchWorkers   int `json:"fetch_workers"`
	TimeoutSeconds int `json:"timeout_seconds"`

	// Logging
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LedgerPath:      "ledger.json",
		WalletPath:      "wallet.json",
		StoreURL:        "",
		TokenTag:        "STRK",
		Denominations:   []uint64{1000000, 100000, 10000, 1000, 100, 10, 1},
		RangeBits:       32,
		MaxDecryptValue: 1 << 20,
		FetchWorkers:    10,
		TimeoutSeconds:  30,
		LogLevel:        "info",
	}
}

// LoadConfig loads configuration from file or creates the default
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		return &config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.RangeBits <= 0 || c.RangeBits > 64 {
		return fmt.Errorf("range_bits must be in 1..64")
	}
	if c.MaxDecryptValue == 0 {
		return fmt.Errorf("max_decrypt_value must be positive")
	}
	if c.FetchWorkers <= 0 {
		return fmt.Errorf("fetch_workers must be positive")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	if len(c.Denominations) == 0 {
		return fmt.Errorf("denominations must not be empty")
	}
	for _, d := range c.Denominations {
		if d == 0 {
			return fmt.Errorf("denominations must be positive")
		}
	}
	return nil
}
