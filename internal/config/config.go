// Package config loads and persists the CLI's settings as JSON under
// the user's config directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"car-identifier/pkg/batch"
	"car-identifier/pkg/types"
)

// Config holds every persisted setting.
type Config struct {
	Backend      string `json:"backend"`
	ServerURL    string `json:"server_url"`
	Model        string `json:"model"`
	HighFidelity bool   `json:"high_fidelity"`
	Enhanced     bool   `json:"enhanced"`
	Verify       bool   `json:"verify"`
	Embed        bool   `json:"embed"`
	Existing     string `json:"existing"`
	Recursive    bool   `json:"recursive"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		Backend:      "ollama",
		ServerURL:    "http://localhost:11434",
		Model:        "qwen2.5vl:32b-q4_K_M",
		HighFidelity: true,
		Enhanced:     false,
		Verify:       true,
		Embed:        true,
		Existing:     string(batch.PolicySkip),
		Recursive:    true,
	}
}

// Prefs extracts the identification preferences.
func (c Config) Prefs() types.Prefs {
	return types.Prefs{
		HighFidelity: c.HighFidelity,
		Enhanced:     c.Enhanced,
		Verify:       c.Verify,
	}
}

// Validate checks the fields that have a closed set of values.
func (c Config) Validate() error {
	switch c.Backend {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown backend %q (want ollama or openai)", c.Backend)
	}
	if c.ServerURL == "" {
		return fmt.Errorf("server URL must not be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if _, err := batch.ParsePolicy(c.Existing); err != nil {
		return err
	}
	return nil
}

// LoadFromFile reads and validates a config file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SaveToFile writes the config as indented JSON, creating parent
// directories as needed.
func SaveToFile(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetConfigPath returns the default config file location.
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".config", "car-identifier", "config.json")
}
