package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns ~/.venuefed/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".venuefed", "config.yaml"), nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values. Returns false if the file doesn't exist
// (not an error). Returns error if the file exists but cannot be parsed.
func LoadFile(path string, cfg *Config) (bool, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil // File doesn't exist -- not an error
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse into a copy so a bad file leaves cfg untouched
	parsed := *cfg
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return false, fmt.Errorf("failed to parse config file: %w", err)
	}

	*cfg = parsed
	return true, nil
}

// LoadConfigFile overlays ~/.venuefed/config.yaml onto cfg if it exists.
func LoadConfigFile(cfg *Config) (bool, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return false, err
	}

	return LoadFile(path, cfg)
}
