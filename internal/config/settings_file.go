package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadSettingsFile overlays the YAML file at path onto config. Keys absent
// from the file keep their current values, and so does an empty api_key.
func LoadSettingsFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	apiKey := config.LLM.APIKey
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("invalid settings file %s: %w", path, err)
	}
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = apiKey
	}
	return nil
}

// WriteSettingsFile stores config as YAML at path, replacing any existing
// file atomically. The API key is left out.
func WriteSettingsFile(path string, config *Config) error {
	if err := config.validateSettings(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	out := *config
	out.LLM.APIKey = ""
	content, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
