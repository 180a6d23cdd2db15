// Package settings stores xckit user credentials in the XDG config
// directory:
//
//	$XDG_CONFIG_HOME/xckit/credentials.yaml  (default: ~/.config/xckit/)
//
// The file maps provider ids to API keys and is written with 0600
// permissions.
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. OPENAI_API_KEY environment variable (possibly via .env)
//  3. This credential store
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName = "xckit"
	fileName      = "credentials.yaml"
)

// Store maps provider ids to API keys.
type Store map[string]string

// configDir returns the XDG config directory for xckit, respecting
// $XDG_CONFIG_HOME with a ~/.config fallback.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, configDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", configDirName), nil
}

func filePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the credentials file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// Load reads the credential store. A missing or unreadable file yields an
// empty store; credentials are always optional.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := yaml.Unmarshal(data, &store); err != nil {
		return make(Store)
	}
	if store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(store)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	return nil
}

// GetAPIKey retrieves the stored API key for a provider, or "".
func GetAPIKey(providerID string) string {
	return Load()[providerID]
}

// SetAPIKey stores an API key for a provider (upsert).
func SetAPIKey(providerID, key string) error {
	store := Load()
	store[providerID] = key
	return Save(store)
}

// Remove deletes the stored key for a provider.
func Remove(providerID string) error {
	store := Load()
	if _, ok := store[providerID]; !ok {
		return nil
	}
	delete(store, providerID)
	return Save(store)
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
