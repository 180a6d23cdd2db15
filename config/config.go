// Package config implements the optional .xckit.yaml run configuration and
// environment loading.
//
// When a .xckit.yaml file exists in the working directory it supplies
// defaults for target languages, concurrency, and provider settings.
// Command-line flags override file values, except needs_review: a true value
// in the file stays in effect whatever the --needs-review flag says.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file name.
const FileName = ".xckit.yaml"

// EnvAPIKey is the environment variable holding the provider API key.
const EnvAPIKey = "OPENAI_API_KEY"

// Provider holds provider defaults from the config file.
type Provider struct {
	// Model is the model identifier.
	Model string `yaml:"model,omitempty"`
	// BaseURL is an OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
	// Timeout is the per-request timeout as a duration string ("90s").
	Timeout string `yaml:"timeout,omitempty"`
	// Proxy is an HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty"`
}

// File is the top-level .xckit.yaml structure.
type File struct {
	// Languages is the default target-language list.
	Languages []string `yaml:"languages,omitempty"`
	// Concurrent bounds in-flight provider calls.
	Concurrent int `yaml:"concurrent,omitempty"`
	// NeedsReview marks fresh translations for review by default.
	NeedsReview bool `yaml:"needs_review,omitempty"`
	// Provider holds provider defaults.
	Provider Provider `yaml:"provider,omitempty"`
}

// Load reads and validates .xckit.yaml from the given directory.
// Returns nil when no config file exists.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if f.Concurrent < 0 {
		return nil, fmt.Errorf("%s: concurrent must not be negative", path)
	}
	if _, err := f.ProviderTimeout(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &f, nil
}

// ProviderTimeout parses the configured timeout. Zero means unset.
func (f *File) ProviderTimeout() (time.Duration, error) {
	if f.Provider.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.Provider.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid provider timeout %q: %w", f.Provider.Timeout, err)
	}
	return d, nil
}

// LoadEnv loads a .env file from the directory when one exists, so the API
// key can live next to the project. Already-set variables win.
func LoadEnv(dir string) {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// APIKeyFromEnv returns the API key from the environment.
func APIKeyFromEnv() string {
	return os.Getenv(EnvAPIKey)
}
