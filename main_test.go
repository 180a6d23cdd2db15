package main

import (
	"os"
	"testing"
	"time"

	"github.com/minios-linux/xckit/config"
)

func TestResolveProvider_NoKey(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(config.EnvAPIKey, "")
	os.Unsetenv(config.EnvAPIKey)

	pf := providerFlags{provider: "openai"}
	if _, err := pf.resolveProvider(nil, false); err == nil {
		t.Fatal("resolveProvider() succeeded without a key, want error")
	}

	// A local endpoint needs no key.
	pf = providerFlags{provider: "openai", baseURL: "http://localhost:11434/v1"}
	if _, err := pf.resolveProvider(nil, false); err != nil {
		t.Fatalf("resolveProvider() with base URL: %v", err)
	}
}

func TestResolveProvider_FlagOrEnvKey(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(config.EnvAPIKey, "sk-from-env")

	pf := providerFlags{provider: "openai", apiKey: "sk-from-flag"}
	if _, err := pf.resolveProvider(nil, false); err != nil {
		t.Fatalf("resolveProvider() error: %v", err)
	}
	// The env key alone also satisfies resolution.
	pf = providerFlags{provider: "openai"}
	if _, err := pf.resolveProvider(nil, false); err != nil {
		t.Fatalf("resolveProvider() with env key: %v", err)
	}
}

func TestResolveProvider_ConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(config.EnvAPIKey, "sk-test")

	cfg := &config.File{
		Provider: config.Provider{
			Model:   "gpt-4o",
			BaseURL: "http://localhost:8080/v1",
			Timeout: "45s",
		},
	}

	pf := providerFlags{provider: "openai", timeout: 10 * time.Second}
	if _, err := pf.resolveProvider(cfg, false); err != nil {
		t.Fatalf("resolveProvider() error: %v", err)
	}
}

func TestEngineCallbacks(t *testing.T) {
	onLog, onError, onProgress := engineCallbacks(false)
	if onLog == nil || onError == nil {
		t.Error("log callbacks must always be set")
	}
	if onProgress != nil {
		t.Error("progress callback should be nil without verbose")
	}

	_, _, onProgress = engineCallbacks(true)
	if onProgress == nil {
		t.Error("progress callback should be set with verbose")
	}
}
