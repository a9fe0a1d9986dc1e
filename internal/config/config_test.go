package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alevsk/sass-inject/internal/variables"
)

func TestConfigPrecedence(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	configContent := []byte(`
debug: true
variables:
  primaryColor: "#336699"
  palette:
    light: white
    dark: black
  baseSize: 16px
files:
  - partials/
source:
  mode: stream
  extensions: [".scss"]
output:
  dir: "build/css"
  format: json
server:
  host: "127.0.0.1"
  port: 9090
  timeout: "1m"
  log_level: "debug"
`)
	if err := os.WriteFile(configPath, configContent, 0644); err != nil {
		t.Fatal(err)
	}

	// Set environment variables (should override config file)
	t.Setenv("SASS_INJECT_SERVER_PORT", "9091")
	t.Setenv("SASS_INJECT_OUTPUT_DIR", "env-out")

	// Load the configuration
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	// Test config file values
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Source.Mode != ModeStream {
		t.Errorf("expected mode stream, got %s", cfg.Source.Mode)
	}
	if len(cfg.Files) != 1 || cfg.Files[0] != "partials/" {
		t.Errorf("expected files [partials/], got %v", cfg.Files)
	}

	// Test environment variable override
	if cfg.Server.Port != 9091 {
		t.Errorf("expected port 9091, got %d", cfg.Server.Port)
	}
	if cfg.Output.Dir != "env-out" {
		t.Errorf("expected output dir env-out, got %s", cfg.Output.Dir)
	}

	// Test duration parsing
	expectedTimeout := time.Minute
	if cfg.Server.Timeout != expectedTimeout {
		t.Errorf("expected timeout %v, got %v", expectedTimeout, cfg.Server.Timeout)
	}

	// Variables keep their case and order
	want := "$primaryColor: #336699;\n$palette: (\nlight: white,\ndark: black,\n);\n$baseSize: 16px;"
	if got := variables.Serialize(cfg.Variables); got != want {
		t.Errorf("expected variables %q, got %q", want, got)
	}
}

func TestDefaultValues(t *testing.T) {
	// Load config without any file or env vars
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	// Test default values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.Server.LogLevel)
	}
	if cfg.Source.Mode != ModeBuffer {
		t.Errorf("expected mode buffer, got %s", cfg.Source.Mode)
	}
	if len(cfg.Source.Extensions) != 2 {
		t.Errorf("expected 2 default extensions, got %v", cfg.Source.Extensions)
	}
	if cfg.Output.Dir != "dist" || cfg.Output.Format != "table" {
		t.Errorf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.Watch.Debounce != 200*time.Millisecond {
		t.Errorf("expected debounce 200ms, got %v", cfg.Watch.Debounce)
	}
	if !variables.IsEmpty(cfg.Variables) {
		t.Errorf("expected no variables, got %v", cfg.Variables.Keys())
	}
}

func TestConfigFileValidation(t *testing.T) {
	// Test non-existent config file
	_, err := Load("nonexistent.yml")
	if err == nil {
		t.Error("expected error for non-existent config file")
	}

	// Test invalid config file path
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid/config.yml")
	_, err = Load(configPath)
	if err == nil {
		t.Error("expected error for invalid config file path")
	}

	// Test env var pointing to a missing file
	t.Setenv(SassInjectConfigPathEnvVar, filepath.Join(tmpDir, "missing.yml"))
	if _, err := Load(""); err == nil {
		t.Error("expected error for missing config file from env")
	}
}

func TestInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	configContent := []byte(`
server:
  port: "invalid"
`)
	if err := os.WriteFile(configPath, configContent, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestInvalidMode(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	if err := os.WriteFile(configPath, []byte("source:\n  mode: lazy\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid mode")
	}
	if !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
}

func TestValidateMode(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{ModeBuffer, false},
		{ModeStream, false},
		{"", true},
		{"Stream", true},
		{"lazy", true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			err := ValidateMode(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMode(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMode) {
				t.Errorf("expected ErrInvalidMode, got %v", err)
			}
		})
	}
}

func TestNonMapVariables(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	if err := os.WriteFile(configPath, []byte("variables: [a, b]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !variables.IsEmpty(cfg.Variables) {
		t.Errorf("expected non-map variables to be empty, got %v", cfg.Variables.Keys())
	}
}

func TestResolveVariables(t *testing.T) {
	tmpDir := t.TempDir()
	varsPath := filepath.Join(tmpDir, "vars.json")
	if err := os.WriteFile(varsPath, []byte(`{"color": "blue", "extra": "1px"}`), 0644); err != nil {
		t.Fatal(err)
	}

	base, err := variables.ParseAssignments([]string{"color=red", "size=10"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := &Config{Variables: base, VariablesFile: varsPath}

	vars, err := cfg.ResolveVariables()
	if err != nil {
		t.Fatal(err)
	}
	want := "$color: blue;\n$size: 10;\n$extra: 1px;"
	if got := variables.Serialize(vars); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	// config variables are left untouched
	if got := variables.Serialize(cfg.Variables); got != "$color: red;\n$size: 10;" {
		t.Errorf("config variables were modified: %q", got)
	}

	cfg.VariablesFile = filepath.Join(tmpDir, "missing.yml")
	if _, err := cfg.ResolveVariables(); err == nil {
		t.Error("expected error for missing variables file")
	}
}
