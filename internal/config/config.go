package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alevsk/sass-inject/internal/variables"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	SassInjectConfigPathEnvVar = "SASS_INJECT_CONFIG_PATH" // Environment variable for config path
	envPrefix                  = "SASS_INJECT"
)

// Source modes
const (
	ModeBuffer = "buffer"
	ModeStream = "stream"
)

// ErrInvalidMode is returned for an unknown source mode
var ErrInvalidMode = errors.New("invalid source mode")

// Config holds all configuration for the application
type Config struct {
	// Debug enables verbose logging and additional debug information
	Debug bool `mapstructure:"debug"`

	// Variables are injected into every file. They are decoded from the
	// config file directly so key case and order survive.
	Variables *variables.Map `mapstructure:"-"`
	// VariablesFile is an optional YAML or JSON file merged over Variables
	VariablesFile string `mapstructure:"variables_file"`
	// Files is accepted for compatibility and does not restrict injection
	Files []string `mapstructure:"files"`

	// Source configuration
	Source struct {
		Extensions     []string `mapstructure:"extensions"`
		FollowSymlinks bool     `mapstructure:"follow_symlinks"`
		Mode           string   `mapstructure:"mode"`
	} `mapstructure:"source"`

	// Output configuration
	Output struct {
		Dir    string `mapstructure:"dir"`
		Format string `mapstructure:"format"`
	} `mapstructure:"output"`

	// Server configuration
	Server struct {
		Host     string        `mapstructure:"host"`
		Port     int           `mapstructure:"port"`
		Timeout  time.Duration `mapstructure:"timeout"`
		LogLevel string        `mapstructure:"log_level"`
	} `mapstructure:"server"`

	// Watch configuration
	Watch struct {
		Debounce time.Duration `mapstructure:"debounce"`
	} `mapstructure:"watch"`
}

// Load initializes and returns the configuration from all sources:
// 1. Command-line flags (highest priority)
// 2. Environment variables (prefixed with SASS_INJECT_, a .env file is honored)
// 3. Configuration file (lowest priority)
func Load(configPath string) (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	// Check for environment variable config path if not explicitly provided
	if configPath == "" {
		if envPath := os.Getenv(SassInjectConfigPathEnvVar); envPath != "" {
			if _, err := os.Stat(envPath); os.IsNotExist(err) {
				return nil, fmt.Errorf("config file specified in %s not found: %s", SassInjectConfigPathEnvVar, envPath)
			}
			configPath = envPath
		}
	} else {
		// Verify explicitly provided config file exists
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
	}
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config.yml in the current directory
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Read environment variables
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	// Replace dots with underscores in env vars
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		} else if configPath != "" {
			// Only error if config file was explicitly specified
			return nil, fmt.Errorf("specified config file not found: %s", configPath)
		}
		// If no config file was specified, we'll use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	vars, err := loadVariables(v.ConfigFileUsed())
	if err != nil {
		return nil, err
	}
	config.Variables = vars

	return &config, nil
}

// Validate checks the values viper cannot check by type
func (c *Config) Validate() error {
	return ValidateMode(c.Source.Mode)
}

// ValidateMode checks that mode names a known source mode
func ValidateMode(mode string) error {
	switch mode {
	case ModeBuffer, ModeStream:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected %s or %s)", ErrInvalidMode, mode, ModeBuffer, ModeStream)
	}
}

// ResolveVariables returns the config file variables with VariablesFile
// merged over them.
func (c *Config) ResolveVariables() (*variables.Map, error) {
	vars := variables.Merge(nil, c.Variables)
	if c.VariablesFile == "" {
		return vars, nil
	}
	fromFile, err := variables.Load(c.VariablesFile)
	if err != nil {
		return nil, err
	}
	return variables.Merge(vars, fromFile), nil
}

// loadVariables decodes the `variables` key of the config file in document
// order. viper lowercases keys and loses their order, so it is not used here.
func loadVariables(path string) (*variables.Map, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml", ".json":
	default:
		return variables.NewMap(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return variables.NewMap(), nil
		}
		return nil, fmt.Errorf("error reading variables: %w", err)
	}

	var doc struct {
		Variables *variables.Map `yaml:"variables"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error reading variables: %w", err)
	}
	if doc.Variables == nil {
		return variables.NewMap(), nil
	}
	return doc.Variables, nil
}

// setDefaults sets default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("variables_file", "")
	v.SetDefault("files", []string{})

	// Source defaults
	v.SetDefault("source.extensions", []string{".scss", ".sass"})
	v.SetDefault("source.follow_symlinks", false)
	v.SetDefault("source.mode", ModeBuffer)

	// Output defaults
	v.SetDefault("output.dir", "dist")
	v.SetDefault("output.format", "table")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.log_level", "info")

	// Watch defaults
	v.SetDefault("watch.debounce", "200ms")
}
