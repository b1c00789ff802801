// Package config provides configuration management for mobilcoder using
// Viper for loading from files, environment variables and command-line flags.
//
// The configuration covers the preview server, the project store, the
// dialect compilers, live preview behaviour, the package registry probe and
// logging. Environment variables use the MOBILCODER_ prefix.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/mobilcoder/internal/errors"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Compilers CompilersConfig `mapstructure:"compilers" yaml:"compilers"`
	Preview   PreviewConfig   `mapstructure:"preview" yaml:"preview"`
	Registry  RegistryConfig  `mapstructure:"registry" yaml:"registry"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	Host            string        `mapstructure:"host" yaml:"host"`
	Open            bool          `mapstructure:"open" yaml:"open"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
}

type CompilersConfig struct {
	// Target is the script syntax level handed to the transpiler
	Target         string        `mapstructure:"target" yaml:"target"`
	SassCommand    string        `mapstructure:"sass_command" yaml:"sass_command"`
	LessCommand    string        `mapstructure:"less_command" yaml:"less_command"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CompressStyles bool          `mapstructure:"compress_styles" yaml:"compress_styles"`
	ReactURL       string        `mapstructure:"react_url" yaml:"react_url"`
	ReactDOMURL    string        `mapstructure:"react_dom_url" yaml:"react_dom_url"`
}

type PreviewConfig struct {
	// Debounce coalesces bursts of edits into one sandbox render. Zero
	// renders on every edit.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type RegistryConfig struct {
	URL               string        `mapstructure:"url" yaml:"url"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default values applied to unset fields.
const (
	DefaultPort        = 8080
	DefaultHost        = "localhost"
	DefaultStorePath   = ".mobilcoder/projects.db"
	DefaultTarget      = "es2017"
	DefaultReactURL    = "https://unpkg.com/react@17/umd/react.production.min.js"
	DefaultRegistryURL = "https://unpkg.com"
)

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// envKeys are bound explicitly so environment variables are seen even
// when neither a file nor a flag mentions the key.
var envKeys = []string{
	"server.port", "server.host", "server.open", "server.allowed_origins", "server.shutdown_timeout",
	"storage.driver", "storage.path",
	"compilers.target", "compilers.sass_command", "compilers.less_command", "compilers.timeout",
	"compilers.compress_styles", "compilers.react_url", "compilers.react_dom_url",
	"preview.debounce",
	"registry.url", "registry.requests_per_second", "registry.burst", "registry.timeout",
	"log.level", "log.format",
}

// LoadFrom unmarshals, fills in defaults and validates.
func LoadFrom(v *viper.Viper) (*Config, error) {
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	result := Validate(&config)
	if result.HasErrors() {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "invalid configuration", &result.Errors[0])
	}

	return &config, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	var config Config
	applyDefaults(&config)
	return &config
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = DefaultPort
	}
	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 5 * time.Second
	}

	if config.Storage.Driver == "" {
		config.Storage.Driver = DriverSQLite
	}
	config.Storage.Driver = strings.ToLower(config.Storage.Driver)
	if config.Storage.Path == "" {
		config.Storage.Path = DefaultStorePath
	}

	if config.Compilers.Target == "" {
		config.Compilers.Target = DefaultTarget
	}
	if config.Compilers.SassCommand == "" {
		config.Compilers.SassCommand = "sass"
	}
	if config.Compilers.LessCommand == "" {
		config.Compilers.LessCommand = "lessc"
	}
	if config.Compilers.Timeout == 0 {
		config.Compilers.Timeout = 10 * time.Second
	}
	if config.Compilers.ReactURL == "" {
		config.Compilers.ReactURL = DefaultReactURL
	}
	if config.Compilers.ReactDOMURL == "" {
		config.Compilers.ReactDOMURL = strings.ReplaceAll(config.Compilers.ReactURL, "react", "react-dom")
	}

	if config.Registry.URL == "" {
		config.Registry.URL = DefaultRegistryURL
	}
	config.Registry.URL = strings.TrimRight(config.Registry.URL, "/")
	if config.Registry.RequestsPerSecond == 0 {
		config.Registry.RequestsPerSecond = 2
	}
	if config.Registry.Burst == 0 {
		config.Registry.Burst = 4
	}
	if config.Registry.Timeout == 0 {
		config.Registry.Timeout = 10 * time.Second
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// Address returns the listen address of the preview server.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins returns the origins accepted on the websocket endpoint: the
// configured ones plus the server's own address.
func (c *ServerConfig) Origins() []string {
	origins := []string{c.Address(), fmt.Sprintf("localhost:%d", c.Port), fmt.Sprintf("127.0.0.1:%d", c.Port)}
	return append(origins, c.AllowedOrigins...)
}
