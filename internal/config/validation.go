package config

import (
	"fmt"
	"net"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/conneroisu/mobilcoder/internal/logging"
	"github.com/conneroisu/mobilcoder/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    - %s\n", suggestion))
			}
		}
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    - %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ScriptTargets lists the accepted values of compilers.target.
var ScriptTargets = []string{
	"es5", "es2015", "es2016", "es2017", "es2018", "es2019", "es2020", "es2021", "es2022", "esnext",
}

// Validate checks a configuration whose defaults have been applied.
// Missing style engines are only warnings: the affected dialects degrade to
// an inline error comment at compile time.
func Validate(config *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateServerConfig(&config.Server, result)
	validateStorageConfig(&config.Storage, result)
	validateCompilersConfig(&config.Compilers, result)
	validatePreviewConfig(&config.Preview, result)
	validateRegistryConfig(&config.Registry, result)
	validateLogConfig(&config.Log, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateServerConfig(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
		})
	}

	if err := validateHostname(config.Host); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.host",
			Value:   config.Host,
			Message: err.Error(),
			Suggestions: []string{
				"Use 'localhost' for local development",
				"Use '0.0.0.0' to bind to all interfaces",
			},
		})
	}

	if config.ShutdownTimeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.shutdown_timeout",
			Value:   config.ShutdownTimeout,
			Message: "shutdown timeout cannot be negative",
		})
	}
}

func validateStorageConfig(config *StorageConfig, result *ValidationResult) {
	switch config.Driver {
	case DriverSQLite:
		if err := validatePath(config.Path); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "storage.path",
				Value:   config.Path,
				Message: err.Error(),
				Suggestions: []string{
					"Use a relative path like '.mobilcoder/projects.db'",
				},
			})
		}
	case DriverMemory:
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "storage.driver",
			Value:   config.Driver,
			Message: "projects are kept in memory and lost on exit",
		})
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "storage.driver",
			Value:   config.Driver,
			Message: fmt.Sprintf("unknown storage driver '%s'", config.Driver),
			Suggestions: []string{
				"Available drivers: " + DriverSQLite + ", " + DriverMemory,
			},
		})
	}
}

func validateCompilersConfig(config *CompilersConfig, result *ValidationResult) {
	if !contains(ScriptTargets, strings.ToLower(config.Target)) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "compilers.target",
			Value:   config.Target,
			Message: fmt.Sprintf("unknown script target '%s'", config.Target),
			Suggestions: []string{
				"Available targets: " + strings.Join(ScriptTargets, ", "),
			},
		})
	}

	engines := []struct {
		field   string
		command string
		dialect string
	}{
		{"compilers.sass_command", config.SassCommand, "sass and scss"},
		{"compilers.less_command", config.LessCommand, "less"},
	}
	for _, engine := range engines {
		if err := validation.ValidateArgument(engine.command); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   engine.field,
				Value:   engine.command,
				Message: err.Error(),
			})
			continue
		}
		if _, err := exec.LookPath(engine.command); err != nil {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   engine.field,
				Value:   engine.command,
				Message: fmt.Sprintf("%s not found on PATH, %s panes will show a compile error", engine.command, engine.dialect),
				Suggestions: []string{
					"Install it with 'npm install -g sass less'",
				},
			})
		}
	}

	if config.Timeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "compilers.timeout",
			Value:   config.Timeout,
			Message: "timeout cannot be negative",
		})
	}

	urls := []struct {
		field string
		url   string
	}{
		{"compilers.react_url", config.ReactURL},
		{"compilers.react_dom_url", config.ReactDOMURL},
	}
	for _, u := range urls {
		if err := validation.ValidateURL(u.url); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   u.field,
				Value:   u.url,
				Message: err.Error(),
			})
		}
	}
}

func validatePreviewConfig(config *PreviewConfig, result *ValidationResult) {
	if config.Debounce < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "preview.debounce",
			Value:   config.Debounce,
			Message: "debounce cannot be negative",
		})
	}
}

func validateRegistryConfig(config *RegistryConfig, result *ValidationResult) {
	if err := validation.ValidateURL(config.URL); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "registry.url",
			Value:   config.URL,
			Message: err.Error(),
			Suggestions: []string{
				"Use a package CDN such as " + DefaultRegistryURL,
			},
		})
	}
	if config.RequestsPerSecond < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "registry.requests_per_second",
			Value:   config.RequestsPerSecond,
			Message: "rate cannot be negative",
		})
	}
	if config.Burst < 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "registry.burst",
			Value:   config.Burst,
			Message: "burst must be at least 1",
		})
	}
}

func validateLogConfig(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.level",
			Value:   config.Level,
			Message: err.Error(),
			Suggestions: []string{
				"Use one of debug, info, warn, error",
			},
		})
	}
	if config.Format != "text" && config.Format != "json" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.format",
			Value:   config.Format,
			Message: fmt.Sprintf("unknown log format '%s'", config.Format),
			Suggestions: []string{
				"Use 'text' or 'json'",
			},
		})
	}
}

// Helper validation functions

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "?"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
