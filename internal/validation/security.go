// Package validation provides input validation for project names and for the
// external style engines the compiler shells out to.
package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/conneroisu/mobilcoder/internal/errors"
)

// ValidateArgument validates a command line argument to prevent injection attacks
func ValidateArgument(arg string) error {
	// Check for shell metacharacters that could be used for command injection
	dangerous := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\\", "\"", "'"}
	for _, char := range dangerous {
		if strings.Contains(arg, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if strings.Contains(arg, "..") {
		return fmt.Errorf("contains path traversal: %s", arg)
	}

	// Engines are looked up on PATH; absolute paths are only accepted from
	// the usual system and package manager locations.
	if filepath.IsAbs(arg) && !allowedBinaryDir(arg) {
		return fmt.Errorf("absolute path not allowed: %s", arg)
	}

	return nil
}

var binaryDirs = []string{"/usr/bin/", "/bin/", "/usr/local/bin/", "/opt/homebrew/bin/"}

func allowedBinaryDir(path string) bool {
	for _, dir := range binaryDirs {
		if strings.HasPrefix(path, dir) {
			return true
		}
	}
	return false
}

// ValidateCommand validates a command name against an allowlist. The
// allowlist is keyed by base name so "/usr/local/bin/sass" passes when
// "sass" is allowed.
func ValidateCommand(command string, allowedCommands map[string]bool) error {
	if command == "" {
		return fmt.Errorf("command cannot be empty")
	}

	if !allowedCommands[filepath.Base(command)] {
		return fmt.Errorf("command '%s' is not allowed", command)
	}

	if err := ValidateArgument(command); err != nil {
		return errors.ErrCommandInjection(command).WithContext("reason", err.Error())
	}

	return nil
}

// ValidateOrigin validates WebSocket origin for CSRF protection
func ValidateOrigin(origin string, allowedOrigins []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed || originURL.Host == allowed {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}

// SanitizeInput strips null bytes and control characters other than common
// whitespace from user input
func SanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var sanitized strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}

	return sanitized.String()
}
