package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateArgument(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		wantErr bool
	}{
		{"plain flag", "--stdin", false},
		{"style flag", "--style=compressed", false},
		{"command injection semicolon", "sass; rm -rf /", true},
		{"command injection pipe", "lessc | cat /etc/passwd", true},
		{"command injection backtick", "sass`whoami`", true},
		{"subshell", "file$(whoami).txt", true},
		{"path traversal", "../../../bin/sh", true},
		{"absolute path outside bin dirs", "/home/user/sass", true},
		{"system binary", "/usr/bin/sass", false},
		{"local binary", "/usr/local/bin/lessc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArgument(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	allowed := map[string]bool{"sass": true, "lessc": true}

	tests := []struct {
		name    string
		command string
		wantErr bool
	}{
		{"allowed sass", "sass", false},
		{"allowed lessc", "lessc", false},
		{"allowed by base name", "/usr/local/bin/sass", false},
		{"empty", "", true},
		{"not allowed", "node", true},
		{"allowed name in odd dir", "/tmp/sass", true},
		{"injection", "sass;ls", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommand(tt.command, allowed)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOrigin(t *testing.T) {
	allowed := []string{"localhost:8080", "http://127.0.0.1:8080"}

	tests := []struct {
		name    string
		origin  string
		wantErr bool
	}{
		{"host match", "http://localhost:8080", false},
		{"exact match", "http://127.0.0.1:8080", false},
		{"https host match", "https://localhost:8080", false},
		{"empty", "", true},
		{"foreign", "http://evil.example", true},
		{"bad scheme", "file://localhost:8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrigin(tt.origin, allowed)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://unpkg.com"))
	assert.NoError(t, ValidateURL("https://unpkg.com/react@17/umd/react.production.min.js"))
	assert.Error(t, ValidateURL("javascript:alert(1)"))
	assert.Error(t, ValidateURL("https://unpkg.com/\"><script>"))
	assert.Error(t, ValidateURL("https:///nohost"))
	assert.Error(t, ValidateURL("https://unpkg.com/a b"))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "ab", SanitizeInput("a\x00b"))
	assert.Equal(t, "a\tb\nc", SanitizeInput("a\tb\nc\x07"))
	assert.Equal(t, "émoji ✓", SanitizeInput("émoji ✓"))
}
