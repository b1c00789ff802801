package errors

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// CompileDiagnostic records a pane whose sub-compile failed. The pane's
// output degrades to an inline message; the diagnostic is what the caller
// gets to log or display next to the document.
type CompileDiagnostic struct {
	Role      string        `json:"role"`
	Dialect   string        `json:"dialect"`
	Message   string        `json:"message"`
	Severity  ErrorSeverity `json:"severity"`
	Timestamp time.Time     `json:"timestamp"`
}

// ErrorSeverity represents the severity of a diagnostic
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the severity by name.
func (s ErrorSeverity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Error implements the error interface
func (d *CompileDiagnostic) Error() string {
	return fmt.Sprintf("%s (%s): %s: %s", d.Role, d.Dialect, d.Severity, d.Message)
}

// DiagnosticCollector gathers the diagnostics of one compile. Panes compile
// concurrently, so it is safe for concurrent use.
type DiagnosticCollector struct {
	diagnostics []CompileDiagnostic
	mutex       sync.Mutex
}

// NewDiagnosticCollector creates a new collector
func NewDiagnosticCollector() *DiagnosticCollector {
	return &DiagnosticCollector{
		diagnostics: make([]CompileDiagnostic, 0),
	}
}

// Add records a diagnostic
func (dc *DiagnosticCollector) Add(d CompileDiagnostic) {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	dc.diagnostics = append(dc.diagnostics, d)
}

// Failure records an error-level diagnostic for a pane
func (dc *DiagnosticCollector) Failure(role, dialect string, err error) {
	dc.Add(CompileDiagnostic{
		Role:     role,
		Dialect:  dialect,
		Message:  err.Error(),
		Severity: ErrorSeverityError,
	})
}

// Diagnostics returns a copy of everything collected, ordered by role so the
// result does not depend on which pane finished first
func (dc *DiagnosticCollector) Diagnostics() []CompileDiagnostic {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	result := make([]CompileDiagnostic, len(dc.diagnostics))
	copy(result, dc.diagnostics)
	sortByRole(result)
	return result
}

// HasErrors returns true if any pane failed
func (dc *DiagnosticCollector) HasErrors() bool {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	for _, d := range dc.diagnostics {
		if d.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

var roleOrder = map[string]int{"html": 0, "md": 1, "css": 2, "js": 3}

func sortByRole(ds []CompileDiagnostic) {
	for i := 1; i < len(ds); i++ {
		for j := i; j > 0 && roleOrder[ds[j].Role] < roleOrder[ds[j-1].Role]; j-- {
			ds[j], ds[j-1] = ds[j-1], ds[j]
		}
	}
}

// CommentSafe neutralises every comment terminator in text so it can sit
// inside a /* */ block without ending it early.
func CommentSafe(text string) string {
	for strings.Contains(text, "*/") {
		text = strings.ReplaceAll(text, "*/", "* /")
	}
	return text
}

// InlineComment renders an error message as an inert block comment. End tags
// are broken up as well since the comment lives inside a raw text element.
func InlineComment(message string) string {
	return "/* " + strings.ReplaceAll(CommentSafe(message), "</", "< /") + " */"
}

// ConsoleError renders an error message as a script statement that reports it
// through the sandbox console. json.Marshal escapes '<' and '>', so the
// message cannot close the surrounding script element either.
func ConsoleError(message string) string {
	encoded, err := json.Marshal(message)
	if err != nil {
		encoded = []byte(`"compile error"`)
	}
	return "console.error(" + string(encoded) + ");"
}
