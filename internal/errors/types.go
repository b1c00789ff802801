// Package errors provides the structured error model of mobilcoder: typed
// errors with codes for everything that reaches a caller, and compile
// diagnostics for pane failures that are rendered into the output instead.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeCompile    ErrorType = "compile"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// PlaygroundError is a structured error type with context.
type PlaygroundError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
	Project string
	Role    string
}

// Error implements the error interface.
func (e *PlaygroundError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Project != "" {
		location := "project:" + e.Project
		if e.Role != "" {
			location += "/" + e.Role
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PlaygroundError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *PlaygroundError) Is(target error) bool {
	var t *PlaygroundError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PlaygroundError) WithContext(key string, value interface{}) *PlaygroundError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithProject adds project context.
func (e *PlaygroundError) WithProject(project string) *PlaygroundError {
	e.Project = project

	return e
}

// WithRole adds the pane the error belongs to.
func (e *PlaygroundError) WithRole(role string) *PlaygroundError {
	e.Role = role

	return e
}

// Error creation functions

// NewValidationError creates a validation error. Its message is meant to be
// shown to the user as is.
func NewValidationError(code, message string) *PlaygroundError {
	return &PlaygroundError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *PlaygroundError {
	return &PlaygroundError{
		Type:    ErrorTypeSecurity,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(code, message string) *PlaygroundError {
	return &PlaygroundError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewStorageError creates a storage error.
func NewStorageError(code, message string, cause error) *PlaygroundError {
	return &PlaygroundError{
		Type:    ErrorTypeStorage,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(code, message string, cause error) *PlaygroundError {
	return &PlaygroundError{
		Type:    ErrorTypeNetwork,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *PlaygroundError {
	return &PlaygroundError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PlaygroundError {
	return &PlaygroundError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// TypeOf returns the type of the first PlaygroundError in err's chain.
func TypeOf(err error) ErrorType {
	var pe *PlaygroundError
	if errors.As(err, &pe) {
		return pe.Type
	}

	return ""
}

// IsValidation checks if an error is a user input validation error.
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsNotFound checks if an error reports a missing project or resource.
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsSecurityError checks if an error is security-related.
func IsSecurityError(err error) bool {
	return TypeOf(err) == ErrorTypeSecurity
}

// IsStorage checks if an error comes from the project store.
func IsStorage(err error) bool {
	return TypeOf(err) == ErrorTypeStorage
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler provides centralized error logging.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level matching its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var pe *PlaygroundError
	if !errors.As(err, &pe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch pe.Type {
	case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeCompile:
		h.logger.Warn(ctx, err, "Request rejected",
			"type", pe.Type,
			"code", pe.Code,
			"project", pe.Project)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", pe.Type,
			"code", pe.Code,
			"project", pe.Project)
	}
}

// Common error codes.
const (
	ErrCodeNameRequired      = "ERR_NAME_REQUIRED"
	ErrCodeNameReserved      = "ERR_NAME_RESERVED"
	ErrCodeNameTaken         = "ERR_NAME_TAKEN"
	ErrCodeProjectNotFound   = "ERR_PROJECT_NOT_FOUND"
	ErrCodeNoActiveProject   = "ERR_NO_ACTIVE_PROJECT"
	ErrCodeInvalidRole       = "ERR_INVALID_ROLE"
	ErrCodeInvalidTheme      = "ERR_INVALID_THEME"
	ErrCodeStorageRead       = "ERR_STORAGE_READ"
	ErrCodeStorageWrite      = "ERR_STORAGE_WRITE"
	ErrCodeCommandInjection  = "ERR_COMMAND_INJECTION"
	ErrCodeInvalidOrigin     = "ERR_INVALID_ORIGIN"
	ErrCodeScriptTranspile   = "ERR_SCRIPT_TRANSPILE"
	ErrCodeStylePreprocess   = "ERR_STYLE_PREPROCESS"
	ErrCodeMarkupTransform   = "ERR_MARKUP_TRANSFORM"
	ErrCodeRegistryProbe     = "ERR_REGISTRY_PROBE"
	ErrCodeInvalidPackage    = "ERR_INVALID_PACKAGE"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeInternalError     = "ERR_INTERNAL"
)

// Helper functions for common errors

// ErrProjectNotFound reports a name with no stored project.
func ErrProjectNotFound(name string) *PlaygroundError {
	return NewNotFoundError(ErrCodeProjectNotFound, "project not found").WithProject(name)
}

// ErrNoActiveProject reports an operation that needs an open project.
func ErrNoActiveProject() *PlaygroundError {
	return NewValidationError(ErrCodeNoActiveProject, "no project is open")
}

// ErrCommandInjection creates a command injection security error.
func ErrCommandInjection(command string) *PlaygroundError {
	return NewSecurityError(ErrCodeCommandInjection, "command injection attempt: "+command)
}

// ErrInvalidOrigin creates an invalid origin security error.
func ErrInvalidOrigin(origin string) *PlaygroundError {
	return NewSecurityError(ErrCodeInvalidOrigin, "invalid origin: "+origin)
}
