// Package errors defines the failure classes of an appcast merge run.
// Each typed error matches its sentinel through errors.Is so callers can
// branch on the class without caring about the concrete type.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates missing or invalid arguments, or an input path that does not exist
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates that a document path does not exist
	ErrNotFound = errors.New("not found")

	// ErrParse indicates that a document is not well-formed or carries an unreadable date
	ErrParse = errors.New("parse error")

	// ErrStructure indicates that an expected container or namespace binding is absent
	ErrStructure = errors.New("structural assumption violated")

	// ErrVerification indicates that the rendered document did not survive a re-parse check
	ErrVerification = errors.New("verification failed")

	// ErrWrite indicates that the output document could not be persisted
	ErrWrite = errors.New("write failed")
)

// Is and As are re-exported so callers importing this package do not need
// the standard library one as well.
var (
	Is = errors.Is
	As = errors.As
)

type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func NewConfigurationError(field, message string, err error) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message, Err: err}
}

// NotFoundError reports a document path that does not exist.
type NotFoundError struct {
	Name string // human label, e.g. "Source XML"
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s does not exist at %s", e.Name, e.Path)
	}
	return fmt.Sprintf("%s does not exist", e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NewNotFoundError(name, path string) *NotFoundError {
	return &NotFoundError{Name: name, Path: path}
}

// ParseError reports malformed XML or an unreadable field value.
// Line is zero when the position is unknown.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	path := e.Path
	if path == "" {
		path = "<memory>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s at line %d: %v", path, e.Line, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func NewParseError(path string, line int, err error) *ParseError {
	return &ParseError{Path: path, Line: line, Err: err}
}

type StructureError struct {
	Path     string
	Expected string
}

func (e *StructureError) Error() string {
	path := e.Path
	if path == "" {
		path = "<memory>"
	}
	return fmt.Sprintf("unexpected document structure in %s: %s", path, e.Expected)
}

func (e *StructureError) Is(target error) bool {
	return target == ErrStructure
}

func NewStructureError(path, expected string) *StructureError {
	return &StructureError{Path: path, Expected: expected}
}

type VerificationError struct {
	Message string
	Err     error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rendered appcast failed verification: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("rendered appcast failed verification: %s", e.Message)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

func (e *VerificationError) Is(target error) bool {
	return target == ErrVerification
}

func NewVerificationError(message string, err error) *VerificationError {
	return &VerificationError{Message: message, Err: err}
}

type WriteError struct {
	Operation string // e.g. "create", "write", "rename"
	Path      string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}

func NewWriteError(operation, path string, err error) *WriteError {
	return &WriteError{Operation: operation, Path: path, Err: err}
}
