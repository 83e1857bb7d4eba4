package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
)

// ErrCancelled reports that a load job was superseded or stopped before it
// finished. It is never surfaced to users as a failure.
var ErrCancelled = stdErrors.New("load cancelled")

// IsCancelled reports whether err stems from cooperative cancellation.
func IsCancelled(err error) bool {
	return stdErrors.Is(err, ErrCancelled) || stdErrors.Is(err, context.Canceled)
}

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigurationError reports an unusable input mode or path. No load job is
// armed when it is returned.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

// NewConfigurationError constructs a ConfigurationError.
func NewConfigurationError(field, message string, err error) error {
	return &ConfigurationError{Field: field, Message: message, Err: err}
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration: %s: %s", e.Field, msg)
	}
	return fmt.Sprintf("invalid configuration: %s", msg)
}

// Unwrap exposes the underlying error.
func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UnsupportedFormatError indicates that no registered decoder handles an extension.
type UnsupportedFormatError struct {
	Path      string
	Extension string
}

// NewUnsupportedFormatError constructs an UnsupportedFormatError.
func NewUnsupportedFormatError(path, extension string) error {
	return &UnsupportedFormatError{Path: path, Extension: extension}
}

func (e *UnsupportedFormatError) Error() string {
	if e == nil {
		return ""
	}
	ext := e.Extension
	if ext == "" {
		ext = "<none>"
	}
	return fmt.Sprintf("unsupported format: no decoder for extension %q (%s)", ext, e.Path)
}

// DecodeError wraps the diagnostic produced by a decoder that rejected its input.
type DecodeError struct {
	Path    string
	Decoder string
	Err     error
}

// NewDecodeError constructs a DecodeError.
func NewDecodeError(path, decoder string, err error) error {
	return &DecodeError{Path: path, Decoder: decoder, Err: err}
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Decoder != "" {
		return fmt.Sprintf("decode error [%s] %s: %v", e.Decoder, e.Path, e.Err)
	}
	return fmt.Sprintf("decode error %s: %v", e.Path, e.Err)
}

// Unwrap exposes the decoder diagnostic.
func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ItemFailure records one folder entry that was skipped during a batch load.
type ItemFailure struct {
	Path string
	Err  error
}

// BatchWarning aggregates per-item failures of a batch that still completed.
type BatchWarning struct {
	Skipped []ItemFailure
}

func (w *BatchWarning) Error() string {
	if w == nil || len(w.Skipped) == 0 {
		return ""
	}
	parts := make([]string, 0, len(w.Skipped))
	for _, item := range w.Skipped {
		parts = append(parts, item.Err.Error())
	}
	return fmt.Sprintf("%d item(s) skipped: %s", len(w.Skipped), strings.Join(parts, "; "))
}

// Unwrap exposes every skipped item's error so errors.Is/As can inspect them.
func (w *BatchWarning) Unwrap() []error {
	if w == nil {
		return nil
	}
	errs := make([]error, 0, len(w.Skipped))
	for _, item := range w.Skipped {
		errs = append(errs, item.Err)
	}
	return errs
}
