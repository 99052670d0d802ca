// Package errors provides custom error types for the globesync system.
// These errors enable better error handling, programmatic error checking,
// and improved debugging throughout the application.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the globesync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetchFailed indicates a dataset snapshot could not be fetched.
	// A fetch failure is recoverable: the cycle is skipped and the last
	// known good entity set is retained.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrAdapterViolation indicates the scene adapter failed an operation
	// assumed infallible. This is fatal for the affected cycle.
	ErrAdapterViolation = errors.New("scene adapter invariant violated")

	// ErrAlreadyInitialized indicates a second initialization of the scene
	// adapter binding
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrNotInitialized indicates use of the scene adapter before Init
	ErrNotInitialized = errors.New("not initialized")

	// ErrClosed indicates an operation on a client that has been closed
	ErrClosed = errors.New("closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrNoResult indicates a geocode query returned no matches
	ErrNoResult = errors.New("no geocode result")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// FetchError represents a failed attempt to fetch a dataset snapshot.
// It covers transport failures, non-success status codes, and malformed
// payloads. Callers must treat any FetchError as "no update this cycle",
// never as fatal.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch from %s failed (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch from %s failed: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// NewFetchError creates a new FetchError
func NewFetchError(endpoint string, statusCode int, message string) *FetchError {
	return &FetchError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// AdapterError represents a scene adapter operation that failed despite the
// adapter contract promising it cannot for well-formed input. The affected
// reconciliation cycle is aborted so the entity mappings are never corrupted.
type AdapterError struct {
	Operation string // "add", "remove", "init", "teardown", "flyto"
	RecordID  int64
	Err       error
}

// Error implements the error interface
func (e *AdapterError) Error() string {
	if e.RecordID != 0 {
		return fmt.Sprintf("scene adapter %s failed for record %d: %v", e.Operation, e.RecordID, e.Err)
	}
	return fmt.Sprintf("scene adapter %s failed: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AdapterError) Is(target error) bool {
	return target == ErrAdapterViolation
}

// NewAdapterError creates a new AdapterError
func NewAdapterError(operation string, recordID int64, err error) *AdapterError {
	return &AdapterError{Operation: operation, RecordID: recordID, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "geojson", "json", "yaml"
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("parse error in %s from %s: %s", e.Format, e.Source, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, source, message string, err error) *ParseError {
	return &ParseError{Format: format, Source: source, Message: message, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// GeocodeError represents a failed geocoding request
type GeocodeError struct {
	Query   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *GeocodeError) Error() string {
	return fmt.Sprintf("geocode of %q failed: %s", e.Query, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *GeocodeError) Unwrap() error {
	return e.Err
}

// NewGeocodeError creates a new GeocodeError
func NewGeocodeError(query, message string, err error) *GeocodeError {
	return &GeocodeError{Query: query, Message: message, Err: err}
}

// StoreError represents an error during backing-store operations
type StoreError struct {
	Operation string // "query", "exec", "open", "migrate"
	Table     string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("store %s on %s failed: %v", e.Operation, e.Table, e.Err)
	}
	return fmt.Sprintf("store %s failed: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, table string, err error) *StoreError {
	return &StoreError{Operation: operation, Table: table, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsFetchError checks if an error is a recoverable fetch failure
func IsFetchError(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// IsAdapterViolation checks if an error is a fatal scene adapter failure
func IsAdapterViolation(err error) bool {
	return errors.Is(err, ErrAdapterViolation)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// Helper wrapping functions for common patterns

// WrapFetch wraps an error as a FetchError
func WrapFetch(endpoint string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, source string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, source, err.Error(), err)
}

// WrapStore wraps an error as a StoreError
func WrapStore(operation, table string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, table, err)
}

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}
