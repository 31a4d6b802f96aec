package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrConfiguration signals an invalid field reference, duplicate entry code
	// or unsupported indexing intent. Always raised before any backend call.
	ErrConfiguration = errors.New("configuration error")
	// ErrMappingProjection signals a failing output mapper.
	ErrMappingProjection = errors.New("mapping projection error")
	// ErrBackendExecution signals a failed batch or a failed batch entry.
	ErrBackendExecution = errors.New("backend execution error")
	// ErrNotFound signals a missing resource (unknown document type, index).
	ErrNotFound = errors.New("not found")
)

// ConfigurationError describes what was misconfigured.
type ConfigurationError struct {
	Subject string // offending field, facet or entry code
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Subject == "" {
		return ErrConfiguration.Error() + ": " + e.Reason
	}
	return fmt.Sprintf("%s: %q: %s", ErrConfiguration.Error(), e.Subject, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Configf creates a ConfigurationError for subject.
func Configf(subject, format string, args ...any) error {
	return &ConfigurationError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

// EntryError attributes a failure to one batch entry.
// Kind is ErrMappingProjection or ErrBackendExecution.
type EntryError struct {
	Code  string
	Kind  error
	Index int // document index for projection failures, -1 otherwise
	Err   error
}

func (e *EntryError) Error() string {
	msg := e.Kind.Error() + ": entry " + strconv.Quote(e.Code)
	if e.Index >= 0 {
		msg += ", document " + strconv.Itoa(e.Index)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the error kind and the cause to errors.Is/As.
func (e *EntryError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewBackendEntryError attributes a backend failure to entry code.
func NewBackendEntryError(code string, err error) error {
	return &EntryError{Code: code, Kind: ErrBackendExecution, Index: -1, Err: err}
}

// NewProjectionError attributes a mapper failure to document index of entry code.
func NewProjectionError(code string, index int, err error) error {
	return &EntryError{Code: code, Kind: ErrMappingProjection, Index: index, Err: err}
}
