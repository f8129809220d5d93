// Package errors provides standardized error types and helpers for the
// scripture store. The taxonomy follows the subsystem boundaries: unknown
// translation keys, provisioning failures, database open failures and
// version-switch failures.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrUnknownTranslation indicates a translation key outside the
	// statically enumerated set. Bad configuration, fatal to the calling flow.
	ErrUnknownTranslation = errors.New("unknown translation")
	// ErrProvision indicates the bundled asset could not be materialized
	// into local storage. Retryable by re-invoking the provisioner.
	ErrProvision = errors.New("provision failed")
	// ErrOpen indicates a corrupt or locked translation database.
	ErrOpen = errors.New("translation unavailable")
	// ErrSwitch wraps a provisioning or open failure during a version switch.
	ErrSwitch = errors.New("translation switch failed")
	// ErrInvalidInput indicates invalid input or validation failure.
	ErrInvalidInput = errors.New("invalid input")
)

// UnknownTranslationError reports a key missing from the registry.
type UnknownTranslationError struct {
	Key string // Translation key that was requested
}

func (e *UnknownTranslationError) Error() string {
	return fmt.Sprintf("unknown translation: %s", e.Key)
}

func (e *UnknownTranslationError) Unwrap() error {
	return ErrUnknownTranslation
}

// ProvisionError reports an asset resolution or file-copy failure while
// materializing a translation database.
type ProvisionError struct {
	Key  string // Translation key being provisioned
	Step string // Step that failed (e.g., "resolve", "copy", "verify")
	Err  error  // Underlying error
}

func (e *ProvisionError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("provision %s: %s: %v", e.Key, e.Step, e.Err)
	}
	return fmt.Sprintf("provision %s: %v", e.Key, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrProvision
}

func (e *ProvisionError) Is(target error) bool {
	return target == ErrProvision
}

// OpenError reports a corrupt or lock-contended database file. Surfaced to
// the UI as "translation unavailable"; must not prevent switching to a
// different translation.
type OpenError struct {
	Key  string // Translation key
	Path string // Database file path
	Err  error  // Underlying error
}

func (e *OpenError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("open %s at %s: %v", e.Key, e.Path, e.Err)
	}
	return fmt.Sprintf("open %s: %v", e.Key, e.Err)
}

func (e *OpenError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrOpen
}

func (e *OpenError) Is(target error) bool {
	return target == ErrOpen
}

// SwitchError reports a failed version switch. The previous translation
// remains active when this is returned.
type SwitchError struct {
	From string // Previously active translation key ("" when none)
	To   string // Requested translation key
	Err  error  // Underlying provision/open error
}

func (e *SwitchError) Error() string {
	if e.From != "" {
		return fmt.Sprintf("switch %s -> %s: %v", e.From, e.To, e.Err)
	}
	return fmt.Sprintf("switch to %s: %v", e.To, e.Err)
}

func (e *SwitchError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrSwitch
}

func (e *SwitchError) Is(target error) bool {
	return target == ErrSwitch
}

// Helper functions for creating common errors

// NewUnknownTranslation creates an UnknownTranslationError.
func NewUnknownTranslation(key string) *UnknownTranslationError {
	return &UnknownTranslationError{Key: key}
}

// NewProvision creates a ProvisionError.
func NewProvision(key, step string, err error) *ProvisionError {
	return &ProvisionError{Key: key, Step: step, Err: err}
}

// NewOpen creates an OpenError.
func NewOpen(key, path string, err error) *OpenError {
	return &OpenError{Key: key, Path: path, Err: err}
}

// NewSwitch creates a SwitchError.
func NewSwitch(from, to string, err error) *SwitchError {
	return &SwitchError{From: from, To: to, Err: err}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
