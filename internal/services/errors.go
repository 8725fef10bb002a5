package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotReady marks unmet preconditions (no usable track, no account yet).
	// Items failing this way are skipped, never recorded as failures.
	ErrNotReady      = errors.New("not ready")
	ErrConsistency   = errors.New("consistency error")
	ErrConfiguration = errors.New("configuration error")
	ErrRemote        = errors.New("remote call error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes pass context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, pass, operation, message string, err error) error {
	detail := buildDetail(pass, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsNotReady reports whether err carries the ErrNotReady marker.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// Skippable reports whether an item failing with err should be skipped
// rather than counted as a failure.
func Skippable(err error) bool {
	return errors.Is(err, ErrNotReady) || errors.Is(err, ErrConfiguration)
}

func buildDetail(pass, operation, message string) string {
	parts := make([]string, 0, 3)
	if pass = strings.TrimSpace(pass); pass != "" {
		parts = append(parts, pass)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
