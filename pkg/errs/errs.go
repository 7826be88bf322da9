// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates missing or malformed caller input. Detected
	// before any side effect; maps to a 400-class response.
	ErrValidation = errors.New("validation")

	// ErrStorage indicates a backend read/write failure, or a write that
	// returned no data where data was expected. Maps to a 500-class response.
	ErrStorage = errors.New("storage")

	// ErrNotification indicates the external notifier capability failed.
	// Maps to a 500-class response; never silently swallowed.
	ErrNotification = errors.New("notification")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Storagef wraps ErrStorage with a formatted message.
func Storagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStorage, fmt.Sprintf(format, args...))
}

// Storage wraps an underlying backend error with the storage sentinel,
// keeping the cause in the chain.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// Notificationf wraps ErrNotification with a formatted message.
func Notificationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotification, fmt.Sprintf(format, args...))
}

// Notification wraps an underlying notifier error with the notification
// sentinel, keeping the cause in the chain.
func Notification(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrNotification, op, err)
}
