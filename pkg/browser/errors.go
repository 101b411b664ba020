package browser

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrClosed is returned by operations on a driver after Close
	ErrClosed = errors.New("browser session closed")

	// ErrChromeNotFound indicates the configured Chrome executable does not exist
	ErrChromeNotFound = errors.New("chrome executable not found")
)

// TimeoutError reports that an element never appeared within the wait bound
type TimeoutError struct {
	Selector string
	After    time.Duration
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %v waiting for %q", e.After, e.Selector)
}

// DriverError wraps a failure of the underlying automation session
type DriverError struct {
	Op  string // start, navigate, set_cookie, reload, wait, query
	Err error
}

// Error implements the error interface
func (e *DriverError) Error() string {
	return fmt.Sprintf("browser %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *DriverError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is or wraps a *TimeoutError
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsDriverError reports whether err is or wraps a *DriverError
func IsDriverError(err error) bool {
	var de *DriverError
	return errors.As(err, &de)
}
