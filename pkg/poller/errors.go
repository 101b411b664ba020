package poller

import (
	"errors"

	"passportwatch/pkg/browser"
)

// ErrInvalidConfig indicates a poller was built with unusable settings
var ErrInvalidConfig = errors.New("invalid poller configuration")

// Kind groups cycle errors for logging. Every kind stops the loop.
type Kind int

const (
	KindOther Kind = iota
	KindTimeout
	KindDriver
)

// String implements fmt.Stringer
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindDriver:
		return "driver"
	default:
		return "other"
	}
}

// Classify maps a cycle error to its Kind
func Classify(err error) Kind {
	switch {
	case browser.IsTimeout(err):
		return KindTimeout
	case browser.IsDriverError(err):
		return KindDriver
	default:
		return KindOther
	}
}
