// Package browser wraps the browser automation session used to load the
// booking page. The poller only sees the Driver interface, so tests can
// substitute a fake that serves canned HTML.
package browser

import (
	"context"
	"time"
)

// Driver is the capability set the poller needs from a browser session.
// Implementations own a single page and are not safe for concurrent use.
type Driver interface {
	// Navigate loads url in the current page and waits for the load event
	Navigate(ctx context.Context, url string) error

	// SetCookie attaches a cookie for the currently loaded origin
	SetCookie(ctx context.Context, name, value string) error

	// Reload refreshes the current page
	Reload(ctx context.Context) error

	// WaitFor blocks until selector matches at least one element, or returns
	// a *TimeoutError once timeout elapses
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// Query returns the outer HTML of every element matching selector, in document order
	Query(ctx context.Context, selector string) ([]string, error)

	// Close releases the session. Calling it more than once is safe.
	Close() error
}
