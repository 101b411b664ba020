package browser

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/chromedp"
)

// WaitStrategy turns element waits into bounded chromedp actions
type WaitStrategy struct {
	DefaultTimeout time.Duration

	ready func(ctx context.Context, selector string) error
}

// NewWaitStrategy creates a new wait strategy with defaults
func NewWaitStrategy() *WaitStrategy {
	return &WaitStrategy{
		DefaultTimeout: 30 * time.Second,
		ready:          waitReady,
	}
}

func waitReady(ctx context.Context, selector string) error {
	return chromedp.WaitReady(selector, chromedp.ByQuery).Do(ctx)
}

// WaitPresent waits until selector matches an element in the DOM. It does not
// require visibility. A zero timeout uses DefaultTimeout.
func (ws *WaitStrategy) WaitPresent(selector string, timeout time.Duration) chromedp.Action {
	if timeout <= 0 {
		timeout = ws.DefaultTimeout
	}

	ready := ws.ready
	if ready == nil {
		ready = waitReady
	}

	return chromedp.ActionFunc(func(ctx context.Context) error {
		timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return waitError(ctx, timeoutCtx, selector, timeout, ready(timeoutCtx, selector))
	})
}

// waitError keeps a wait failure as is unless our own deadline caused it.
// Parent cancellation propagates untouched.
func waitError(parent, waitCtx context.Context, selector string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Selector: selector, After: timeout}
	}
	return err
}
