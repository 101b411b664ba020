package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Options configures a Chrome session
type Options struct {
	Headless  bool
	ExecPath  string // resolved Chrome executable; empty lets chromedp search $PATH
	UserAgent string
}

// runFunc executes actions on a chromedp context; chromedp.Run outside tests
type runFunc func(ctx context.Context, actions ...chromedp.Action) error

// ChromeDriver drives a single Chrome tab through chromedp
type ChromeDriver struct {
	log          *zap.Logger
	browserCtx   context.Context
	cancel       context.CancelFunc
	waitStrategy *WaitStrategy
	exec         runFunc

	mu     sync.Mutex
	closed bool
}

// NewChromeDriver launches Chrome and returns a driver bound to its first tab.
// The browser lives until Close, independently of ctx, which only bounds startup.
func NewChromeDriver(ctx context.Context, opts Options, log *zap.Logger) (*ChromeDriver, error) {
	return newChromeDriver(ctx, opts, log, chromedp.Run)
}

func newChromeDriver(ctx context.Context, opts Options, log *zap.Logger, exec runFunc) (*ChromeDriver, error) {
	if log == nil {
		log = zap.NewNop()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts, log)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Sugar().Debugf),
		chromedp.WithErrorf(log.Sugar().Debugf),
	)

	cancel := func() {
		browserCancel()
		allocCancel()
	}

	d := &ChromeDriver{
		log:          log,
		browserCtx:   browserCtx,
		cancel:       cancel,
		waitStrategy: NewWaitStrategy(),
		exec:         exec,
	}

	if err := d.start(ctx); err != nil {
		return nil, err
	}

	if opts.ExecPath != "" {
		log.Info("Browser session started", zap.String("exec_path", opts.ExecPath), zap.Bool("headless", opts.Headless))
	} else {
		log.Info("Browser session started", zap.String("exec_path", "system default"), zap.Bool("headless", opts.Headless))
	}

	return d, nil
}

// start allocates the browser on browserCtx so launch failures surface here.
// chromedp binds the Chrome process to the context of the first Run, so that
// Run must never see a context that ends before Close.
func (d *ChromeDriver) start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- d.exec(d.browserCtx) }()

	select {
	case err := <-errc:
		if err != nil {
			d.cancel()
			return &DriverError{Op: "start", Err: err}
		}
		return nil
	case <-ctx.Done():
		d.cancel()
		<-errc
		return &DriverError{Op: "start", Err: ctx.Err()}
	}
}

// opContext derives a context from the browser that is also cancelled with ctx
func (d *ChromeDriver) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(d.browserCtx)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (d *ChromeDriver) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return &DriverError{Op: op, Err: ErrClosed}
	}

	opCtx, done := d.opContext(ctx)
	defer done()

	return runError(ctx, op, d.exec(opCtx, actions...))
}

// runError keeps our own wait timeouts and caller cancellation recognizable.
// Any other failure becomes a DriverError for op.
func runError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return te
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &DriverError{Op: op, Err: err}
}

// Navigate implements Driver
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, "navigate", chromedp.Navigate(url))
}

// SetCookie implements Driver. The cookie is scoped to the page currently loaded,
// which is why the poller navigates before setting it.
func (d *ChromeDriver) SetCookie(ctx context.Context, name, value string) error {
	return d.run(ctx, "set_cookie", chromedp.ActionFunc(func(ctx context.Context) error {
		var location string
		if err := chromedp.Location(&location).Do(ctx); err != nil {
			return fmt.Errorf("read current location: %w", err)
		}
		return network.SetCookie(name, value).
			WithURL(location).
			WithPath("/").
			Do(ctx)
	}))
}

// Reload implements Driver
func (d *ChromeDriver) Reload(ctx context.Context) error {
	return d.run(ctx, "reload", chromedp.Reload())
}

// WaitFor implements Driver
func (d *ChromeDriver) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return d.run(ctx, "wait", d.waitStrategy.WaitPresent(selector, timeout))
}

// Query implements Driver. It does not wait: an absent selector yields an empty slice.
func (d *ChromeDriver) Query(ctx context.Context, selector string) ([]string, error) {
	var fragments []string

	err := d.run(ctx, "query", chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}

		fragments = make([]string, 0, len(nodes))
		for _, node := range nodes {
			html, err := dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			if err != nil {
				return fmt.Errorf("outer html of node %d: %w", node.NodeID, err)
			}
			fragments = append(fragments, html)
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	d.log.Debug("Queried page", zap.String("selector", selector), zap.Int("matches", len(fragments)))
	return fragments, nil
}

// Close implements Driver
func (d *ChromeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.cancel()
	d.log.Info("Browser session closed")
	return nil
}
