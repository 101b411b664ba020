// Package poller drives the availability check loop.
//
// Tick runs one cycle against the browser and reports an Outcome without
// sleeping. Run repeats Tick, pausing for the short interval when nothing is
// found and for the long cooldown after every hit. Any cycle error ends Run.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"passportwatch/pkg/availability"
	"passportwatch/pkg/browser"
	"passportwatch/pkg/logger"
	"passportwatch/pkg/notifier"
	"passportwatch/pkg/status"
)

// TableSelector is the element the cycle waits for and scans
const TableSelector = "table"

// OutcomeKind tells Run which pause follows a cycle
type OutcomeKind int

const (
	NoAvailability OutcomeKind = iota
	Available
)

// String implements fmt.Stringer
func (k OutcomeKind) String() string {
	if k == Available {
		return "available"
	}
	return "no_availability"
}

// Outcome is the result of a successful cycle
type Outcome struct {
	Kind        OutcomeKind
	Hits        []availability.Hit
	TablesSeen  int
	RowsScanned int
}

// Config holds the loop settings
type Config struct {
	TargetURL        string
	CookieName       string
	Cookie           string
	Interval         time.Duration // pause after a cycle without hits
	Cooldown         time.Duration // pause after each hit
	TableWaitTimeout time.Duration
	Classifier       availability.Classifier
}

// Poller runs availability cycles against a single browser session
type Poller struct {
	cfg     Config
	driver  browser.Driver
	alerter notifier.Alerter
	sleeper Sleeper
	store   status.Store
	log     *zap.Logger
	now     func() time.Time
	runID   string

	cycles uint64
	snap   status.Status
}

// Option customizes a Poller
type Option func(*Poller)

// WithAlerter sets the alerter fired for each hit
func WithAlerter(a notifier.Alerter) Option {
	return func(p *Poller) { p.alerter = a }
}

// WithSleeper replaces the real timer, mainly for tests
func WithSleeper(s Sleeper) Option {
	return func(p *Poller) { p.sleeper = s }
}

// WithStore sets where status snapshots are written
func WithStore(s status.Store) Option {
	return func(p *Poller) { p.store = s }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// WithRunID fixes the run id instead of generating one
func WithRunID(id string) Option {
	return func(p *Poller) { p.runID = id }
}

// New validates cfg and builds a Poller. Without options it sleeps on real
// timers, alerts nobody, and keeps status in memory.
func New(cfg Config, driver browser.Driver, opts ...Option) (*Poller, error) {
	if driver == nil {
		return nil, fmt.Errorf("%w: driver is required", ErrInvalidConfig)
	}
	if cfg.TargetURL == "" || cfg.CookieName == "" {
		return nil, fmt.Errorf("%w: target URL and cookie name are required", ErrInvalidConfig)
	}
	if cfg.Interval <= 0 || cfg.Cooldown <= 0 || cfg.TableWaitTimeout <= 0 {
		return nil, fmt.Errorf("%w: interval, cooldown and table wait timeout must be positive", ErrInvalidConfig)
	}
	if cfg.Classifier.Phrase() == "" {
		cfg.Classifier = availability.NewClassifier("")
	}

	p := &Poller{
		cfg:     cfg,
		driver:  driver,
		alerter: notifier.NewMulti(0),
		sleeper: TimerSleeper{},
		store:   status.NewMemoryStore(),
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runID == "" {
		p.runID = uuid.New().String()
	}

	p.snap = status.Status{
		RunID:     p.runID,
		State:     status.StatePolling,
		TargetURL: cfg.TargetURL,
	}
	return p, nil
}

// RunID identifies this poller run in logs, status and events
func (p *Poller) RunID() string {
	return p.runID
}

// Status returns the latest snapshot
func (p *Poller) Status() status.Status {
	return p.snap
}

// withRun carries the run id and the poller's logger in ctx, so alerters and
// stores log under the same run
func (p *Poller) withRun(ctx context.Context) context.Context {
	if logger.RunIDFromContext(ctx) == p.runID {
		return ctx
	}
	return logger.WithLogger(logger.WithRunID(ctx, p.runID), p.log)
}

// Tick performs one cycle: load the page, set the cookie, reload, wait for a
// table and scan it. It never sleeps. A missing table yields a
// *browser.TimeoutError.
func (p *Poller) Tick(ctx context.Context) (Outcome, error) {
	ctx = p.withRun(ctx)
	p.cycles++
	log := logger.WithCycle(logger.FromContext(ctx), p.cycles)
	start := p.now()

	if err := p.driver.Navigate(ctx, p.cfg.TargetURL); err != nil {
		return Outcome{}, fmt.Errorf("load page: %w", err)
	}
	log.Info("Page loaded", zap.String("url", p.cfg.TargetURL))

	if err := p.driver.SetCookie(ctx, p.cfg.CookieName, p.cfg.Cookie); err != nil {
		return Outcome{}, fmt.Errorf("set session cookie: %w", err)
	}
	log.Info("Cookie set", zap.String("name", p.cfg.CookieName))

	if err := p.driver.Reload(ctx); err != nil {
		return Outcome{}, fmt.Errorf("reload page: %w", err)
	}

	if err := p.driver.WaitFor(ctx, TableSelector, p.cfg.TableWaitTimeout); err != nil {
		return Outcome{}, fmt.Errorf("wait for results table: %w", err)
	}
	log.Info("Table found", zap.String("selector", TableSelector))

	tables, err := p.driver.Query(ctx, TableSelector)
	if err != nil {
		return Outcome{}, fmt.Errorf("read tables: %w", err)
	}

	result, err := availability.Scan(tables, p.cfg.Classifier, p.now())
	if err != nil {
		return Outcome{}, fmt.Errorf("scan tables: %w", err)
	}

	outcome := Outcome{
		Kind:        NoAvailability,
		Hits:        result.Hits,
		TablesSeen:  result.TablesSeen,
		RowsScanned: result.RowsScanned,
	}
	if result.Available() {
		outcome.Kind = Available
	}

	p.snap.Cycles = p.cycles
	p.snap.LastCheck = p.now()
	p.save(ctx)

	log.Info("Cycle completed",
		zap.Stringer("outcome", outcome.Kind),
		zap.Int("tables", outcome.TablesSeen),
		zap.Int("rows", outcome.RowsScanned),
		zap.Int("hits", len(outcome.Hits)),
		logger.DurationField(p.now().Sub(start)))

	return outcome, nil
}

// Run loops until ctx is cancelled or a cycle fails. Cancellation returns
// ctx.Err(); a cycle failure is logged and returned wrapped.
func (p *Poller) Run(ctx context.Context) error {
	ctx = p.withRun(ctx)
	log := logger.FromContext(ctx)
	started := p.now()

	p.snap.StartedAt = started
	p.setState(ctx, status.StatePolling, nil)

	log.Info("Poller started",
		zap.String("target_url", p.cfg.TargetURL),
		zap.String("cookie", logger.MaskSecret(p.cfg.Cookie)),
		zap.Duration("interval", p.cfg.Interval),
		zap.Duration("cooldown", p.cfg.Cooldown),
		zap.String("unavailable_phrase", p.cfg.Classifier.Phrase()))

	defer func() {
		p.setState(context.WithoutCancel(ctx), status.StateStopped, nil)
		log.Info("Poller stopped",
			zap.Uint64("cycles", p.cycles),
			zap.Int("hits", p.snap.TotalHits),
			zap.String("elapsed", fmt.Sprintf("%.2fs", p.now().Sub(started).Seconds())))
	}()

	for {
		outcome, err := p.Tick(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			p.snap.LastError = err.Error()
			log.Error("Poll cycle failed",
				zap.Uint64("cycle", p.cycles),
				zap.Stringer("kind", Classify(err)),
				zap.Error(err))
			return fmt.Errorf("poll cycle %d: %w", p.cycles, err)
		}

		if outcome.Kind == NoAvailability {
			if err := p.sleeper.Sleep(ctx, p.cfg.Interval); err != nil {
				return err
			}
			continue
		}

		for _, hit := range outcome.Hits {
			if err := p.handleHit(ctx, hit); err != nil {
				return err
			}
		}
	}
}

// handleHit alerts, logs and waits out the cooldown for one hit
func (p *Poller) handleHit(ctx context.Context, hit availability.Hit) error {
	log := logger.FromContext(ctx)
	if err := p.alerter.Alert(ctx, hit); err != nil {
		log.Warn("Alert delivery failed", zap.String("label", hit.Label), zap.Error(err))
	}

	log.Info("Availability found",
		zap.String("label", hit.Label),
		zap.String("text", hit.Text),
		zap.Int("table", hit.Table),
		zap.Int("row", hit.Row))

	p.snap.TotalHits++
	p.snap.LastHit = &hit
	until := p.now().Add(p.cfg.Cooldown)
	p.setState(ctx, status.StateCooldown, &until)

	log.Info("Cooling down", zap.Duration("cooldown", p.cfg.Cooldown), zap.Time("until", until))
	if err := p.sleeper.Sleep(ctx, p.cfg.Cooldown); err != nil {
		return err
	}

	p.setState(ctx, status.StatePolling, nil)
	return nil
}

func (p *Poller) setState(ctx context.Context, state status.State, cooldownUntil *time.Time) {
	p.snap.State = state
	p.snap.CooldownUntil = cooldownUntil
	p.save(ctx)
}

// save writes the snapshot; store failures never affect polling
func (p *Poller) save(ctx context.Context) {
	if err := p.store.Save(ctx, p.snap); err != nil {
		logger.FromContext(ctx).Warn("Failed to save status", zap.Error(err))
	}
}
