// Package notifier delivers availability alerts: an audible tone on the local
// machine plus optional chat and event-stream channels.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"passportwatch/pkg/availability"
)

// DefaultAlertTimeout bounds a single alerter call inside Multi
const DefaultAlertTimeout = 15 * time.Second

// Alerter delivers one availability hit
type Alerter interface {
	Name() string
	Alert(ctx context.Context, hit availability.Hit) error
}

// Multi fans a hit out to several alerters in order. Every alerter runs even
// when an earlier one fails, and each call gets its own timeout.
type Multi struct {
	alerters []Alerter
	timeout  time.Duration
}

// NewMulti creates a fan-out alerter. A non-positive timeout uses DefaultAlertTimeout.
func NewMulti(timeout time.Duration, alerters ...Alerter) *Multi {
	if timeout <= 0 {
		timeout = DefaultAlertTimeout
	}
	return &Multi{alerters: alerters, timeout: timeout}
}

// Name implements Alerter
func (m *Multi) Name() string {
	return "multi"
}

// Len returns the number of wrapped alerters
func (m *Multi) Len() int {
	return len(m.alerters)
}

// Names lists the wrapped alerters in delivery order
func (m *Multi) Names() []string {
	names := make([]string, 0, len(m.alerters))
	for _, a := range m.alerters {
		names = append(names, a.Name())
	}
	return names
}

// Alert implements Alerter. The returned error joins every failure, each
// prefixed with the alerter name.
func (m *Multi) Alert(ctx context.Context, hit availability.Hit) error {
	var errs []error
	for _, a := range m.alerters {
		if err := m.alertOne(ctx, a, hit); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) alertOne(ctx context.Context, a Alerter, hit availability.Hit) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return a.Alert(ctx, hit)
}

// formatHit renders a hit as a short Markdown message. escape is applied to
// the page text and the link; nil keeps them as is.
func formatHit(hit availability.Hit, targetURL string, escape func(string) string) string {
	if escape == nil {
		escape = func(s string) string { return s }
	}

	msg := fmt.Sprintf("🛂 *Passport appointment available*\n\n📍 *Office:* %s\n✅ *Status:* %s\n⏰ *Found at:* %s",
		escape(hit.Label), escape(hit.Text), hit.FoundAt.Format("2006-01-02 15:04:05"))
	if targetURL != "" {
		msg += "\n🔗 " + escape(targetURL)
	}
	return msg
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown backslash-escapes the entity markers of Telegram's legacy Markdown
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
