package notifier

import (
	"context"
	"time"

	"github.com/gen2brain/beeep"

	"passportwatch/pkg/availability"
)

// Beeper plays a tone on the local sound device
type Beeper struct {
	frequency float64
	duration  time.Duration
	beep      func(freq float64, durationMs int) error
}

// NewBeeper creates a tone alerter
func NewBeeper(frequency float64, duration time.Duration) *Beeper {
	return &Beeper{
		frequency: frequency,
		duration:  duration,
		beep:      beeep.Beep,
	}
}

// Name implements Alerter
func (b *Beeper) Name() string {
	return "beep"
}

// Alert implements Alerter
func (b *Beeper) Alert(ctx context.Context, _ availability.Hit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.beep(b.frequency, int(b.duration.Milliseconds()))
}
