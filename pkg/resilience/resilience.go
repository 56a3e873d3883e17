// Package resilience provides the backoff primitive the transport layer
// builds its reconnect policy on.
package resilience

import "time"

// Backoff generates a growing sequence of delays for reconnect loops that
// do not have a fixed attempt budget. Sleeping and attempt accounting stay
// with the caller.
type Backoff struct {
	// Initial is the first delay returned by Next.
	Initial time.Duration

	// Max caps the delay.
	Max time.Duration

	// Multiplier grows the delay between calls. Values <= 1 disable growth.
	Multiplier float64

	current time.Duration
}

// Next returns the delay to wait before the next attempt and advances the
// sequence.
func (b *Backoff) Next() time.Duration {
	if b.current <= 0 {
		b.current = b.Initial
		return b.current
	}
	d := b.current
	if b.Multiplier > 1 {
		b.current = time.Duration(float64(b.current) * b.Multiplier)
		if b.Max > 0 && b.current > b.Max {
			b.current = b.Max
		}
	}
	return d
}

// Reset rewinds the sequence to its initial delay.
func (b *Backoff) Reset() {
	b.current = 0
}
