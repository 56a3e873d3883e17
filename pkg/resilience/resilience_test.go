package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowsToCap(t *testing.T) {
	b := Backoff{Initial: 10 * time.Millisecond, Max: 80 * time.Millisecond, Multiplier: 2}
	var delays []time.Duration
	for i := 0; i < 6; i++ {
		delays = append(delays, b.Next())
	}
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		80 * time.Millisecond,
		80 * time.Millisecond,
	}, delays)

	b.Reset()
	assert.Equal(t, 10*time.Millisecond, b.Next())
}

func TestBackoffWithoutGrowth(t *testing.T) {
	b := Backoff{Initial: 5 * time.Millisecond, Max: time.Second, Multiplier: 1}
	assert.Equal(t, 5*time.Millisecond, b.Next())
	assert.Equal(t, 5*time.Millisecond, b.Next())
	assert.Equal(t, 5*time.Millisecond, b.Next())
}

func TestBackoffUncapped(t *testing.T) {
	b := Backoff{Initial: time.Millisecond, Multiplier: 4}
	b.Next()
	assert.Equal(t, time.Millisecond, b.Next())
	assert.Equal(t, 4*time.Millisecond, b.Next())
	assert.Equal(t, 16*time.Millisecond, b.Next())
}
