package client

import "time"

// RedeliveryPolicy controls how rolled-back or recovered messages are
// redelivered before being poisoned to the dead-letter queue.
type RedeliveryPolicy struct {
	InitialRedeliveryDelay time.Duration `env:"REDELIVERY_INITIAL_DELAY" env-default:"1s" opt:"redeliveryPolicy.initialRedeliveryDelay"`
	MaximumRedeliveryDelay time.Duration `env:"REDELIVERY_MAX_DELAY" env-default:"-1ms" opt:"redeliveryPolicy.maximumRedeliveryDelay"`
	BackOffMultiplier      float64       `env:"REDELIVERY_BACKOFF_MULTIPLIER" env-default:"5.0" opt:"redeliveryPolicy.backOffMultiplier"`
	UseExponentialBackOff  bool          `env:"REDELIVERY_EXPONENTIAL_BACKOFF" env-default:"false" opt:"redeliveryPolicy.useExponentialBackOff"`
	MaximumRedeliveries    int32         `env:"REDELIVERY_MAXIMUM" env-default:"6" opt:"redeliveryPolicy.maximumRedeliveries"`
}

// DefaultRedeliveryPolicy mirrors the broker's stock policy: six attempts,
// one second apart, no backoff growth.
func DefaultRedeliveryPolicy() RedeliveryPolicy {
	return RedeliveryPolicy{
		InitialRedeliveryDelay: time.Second,
		MaximumRedeliveryDelay: -1,
		BackOffMultiplier:      5.0,
		MaximumRedeliveries:    6,
	}
}

// DelayFor returns the redelivery delay for the given redelivery count
// (1 for the first redelivery).
func (p RedeliveryPolicy) DelayFor(redelivery int32) time.Duration {
	if redelivery <= 0 {
		return 0
	}
	delay := p.InitialRedeliveryDelay
	if p.UseExponentialBackOff && p.BackOffMultiplier > 1 {
		for i := int32(1); i < redelivery; i++ {
			delay = time.Duration(float64(delay) * p.BackOffMultiplier)
			if p.MaximumRedeliveryDelay > 0 && delay > p.MaximumRedeliveryDelay {
				return p.MaximumRedeliveryDelay
			}
		}
	}
	if p.MaximumRedeliveryDelay > 0 && delay > p.MaximumRedeliveryDelay {
		delay = p.MaximumRedeliveryDelay
	}
	return delay
}

// Exhausted reports whether the message has used up its redeliveries.
func (p RedeliveryPolicy) Exhausted(redeliveryCounter int32) bool {
	return p.MaximumRedeliveries >= 0 && redeliveryCounter > p.MaximumRedeliveries
}
