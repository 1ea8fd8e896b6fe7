package applier

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy is an exponential backoff schedule bounded by a total elapsed time.
type RetryPolicy struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	MaxElapsedTime      time.Duration
}

const (
	DefaultApplyMaxElapsed  = 60 * time.Second
	DefaultDeleteMaxElapsed = 30 * time.Second
)

// DefaultPolicy returns the library's default curve bounded by maxElapsed.
func DefaultPolicy(maxElapsed time.Duration) RetryPolicy {
	return RetryPolicy{
		InitialInterval:     backoff.DefaultInitialInterval,
		MaxInterval:         backoff.DefaultMaxInterval,
		Multiplier:          backoff.DefaultMultiplier,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		MaxElapsedTime:      maxElapsed,
	}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	if p.Multiplier > 0 {
		b.Multiplier = p.Multiplier
	}
	b.RandomizationFactor = p.RandomizationFactor
	b.Reset()
	return b
}
