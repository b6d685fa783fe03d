// Package retry provides cancellable waits, bounded exponential backoff and
// jittered pauses for the batch loops. Every wait returns early with the
// context's error when the context is cancelled.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"influencer/internal/services"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the timer-backed Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Sleep defaults to the timer-backed Sleep.
	Sleep Sleeper
	// Rand returns a value in [0,1); defaults to math/rand/v2.
	Rand func() float64
	// OnRetry observes each failed attempt before the wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Delay is the wait before retry number attempt (1-based): a random fraction
// of BaseDelay*2^attempt, capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	rnd := p.Rand
	if rnd == nil {
		rnd = rand.Float64
	}
	ceiling := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if p.MaxDelay > 0 && ceiling > float64(p.MaxDelay) {
		ceiling = float64(p.MaxDelay)
	}
	return time.Duration(rnd() * ceiling)
}

// Do runs fn until it succeeds, returns a non-transient error, or the attempt
// budget is spent. Exhausting the budget escalates the last transient error
// to services.ErrFatal.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !services.IsTransient(err) || ctx.Err() != nil {
			return err
		}
		if attempt == attempts {
			break
		}
		wait := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	return services.Wrap(services.ErrFatal, "", "retry", "attempts exhausted", err)
}

// Jitter returns a uniformly random duration in [min, max].
func Jitter(min, max time.Duration, rnd func() float64) time.Duration {
	if max <= min {
		return min
	}
	if rnd == nil {
		rnd = rand.Float64
	}
	return min + time.Duration(rnd()*float64(max-min+1))
}

// WaitUntil polls check every interval until it reports true or ctx ends.
// check runs immediately on entry.
func WaitUntil(ctx context.Context, interval time.Duration, sleep Sleeper, check func(ctx context.Context) bool) error {
	if sleep == nil {
		sleep = Sleep
	}
	for {
		if check(ctx) {
			return nil
		}
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
}
