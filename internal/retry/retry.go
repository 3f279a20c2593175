// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// PermanentError marks an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("permanent: %v", e.Err) }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Do stops immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Policy is a bounded exponential backoff.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// Default is three attempts, 200ms doubling up to 1s.
func Default() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
		Jitter:       true,
	}
}

// Do runs fn until it succeeds, returns a permanent error, attempts run out,
// or ctx is done. The context deadline bounds the whole call including waits.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.MaxDelay > 0 && p.MaxDelay < p.InitialDelay {
		return errors.New("retry: MaxDelay must be >= InitialDelay")
	}

	var lastErr error
	delay := p.InitialDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("retry: stopped before attempt %d: %w (last error: %v)", attempt, err, lastErr)
			}
			return fmt.Errorf("retry: stopped before attempt %d: %w", attempt, err)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := delay
		if p.Jitter && wait > 0 {
			randMu.Lock()
			// +-25%
			wait = wait*3/4 + time.Duration(randSource.Int63n(int64(wait)/2+1))
			randMu.Unlock()
		}

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry: cancelled during backoff after attempt %d: %w (last error: %v)", attempt, ctx.Err(), lastErr)
			case <-timer.C:
			}
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return fmt.Errorf("retry: %d attempts failed: %w", p.MaxAttempts, lastErr)
}
