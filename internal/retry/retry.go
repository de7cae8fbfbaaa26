// Package retry wraps calls to external collaborators with bounded attempts, linear
// backoff and a per-attempt timeout.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Policy bounds how an external call is attempted.
type Policy struct {
	Attempts  int           // total attempts, at least 1
	BaseDelay time.Duration // wait before attempt n+1 is BaseDelay*n
	Timeout   time.Duration // per-attempt deadline; zero means none
	Name      string        // used in log lines
	Verbose   bool
}

// DefaultPolicy is used for model and search calls.
func DefaultPolicy(name string) Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		Timeout:   90 * time.Second,
		Name:      name,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a permanent error, the parent context ends,
// or the attempts run out.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.Attempts, 1)

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := p.BaseDelay * time.Duration(i)
			if p.Verbose {
				log.Printf("[RETRY] %s attempt=%d wait=%s error=%v", p.Name, i+1, wait, lastErr)
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := attempt(ctx, p.Timeout, fn)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if IsPermanent(err) {
			return zero, errors.Unwrap(err)
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", p.Name, attempts, lastErr)
}

// Run is Do for calls that return only an error.
func Run(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func attempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}
