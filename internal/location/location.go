// Package location models GPS acquisition as a fallible collaborator.
// Acquisition failures are recoverable by design: workflow callers proceed
// without a fix, but every failure is typed so it can be surfaced and
// logged rather than silently discarded.
package location

import (
	"context"
	"errors"
	"time"
)

// FailureCode classifies why a position could not be acquired.
type FailureCode string

const (
	PermissionDenied    FailureCode = "permission_denied"
	PositionUnavailable FailureCode = "position_unavailable"
	Timeout             FailureCode = "timeout"
	Unsupported         FailureCode = "unsupported"
)

// Error is a typed GPS acquisition failure.
type Error struct {
	Code FailureCode
}

func (e *Error) Error() string {
	return "location: " + string(e.Code)
}

// Position is a GPS fix.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Options controls an acquisition attempt.
type Options struct {
	Timeout      time.Duration
	HighAccuracy bool
}

// Provider supplies the device's current position. Implementations must
// honor context cancellation.
type Provider interface {
	Current(ctx context.Context, opts Options) (Position, error)
}

// Acquire attempts to get a position within the given timeout. The deadline
// is enforced here regardless of the provider's behavior: a provider that
// hangs past the timeout yields a Timeout-coded error instead of blocking
// the caller.
func Acquire(ctx context.Context, p Provider, timeout time.Duration) (*Position, error) {
	if p == nil {
		return nil, &Error{Code: Unsupported}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		pos Position
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		pos, err := p.Current(ctx, Options{Timeout: timeout, HighAccuracy: true})
		ch <- outcome{pos: pos, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) || errors.Is(out.err, context.Canceled) {
				return nil, &Error{Code: Timeout}
			}
			return nil, out.err
		}
		return &out.pos, nil
	case <-ctx.Done():
		return nil, &Error{Code: Timeout}
	}
}

// Fixed returns a provider that always reports the given position. The HTTP
// layer uses it to carry a client-reported fix into the workflow.
func Fixed(pos Position) Provider {
	return fixedProvider{pos: pos}
}

type fixedProvider struct {
	pos Position
}

func (p fixedProvider) Current(context.Context, Options) (Position, error) {
	return p.pos, nil
}

// Unavailable returns a provider that always fails with the given code.
// Requests arriving without coordinates use Unavailable(PositionUnavailable)
// so the failure still flows through the normal logging path.
func Unavailable(code FailureCode) Provider {
	return failingProvider{code: code}
}

type failingProvider struct {
	code FailureCode
}

func (p failingProvider) Current(context.Context, Options) (Position, error) {
	return Position{}, &Error{Code: p.code}
}
