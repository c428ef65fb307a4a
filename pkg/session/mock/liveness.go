package sessionmock

import (
	"context"
	"sync/atomic"
)

type LivenessOption func(*Liveness)

// Liveness is an in-memory LivenessChecker that records how many
// liveness calls were issued.
type Liveness struct {
	alive bool
	err   error
	block chan struct{}

	calls atomic.Int64
}

func WithAlive(alive bool) LivenessOption {
	return func(l *Liveness) { l.alive = alive }
}

func WithError(err error) LivenessOption {
	return func(l *Liveness) { l.err = err }
}

// WithBlock makes SessionAlive wait until the given channel is closed,
// for exercising overlapping checks.
func WithBlock(release chan struct{}) LivenessOption {
	return func(l *Liveness) { l.block = release }
}

func NewLiveness(opts ...LivenessOption) *Liveness {
	l := &Liveness{}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *Liveness) SessionAlive(ctx context.Context, _ string) (bool, error) {
	l.calls.Add(1)

	if l.block != nil {
		select {
		case <-l.block:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	if l.err != nil {
		return false, l.err
	}
	return l.alive, nil
}

// Calls reports how many liveness checks were issued.
func (l *Liveness) Calls() int64 {
	return l.calls.Load()
}
