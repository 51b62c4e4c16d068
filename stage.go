package orderflow

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/zoobzio/clockz"
)

// Name identifies a stage or crew. Using this type encourages storing
// names as constants rather than scattering inline strings, since names
// appear in error paths, spans, and progress events.
type Name = string

// Stage is one unit of sequential work in an order's crew. A stage
// either returns the updated order or fails with an error; it must not
// mutate any order other than the one passed in.
//
// The set of stages is intentionally closed: customization validates
// options, pricing computes the estimated cost. StageFunc exists so
// tests and callers can splice in observers without reopening that set.
type Stage interface {
	Process(context.Context, Order) (Order, error)
	Name() Name
}

// StageFunc adapts a function into a Stage with the same failure
// texture as the built-in stages: panics are recovered into an *Error
// and plain errors are wrapped with the stage name and timing.
func StageFunc(name Name, fn func(context.Context, Order) (Order, error)) Stage {
	return stageFunc{name: name, fn: fn}
}

type stageFunc struct {
	fn   func(context.Context, Order) (Order, error)
	name Name
}

func (s stageFunc) Process(ctx context.Context, order Order) (result Order, err error) {
	defer recoverFromPanic(&result, &err, s.name, order)

	start := time.Now()
	result, err = s.fn(ctx, order)
	if err != nil {
		var crewErr *Error
		if errors.As(err, &crewErr) {
			return result, err
		}
		return order, stageError(s.name, order, err, start)
	}
	return result, nil
}

func (s stageFunc) Name() Name {
	return s.name
}

// waitUniform suspends for a uniform random duration in [lo, hi],
// modeling real-world stage latency. This is the only point at which a
// stage parks; other crew runs keep making progress while it waits.
// A non-positive hi skips the wait entirely, which is how tests run
// the stages without a fake clock.
func waitUniform(ctx context.Context, clock clockz.Clock, lo, hi time.Duration) error {
	if hi <= 0 {
		return nil
	}
	delay := lo
	if hi > lo {
		delay = lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
	}
	select {
	case <-clock.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
