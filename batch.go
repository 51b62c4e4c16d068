package orderflow

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Batch fans a collection of orders out to concurrent crew runs. Runs
// execute independently of each other while each run keeps its stages
// strictly sequential, and one run's failure never cancels, delays, or
// corrupts another run's result.
type Batch struct {
	crew  *Crew
	limit int
}

// NewBatch creates a batch runner over the given crew.
func NewBatch(crew *Crew) *Batch {
	return &Batch{crew: crew}
}

// WithLimit bounds the number of crew runs in flight at once. A
// non-positive limit (the default) starts one run per order
// immediately. Returns the same instance for chaining.
func (b *Batch) WithLimit(n int) *Batch {
	b.limit = n
	return b
}

// Process runs the crew once per order and returns exactly one Result
// per input, indexed by input position, so the caller's association
// between order and result survives arbitrary completion order. Each
// run receives its own clone of the order; no two runs ever observe the
// same Order value.
//
// Expected failures (validation, cancellation) are reported inside the
// corresponding Result, never as a panic or early return.
func (b *Batch) Process(ctx context.Context, orders []Order) []Result {
	results := make([]Result, len(orders))

	var g errgroup.Group
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}
	for i, order := range orders {
		g.Go(func() error {
			results[i] = b.crew.Run(ctx, order.Clone())
			return nil
		})
	}
	_ = g.Wait() // runs report failures through their Result, never an error
	return results
}
