package orderflow

import (
	"context"
	"strings"
	"time"

	"github.com/zoobzio/clockz"
)

// CustomizeStageName is the default name for the customization stage.
const CustomizeStageName Name = "customize"

// Option sets for validated fields. Matching is case-insensitive.
// These are fixed at process start and shared read-only across all
// concurrent runs.
var (
	ValidSizes  = []string{"S", "M", "L", "XL"}
	ValidColors = []string{"red", "blue", "green", "black", "white"}
)

// Default latency bounds for the customization stage.
const (
	CustomizeDelayMin = 500 * time.Millisecond
	CustomizeDelayMax = time.Second
)

// Customize validates an order's design options. Size is checked
// against ValidSizes and color against ValidColors; any other value
// fails with a *ValidationError naming the offending field. On success
// the stage suspends for a random latency within its configured bounds
// and marks the order customized.
type Customize struct {
	clock    clockz.Clock
	name     Name
	delayMin time.Duration
	delayMax time.Duration
}

// NewCustomize creates a customization stage with the default latency bounds.
func NewCustomize() *Customize {
	return &Customize{
		name:     CustomizeStageName,
		delayMin: CustomizeDelayMin,
		delayMax: CustomizeDelayMax,
	}
}

// WithDelay overrides the simulated latency bounds. A non-positive hi
// disables the wait, which keeps tests fast and deterministic. Returns
// the same instance for chaining.
func (c *Customize) WithDelay(lo, hi time.Duration) *Customize {
	c.delayMin = lo
	c.delayMax = hi
	return c
}

// WithClock sets a custom clock for testing.
func (c *Customize) WithClock(clock clockz.Clock) *Customize {
	c.clock = clock
	return c
}

func (c *Customize) getClock() clockz.Clock {
	if c.clock == nil {
		return clockz.RealClock
	}
	return c.clock
}

// Process implements the Stage interface.
func (c *Customize) Process(ctx context.Context, order Order) (result Order, err error) {
	defer recoverFromPanic(&result, &err, c.name, order)

	start := time.Now()

	if !containsFold(ValidSizes, order.Size) {
		return order, stageError(c.name, order, &ValidationError{
			Field:   "size",
			Value:   order.Size,
			Allowed: ValidSizes,
		}, start)
	}
	if !containsFold(ValidColors, order.Color) {
		return order, stageError(c.name, order, &ValidationError{
			Field:   "color",
			Value:   order.Color,
			Allowed: ValidColors,
		}, start)
	}

	if waitErr := waitUniform(ctx, c.getClock(), c.delayMin, c.delayMax); waitErr != nil {
		return order, stageError(c.name, order, waitErr, start)
	}

	order.Status = StatusCustomized
	return order, nil
}

// Name returns the stage name for error paths and progress events.
func (c *Customize) Name() Name {
	return c.name
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}
