package orderflow

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zoobzio/clockz"
)

// PriceStageName is the default name for the pricing stage.
const PriceStageName Name = "price"

// Pricing model constants.
const (
	BaseCost          = 10.0
	XLMultiplier      = 1.2
	TextCostPerChar   = 0.05
	DefaultDesignCost = 4.0
)

// Default latency bounds for the pricing stage.
const (
	PriceDelayMin = 300 * time.Millisecond
	PriceDelayMax = 700 * time.Millisecond
)

// designCostRanges maps known design styles to their cost intervals.
// Lookup is case-insensitive; anything else falls back to
// DefaultDesignCost rather than erroring, matching how orders with
// free-text designs have always been quoted.
var designCostRanges = map[string]struct{ Lo, Hi float64 }{
	"abstract": {4.0, 6.0},
	"vintage":  {6.0, 8.0},
	"modern":   {5.0, 7.0},
}

// Price computes an order's estimated cost:
//
//	cost = BaseCost * SizeMultiplier(size) + DesignCost(design) + TextCost(text)
//
// then suspends for a random latency within its configured bounds and
// marks the order priced. The stage assumes customization already
// validated size and color and never fails on normal input.
type Price struct {
	clock    clockz.Clock
	name     Name
	delayMin time.Duration
	delayMax time.Duration
}

// NewPrice creates a pricing stage with the default latency bounds.
func NewPrice() *Price {
	return &Price{
		name:     PriceStageName,
		delayMin: PriceDelayMin,
		delayMax: PriceDelayMax,
	}
}

// WithDelay overrides the simulated latency bounds. A non-positive hi
// disables the wait. Returns the same instance for chaining.
func (p *Price) WithDelay(lo, hi time.Duration) *Price {
	p.delayMin = lo
	p.delayMax = hi
	return p
}

// WithClock sets a custom clock for testing.
func (p *Price) WithClock(clock clockz.Clock) *Price {
	p.clock = clock
	return p
}

func (p *Price) getClock() clockz.Clock {
	if p.clock == nil {
		return clockz.RealClock
	}
	return p.clock
}

// Process implements the Stage interface.
func (p *Price) Process(ctx context.Context, order Order) (result Order, err error) {
	defer recoverFromPanic(&result, &err, p.name, order)

	start := time.Now()
	cost := BaseCost*SizeMultiplier(order.Size) + DesignCost(order.Design) + TextCost(order.Text)

	if waitErr := waitUniform(ctx, p.getClock(), p.delayMin, p.delayMax); waitErr != nil {
		return order, stageError(p.name, order, waitErr, start)
	}

	order.EstimatedCost = cost
	order.Status = StatusPriced
	return order, nil
}

// Name returns the stage name for error paths and progress events.
func (p *Price) Name() Name {
	return p.name
}

// SizeMultiplier returns the base-cost multiplier for a size:
// 1.2 for XL (case-insensitive), 1.0 for everything else.
func SizeMultiplier(size string) float64 {
	if strings.EqualFold(size, "XL") {
		return XLMultiplier
	}
	return 1.0
}

// DesignCost returns the cost component for a design style. Known
// styles draw a uniform random value from their interval; unrecognized
// styles, including empty, cost DefaultDesignCost.
func DesignCost(design string) float64 {
	if r, ok := designCostRanges[strings.ToLower(design)]; ok {
		return r.Lo + rand.Float64()*(r.Hi-r.Lo)
	}
	return DefaultDesignCost
}

// TextCost returns the cost component for custom print text:
// TextCostPerChar per character after trimming surrounding whitespace.
func TextCost(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	return TextCostPerChar * float64(utf8.RuneCountInString(trimmed))
}
