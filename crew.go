package orderflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Crew.
const (
	// Metrics.
	CrewProcessedTotal  = metricz.Key("crew.processed.total")
	CrewSuccessesTotal  = metricz.Key("crew.successes.total")
	CrewFailuresTotal   = metricz.Key("crew.failures.total")
	CrewStagesCompleted = metricz.Key("crew.stages.completed")
	CrewStagesTotal     = metricz.Key("crew.stages.total")
	CrewDurationMs      = metricz.Key("crew.duration.ms")

	// Spans.
	CrewProcessSpan = tracez.Key("crew.process")
	CrewStageSpan   = tracez.Key("crew.stage")

	// Tags.
	CrewTagOrderID     = tracez.Tag("crew.order_id")
	CrewTagStageCount  = tracez.Tag("crew.stage_count")
	CrewTagStageNumber = tracez.Tag("crew.stage_number")
	CrewTagStageName   = tracez.Tag("crew.stage_name")
	CrewTagSuccess     = tracez.Tag("crew.success")
	CrewTagError       = tracez.Tag("crew.error")

	// Hook event keys.
	CrewEventStageComplete = hookz.Key("crew.stage_complete")
	CrewEventAllComplete   = hookz.Key("crew.all_complete")
)

// DefaultCrewName is the name of the crew built by NewStandardCrew.
const DefaultCrewName Name = "order-crew"

// CrewEvent is emitted via hooks as stages complete. Events are purely
// observational, delivered asynchronously, and safe to drop or ignore;
// they carry no control meaning for the run that emitted them.
type CrewEvent struct {
	Crew            Name
	StageName       Name
	OrderID         int
	StageNumber     int // 1-based
	TotalStages     int
	CompletedStages int // for all_complete
	Success         bool
	Err             error
	Duration        time.Duration
	TotalDuration   time.Duration // for all_complete
	Timestamp       time.Time
}

// Crew executes a fixed ordered list of stages against one order,
// strictly in sequence: stage k+1 never starts before stage k completes,
// and the first failure is a hard halt for that order. A single Crew is
// safe for concurrent use; each Process call owns the order value it
// was given and shares nothing with other calls.
//
// # Observability
//
// Metrics:
//   - crew.processed.total / crew.successes.total / crew.failures.total
//   - crew.stages.completed, crew.stages.total, crew.duration.ms
//
// Traces:
//   - crew.process: parent span for the whole run
//   - crew.stage: child span per stage
//
// Events (via hooks):
//   - crew.stage_complete: fired as each stage finishes, success or not
//   - crew.all_complete: fired when every stage succeeds
type Crew struct {
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[CrewEvent]
	name    Name
	stages  []Stage
	mu      sync.RWMutex
}

// NewCrew creates a crew over a fixed ordered stage list.
func NewCrew(name Name, stages ...Stage) *Crew {
	metrics := metricz.New()
	metrics.Counter(CrewProcessedTotal)
	metrics.Counter(CrewSuccessesTotal)
	metrics.Counter(CrewFailuresTotal)
	metrics.Gauge(CrewStagesCompleted)
	metrics.Gauge(CrewStagesTotal)
	metrics.Gauge(CrewDurationMs)

	return &Crew{
		name:    name,
		stages:  slices.Clone(stages),
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[CrewEvent](),
	}
}

// NewStandardCrew builds the canonical two-stage crew: customization
// followed by pricing, each with its default latency bounds.
func NewStandardCrew() *Crew {
	return NewCrew(DefaultCrewName, NewCustomize(), NewPrice())
}

// Process runs every stage against the order in registration order.
// Each stage receives the previous stage's output. On the first stage
// failure the returned order carries StatusFailed and the triggering
// error, no later stage runs, and the same error is returned for
// callers that want to inspect it. Context cancellation before a stage
// starts is treated as an immediate failure.
func (c *Crew) Process(ctx context.Context, order Order) (result Order, err error) {
	defer recoverFromPanic(&result, &err, c.name, order)

	c.mu.RLock()
	stages := slices.Clone(c.stages)
	c.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}

	c.metrics.Counter(CrewProcessedTotal).Inc()
	c.metrics.Gauge(CrewStagesTotal).Set(float64(len(stages)))
	start := time.Now()

	ctx, span := c.tracer.StartSpan(ctx, CrewProcessSpan)
	span.SetTag(CrewTagOrderID, strconv.Itoa(order.ID))
	span.SetTag(CrewTagStageCount, strconv.Itoa(len(stages)))
	defer func() {
		c.metrics.Gauge(CrewDurationMs).Set(float64(time.Since(start).Milliseconds()))
		if err == nil {
			span.SetTag(CrewTagSuccess, "true")
			c.metrics.Counter(CrewSuccessesTotal).Inc()
		} else {
			span.SetTag(CrewTagSuccess, "false")
			span.SetTag(CrewTagError, err.Error())
			c.metrics.Counter(CrewFailuresTotal).Inc()
		}
		span.Finish()
	}()

	result = order
	completed := 0

	for i, stage := range stages {
		if ctxErr := ctx.Err(); ctxErr != nil {
			crewErr := &Error{
				InputOrder: order,
				Err:        ctxErr,
				Path:       []Name{c.name},
				Timestamp:  time.Now(),
				Duration:   time.Since(start),
				Timeout:    errors.Is(ctxErr, context.DeadlineExceeded),
				Canceled:   errors.Is(ctxErr, context.Canceled),
			}
			result.Status = StatusFailed
			result.Err = crewErr
			return result, crewErr
		}

		stageCtx, stageSpan := c.tracer.StartSpan(ctx, CrewStageSpan)
		stageSpan.SetTag(CrewTagStageNumber, strconv.Itoa(i+1))
		stageSpan.SetTag(CrewTagStageName, stage.Name())

		stageStart := time.Now()
		next, stageErr := stage.Process(stageCtx, result)
		stageDuration := time.Since(stageStart)
		stageSpan.Finish()

		if stageErr != nil {
			_ = c.hooks.Emit(ctx, CrewEventStageComplete, CrewEvent{ //nolint:errcheck
				Crew:        c.name,
				StageName:   stage.Name(),
				OrderID:     order.ID,
				StageNumber: i + 1,
				TotalStages: len(stages),
				Success:     false,
				Err:         stageErr,
				Duration:    stageDuration,
				Timestamp:   time.Now(),
			})

			var crewErr *Error
			if errors.As(stageErr, &crewErr) {
				crewErr.Path = append([]Name{c.name}, crewErr.Path...)
			} else {
				crewErr = &Error{
					InputOrder: result,
					Err:        stageErr,
					Path:       []Name{c.name, stage.Name()},
					Timestamp:  time.Now(),
					Duration:   stageDuration,
				}
			}
			result.Status = StatusFailed
			result.Err = crewErr
			return result, crewErr
		}

		result = next
		completed++
		c.metrics.Gauge(CrewStagesCompleted).Set(float64(completed))

		_ = c.hooks.Emit(ctx, CrewEventStageComplete, CrewEvent{ //nolint:errcheck
			Crew:        c.name,
			StageName:   stage.Name(),
			OrderID:     order.ID,
			StageNumber: i + 1,
			TotalStages: len(stages),
			Success:     true,
			Duration:    stageDuration,
			Timestamp:   time.Now(),
		})
	}

	_ = c.hooks.Emit(ctx, CrewEventAllComplete, CrewEvent{ //nolint:errcheck
		Crew:            c.name,
		OrderID:         order.ID,
		TotalStages:     len(stages),
		CompletedStages: completed,
		Success:         true,
		TotalDuration:   time.Since(start),
		Timestamp:       time.Now(),
	})

	return result, nil
}

// Run executes the crew and reports the outcome as a Result. Expected
// failures come back inside the Result with StatusFailed, never as a
// raised error, so batch callers can treat every order uniformly.
func (c *Crew) Run(ctx context.Context, order Order) Result {
	processed, err := c.Process(ctx, order)
	if err != nil {
		return Result{OrderID: order.ID, Status: StatusFailed, Err: err}
	}
	return Result{
		OrderID:       order.ID,
		Status:        processed.Status,
		EstimatedCost: processed.EstimatedCost,
	}
}

// Len returns the number of stages in the crew.
func (c *Crew) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stages)
}

// Names returns the stage names in execution order.
func (c *Crew) Names() []Name {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]Name, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Name returns the crew name.
func (c *Crew) Name() Name {
	return c.name
}

// Metrics returns the metrics registry for this crew.
func (c *Crew) Metrics() *metricz.Registry {
	return c.metrics
}

// Tracer returns the tracer for this crew.
func (c *Crew) Tracer() *tracez.Tracer {
	return c.tracer
}

// Close gracefully shuts down observability components.
func (c *Crew) Close() error {
	if c.tracer != nil {
		c.tracer.Close()
	}
	c.hooks.Close()
	return nil
}

// OnStageComplete registers a handler called as each stage finishes,
// whether it succeeded or failed.
func (c *Crew) OnStageComplete(handler func(context.Context, CrewEvent) error) error {
	_, err := c.hooks.Hook(CrewEventStageComplete, handler)
	return err
}

// OnAllComplete registers a handler called after every stage of a run
// succeeds, with aggregate timing for the whole pipeline.
func (c *Crew) OnAllComplete(handler func(context.Context, CrewEvent) error) error {
	_, err := c.hooks.Hook(CrewEventAllComplete, handler)
	return err
}

// OnProgress registers a simple observer invoked after each successful
// stage with the order id and stage counts. It is a convenience wrapper
// over OnStageComplete for callers like console progress bars that only
// want the (order, completed, total) triple.
func (c *Crew) OnProgress(fn func(orderID, completedStages, totalStages int)) error {
	return c.OnStageComplete(func(_ context.Context, e CrewEvent) error {
		if e.Success {
			fn(e.OrderID, e.StageNumber, e.TotalStages)
		}
		return nil
	})
}

// String renders the crew and its stage list for logs and CLI output.
func (c *Crew) String() string {
	return fmt.Sprintf("%s[%s]", c.name, strings.Join(c.Names(), " -> "))
}
