package orderflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// Test name constants.
const (
	testCrew Name = "test-crew"

	passStage  Name = "pass"
	boomStage  Name = "boom"
	panicStage Name = "panic"
	afterStage Name = "after"
)

// zeroDelayCrew builds the standard stages without simulated latency.
func zeroDelayCrew() *Crew {
	return NewCrew(testCrew,
		NewCustomize().WithDelay(0, 0),
		NewPrice().WithDelay(0, 0),
	)
}

func TestCrewProcessSuccess(t *testing.T) {
	crew := zeroDelayCrew()
	defer crew.Close() //nolint:errcheck

	order, err := crew.Process(context.Background(), Order{
		ID: 1, Customer: "Ada", Size: "M", Color: "Blue", Design: "Abstract",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != StatusPriced {
		t.Errorf("expected terminal status priced, got %v", order.Status)
	}
	if order.EstimatedCost < 14.0 || order.EstimatedCost > 16.0 {
		t.Errorf("expected cost within [14, 16], got %v", order.EstimatedCost)
	}
	if order.Err != nil {
		t.Errorf("successful order should carry no error, got %v", order.Err)
	}
}

func TestCrewHaltsOnFirstFailure(t *testing.T) {
	var priceRan bool
	crew := NewCrew(testCrew,
		NewCustomize().WithDelay(0, 0),
		StageFunc(afterStage, func(_ context.Context, o Order) (Order, error) {
			priceRan = true
			return o, nil
		}),
	)
	defer crew.Close() //nolint:errcheck

	order, err := crew.Process(context.Background(), Order{
		ID: 2, Customer: "Bob", Size: "XXL", Color: "Red", Design: "Vintage",
	})
	if err == nil {
		t.Fatal("expected failure for invalid size")
	}
	if priceRan {
		t.Error("no stage may run after the first failure")
	}
	if order.Status != StatusFailed {
		t.Errorf("expected status failed, got %v", order.Status)
	}
	if order.Err == nil {
		t.Fatal("failed order must record the triggering error")
	}
	if order.EstimatedCost != 0 {
		t.Errorf("failed order must not carry a cost, got %v", order.EstimatedCost)
	}

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "size" {
		t.Errorf("expected validation error naming size, got %v", err)
	}

	var crewErr *Error
	if !errors.As(err, &crewErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(crewErr.Path) < 2 || crewErr.Path[0] != testCrew || crewErr.Path[1] != CustomizeStageName {
		t.Errorf("expected path [%s %s ...], got %v", testCrew, CustomizeStageName, crewErr.Path)
	}
}

func TestCrewRunNeverRaises(t *testing.T) {
	crew := zeroDelayCrew()
	defer crew.Close() //nolint:errcheck

	res := crew.Run(context.Background(), Order{ID: 9, Size: "no-such", Color: "red"})
	if !res.Failed() {
		t.Fatal("expected failed result")
	}
	if res.OrderID != 9 {
		t.Errorf("expected order id 9, got %d", res.OrderID)
	}
	if res.Err == nil {
		t.Fatal("failed result must carry the error")
	}
	if res.EstimatedCost != 0 {
		t.Errorf("failed result must not carry a cost, got %v", res.EstimatedCost)
	}
}

func TestCrewStagesRunInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []Name
	record := func(name Name) Stage {
		return StageFunc(name, func(_ context.Context, o Order) (Order, error) {
			mu.Lock()
			seen = append(seen, name)
			mu.Unlock()
			return o, nil
		})
	}

	crew := NewCrew(testCrew, record("first"), record("second"), record("third"))
	defer crew.Close() //nolint:errcheck

	if _, err := crew.Process(context.Background(), Order{ID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Name{"first", "second", "third"}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(seen))
	}
	for i, name := range want {
		if seen[i] != name {
			t.Errorf("stage %d: expected %q, got %q", i, name, seen[i])
		}
	}
}

func TestCrewProgressEvents(t *testing.T) {
	crew := zeroDelayCrew()
	defer crew.Close() //nolint:errcheck

	var mu sync.Mutex
	type progress struct{ orderID, completed, total int }
	var events []progress
	if err := crew.OnProgress(func(orderID, completed, total int) {
		mu.Lock()
		events = append(events, progress{orderID, completed, total})
		mu.Unlock()
	}); err != nil {
		t.Fatalf("OnProgress: %v", err)
	}

	var allComplete []CrewEvent
	if err := crew.OnAllComplete(func(_ context.Context, e CrewEvent) error {
		mu.Lock()
		allComplete = append(allComplete, e)
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("OnAllComplete: %v", err)
	}

	if _, err := crew.Process(context.Background(), Order{ID: 42, Size: "M", Color: "red"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Wait for async hooks to fire
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(events))
	}
	for i, e := range events {
		if e.orderID != 42 {
			t.Errorf("event %d: expected order id 42, got %d", i, e.orderID)
		}
		if e.completed != i+1 || e.total != 2 {
			t.Errorf("event %d: expected progress (%d, 2), got (%d, %d)", i, i+1, e.completed, e.total)
		}
	}
	if len(allComplete) != 1 {
		t.Fatalf("expected 1 all_complete event, got %d", len(allComplete))
	}
	if allComplete[0].CompletedStages != 2 || allComplete[0].OrderID != 42 {
		t.Errorf("unexpected all_complete event: %+v", allComplete[0])
	}
}

func TestCrewNoProgressAfterFailure(t *testing.T) {
	crew := zeroDelayCrew()
	defer crew.Close() //nolint:errcheck

	var mu sync.Mutex
	var count int
	if err := crew.OnProgress(func(_, _, _ int) {
		mu.Lock()
		count++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("OnProgress: %v", err)
	}

	crew.Run(context.Background(), Order{ID: 1, Size: "XXL", Color: "red"})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("expected no progress events for a run that fails at stage one, got %d", count)
	}
}

func TestCrewPanicIsADefectNotValidation(t *testing.T) {
	crew := NewCrew(testCrew, StageFunc(panicStage, func(_ context.Context, _ Order) (Order, error) {
		panic("stage bug")
	}))
	defer crew.Close() //nolint:errcheck

	res := crew.Run(context.Background(), Order{ID: 3, Size: "M", Color: "red"})
	if !res.Failed() {
		t.Fatal("expected failed result from panicking stage")
	}
	if IsValidation(res.Err) {
		t.Error("a panic must not be classified as a validation failure")
	}

	var crewErr *Error
	if !errors.As(res.Err, &crewErr) {
		t.Fatalf("expected *Error, got %T", res.Err)
	}
}

func TestCrewCanceledContext(t *testing.T) {
	crew := zeroDelayCrew()
	defer crew.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	order, err := crew.Process(ctx, Order{ID: 1, Size: "M", Color: "red"})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if order.Status != StatusFailed {
		t.Errorf("expected status failed, got %v", order.Status)
	}

	var crewErr *Error
	if !errors.As(err, &crewErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !crewErr.IsCanceled() {
		t.Errorf("expected canceled error, got %v", err)
	}
}

func TestCrewAccessors(t *testing.T) {
	crew := NewStandardCrew()
	defer crew.Close() //nolint:errcheck

	if crew.Name() != DefaultCrewName {
		t.Errorf("expected name %q, got %q", DefaultCrewName, crew.Name())
	}
	if crew.Len() != 2 {
		t.Errorf("expected 2 stages, got %d", crew.Len())
	}
	names := crew.Names()
	if len(names) != 2 || names[0] != CustomizeStageName || names[1] != PriceStageName {
		t.Errorf("unexpected stage names: %v", names)
	}
	if crew.Metrics() == nil {
		t.Error("expected metrics registry")
	}
	if crew.Tracer() == nil {
		t.Error("expected tracer")
	}
	want := "order-crew[customize -> price]"
	if crew.String() != want {
		t.Errorf("expected %q, got %q", want, crew.String())
	}
}

func TestCrewNilContext(t *testing.T) {
	crew := zeroDelayCrew()
	defer crew.Close() //nolint:errcheck

	var nilCtx context.Context
	order, err := crew.Process(nilCtx, Order{ID: 1, Size: "M", Color: "red"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != StatusPriced {
		t.Errorf("expected status priced, got %v", order.Status)
	}
}
