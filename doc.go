// Package orderflow processes custom t-shirt orders through a fixed
// two-stage pipeline: option validation ("customization") followed by
// dynamic price computation ("pricing").
//
// A Crew executes the stages strictly in sequence for one order and
// halts hard on the first failure; a Batch starts one independent crew
// run per order so many orders proceed concurrently without observing
// each other. Each stage suspends briefly before returning to model
// real-world processing latency, and those suspension points are the
// only places a run parks.
//
// # Quick start
//
//	crew := orderflow.NewStandardCrew()
//	defer crew.Close()
//
//	result := crew.Run(ctx, orderflow.Order{
//	    ID: 1, Customer: "Ada", Size: "M", Color: "blue", Design: "abstract",
//	})
//	if result.Failed() {
//	    log.Println(result.Err)
//	} else {
//	    fmt.Printf("estimated cost: $%.2f\n", result.EstimatedCost)
//	}
//
// Batches preserve the order-to-result association by position:
//
//	results := orderflow.NewBatch(crew).Process(ctx, orders)
//
// # Errors
//
// Stage failures surface as *Error values carrying the failure path,
// the order being processed, and timing. Option validation failures
// wrap a *ValidationError naming the field, the offending value, and
// the allowed set; use IsValidation to separate them from defects.
//
// # Observability
//
// The Crew exposes metricz counters, tracez spans, and hookz progress
// events. Progress events fire after each successful stage and are safe
// to drop; see Crew.OnProgress for the console-bar-shaped hook.
package orderflow
