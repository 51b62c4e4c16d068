package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/superdadtees/orderflow"
)

var (
	runFile  string
	runLimit int

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Process a batch of orders from a CSV file",
		Long: `Run every order in a CSV file through the customize-then-price crew
concurrently, showing a per-order progress bar, then print one result
line per order. Without --file a small built-in sample batch is used.

CSV columns: customer,size,color,design,text (text optional).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd.Context())
		},
	}
)

func init() {
	runCmd.Flags().StringVar(&runFile, "file", "", "CSV file of orders (default: built-in sample)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max concurrent orders (0 = all at once)")
}

// csvOrder is one CSV row. Order ids are assigned from row position, so
// they are unique within the batch without a column for them.
type csvOrder struct {
	Customer string `csv:"customer"`
	Size     string `csv:"size"`
	Color    string `csv:"color"`
	Design   string `csv:"design"`
	Text     string `csv:"text,omitempty"`
}

func runBatch(ctx context.Context) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Str("component", "run").Logger()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	orders, err := loadOrders()
	if err != nil {
		return err
	}
	log.Info().Int("orders", len(orders)).Int("limit", runLimit).Msg("starting batch")

	crew := orderflow.NewStandardCrew()
	defer crew.Close() //nolint:errcheck

	if err := crew.OnProgress(printProgress); err != nil {
		return err
	}

	results := orderflow.NewBatch(crew).WithLimit(runLimit).Process(ctx, orders)

	// Progress events are async; give stragglers a beat before the summary.
	time.Sleep(100 * time.Millisecond)

	fmt.Println()
	failures := 0
	for i, res := range results {
		if res.Failed() {
			failures++
			fmt.Printf("order %d (%s): %s\n", res.OrderID, orders[i].Customer, res.Err)
		} else {
			fmt.Printf("order %d (%s): priced at $%.2f\n", res.OrderID, orders[i].Customer, res.EstimatedCost)
		}
	}
	log.Info().Int("succeeded", len(results)-failures).Int("failed", failures).Msg("batch complete")
	return nil
}

// printProgress renders a 20-slot console bar for one order's pipeline.
func printProgress(orderID, completed, total int) {
	const width = 20
	filled := completed * width / total
	bar := strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
	fmt.Printf("order %d: [%s] %3.0f%% complete\n", orderID, bar, float64(completed)/float64(total)*100)
}

func loadOrders() ([]orderflow.Order, error) {
	if runFile == "" {
		return sampleOrders(), nil
	}

	f, err := os.Open(runFile)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	var orders []orderflow.Order
	for {
		var row csvOrder
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode order record #%d: %w", len(orders)+1, err)
		}
		orders = append(orders, orderflow.Order{
			ID:       len(orders) + 1,
			Customer: row.Customer,
			Size:     row.Size,
			Color:    row.Color,
			Design:   row.Design,
			Text:     row.Text,
		})
	}
	return orders, nil
}

func sampleOrders() []orderflow.Order {
	return []orderflow.Order{
		{ID: 1, Customer: "Ada", Size: "M", Color: "Blue", Design: "Abstract"},
		{ID: 2, Customer: "Bob", Size: "XXL", Color: "Red", Design: "Vintage"},
		{ID: 3, Customer: "Cleo", Size: "L", Color: "green", Design: "Modern", Text: "Experience the best!"},
		{ID: 4, Customer: "Dev", Size: "xl", Color: "BLACK", Design: "graffiti", Text: "  "},
	}
}
