package main

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/superdadtees/orderflow"
)

var (
	serveAddr string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the order form over HTTP",
		Long: `Start an HTTP server exposing the SuperDad's T-Shirts order form
and a small JSON API. Submitted orders run through the standard
customize-then-price crew; order ids are assigned from a local counter.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "listen address")
}

// orderServer holds the pieces shared by the web handlers. The counter
// is the single writer of order ids for this process, replacing the
// ambient global the old demo used.
type orderServer struct {
	crew    *orderflow.Crew
	batch   *orderflow.Batch
	tmpl    *template.Template
	log     zerolog.Logger
	counter atomic.Int64
}

func runServe(ctx context.Context) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Str("component", "serve").Logger()

	crew := orderflow.NewStandardCrew()
	defer crew.Close() //nolint:errcheck

	if err := crew.OnStageComplete(func(_ context.Context, e orderflow.CrewEvent) error {
		if e.Success {
			log.Debug().
				Int("order_id", e.OrderID).
				Str("stage", e.StageName).
				Int("stage_number", e.StageNumber).
				Int("total_stages", e.TotalStages).
				Dur("took", e.Duration).
				Msg("stage complete")
		} else {
			log.Warn().
				Int("order_id", e.OrderID).
				Str("stage", e.StageName).
				Err(e.Err).
				Msg("stage failed")
		}
		return nil
	}); err != nil {
		return err
	}

	srv := &orderServer{
		crew:  crew,
		batch: orderflow.NewBatch(crew),
		tmpl:  template.Must(template.New("order").Parse(orderPageHTML)),
		log:   log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/", srv.handleForm)
	r.Post("/", srv.handleSubmit)
	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", srv.handleOrderJSON)
		r.Post("/batch", srv.handleBatchJSON)
	})

	httpServer := &http.Server{
		Addr:         serveAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serveAddr).Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// orderForm carries submitted field values into the crew and back into
// the rendered page.
type orderForm struct {
	OrderID  int
	Customer string
	Size     string
	Color    string
	Design   string
	Text     string
}

type orderPage struct {
	NextID int
	Order  *orderForm
	Result *orderflow.Result
	ErrMsg string
}

func (s *orderServer) handleForm(w http.ResponseWriter, _ *http.Request) {
	s.render(w, orderPage{NextID: int(s.counter.Load()) + 1})
}

func (s *orderServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	form := orderForm{
		OrderID:  int(s.counter.Add(1)),
		Customer: r.PostFormValue("customer_name"),
		Size:     r.PostFormValue("size"),
		Color:    r.PostFormValue("color"),
		Design:   r.PostFormValue("design"),
		Text:     r.PostFormValue("text"),
	}

	result := s.crew.Run(r.Context(), orderflow.Order{
		ID:       form.OrderID,
		Customer: form.Customer,
		Size:     form.Size,
		Color:    form.Color,
		Design:   form.Design,
		Text:     form.Text,
	})

	page := orderPage{NextID: int(s.counter.Load()) + 1, Order: &form, Result: &result}
	if result.Failed() {
		page.ErrMsg = result.Err.Error()
	}
	s.logResult(result)
	s.render(w, page)
}

// apiOrder is the JSON shape accepted by the API endpoints.
type apiOrder struct {
	OrderID  int    `json:"order_id,omitempty"`
	Customer string `json:"customer_name"`
	Size     string `json:"size"`
	Color    string `json:"color"`
	Design   string `json:"design"`
	Text     string `json:"text,omitempty"`
}

// apiResult is the JSON shape of one order outcome. Cost is meaningful
// only when status is "priced".
type apiResult struct {
	OrderID       int              `json:"order_id"`
	Status        orderflow.Status `json:"status"`
	EstimatedCost float64          `json:"estimated_cost"`
	Error         string           `json:"error,omitempty"`
}

func toAPIResult(r orderflow.Result) apiResult {
	out := apiResult{OrderID: r.OrderID, Status: r.Status, EstimatedCost: r.EstimatedCost}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func (s *orderServer) handleOrderJSON(w http.ResponseWriter, r *http.Request) {
	var in apiOrder
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	result := s.crew.Run(r.Context(), s.toOrder(in))
	s.logResult(result)
	writeJSON(w, toAPIResult(result))
}

func (s *orderServer) handleBatchJSON(w http.ResponseWriter, r *http.Request) {
	var in []apiOrder
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	orders := make([]orderflow.Order, len(in))
	for i, o := range in {
		orders[i] = s.toOrder(o)
	}
	results := s.batch.Process(r.Context(), orders)
	out := make([]apiResult, len(results))
	for i, res := range results {
		out[i] = toAPIResult(res)
		s.logResult(res)
	}
	writeJSON(w, out)
}

// toOrder assigns an id from the counter when the caller did not
// provide one, keeping ids unique within this server.
func (s *orderServer) toOrder(in apiOrder) orderflow.Order {
	id := in.OrderID
	if id == 0 {
		id = int(s.counter.Add(1))
	}
	return orderflow.Order{
		ID:       id,
		Customer: in.Customer,
		Size:     in.Size,
		Color:    in.Color,
		Design:   in.Design,
		Text:     in.Text,
	}
}

func (s *orderServer) logResult(r orderflow.Result) {
	if !r.Failed() {
		s.log.Info().Int("order_id", r.OrderID).Float64("cost", r.EstimatedCost).Msg("order priced")
		return
	}
	// Validation failures are the customer's problem; anything else is ours.
	if orderflow.IsValidation(r.Err) {
		s.log.Info().Int("order_id", r.OrderID).Err(r.Err).Msg("order rejected")
	} else {
		s.log.Error().Int("order_id", r.OrderID).Err(r.Err).Msg("order failed")
	}
}

func (s *orderServer) render(w http.ResponseWriter, page orderPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, page); err != nil {
		s.log.Error().Err(err).Msg("render failed")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}
