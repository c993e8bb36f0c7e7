package receipt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Printer receives rendered bills.
type Printer interface {
	Print(ctx context.Context, number, text string) error
}

// LogPrinter writes bills to the log.
type LogPrinter struct {
	Logger zerolog.Logger
}

// Print implements Printer.
func (p LogPrinter) Print(_ context.Context, number, text string) error {
	p.Logger.Info().Str("invoice", number).Str("receipt", text).Msg("receipt delivered")
	return nil
}

// Worker handles TaskDeliver tasks.
type Worker struct {
	Renderer Renderer
	Printer  Printer
	Logger   zerolog.Logger
}

// Register mounts the worker on mux.
func (w Worker) Register(mux *asynq.ServeMux) {
	mux.Handle(TaskDeliver, w)
}

// ProcessTask implements asynq.Handler. Malformed payloads are not retried.
func (w Worker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.Logger.Error().Err(err).Str("task", t.Type()).Msg("discard malformed receipt task")
		return fmt.Errorf("receipt: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Invoice.Number == "" || len(p.Invoice.Items) == 0 {
		return fmt.Errorf("receipt: incomplete invoice: %w", asynq.SkipRetry)
	}
	printer := w.Printer
	if printer == nil {
		printer = LogPrinter{Logger: w.Logger}
	}
	if err := printer.Print(ctx, p.Invoice.Number, w.Renderer.Render(p.Invoice)); err != nil {
		return fmt.Errorf("receipt: print %s: %w", p.Invoice.Number, err)
	}
	w.Logger.Debug().Str("session_id", p.SessionID).Str("invoice", p.Invoice.Number).Msg("receipt processed")
	return nil
}
