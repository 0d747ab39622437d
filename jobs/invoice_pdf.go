package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// InvoicePDFJob renders a batch of invoices through the PDF pipeline so
// template or Gotenberg problems surface before a client asks for the
// document.
type InvoicePDFJob struct {
	Invoices InvoiceSource
	Logger   *slog.Logger
}

// NewInvoicePDFJob constructs the batch render handler.
func NewInvoicePDFJob(invoices InvoiceSource, logger *slog.Logger) *InvoicePDFJob {
	return &InvoicePDFJob{Invoices: invoices, Logger: logger}
}

// Handle renders every invoice in the payload, a few at a time.
func (j *InvoicePDFJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Invoices == nil {
		return errors.New("invoice pdf: handler not configured")
	}
	var payload InvoicePDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(payload.InvoiceIDs) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for _, id := range payload.InvoiceIDs {
		g.Go(func() error {
			if _, _, err := j.Invoices.RenderPDF(ctx, id); err != nil {
				return fmt.Errorf("invoice %d: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if j.Logger != nil {
			j.Logger.Error("invoice pdf batch", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("invoice pdf batch rendered", slog.Int("count", len(payload.InvoiceIDs)))
	}
	return nil
}
