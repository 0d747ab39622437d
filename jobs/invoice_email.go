package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// InvoiceSource exposes the invoicing operations the jobs need.
type InvoiceSource interface {
	EmailEnvelope(ctx context.Context, id int64) (to, number string, err error)
	RenderPDF(ctx context.Context, id int64) ([]byte, string, error)
	MarkEmailed(ctx context.Context, id int64) error
}

// PDFSender delivers a message with a PDF attachment.
type PDFSender interface {
	SendWithPDF(to, subject, body, filename string, pdf []byte) error
}

// InvoiceEmailJob renders an invoice and mails it to the client.
type InvoiceEmailJob struct {
	Invoices InvoiceSource
	Mailer   PDFSender
	Logger   *slog.Logger
}

// NewInvoiceEmailJob constructs the delivery handler.
func NewInvoiceEmailJob(invoices InvoiceSource, mailer PDFSender, logger *slog.Logger) *InvoiceEmailJob {
	return &InvoiceEmailJob{Invoices: invoices, Mailer: mailer, Logger: logger}
}

// Handle executes the delivery.
func (j *InvoiceEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Invoices == nil || j.Mailer == nil {
		return errors.New("invoice email: handler not configured")
	}
	var payload InvoiceEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	to, number, err := j.Invoices.EmailEnvelope(ctx, payload.InvoiceID)
	if err != nil {
		return fmt.Errorf("invoice %d envelope: %w", payload.InvoiceID, err)
	}
	pdf, _, err := j.Invoices.RenderPDF(ctx, payload.InvoiceID)
	if err != nil {
		return fmt.Errorf("invoice %d render: %w", payload.InvoiceID, err)
	}

	subject := fmt.Sprintf("Invoice %s", number)
	body := fmt.Sprintf("Please find invoice %s attached.\r\n", number)
	if err := j.Mailer.SendWithPDF(to, subject, body, number+".pdf", pdf); err != nil {
		return fmt.Errorf("invoice %d send: %w", payload.InvoiceID, err)
	}

	if err := j.Invoices.MarkEmailed(ctx, payload.InvoiceID); err != nil {
		// delivered but unrecorded, a retry would double-send
		if j.Logger != nil {
			j.Logger.Error("mark invoice emailed", slog.Int64("invoice_id", payload.InvoiceID), slog.Any("error", err))
		}
		return nil
	}
	if j.Logger != nil {
		j.Logger.Info("invoice emailed", slog.Int64("invoice_id", payload.InvoiceID), slog.String("to", to))
	}
	return nil
}
