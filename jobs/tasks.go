package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceEmail delivers an issued invoice to the client by email.
	TaskInvoiceEmail = "invoice:email"
	// TaskInvoicePDF renders a batch of invoices to verify they convert cleanly.
	TaskInvoicePDF = "invoice:pdf"
)

// InvoiceEmailPayload identifies the invoice to deliver.
type InvoiceEmailPayload struct {
	InvoiceID int64 `json:"invoice_id"`
}

// InvoicePDFPayload identifies the invoices to render.
type InvoicePDFPayload struct {
	InvoiceIDs []int64 `json:"invoice_ids"`
}

// NewInvoiceEmailTask constructs an Asynq task.
func NewInvoiceEmailTask(payload InvoiceEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceEmail, data), nil
}

// NewInvoicePDFTask constructs an Asynq task.
func NewInvoicePDFTask(payload InvoicePDFPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoicePDF, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueInvoiceEmail enqueues an invoice delivery task.
func (c *Client) EnqueueInvoiceEmail(ctx context.Context, invoiceID int64) error {
	task, err := NewInvoiceEmailTask(InvoiceEmailPayload{InvoiceID: invoiceID})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// EnqueueInvoicePDF enqueues a batch render task.
func (c *Client) EnqueueInvoicePDF(ctx context.Context, invoiceIDs []int64) error {
	task, err := NewInvoicePDFTask(InvoicePDFPayload{InvoiceIDs: invoiceIDs})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
