package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type stubInvoices struct {
	mu        sync.Mutex
	rendered  []int64
	emailed   []int64
	renderErr map[int64]error
}

func (s *stubInvoices) EmailEnvelope(_ context.Context, id int64) (string, string, error) {
	return "billing@janescouriers.test", "INV-2026-0042", nil
}

func (s *stubInvoices) RenderPDF(_ context.Context, id int64) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.renderErr[id]; err != nil {
		return nil, "", err
	}
	s.rendered = append(s.rendered, id)
	return []byte("%PDF-1.7"), "INV-2026-0042", nil
}

func (s *stubInvoices) MarkEmailed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emailed = append(s.emailed, id)
	return nil
}

type stubSender struct {
	to       string
	subject  string
	filename string
	pdf      []byte
	err      error
}

func (s *stubSender) SendWithPDF(to, subject, _, filename string, pdf []byte) error {
	if s.err != nil {
		return s.err
	}
	s.to, s.subject, s.filename, s.pdf = to, subject, filename, pdf
	return nil
}

func TestInvoiceEmailJob(t *testing.T) {
	invoices := &stubInvoices{}
	sender := &stubSender{}
	job := NewInvoiceEmailJob(invoices, sender, nil)

	task, err := NewInvoiceEmailTask(InvoiceEmailPayload{InvoiceID: 9})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, "billing@janescouriers.test", sender.to)
	require.Equal(t, "Invoice INV-2026-0042", sender.subject)
	require.Equal(t, "INV-2026-0042.pdf", sender.filename)
	require.NotEmpty(t, sender.pdf)
	require.Equal(t, []int64{9}, invoices.emailed)
}

func TestInvoiceEmailJobSendFailureRetries(t *testing.T) {
	invoices := &stubInvoices{}
	sender := &stubSender{err: errors.New("smtp down")}
	job := NewInvoiceEmailJob(invoices, sender, nil)

	task, err := NewInvoiceEmailTask(InvoiceEmailPayload{InvoiceID: 9})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, invoices.emailed)
}

func TestInvoiceEmailJobMalformedPayload(t *testing.T) {
	job := NewInvoiceEmailJob(&stubInvoices{}, &stubSender{}, nil)
	task := asynq.NewTask(TaskInvoiceEmail, []byte("not json"))

	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestInvoicePDFJobRendersBatch(t *testing.T) {
	invoices := &stubInvoices{}
	job := NewInvoicePDFJob(invoices, nil)

	task, err := NewInvoicePDFTask(InvoicePDFPayload{InvoiceIDs: []int64{1, 2, 3}})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.ElementsMatch(t, []int64{1, 2, 3}, invoices.rendered)
}

func TestInvoicePDFJobPropagatesFailure(t *testing.T) {
	invoices := &stubInvoices{renderErr: map[int64]error{2: errors.New("gotenberg down")}}
	job := NewInvoicePDFJob(invoices, nil)

	task, err := NewInvoicePDFTask(InvoicePDFPayload{InvoiceIDs: []int64{1, 2}})
	require.NoError(t, err)

	require.Error(t, job.Handle(context.Background(), task))
}
