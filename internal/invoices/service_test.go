package invoices

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/torque-erp/torque-erp/internal/orders"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
	"github.com/torque-erp/torque-erp/internal/settings"
)

type memRepo struct {
	invoices map[int64]*Invoice
	lines    map[int64][]InvoiceLine
	email    string
	counter  int64
	nextID   int64
	nextLine int64
}

func newMemRepo() *memRepo {
	return &memRepo{invoices: make(map[int64]*Invoice), lines: make(map[int64][]InvoiceLine)}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) Get(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	cp := *inv
	cp.Lines = append([]InvoiceLine(nil), m.lines[id]...)
	return &cp, nil
}

func (m *memRepo) Details(ctx context.Context, id int64) (*BillingDetails, error) {
	inv, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BillingDetails{
		Invoice:       *inv,
		OrderProtocol: "WO-2026-0001",
		ClientName:    "Jane's Couriers",
		ClientEmail:   m.email,
		VehiclePlate:  "AB-123-CD",
		VehicleMake:   "Ford",
		VehicleModel:  "Transit",
	}, nil
}

func (m *memRepo) List(_ context.Context, _ ListInvoicesRequest) ([]InvoiceWithDetails, int, error) {
	return nil, 0, nil
}

func (m *memRepo) Create(_ context.Context, inv Invoice) (int64, error) {
	m.nextID++
	inv.ID = m.nextID
	m.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (m *memRepo) InsertLine(_ context.Context, line InvoiceLine) (int64, error) {
	m.nextLine++
	line.ID = m.nextLine
	m.lines[line.InvoiceID] = append(m.lines[line.InvoiceID], line)
	return line.ID, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id int64, status InvoiceStatus) error {
	inv, ok := m.invoices[id]
	if !ok {
		return httpx.ErrNotFound
	}
	inv.Status = status
	return nil
}

func (m *memRepo) MarkEmailed(_ context.Context, id int64) error {
	inv, ok := m.invoices[id]
	if !ok {
		return httpx.ErrNotFound
	}
	now := time.Now()
	inv.EmailedAt = &now
	return nil
}

func (m *memRepo) NextInvoiceNumber(_ context.Context, date time.Time) (string, error) {
	m.counter++
	return fmt.Sprintf("INV-%d-%04d", date.Year(), m.counter), nil
}

type stubOrders struct {
	order    *orders.WorkOrder
	invoiced []int64
	markErr  error
}

func (s *stubOrders) Get(_ context.Context, id int64) (*orders.WorkOrder, error) {
	if s.order == nil || s.order.ID != id {
		return nil, httpx.ErrNotFound
	}
	return s.order, nil
}

func (s *stubOrders) MarkInvoiced(_ context.Context, id int64) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.invoiced = append(s.invoiced, id)
	return nil
}

type stubCompany struct{ vat float64 }

func (s stubCompany) Get(_ context.Context) (*settings.Company, error) {
	return &settings.Company{Name: "Torque Garage Ltd", VATRate: s.vat}, nil
}

type stubRenderer struct{ html string }

func (s *stubRenderer) RenderHTML(_ context.Context, html string) ([]byte, error) {
	s.html = html
	return []byte("%PDF-1.7"), nil
}

type stubQueue struct{ queued []int64 }

func (s *stubQueue) EnqueueInvoiceEmail(_ context.Context, id int64) error {
	s.queued = append(s.queued, id)
	return nil
}

func completedOrder() *orders.WorkOrder {
	return &orders.WorkOrder{
		ID:       42,
		Protocol: "WO-2026-0001",
		ClientID: 3,
		Status:   orders.WorkOrderStatusCompleted,
		Total:    200,
		Lines: []orders.WorkOrderLine{
			{Description: "labour", Quantity: 2, UnitPrice: 60, LineTotal: 120, LineOrder: 1},
			{Description: "parts", Quantity: 1, UnitPrice: 80, LineTotal: 80, LineOrder: 2},
		},
	}
}

func newTestService(repo *memRepo, src *stubOrders, queue *stubQueue) (*Service, *stubRenderer) {
	renderer := &stubRenderer{}
	svc := NewService(repo, src, stubCompany{vat: 20}, renderer, queue)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return svc, renderer
}

func TestCreateFromOrder(t *testing.T) {
	repo := newMemRepo()
	src := &stubOrders{order: completedOrder()}
	svc, _ := newTestService(repo, src, &stubQueue{})

	inv, err := svc.CreateFromOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 42}, 7)
	require.NoError(t, err)
	require.Equal(t, "INV-2026-0001", inv.Number)
	require.Equal(t, InvoiceStatusIssued, inv.Status)
	require.Equal(t, int64(3), inv.ClientID)
	require.InDelta(t, 200.0, inv.Subtotal, 0.001)
	require.InDelta(t, 40.0, inv.VATAmount, 0.001)
	require.InDelta(t, 240.0, inv.Total, 0.001)
	require.Equal(t, inv.IssuedAt.AddDate(0, 0, defaultDueDays), inv.DueAt)
	require.Len(t, inv.Lines, 2)
	require.Equal(t, []int64{42}, src.invoiced)
}

func TestCreateFromOrderRejectsEmptyOrder(t *testing.T) {
	order := completedOrder()
	order.Lines = nil
	svc, _ := newTestService(newMemRepo(), &stubOrders{order: order}, &stubQueue{})

	_, err := svc.CreateFromOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 42}, 7)
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCreateFromOrderPropagatesStatusGuard(t *testing.T) {
	src := &stubOrders{order: completedOrder(), markErr: orders.ErrInvalidStatus}
	svc, _ := newTestService(newMemRepo(), src, &stubQueue{})

	_, err := svc.CreateFromOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 42}, 7)
	require.ErrorIs(t, err, orders.ErrInvalidStatus)
}

func TestRenderPDFUsesInvoiceDocument(t *testing.T) {
	repo := newMemRepo()
	src := &stubOrders{order: completedOrder()}
	svc, renderer := newTestService(repo, src, &stubQueue{})

	inv, err := svc.CreateFromOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 42}, 7)
	require.NoError(t, err)

	pdf, number, err := svc.RenderPDF(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.Number, number)
	require.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	require.Contains(t, renderer.html, inv.Number)
	require.Contains(t, renderer.html, "Torque Garage Ltd")
	require.Contains(t, renderer.html, "AB-123-CD")
}

func TestQueueEmailRequiresClientAddress(t *testing.T) {
	repo := newMemRepo()
	src := &stubOrders{order: completedOrder()}
	queue := &stubQueue{}
	svc, _ := newTestService(repo, src, queue)

	inv, err := svc.CreateFromOrder(context.Background(), CreateInvoiceRequest{WorkOrderID: 42}, 7)
	require.NoError(t, err)

	require.ErrorIs(t, svc.QueueEmail(context.Background(), inv.ID), ErrNoClientEmail)
	require.Empty(t, queue.queued)

	repo.email = "billing@janescouriers.test"
	require.NoError(t, svc.QueueEmail(context.Background(), inv.ID))
	require.Equal(t, []int64{inv.ID}, queue.queued)
}
