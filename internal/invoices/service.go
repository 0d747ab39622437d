package invoices

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/torque-erp/torque-erp/internal/orders"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
	"github.com/torque-erp/torque-erp/internal/settings"
	"github.com/torque-erp/torque-erp/report"
)

var (
	// ErrEmptyOrder rejects invoicing an order without any lines.
	ErrEmptyOrder = fmt.Errorf("%w: order has no lines", httpx.ErrValidation)
	// ErrNoClientEmail rejects email delivery when the client has no address.
	ErrNoClientEmail = fmt.Errorf("%w: client has no email address", httpx.ErrValidation)
)

const defaultDueDays = 14

// OrderSource exposes the work-order operations invoicing needs.
type OrderSource interface {
	Get(ctx context.Context, id int64) (*orders.WorkOrder, error)
	MarkInvoiced(ctx context.Context, id int64) error
}

// CompanyReader loads the business profile printed on invoices.
type CompanyReader interface {
	Get(ctx context.Context) (*settings.Company, error)
}

// PDFRenderer converts HTML to PDF bytes.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Enqueuer submits background delivery tasks.
type Enqueuer interface {
	EnqueueInvoiceEmail(ctx context.Context, invoiceID int64) error
}

// Service wraps invoicing business rules.
type Service struct {
	repo     Repository
	orders   OrderSource
	company  CompanyReader
	renderer PDFRenderer
	queue    Enqueuer
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, orderSrc OrderSource, company CompanyReader, renderer PDFRenderer, queue Enqueuer) *Service {
	return &Service{repo: repo, orders: orderSrc, company: company, renderer: renderer, queue: queue, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithDetails, int, error) {
	if req.PerPage <= 0 {
		req.PerPage = 20
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	return s.repo.List(ctx, req)
}

// CreateFromOrder issues an invoice for a completed work order. The number
// reservation, header and line snapshot commit in one transaction; the order
// is flagged invoiced right after.
func (s *Service) CreateFromOrder(ctx context.Context, req CreateInvoiceRequest, createdBy int64) (*Invoice, error) {
	order, err := s.orders.Get(ctx, req.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if len(order.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	company, err := s.company.Get(ctx)
	if err != nil {
		return nil, err
	}

	dueDays := req.DueDays
	if dueDays <= 0 {
		dueDays = defaultDueDays
	}
	issuedAt := s.now()

	subtotal := order.Total
	vat := round2(subtotal * company.VATRate / 100)

	inv := Invoice{
		WorkOrderID: order.ID,
		ClientID:    order.ClientID,
		Status:      InvoiceStatusIssued,
		IssuedAt:    issuedAt,
		DueAt:       issuedAt.AddDate(0, 0, dueDays),
		Subtotal:    subtotal,
		VATRate:     company.VATRate,
		VATAmount:   vat,
		Total:       round2(subtotal + vat),
		Notes:       req.Notes,
		CreatedBy:   createdBy,
	}

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextInvoiceNumber(ctx, issuedAt)
		if err != nil {
			return fmt.Errorf("reserve invoice number: %w", err)
		}
		inv.Number = number

		invoiceID, err = repo.Create(ctx, inv)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		for _, ol := range order.Lines {
			line := InvoiceLine{
				InvoiceID:   invoiceID,
				Description: ol.Description,
				Quantity:    ol.Quantity,
				UnitPrice:   ol.UnitPrice,
				LineTotal:   ol.LineTotal,
				LineOrder:   ol.LineOrder,
			}
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert invoice line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.MarkInvoiced(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("mark order invoiced: %w", err)
	}
	return s.repo.Get(ctx, invoiceID)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status InvoiceStatus) (*Invoice, error) {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// RenderPDF builds the invoice document and converts it through Gotenberg.
func (s *Service) RenderPDF(ctx context.Context, id int64) ([]byte, string, error) {
	details, err := s.repo.Details(ctx, id)
	if err != nil {
		return nil, "", err
	}
	company, err := s.company.Get(ctx)
	if err != nil {
		return nil, "", err
	}

	html, err := report.RenderInvoiceHTML(buildDocument(details, company))
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, "", fmt.Errorf("render invoice pdf: %w", err)
	}
	return pdf, details.Invoice.Number, nil
}

// QueueEmail hands the invoice to the background mailer.
func (s *Service) QueueEmail(ctx context.Context, id int64) error {
	details, err := s.repo.Details(ctx, id)
	if err != nil {
		return err
	}
	if details.ClientEmail == "" {
		return ErrNoClientEmail
	}
	return s.queue.EnqueueInvoiceEmail(ctx, id)
}

// EmailEnvelope returns the delivery address and number for the mailer job.
func (s *Service) EmailEnvelope(ctx context.Context, id int64) (to, number string, err error) {
	details, err := s.repo.Details(ctx, id)
	if err != nil {
		return "", "", err
	}
	if details.ClientEmail == "" {
		return "", "", ErrNoClientEmail
	}
	return details.ClientEmail, details.Invoice.Number, nil
}

// MarkEmailed records a completed delivery.
func (s *Service) MarkEmailed(ctx context.Context, id int64) error {
	return s.repo.MarkEmailed(ctx, id)
}

func buildDocument(d *BillingDetails, company *settings.Company) report.InvoiceDocument {
	doc := report.InvoiceDocument{
		Number:        d.Invoice.Number,
		IssuedAt:      d.Invoice.IssuedAt,
		DueAt:         d.Invoice.DueAt,
		OrderProtocol: d.OrderProtocol,

		CompanyName:    company.Name,
		CompanyAddress: company.Address,
		CompanyCity:    company.City + " " + company.PostalCode,
		CompanyTaxID:   company.TaxID,
		CompanyBank:    company.BankAccount,
		CompanyEmail:   company.Email,
		CompanyPhone:   company.Phone,

		ClientName:    d.ClientName,
		ClientAddress: d.ClientAddress,
		ClientCity:    d.ClientCity,
		ClientTaxID:   d.ClientTaxID,

		VehiclePlate: d.VehiclePlate,
		VehicleMake:  d.VehicleMake,
		VehicleModel: d.VehicleModel,

		Subtotal: d.Invoice.Subtotal,
		VATRate:  d.Invoice.VATRate,
		VAT:      d.Invoice.VATAmount,
		Total:    d.Invoice.Total,
	}
	if d.Invoice.Notes != nil {
		doc.Notes = *d.Invoice.Notes
	}
	for _, l := range d.Invoice.Lines {
		doc.Lines = append(doc.Lines, report.InvoiceDocumentLine{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		})
	}
	return doc
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
