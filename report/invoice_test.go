package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderInvoiceHTML(t *testing.T) {
	doc := InvoiceDocument{
		Number:        "INV-2026-0042",
		IssuedAt:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		DueAt:         time.Date(2026, 3, 28, 0, 0, 0, 0, time.UTC),
		OrderProtocol: "WO-2026-0007",
		CompanyName:   "Torque Garage Ltd",
		ClientName:    "Jane's Couriers",
		VehiclePlate:  "AB-123-CD",
		VehicleMake:   "Ford",
		VehicleModel:  "Transit",
		Lines: []InvoiceDocumentLine{
			{Description: "Brake pads", Quantity: 4, UnitPrice: 312.625, LineTotal: 1250.50},
		},
		Subtotal: 1250.50,
		VATRate:  20,
		VAT:      250.10,
		Total:    1500.60,
	}

	html, err := RenderInvoiceHTML(doc)
	require.NoError(t, err)
	require.Contains(t, html, "INV-2026-0042")
	require.Contains(t, html, "Jane&#39;s Couriers")
	require.Contains(t, html, "WO-2026-0007")
	require.Contains(t, html, "2026-03-14")
	// amounts are grouped and fixed to two decimals
	require.Contains(t, html, "1,250.50")
	require.Contains(t, html, "1,500.60")
}

func TestRenderInvoiceHTMLEscapesMarkup(t *testing.T) {
	doc := InvoiceDocument{
		Number:     "INV-2026-0001",
		ClientName: "<script>alert(1)</script>",
	}
	html, err := RenderInvoiceHTML(doc)
	require.NoError(t, err)
	require.NotContains(t, html, "<script>alert(1)</script>")
}
