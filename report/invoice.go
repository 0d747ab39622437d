package report

import (
	"bytes"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// InvoiceDocument carries everything the invoice layout needs. It is a flat
// view so the renderer stays decoupled from the domain packages.
type InvoiceDocument struct {
	Number        string
	IssuedAt      time.Time
	DueAt         time.Time
	OrderProtocol string

	CompanyName    string
	CompanyAddress string
	CompanyCity    string
	CompanyTaxID   string
	CompanyBank    string
	CompanyEmail   string
	CompanyPhone   string

	ClientName    string
	ClientAddress string
	ClientCity    string
	ClientTaxID   string

	VehiclePlate string
	VehicleMake  string
	VehicleModel string

	Lines    []InvoiceDocumentLine
	Subtotal float64
	VATRate  float64
	VAT      float64
	Total    float64
	Notes    string
}

type InvoiceDocumentLine struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	LineTotal   float64
}

var moneyPrinter = message.NewPrinter(language.English)

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(v float64) string { return moneyPrinter.Sprintf("%.2f", v) },
	"date":  func(t time.Time) string { return t.Format("2006-01-02") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; margin: 40px; }
h1 { font-size: 22px; margin-bottom: 0; }
.meta { color: #666; margin-bottom: 24px; }
.parties { width: 100%; margin-bottom: 24px; }
.parties td { vertical-align: top; width: 50%; }
table.lines { width: 100%; border-collapse: collapse; }
table.lines th, table.lines td { border-bottom: 1px solid #ddd; padding: 6px 4px; text-align: left; }
table.lines th:nth-child(n+2), table.lines td:nth-child(n+2) { text-align: right; }
.totals { margin-top: 16px; width: 40%; margin-left: auto; }
.totals td { padding: 3px 4px; }
.totals .grand { font-weight: bold; border-top: 2px solid #222; }
.notes { margin-top: 32px; color: #666; }
</style>
</head>
<body>
<h1>Invoice {{.Number}}</h1>
<div class="meta">
Issued {{date .IssuedAt}} &middot; Due {{date .DueAt}} &middot; Order {{.OrderProtocol}}
{{if .VehiclePlate}}&middot; Vehicle {{.VehicleMake}} {{.VehicleModel}} ({{.VehiclePlate}}){{end}}
</div>
<table class="parties">
<tr>
<td>
<strong>{{.CompanyName}}</strong><br>
{{.CompanyAddress}}<br>
{{.CompanyCity}}<br>
{{if .CompanyTaxID}}Tax ID: {{.CompanyTaxID}}<br>{{end}}
{{if .CompanyBank}}Bank: {{.CompanyBank}}<br>{{end}}
{{if .CompanyEmail}}{{.CompanyEmail}}<br>{{end}}
{{if .CompanyPhone}}{{.CompanyPhone}}{{end}}
</td>
<td>
<strong>Bill to</strong><br>
{{.ClientName}}<br>
{{.ClientAddress}}<br>
{{.ClientCity}}<br>
{{if .ClientTaxID}}Tax ID: {{.ClientTaxID}}{{end}}
</td>
</tr>
</table>
<table class="lines">
<tr><th>Description</th><th>Qty</th><th>Unit price</th><th>Total</th></tr>
{{range .Lines}}
<tr><td>{{.Description}}</td><td>{{money .Quantity}}</td><td>{{money .UnitPrice}}</td><td>{{money .LineTotal}}</td></tr>
{{end}}
</table>
<table class="totals">
<tr><td>Subtotal</td><td>{{money .Subtotal}}</td></tr>
<tr><td>VAT ({{money .VATRate}}%)</td><td>{{money .VAT}}</td></tr>
<tr class="grand"><td>Total due</td><td>{{money .Total}}</td></tr>
</table>
{{if .Notes}}<div class="notes">{{.Notes}}</div>{{end}}
</body>
</html>`))

// RenderInvoiceHTML produces the HTML body handed to Gotenberg.
func RenderInvoiceHTML(doc InvoiceDocument) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
