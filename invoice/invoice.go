// Package invoice renders printable order invoices.
package invoice

import (
	"bytes"
	"fmt"
	"strconv"

	"babumoshai/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Amounts print as "BDT 1,234.50"; the core PDF fonts have no taka sign.
func money(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	neg := false
	if len(intPart) > 0 && intPart[0] == '-' {
		neg, intPart = true, intPart[1:]
	}
	var b []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b = append(b, ',')
		}
		b = append(b, c)
	}
	out := "BDT " + string(b) + frac
	if neg {
		out = "-" + out
	}
	return out
}

// Render produces an A4 PDF for o. The QR code encodes the order id.
func Render(o models.Order, site models.Settings) ([]byte, error) {
	qrPNG, err := qrcode.Encode(o.ID.Hex(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetTitle("Invoice "+o.ID.Hex(), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, tr(site.SiteName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, tr(site.SiteAddress), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr(site.SiteEmail+"  |  "+site.SitePhone), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 18, 30, 30, false, opts, 0, "")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "INVOICE", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, "Order: "+o.ID.Hex(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Date: "+o.CreatedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr("Payment: "+o.PaymentMethod+status(o.IsPaid, "paid", "unpaid")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Delivery:"+status(o.IsDelivered, "delivered", "pending"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	a := o.ShippingAddress
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, "Ship to", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s\n%s %s\n%s", a.Address, a.City, a.PostalCode, a.Country)), "", "L", false)
	pdf.Ln(4)

	widths := []float64{80, 20, 15, 27.5, 27.5}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range []string{"Item", "Size", "Qty", "Unit price", "Amount"} {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, it := range o.OrderItems {
		pdf.CellFormat(widths[0], 7, tr(truncate(it.Name, 45)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(it.Size), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, strconv.Itoa(it.Qty), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(float64(it.Price)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, money(float64(it.Price)*float64(it.Qty)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(3)

	for _, row := range []struct {
		label string
		v     float64
		bold  bool
	}{
		{"Items", o.ItemsPrice, false},
		{"Shipping", o.ShippingPrice, false},
		{"Tax", o.TaxPrice, false},
		{"Total", o.TotalPrice, true},
	} {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(115, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(27.5, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(27.5, 6, money(row.v), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

func status(ok bool, yes, no string) string {
	if ok {
		return " (" + yes + ")"
	}
	return " (" + no + ")"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}
