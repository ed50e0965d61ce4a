// Package receiptpdf renders an issued receipt as a PDF document. Rendering
// is stateless and deterministic: identical receipt fields always produce
// identical bytes (the document creation date is pinned to the receipt date,
// not the wall clock).
package receiptpdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"marate/models"
	"marate/pkg/ledger"
)

// Renderer implements ledger.Renderer with gofpdf.
type Renderer struct{}

func New() *Renderer { return &Renderer{} }

func (Renderer) Render(ctx context.Context, r *models.Receipt) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt "+r.ReceiptNumber, false)
	pdf.SetCreationDate(r.Date.UTC())
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Payment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Receipt number: %s", r.ReceiptNumber))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", r.Date.Format("2006-01-02 15:04:05")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Received from: %s", r.CustomerName))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(90, 7, "Description")
	pdf.Cell(40, 7, "Payment type")
	pdf.Cell(40, 7, "Amount")
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(90, 7, r.Description)
	pdf.Cell(40, 7, paymentTypeLabel(r.PaymentType))
	pdf.Cell(40, 7, ledger.FormatCents(r.PriceCents))
	pdf.Ln(10)

	if r.PaymentType == ledger.PaymentOneTime && r.PaymentReason != "" {
		pdf.Cell(0, 7, fmt.Sprintf("Reason: %s", r.PaymentReason))
		pdf.Ln(8)
	}

	pdf.SetFont("Helvetica", "I", 11)
	pdf.MultiCell(0, 7, "Amount in words: "+r.AmountInWords, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func paymentTypeLabel(t string) string {
	if t == ledger.PaymentRecurringMonthly {
		return "Recurring monthly"
	}
	return "One-time"
}
