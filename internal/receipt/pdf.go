package receipt

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// WritePDF renders d as a single A4 settlement receipt
func WritePDF(w io.Writer, d Display) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Settlement Receipt", false)
	pdf.SetCreator("crypverify", false)
	pdf.AddPage()

	pdf.SetFillColor(0, 0, 0)
	pdf.Rect(0, 0, 210, 50, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.Text(20, 32, "CRYPVERIFY")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(20, 42, "OFFICIAL SETTLEMENT RECEIPT")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(20, 70, "TRANSACTION DETAILS")
	pdf.Line(20, 72, 190, 72)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(20, 85, fmt.Sprintf("Asset: %s", d.Asset))
	pdf.Text(20, 95, fmt.Sprintf("Amount: %s %s", d.Amount, d.Symbol))
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Text(20, 105, fmt.Sprintf("Value: %s", d.ValueUSD))
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(20, 115, fmt.Sprintf("Timestamp: %s", d.Timestamp))
	pdf.Text(20, 125, fmt.Sprintf("From: %s", d.SourceAddress))

	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(20, 140, fmt.Sprintf("Hash: %s", d.Hash))
	if d.FallbackPrice {
		pdf.Text(20, 146, fmt.Sprintf("Valued at reference price %s per %s", d.PriceUSD, d.Symbol))
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render receipt pdf: %w", err)
	}
	return pdf.Output(w)
}
