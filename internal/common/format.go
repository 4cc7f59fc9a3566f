package common

import (
	"fmt"
	"io"
	"strings"

	"crypverify-go/internal/models"
	"crypverify-go/internal/receipt"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(w io.Writer, char string, width int) {
	fmt.Fprintln(w, strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(w io.Writer, title string, width int) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", width))
	fmt.Fprintln(w, title)
	PrintSeparator(w, "=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(w io.Writer, message string, width int) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", width))
	fmt.Fprintln(w, message)
	fmt.Fprintln(w, strings.Repeat("=", width)+"\n")
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// PrintReceipt prints a settlement receipt block
func PrintReceipt(w io.Writer, d receipt.Display) {
	PrintHeader(w, "CRYPVERIFY - OFFICIAL SETTLEMENT RECEIPT", DefaultWidth)
	rows := [][2]string{
		{"Asset", d.Asset},
		{"Amount", d.Amount + " " + d.Symbol},
		{"Unit price", d.PriceUSD},
		{"Value", d.ValueUSD},
		{"From", d.SourceAddress},
		{"Timestamp", d.Timestamp},
		{"Hash", d.Hash},
	}
	for i, row := range rows {
		fmt.Fprintf(w, "%s%-11s %s\n", BoxPrefix(i == len(rows)-1), row[0]+":", row[1])
	}
	if d.FallbackPrice {
		fmt.Fprintln(w, "\nNote: price provider unavailable, valued at the reference price")
	}
}

// PrintSubmissions prints one box entry per submission
func PrintSubmissions(w io.Writer, subs []models.VerificationSubmission) {
	PrintHeader(w, fmt.Sprintf("SUBMISSIONS (%d)", len(subs)), WideWidth)
	for i, sub := range subs {
		last := i == len(subs)-1
		fmt.Fprintf(w, "%s%s  %-8s  %s <%s>\n", BoxPrefix(last), sub.ReferenceId, sub.Status, sub.FullName, sub.Email)
		fmt.Fprintf(w, "%sid=%s hash=%s submitted=%s\n",
			BoxDetailPrefix(last), sub.Id, sub.TxHash, sub.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
}
