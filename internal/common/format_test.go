package common

import (
	"bytes"
	"testing"
	"time"

	"crypverify-go/internal/models"
	"crypverify-go/internal/receipt"

	"github.com/stretchr/testify/assert"
)

func TestPrintReceipt(t *testing.T) {
	var buf bytes.Buffer
	PrintReceipt(&buf, receipt.Display{
		Asset:         "Ethereum",
		Symbol:        "ETH",
		Amount:        "2.0000",
		ValueUSD:      "$5,600.00",
		Hash:          "0xabc",
		FallbackPrice: true,
	})

	out := buf.String()
	assert.Contains(t, out, "Amount:     2.0000 ETH")
	assert.Contains(t, out, "└  Hash:       0xabc")
	assert.Contains(t, out, "reference price")
}

func TestPrintSubmissions(t *testing.T) {
	var buf bytes.Buffer
	PrintSubmissions(&buf, []models.VerificationSubmission{
		{Id: "1", ReferenceId: "AAA111AAA", FullName: "Ada", Email: "ada@example.com", Status: models.StatusPending, CreatedAt: time.Unix(0, 0)},
		{Id: "2", ReferenceId: "BBB222BBB", FullName: "Alan", Email: "alan@example.com", Status: models.StatusApproved, CreatedAt: time.Unix(0, 0)},
	})

	out := buf.String()
	assert.Contains(t, out, "SUBMISSIONS (2)")
	assert.Contains(t, out, "│  AAA111AAA  PENDING   Ada <ada@example.com>")
	assert.Contains(t, out, "└  BBB222BBB  APPROVED  Alan <alan@example.com>")
}
