package review

import (
	"context"
	"fmt"

	"crypverify-go/internal/models"
)

// TransactionResolver looks up a hash on its chain
type TransactionResolver interface {
	Resolve(ctx context.Context, hash string) (*models.TransactionRecord, error)
}

// PriceQuoter returns the USD quote for a chain; it never fails
type PriceQuoter interface {
	Quote(ctx context.Context, chain models.ChainSymbol) models.PriceQuote
}

// ReceiptAssembler values a transaction at a quote
type ReceiptAssembler interface {
	Assemble(tx models.TransactionRecord, quote models.PriceQuote) models.Receipt
}

// Auditor re-verifies a stored submission's hash against live chain data
type Auditor struct {
	resolver  TransactionResolver
	prices    PriceQuoter
	assembler ReceiptAssembler
}

func NewAuditor(resolver TransactionResolver, prices PriceQuoter, assembler ReceiptAssembler) *Auditor {
	return &Auditor{resolver: resolver, prices: prices, assembler: assembler}
}

// Audit resolves the hash, then prices it, then assembles the receipt
func (a *Auditor) Audit(ctx context.Context, sub *models.VerificationSubmission) (*models.Receipt, error) {
	tx, err := a.resolver.Resolve(ctx, sub.TxHash)
	if err != nil {
		return nil, fmt.Errorf("audit %s: %w", sub.ReferenceId, err)
	}
	quote := a.prices.Quote(ctx, tx.Chain)
	receipt := a.assembler.Assemble(*tx, quote)
	return &receipt, nil
}
