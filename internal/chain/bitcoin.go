package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crypverify-go/internal/models"
	"crypverify-go/internal/throttle"

	"go.uber.org/zap"
)

type btcTransaction struct {
	Hash      string   `json:"hash"`
	Total     int64    `json:"total"`
	Addresses []string `json:"addresses"`
}

// BitcoinStrategy looks up transactions through a BlockCypher-style REST API
type BitcoinStrategy struct {
	httpClient *http.Client
	baseURL    string
	limiter    *throttle.ProviderLimiter
	nowFunc    func() time.Time
}

func NewBitcoinStrategy(baseURL string, httpClient *http.Client, limiter *throttle.ProviderLimiter) *BitcoinStrategy {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &BitcoinStrategy{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    limiter,
		nowFunc:    time.Now,
	}
}

func (s *BitcoinStrategy) Chain() models.ChainSymbol {
	return models.ChainBTC
}

// Lookup fetches GET {base}/txs/{hash}; the source address is the first listed address
func (s *BitcoinStrategy) Lookup(ctx context.Context, hash string) (*models.TransactionRecord, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, lookupErr(models.ChainBTC, hash, fmt.Errorf("rate limiter: %w", err))
	}

	endpoint := fmt.Sprintf("%s/txs/%s", s.baseURL, url.PathEscape(hash))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, lookupErr(models.ChainBTC, hash, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, lookupErr(models.ChainBTC, hash, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lookupErr(models.ChainBTC, hash, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, lookupErr(models.ChainBTC, hash, ErrTransactionNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, lookupErr(models.ChainBTC, hash, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body)))
	}

	var tx btcTransaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, lookupErr(models.ChainBTC, hash, fmt.Errorf("%w: %v", ErrMalformedPayload, err))
	}
	if tx.Hash == "" {
		return nil, lookupErr(models.ChainBTC, hash, ErrTransactionNotFound)
	}
	if len(tx.Addresses) == 0 {
		return nil, lookupErr(models.ChainBTC, hash, fmt.Errorf("%w: no addresses", ErrMalformedPayload))
	}

	amount := SatoshiToBitcoin(tx.Total)

	zap.L().Debug("Bitcoin transaction resolved",
		zap.String("hash", hash),
		zap.String("from", tx.Addresses[0]),
		zap.String("amount", amount.String()))

	return &models.TransactionRecord{
		Hash:          hash,
		Chain:         models.ChainBTC,
		NativeAmount:  amount,
		SourceAddress: tx.Addresses[0],
		ObservedAt:    s.nowFunc(),
	}, nil
}
