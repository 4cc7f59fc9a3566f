/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pricing

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

	"github.com/shopspring/decimal"
)

// Provider returns the live USD spot price of one unit of a chain's native asset
type Provider interface {
	FetchUSD(ctx context.Context, chain models.ChainSymbol) (decimal.Decimal, error)
}

// CoinGeckoClient reads spot prices from the /simple/price endpoint
type CoinGeckoClient struct {
	httpClient *http.Client
	baseURL    string
	coinIds    map[models.ChainSymbol]string
	limiter    *throttle.ProviderLimiter
}

func NewCoinGeckoClient(
	baseURL string,
	coinIds map[models.ChainSymbol]string,
	httpClient *http.Client,
	limiter *throttle.ProviderLimiter,
) *CoinGeckoClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &CoinGeckoClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		coinIds:    coinIds,
		limiter:    limiter,
	}
}

func (c *CoinGeckoClient) FetchUSD(ctx context.Context, chain models.ChainSymbol) (decimal.Decimal, error) {
	coinId, ok := c.coinIds[chain]
	if !ok || coinId == "" {
		return decimal.Zero, fmt.Errorf("no coin id configured for %s", chain)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("ids", coinId)
	query.Set("vs_currencies", "usd")
	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var prices map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &prices); err != nil {
		return decimal.Zero, fmt.Errorf("decode price payload: %w", err)
	}

	price, ok := prices[coinId]["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("price payload has no usd quote for %s", coinId)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price payload has non-positive usd quote for %s: %s", coinId, price)
	}
	return price, nil
}
