package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"crypverify-go/internal/models"
	"crypverify-go/internal/throttle"

	"go.uber.org/zap"
)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object returned by the node
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type ethTransaction struct {
	Hash        string `json:"hash"`
	BlockNumber string `json:"blockNumber"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
}

// EthereumStrategy looks up transactions through an Ethereum JSON-RPC endpoint
type EthereumStrategy struct {
	httpClient *http.Client
	rpcURL     string
	limiter    *throttle.ProviderLimiter
	requestID  atomic.Int64
	nowFunc    func() time.Time
}

func NewEthereumStrategy(rpcURL string, httpClient *http.Client, limiter *throttle.ProviderLimiter) *EthereumStrategy {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &EthereumStrategy{
		httpClient: httpClient,
		rpcURL:     rpcURL,
		limiter:    limiter,
		nowFunc:    time.Now,
	}
}

func (s *EthereumStrategy) Chain() models.ChainSymbol {
	return models.ChainETH
}

// Lookup fetches the transaction with eth_getTransactionByHash and converts its wei value to ether
func (s *EthereumStrategy) Lookup(ctx context.Context, hash string) (*models.TransactionRecord, error) {
	result, err := s.call(ctx, "eth_getTransactionByHash", []interface{}{hash})
	if err != nil {
		return nil, lookupErr(models.ChainETH, hash, fmt.Errorf("eth_getTransactionByHash: %w", err))
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, lookupErr(models.ChainETH, hash, ErrTransactionNotFound)
	}

	var tx ethTransaction
	if err := json.Unmarshal(result, &tx); err != nil {
		return nil, lookupErr(models.ChainETH, hash, fmt.Errorf("%w: %v", ErrMalformedPayload, err))
	}
	if tx.Value == "" {
		return nil, lookupErr(models.ChainETH, hash, fmt.Errorf("%w: missing value", ErrMalformedPayload))
	}

	amount, err := WeiToEther(tx.Value)
	if err != nil {
		return nil, lookupErr(models.ChainETH, hash, err)
	}

	zap.L().Debug("Ethereum transaction resolved",
		zap.String("hash", hash),
		zap.String("from", tx.From),
		zap.String("amount", amount.String()))

	return &models.TransactionRecord{
		Hash:          hash,
		Chain:         models.ChainETH,
		NativeAmount:  amount,
		SourceAddress: tx.From,
		ObservedAt:    s.nowFunc(),
	}, nil
}

func (s *EthereumStrategy) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      s.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}
