package chain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"crypverify-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBtcServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &gotPath
}

func TestBitcoinStrategy_Lookup(t *testing.T) {
	srv, path := newBtcServer(t, http.StatusOK, `{"hash":"f4184fc5","total":150000000,"addresses":["1Sender","1Change"]}`)

	rec, err := NewBitcoinStrategy(srv.URL+"/v1/btc/main/", srv.Client(), nil).Lookup(context.Background(), "f4184fc5")
	require.NoError(t, err)
	assert.Equal(t, "/v1/btc/main/txs/f4184fc5", *path)
	assert.Equal(t, models.ChainBTC, rec.Chain)
	assert.Equal(t, "1.500000", rec.NativeAmount.StringFixed(6))
	assert.Equal(t, "1Sender", rec.SourceAddress)
}

func TestBitcoinStrategy_NoAddresses(t *testing.T) {
	srv, _ := newBtcServer(t, http.StatusOK, `{"hash":"f4184fc5","total":1000,"addresses":[]}`)

	_, err := NewBitcoinStrategy(srv.URL, srv.Client(), nil).Lookup(context.Background(), "f4184fc5")
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestBitcoinStrategy_NotFound(t *testing.T) {
	srv, _ := newBtcServer(t, http.StatusNotFound, `{"error":"Transaction nothere not found."}`)

	_, err := NewBitcoinStrategy(srv.URL, srv.Client(), nil).Lookup(context.Background(), "nothere")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestBitcoinStrategy_EmptyHashInPayload(t *testing.T) {
	srv, _ := newBtcServer(t, http.StatusOK, `{}`)

	_, err := NewBitcoinStrategy(srv.URL, srv.Client(), nil).Lookup(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestBitcoinStrategy_Malformed(t *testing.T) {
	srv, _ := newBtcServer(t, http.StatusOK, `not json`)

	_, err := NewBitcoinStrategy(srv.URL, srv.Client(), nil).Lookup(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestBitcoinStrategy_ServerError(t *testing.T) {
	srv, _ := newBtcServer(t, http.StatusTooManyRequests, `{"error":"Limits reached."}`)

	_, err := NewBitcoinStrategy(srv.URL, srv.Client(), nil).Lookup(context.Background(), "abc")
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), "http status 429")
}
