package transport

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHttpClient(t *testing.T) {
	client, err := NewHttpClient(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)

	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 5, tr.MaxIdleConnsPerHost)
}

func TestNewHttpClient_DefaultTimeout(t *testing.T) {
	client, err := NewHttpClient(0)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, client.Timeout)
}
