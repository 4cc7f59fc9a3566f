package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeiToEther(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0xde0b6b3a7640000", "1.0000"},
		{"0x1bc16d674ec80000", "2.0000"},
		{"0x0", "0.0000"},
		{"0x", "0.0000"},
		{"0x2386f26fc10000", "0.0100"},
	}
	for _, tt := range tests {
		got, err := WeiToEther(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got.StringFixed(4), tt.input)
	}
}

func TestWeiToEther_Malformed(t *testing.T) {
	for _, input := range []string{"", "1000", "0xzz", "de0b6b3a7640000"} {
		_, err := WeiToEther(input)
		assert.ErrorIs(t, err, ErrMalformedPayload, input)
	}
}

func TestSatoshiToBitcoin(t *testing.T) {
	assert.Equal(t, "1.500000", SatoshiToBitcoin(150000000).StringFixed(6))
	assert.Equal(t, "0.000001", SatoshiToBitcoin(100).StringFixed(6))
	assert.True(t, SatoshiToBitcoin(0).IsZero())
}
