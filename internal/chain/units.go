package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	weiExponent     = -18
	satoshiExponent = -8
)

// WeiToEther converts a 0x-prefixed hex quantity of wei into ether
func WeiToEther(hexValue string) (decimal.Decimal, error) {
	if !strings.HasPrefix(hexValue, "0x") && !strings.HasPrefix(hexValue, "0X") {
		return decimal.Zero, fmt.Errorf("%w: value %q is not a hex quantity", ErrMalformedPayload, hexValue)
	}
	digits := hexValue[2:]
	if digits == "" {
		return decimal.Zero, nil
	}

	wei, ok := new(big.Int).SetString(digits, 16)
	if !ok || wei.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("%w: value %q is not a hex quantity", ErrMalformedPayload, hexValue)
	}
	return decimal.NewFromBigInt(wei, weiExponent), nil
}

// SatoshiToBitcoin converts an integer satoshi amount into bitcoin
func SatoshiToBitcoin(satoshi int64) decimal.Decimal {
	return decimal.New(satoshi, satoshiExponent)
}
