package receipt

import (
	"fmt"
	"strings"
	"time"

	"crypverify-go/internal/models"

	"github.com/shopspring/decimal"
)

// ChainMeta carries per-chain display settings
type ChainMeta struct {
	Name     string
	Decimals int32
}

// ChainOverride replaces parts of a chain's ChainMeta. A nil Decimals keeps
// the default precision; zero is a valid override.
type ChainOverride struct {
	Name     string
	Decimals *int32
}

// DefaultChainMeta is used when no chains file overrides it
var DefaultChainMeta = map[models.ChainSymbol]ChainMeta{
	models.ChainETH: {Name: "Ethereum", Decimals: 4},
	models.ChainBTC: {Name: "Bitcoin", Decimals: 6},
}

// Display is a receipt rendered for people: fixed native precision and
// USD with thousands separators.
type Display struct {
	Asset         string `json:"asset"`
	Symbol        string `json:"symbol"`
	Amount        string `json:"amount"`
	PriceUSD      string `json:"price_usd"`
	ValueUSD      string `json:"value_usd"`
	Hash          string `json:"hash"`
	SourceAddress string `json:"from"`
	Timestamp     string `json:"date"`
	FallbackPrice bool   `json:"fallback_price,omitempty"`
}

type Formatter struct {
	meta map[models.ChainSymbol]ChainMeta
}

// NewFormatter merges overrides on top of DefaultChainMeta
func NewFormatter(overrides map[models.ChainSymbol]ChainOverride) *Formatter {
	meta := make(map[models.ChainSymbol]ChainMeta, len(DefaultChainMeta))
	for k, v := range DefaultChainMeta {
		meta[k] = v
	}
	for k, v := range overrides {
		cur := meta[k]
		if v.Name != "" {
			cur.Name = v.Name
		}
		if v.Decimals != nil {
			cur.Decimals = *v.Decimals
		}
		meta[k] = cur
	}
	return &Formatter{meta: meta}
}

func (f *Formatter) Format(r models.Receipt) Display {
	m := f.metaFor(r.Transaction.Chain)
	return Display{
		Asset:         m.Name,
		Symbol:        r.Transaction.Chain.String(),
		Amount:        r.Transaction.NativeAmount.StringFixed(m.Decimals),
		PriceUSD:      f.USD(r.Quote.PriceUSD),
		ValueUSD:      f.USD(r.USDValue),
		Hash:          r.Transaction.Hash,
		SourceAddress: r.Transaction.SourceAddress,
		Timestamp:     r.GeneratedAt.UTC().Format(time.RFC1123),
		FallbackPrice: r.Quote.Fallback,
	}
}

// USD formats v as $1,234.56 without leaving decimal arithmetic
func (f *Formatter) USD(v decimal.Decimal) string {
	rounded := v.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	fixed := rounded.StringFixed(2)
	dot := len(fixed) - 3
	return sign + "$" + groupThousands(fixed[:dot]) + fixed[dot:]
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	var b strings.Builder
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func (f *Formatter) metaFor(chain models.ChainSymbol) ChainMeta {
	if m, ok := f.meta[chain]; ok {
		return m
	}
	return ChainMeta{Name: chain.String(), Decimals: 8}
}

func (d Display) String() string {
	return fmt.Sprintf("%s %s %s (%s)", d.Amount, d.Symbol, d.ValueUSD, d.Hash)
}
