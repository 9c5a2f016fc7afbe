package domain

import "github.com/shopspring/decimal"

// TokenDescriptor identifies one tradable Alpha asset as listed by the
// upstream catalog. Descriptors are immutable; a fresh set is built on
// every catalog fetch.
type TokenDescriptor struct {
	AlphaID string `json:"alphaId"` // upstream identifier, e.g. "ALPHA_118"
	Symbol  string `json:"symbol"`  // trading pair prefix, e.g. "BR"
	Name    string `json:"name"`    // display name
	IconURL string `json:"iconUrl,omitempty"`
}

// PairSymbol returns the full trading pair symbol the trade endpoints
// expect (alpha id + quote asset suffix).
func (t TokenDescriptor) PairSymbol() string {
	return t.AlphaID + "USDT"
}

// TickerSnapshot is a point-in-time market quote for one pair.
// The upstream serializes all price fields as decimal strings.
type TickerSnapshot struct {
	Symbol             string          `json:"symbol"`
	LastPrice          decimal.Decimal `json:"lastPrice"`
	HighPrice          decimal.Decimal `json:"highPrice"`
	LowPrice           decimal.Decimal `json:"lowPrice"`
	PriceChangePercent decimal.Decimal `json:"priceChangePercent"`
	Count              int64           `json:"count"` // trade count
}

// TokenState tracks the load lifecycle of one token's detail data.
// Transitions are driven solely by fetch completion.
type TokenState int

const (
	// StatePending means a detail fetch is outstanding and nothing is
	// loaded yet.
	StatePending TokenState = iota
	// StateLoaded means the latest detail fetch for the token succeeded.
	StateLoaded
	// StateFailed means the latest detail fetch for the token failed;
	// previously loaded data, if any, is kept and served stale.
	StateFailed
)

// String implements fmt.Stringer.
func (s TokenState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TokenDetail merges a descriptor with its latest fetched market data
// and, when one exists, the competition attached to the token. It is
// rebuilt on every merge cycle and returned by value; nothing retains
// a reference past the request that produced it.
type TokenDetail struct {
	TokenDescriptor
	Ticker      *TickerSnapshot `json:"ticker,omitempty"`
	VolumeStats VolumeStats     `json:"volumeStats"`
	Competition *Competition    `json:"competition,omitempty"`
	State       TokenState      `json:"-"`
}
