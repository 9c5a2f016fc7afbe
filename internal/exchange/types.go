package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
)

// envelope is the response wrapper used by every bapi endpoint.
// Success is signalled by code "000000"; data is endpoint-specific.
type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

const codeOK = "000000"

// listedToken is one entry of the wallet token-list payload. Only the
// fields the dashboard consumes are decoded.
type listedToken struct {
	AlphaID string `json:"alphaId"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	IconURL string `json:"iconUrl"`
}

func (t listedToken) descriptor() domain.TokenDescriptor {
	return domain.TokenDescriptor{
		AlphaID: t.AlphaID,
		Symbol:  t.Symbol,
		Name:    t.Name,
		IconURL: t.IconURL,
	}
}

// Kline rows come back as positional JSON arrays:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, ...]
// Numeric cells may be serialized as numbers or as decimal strings.
const (
	klineIdxOpenTime    = 0
	klineIdxQuoteVolume = 7
)

// parseKlines converts raw kline rows into volume buckets, keeping
// only the cells the volume pipeline needs. Rows shorter than the
// quote-volume column are rejected.
func parseKlines(raw json.RawMessage) ([]domain.VolumeBucket, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode kline rows: %w", err)
	}

	buckets := make([]domain.VolumeBucket, 0, len(rows))
	for i, row := range rows {
		if len(row) <= klineIdxQuoteVolume {
			return nil, fmt.Errorf("kline row %d: %d cells, want > %d", i, len(row), klineIdxQuoteVolume)
		}
		openTime, err := cellInt64(row[klineIdxOpenTime])
		if err != nil {
			return nil, fmt.Errorf("kline row %d open time: %w", i, err)
		}
		quoteVol, err := cellFloat(row[klineIdxQuoteVolume])
		if err != nil {
			return nil, fmt.Errorf("kline row %d quote volume: %w", i, err)
		}
		buckets = append(buckets, domain.VolumeBucket{
			OpenTime:    openTime,
			QuoteVolume: quoteVol,
		})
	}
	return buckets, nil
}

// cellInt64 decodes a kline cell that may be a JSON number or a
// quoted numeric string.
func cellInt64(cell json.RawMessage) (int64, error) {
	n, err := cellNumber(cell)
	if err != nil {
		return 0, err
	}
	return n.Int64()
}

// cellFloat decodes a kline cell that may be a JSON number or a
// quoted numeric string.
func cellFloat(cell json.RawMessage) (float64, error) {
	n, err := cellNumber(cell)
	if err != nil {
		return 0, err
	}
	return n.Float64()
}

func cellNumber(cell json.RawMessage) (json.Number, error) {
	var s string
	if err := json.Unmarshal(cell, &s); err == nil {
		return json.Number(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(cell, &n); err != nil {
		return "", fmt.Errorf("cell %q is neither number nor string", string(cell))
	}
	return n, nil
}
