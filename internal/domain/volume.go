package domain

// VolumeBucket is one fixed-duration trading-volume observation
// (candle), keyed by its start time.
type VolumeBucket struct {
	OpenTime    int64   `json:"openTime"`    // bucket start, Unix ms, aligned to the interval
	QuoteVolume float64 `json:"quoteVolume"` // volume denominated in the quote asset
}

// Kline intervals accepted by the trade endpoints.
const (
	IntervalDaily  = "1d"
	IntervalHourly = "1h"
)

// VolumeStats summarizes recent quote-asset volume for a token.
// VolToday is the quote volume of the most recent daily bucket (open
// since 00:00 UTC), VolYesterday the one before it. Both default to 0
// when the data is absent.
type VolumeStats struct {
	VolToday     float64 `json:"volToday"`
	VolYesterday float64 `json:"volYesterday"`
}

// VolumeStatsFromBuckets derives volume stats from a bucket sequence
// sorted ascending by open time.
func VolumeStatsFromBuckets(buckets []VolumeBucket) VolumeStats {
	var stats VolumeStats
	if n := len(buckets); n >= 1 {
		stats.VolToday = buckets[n-1].QuoteVolume
		if n >= 2 {
			stats.VolYesterday = buckets[n-2].QuoteVolume
		}
	}
	return stats
}

// VolumeHistoryPoint is one archived daily volume observation for a
// token, persisted so the detail view can chart history without
// re-querying the exchange.
type VolumeHistoryPoint struct {
	AlphaID     string  `json:"alphaId"`
	OpenTime    int64   `json:"openTime"` // Unix ms, day-aligned
	QuoteVolume float64 `json:"quoteVolume"`
}
