// Package display builds the ordered token list the dashboard renders.
package display

import (
	"sort"
	"time"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
)

// Merge attaches competition metadata to the given details and orders
// them for presentation:
//
//  1. tokens whose competition is active at now come first,
//  2. the remainder is ordered by today's volume, descending,
//  3. ties keep input order (the sort is stable).
//
// Merge is a pure function: identical inputs produce identical output,
// and the input slice is never mutated. A detail without volume stats
// sorts as zero volume; it is never excluded.
func Merge(details []domain.TokenDetail, competitions map[string]domain.Competition, now time.Time) []domain.TokenDetail {
	merged := make([]domain.TokenDetail, len(details))
	copy(merged, details)

	for i := range merged {
		if comp, ok := competitions[merged[i].AlphaID]; ok {
			c := comp
			merged[i].Competition = &c
		} else {
			merged[i].Competition = nil
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ai := merged[i].Competition.ActiveAt(now)
		aj := merged[j].Competition.ActiveAt(now)
		if ai != aj {
			return ai
		}
		return merged[i].VolumeStats.VolToday > merged[j].VolumeStats.VolToday
	})

	return merged
}

// Top returns at most n leading entries without copying.
func Top(details []domain.TokenDetail, n int) []domain.TokenDetail {
	if n < 0 || n >= len(details) {
		return details
	}
	return details[:n]
}
