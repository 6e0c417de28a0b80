// Package timeline turns flat claim record lists into the canonical
// timeline value shared by every extraction strategy.
package timeline

import (
	"sort"

	"github.com/claimline/claimline/internal/model"
)

// Assemble builds the canonical timeline: claims sorted by start date
// descending (stable, so ties keep extraction order and repeated parses are
// bit-identical), the covered date range, and summary metadata. Empty input
// yields an empty claim list with both range bounds at today.
func Assemble(records []model.ClaimRecord) *model.Timeline {
	claims := make([]model.ClaimRecord, len(records))
	copy(claims, records)
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].StartDate.After(claims[j].StartDate.Time)
	})

	tl := &model.Timeline{
		Claims: claims,
		Metadata: model.Metadata{
			TotalClaims: len(claims),
			ClaimTypes:  claimTypes(claims),
		},
	}

	if len(claims) == 0 {
		today := model.Today()
		tl.DateRange = model.DateRange{Start: today, End: today}
		return tl
	}

	// Sorted descending, so the earliest start is the last claim's.
	start := claims[len(claims)-1].StartDate
	end := claims[0].EndDate
	for _, c := range claims {
		if c.EndDate.After(end.Time) {
			end = c.EndDate
		}
	}
	tl.DateRange = model.DateRange{Start: start, End: end}
	return tl
}

// claimTypes lists distinct type names in order of first occurrence.
func claimTypes(claims []model.ClaimRecord) []string {
	seen := make(map[string]bool)
	types := []string{}
	for _, c := range claims {
		if !seen[c.Type] {
			seen[c.Type] = true
			types = append(types, c.Type)
		}
	}
	return types
}
