package strategies

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/claimline/claimline/internal/extract"
	"github.com/claimline/claimline/internal/model"
	"github.com/claimline/claimline/internal/timeline"
)

// Baseline is the last-resort strategy: a minimal reader of a single rxTba
// array. It accepts the weakest structural guarantee (array presence),
// generates ids and display names positionally, and never fails on item
// content.
type Baseline struct {
	cfg *model.ParserConfig
	log zerolog.Logger
}

// NewBaseline creates the baseline strategy.
func NewBaseline(cfg *model.ParserConfig, log zerolog.Logger) *Baseline {
	return &Baseline{cfg: cfg, log: log.With().Str("strategy", "baseline").Logger()}
}

// Name identifies the strategy in diagnostics.
func (s *Baseline) Name() string { return "baseline" }

// Extract reads the rxTba array only. Unparseable dates fall back to the
// sentinel; non-object items are skipped.
func (s *Baseline) Extract(ctx context.Context, doc map[string]interface{}) (*model.Timeline, error) {
	items, ok := extract.ResolveArray(doc, model.DefaultRxTbaPath)
	if !ok {
		return nil, &model.StructureError{
			Strategy: s.Name(),
			Checked:  []model.PathFinding{{Path: model.DefaultRxTbaPath, Found: "missing or not an array"}},
			Hint:     "the baseline strategy requires an rxTba array at the document root",
		}
	}

	records := make([]model.ClaimRecord, 0, len(items))
	for i, raw := range items {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		id := extract.ResolveString(item, "id")
		if id == "" {
			id = generateID(model.TypeRxTba, i)
		}

		details := cloneDetails(item)
		start, err := extract.ExtractDate(item, model.DateSpec{Path: "dos"}, "", model.TypeRxTba, id)
		if err != nil {
			start = SentinelDate
			details["date_defaulted"] = true
		}
		end := start.AddDays(extract.CoerceDays(item["dayssupply"]))
		if end.Before(start.Time) {
			end = start.AddDays(1)
		}

		name := extract.ResolveString(item, "medication")
		if name == "" {
			name = defaultDisplayName(model.TypeRxTba, id)
		}

		records = append(records, model.ClaimRecord{
			ID:          id,
			Type:        model.TypeRxTba,
			StartDate:   start,
			EndDate:     end,
			DisplayName: name,
			Color:       s.cfg.Color(model.TypeRxTba),
			Details:     details,
		})
	}

	records, err := finalizeRecords(records)
	if err != nil {
		return nil, err
	}
	return timeline.Assemble(records), nil
}
