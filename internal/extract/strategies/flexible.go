package strategies

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/claimline/claimline/internal/extract"
	"github.com/claimline/claimline/internal/model"
	"github.com/claimline/claimline/internal/timeline"
)

// AutoGeneratedID is the sentinel an id field may carry to request a
// positional id.
const AutoGeneratedID = "auto-generated"

// Flexible is the configuration-driven strategy: extraction is described
// entirely by ClaimTypeConfig descriptors, supporting arbitrary array paths,
// nested and indexed field paths, and calculated end dates.
type Flexible struct {
	cfg *model.ParserConfig
	log zerolog.Logger
}

// NewFlexible creates the configuration-driven strategy.
func NewFlexible(cfg *model.ParserConfig, log zerolog.Logger) *Flexible {
	return &Flexible{cfg: cfg, log: log.With().Str("strategy", "configurable").Logger()}
}

// Name identifies the strategy in diagnostics.
func (s *Flexible) Name() string { return "configurable" }

// Extract validates each configured claim type, extracts every item of the
// valid ones, and assembles the timeline. A claim type may contribute zero
// records without failing the parse; only zero records across all types with
// non-empty input is fatal.
func (s *Flexible) Extract(ctx context.Context, doc map[string]interface{}) (*model.Timeline, error) {
	if err := s.validateStructure(doc); err != nil {
		return nil, err
	}

	var records []model.ClaimRecord
	nonEmpty := 0
	for _, ct := range s.cfg.ClaimTypes {
		items, ok := extract.ResolveArray(doc, ct.ArrayPath)
		if !ok {
			continue
		}
		if len(items) > 0 {
			nonEmpty++
		}
		recs := s.extractType(ctx, ct, items)
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}

	if len(records) == 0 && nonEmpty > 0 {
		return nil, &model.ExtractionError{
			ClaimType: "configurable", Index: -1,
			Err: fmt.Errorf("no records extracted from any of the %d configured claim types", len(s.cfg.ClaimTypes)),
		}
	}

	records, err := finalizeRecords(records)
	if err != nil {
		return nil, err
	}
	return timeline.Assemble(records), nil
}

// validateStructure resolves every configured array path and, for non-empty
// arrays, checks that the first item's id/start/end specs resolve. At least
// one claim type must validate.
func (s *Flexible) validateStructure(doc map[string]interface{}) error {
	if len(s.cfg.ClaimTypes) == 0 {
		return &model.StructureError{
			Strategy: s.Name(),
			Hint:     "no claim types configured; supply a claim-types configuration to use this strategy",
		}
	}

	var findings []model.PathFinding
	valid := 0
	for _, ct := range s.cfg.ClaimTypes {
		items, ok := extract.ResolveArray(doc, ct.ArrayPath)
		if !ok {
			findings = append(findings, model.PathFinding{
				Path: ct.ArrayPath, Found: "missing",
				Detail: fmt.Sprintf("claim type %q", ct.Name),
			})
			continue
		}
		if len(items) > 0 {
			if err := s.sampleItem(ct, items[0]); err != nil {
				findings = append(findings, model.PathFinding{
					Path: ct.ArrayPath, Found: "array",
					Detail: fmt.Sprintf("claim type %q: first item: %v", ct.Name, err),
				})
				continue
			}
		}
		findings = append(findings, model.PathFinding{
			Path: ct.ArrayPath, Found: "array",
			Detail: fmt.Sprintf("claim type %q", ct.Name),
		})
		valid++
	}

	if valid == 0 {
		return &model.StructureError{
			Strategy: s.Name(),
			Checked:  findings,
			Hint:     "none of the configured claim types matched the document; check each array_path and the field specs against a sample item",
		}
	}
	return nil
}

// sampleItem dry-runs id/start/end resolution against one item.
func (s *Flexible) sampleItem(ct model.ClaimTypeConfig, raw interface{}) error {
	item, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Errorf("not an object")
	}
	if _, err := extract.ExtractDate(item, ct.StartDate, s.cfg.GlobalDateFormat, ct.Name, "sample"); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if !ct.EndDate.IsZero() {
		if _, err := extract.ExtractDate(item, ct.EndDate, s.cfg.GlobalDateFormat, ct.Name, "sample"); err != nil {
			return fmt.Errorf("end date: %w", err)
		}
	}
	return nil
}

// extractType extracts every item of one claim type, collecting and skipping
// per-item failures.
func (s *Flexible) extractType(ctx context.Context, ct model.ClaimTypeConfig, items []interface{}) []model.ClaimRecord {
	records := make([]model.ClaimRecord, 0, len(items))
	for i, raw := range items {
		if err := checkCancel(ctx); err != nil {
			return records
		}
		item, ok := raw.(map[string]interface{})
		if !ok {
			s.log.Warn().Str("type", ct.Name).Int("index", i).Msg("skipping non-object item")
			continue
		}
		rec, err := s.itemRecord(ct, item, i)
		if err != nil {
			s.log.Warn().Str("type", ct.Name).Int("index", i).Err(err).Msg("skipping item")
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (s *Flexible) itemRecord(ct model.ClaimTypeConfig, item map[string]interface{}, index int) (model.ClaimRecord, error) {
	id := extract.ResolveString(item, ct.IDField.Path)
	if id == "" {
		id = ct.IDField.DefaultValue
	}
	if id == "" || id == AutoGeneratedID {
		id = generateID(ct.Name, index)
	}

	format := s.cfg.GlobalDateFormat
	start, err := extract.ExtractDate(item, ct.StartDate, format, ct.Name, id)
	if err != nil {
		return model.ClaimRecord{}, err
	}

	end := start
	if !ct.EndDate.IsZero() {
		end, err = extract.ExtractDate(item, ct.EndDate, format, ct.Name, id)
		if err != nil {
			// Same-day fallback keeps a record that still has a start signal.
			s.log.Warn().Str("type", ct.Name).Str("id", id).Err(err).Msg("end date unresolvable, using start date")
			end = start
		}
	}
	if end.Before(start.Time) {
		end = start.AddDays(1)
	}

	name := extract.ResolveString(item, ct.DisplayName.Path)
	if name == "" {
		name = ct.DisplayName.DefaultValue
	}
	if name == "" {
		name = defaultDisplayName(ct.Name, id)
	}

	details := cloneDetails(item)
	if len(ct.DisplayFields) > 0 {
		if formatted := extract.FormatDisplayFields(item, ct.DisplayFields, format); len(formatted) > 0 {
			details["displayFields"] = formatted
		}
	}

	color := ct.Color
	if color == "" {
		color = s.cfg.Color(ct.Name)
	}

	return model.ClaimRecord{
		ID:          id,
		Type:        ct.Name,
		StartDate:   start,
		EndDate:     end,
		DisplayName: name,
		Color:       color,
		Details:     details,
	}, nil
}
