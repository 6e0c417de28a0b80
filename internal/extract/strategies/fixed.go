package strategies

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/claimline/claimline/internal/extract"
	"github.com/claimline/claimline/internal/model"
	"github.com/claimline/claimline/internal/timeline"
)

// SentinelDate is substituted when a prescription's date is entirely
// unparseable and every fallback field failed. It preserves the claim count
// at the cost of placement fidelity; records carrying it are marked with
// details["date_defaulted"] so consumers can tell.
var SentinelDate = model.DateOf(2024, 1, 1)

// Fallback date fields for prescription records, tried in order after dos.
var rxDateFallbacks = []string{"fillDate", "prescriptionDate", "serviceDate"}

// Display-name candidates for prescription records, first non-empty wins.
var rxNameFields = []string{"medication", "drugName", "productName", "description", "name"}

// FixedSchema extracts the three hard-coded claim shapes: a pending
// prescription array, a prescription history array, and adjudicated medical
// claims with nested service lines. Each shape's location is configurable.
type FixedSchema struct {
	cfg *model.ParserConfig
	log zerolog.Logger
}

// NewFixedSchema creates the fixed-schema strategy.
func NewFixedSchema(cfg *model.ParserConfig, log zerolog.Logger) *FixedSchema {
	return &FixedSchema{cfg: cfg, log: log.With().Str("strategy", "fixed-schema").Logger()}
}

// Name identifies the strategy in diagnostics.
func (s *FixedSchema) Name() string { return "fixed-schema" }

// Extract validates the document structure, extracts every configured array,
// and assembles the timeline. Per-item failures are logged and skipped; an
// array that yields zero records from non-empty input fails the strategy.
func (s *FixedSchema) Extract(ctx context.Context, doc map[string]interface{}) (*model.Timeline, error) {
	if err := s.validateStructure(doc); err != nil {
		return nil, err
	}

	var records []model.ClaimRecord
	if items, ok := extract.ResolveArray(doc, s.cfg.RxTbaPath); ok {
		recs, err := s.extractRx(ctx, items, model.TypeRxTba)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	if items, ok := extract.ResolveArray(doc, s.cfg.RxHistoryPath); ok {
		recs, err := s.extractRx(ctx, items, model.TypeRxHistory)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	if _, ok := extract.Resolve(doc, s.cfg.MedHistoryPath); ok {
		recs, err := s.extractMedHistory(ctx, doc)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}

	records, err := finalizeRecords(records)
	if err != nil {
		return nil, err
	}
	return timeline.Assemble(records), nil
}

// validateStructure passes when at least one configured array is present and
// correctly typed (possibly empty) with object items. Content-level gaps are
// not checked here; extraction has its own fallbacks for those.
func (s *FixedSchema) validateStructure(doc map[string]interface{}) error {
	checks := []struct {
		path   string
		nested bool // medHistory wraps its array in {claims: [...]}
	}{
		{s.cfg.RxTbaPath, false},
		{s.cfg.RxHistoryPath, false},
		{s.cfg.MedHistoryPath, true},
	}

	var findings []model.PathFinding
	valid := 0
	for _, c := range checks {
		arrayPath := c.path
		if c.nested {
			arrayPath = c.path + ".claims"
		}
		if _, ok := extract.Resolve(doc, c.path); !ok {
			findings = append(findings, model.PathFinding{Path: c.path, Found: "missing"})
			continue
		}
		v, ok := extract.Resolve(doc, arrayPath)
		if !ok {
			findings = append(findings, model.PathFinding{Path: arrayPath, Found: "missing"})
			continue
		}
		arr, ok := v.([]interface{})
		if !ok {
			findings = append(findings, model.PathFinding{
				Path: arrayPath, Found: "not an array",
				Detail: fmt.Sprintf("found %T", v),
			})
			continue
		}
		if bad := firstNonObject(arr); bad >= 0 {
			findings = append(findings, model.PathFinding{
				Path: arrayPath, Found: "array",
				Detail: fmt.Sprintf("item %d is not an object", bad),
			})
			continue
		}
		findings = append(findings, model.PathFinding{Path: arrayPath, Found: "array"})
		valid++
	}

	if valid == 0 {
		return &model.StructureError{
			Strategy: s.Name(),
			Checked:  findings,
			Hint: fmt.Sprintf(
				"expected at least one of %q, %q, or %q.claims to be an array of objects; check the configured paths against the document",
				s.cfg.RxTbaPath, s.cfg.RxHistoryPath, s.cfg.MedHistoryPath),
		}
	}
	return nil
}

func firstNonObject(arr []interface{}) int {
	for i, item := range arr {
		if _, ok := item.(map[string]interface{}); !ok {
			return i
		}
	}
	return -1
}

// extractRx turns a prescription array into records. A record with no
// parseable date at all still survives with the sentinel date.
func (s *FixedSchema) extractRx(ctx context.Context, items []interface{}, claimType string) ([]model.ClaimRecord, error) {
	records := make([]model.ClaimRecord, 0, len(items))
	for i, raw := range items {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}
		item, ok := raw.(map[string]interface{})
		if !ok {
			s.log.Warn().Str("type", claimType).Int("index", i).Msg("skipping non-object item")
			continue
		}
		records = append(records, s.rxRecord(item, claimType, i))
	}
	if len(items) > 0 && len(records) == 0 {
		return nil, &model.ExtractionError{
			ClaimType: claimType, Index: -1,
			Err: fmt.Errorf("no records extracted from %d items", len(items)),
		}
	}
	return records, nil
}

func (s *FixedSchema) rxRecord(item map[string]interface{}, claimType string, index int) model.ClaimRecord {
	id := extract.ResolveString(item, "id")
	if id == "" {
		id = generateID(claimType, index)
	}

	details := cloneDetails(item)
	start, defaulted := s.rxStartDate(item, claimType, id)
	if defaulted {
		details["date_defaulted"] = true
	}

	days := extract.CoerceDays(item["dayssupply"])
	end := start.AddDays(days)
	if end.Before(start.Time) {
		end = start.AddDays(1)
	}

	name := ""
	for _, f := range rxNameFields {
		if name = extract.ResolveString(item, f); name != "" {
			break
		}
	}
	if name == "" {
		name = defaultDisplayName(claimType, id)
	}

	return model.ClaimRecord{
		ID:          id,
		Type:        claimType,
		StartDate:   start,
		EndDate:     end,
		DisplayName: name,
		Color:       s.cfg.Color(claimType),
		Details:     details,
	}
}

// rxStartDate parses dos, then each fallback field, then substitutes the
// sentinel rather than dropping a record that has some signal.
func (s *FixedSchema) rxStartDate(item map[string]interface{}, claimType, id string) (model.Date, bool) {
	spec := model.DateSpec{Path: "dos", Fallbacks: rxDateFallbacks}
	start, err := extract.ExtractDate(item, spec, s.cfg.DateFormat, claimType, id)
	if err != nil {
		s.log.Warn().Str("type", claimType).Str("id", id).Err(err).
			Msgf("no parseable date, substituting %s", SentinelDate)
		return SentinelDate, true
	}
	return start, false
}

// extractMedHistory flattens medHistory.claims[].lines[]: each service line,
// not each claim, becomes one record. Claims without usable lines silently
// contribute zero records.
func (s *FixedSchema) extractMedHistory(ctx context.Context, doc map[string]interface{}) ([]model.ClaimRecord, error) {
	claims, ok := extract.ResolveArray(doc, s.cfg.MedHistoryPath+".claims")
	if !ok {
		return nil, nil
	}

	var records []model.ClaimRecord
	seen := 0
	lineIndex := 0
	for _, rawClaim := range claims {
		claim, ok := rawClaim.(map[string]interface{})
		if !ok {
			continue
		}
		lines, ok := claim["lines"].([]interface{})
		if !ok {
			continue
		}
		for _, rawLine := range lines {
			if err := checkCancel(ctx); err != nil {
				return nil, err
			}
			line, ok := rawLine.(map[string]interface{})
			if !ok {
				continue
			}
			seen++
			rec, err := s.medLineRecord(claim, line, lineIndex)
			lineIndex++
			if err != nil {
				s.log.Warn().Str("type", model.TypeMedHistory).Err(err).Msg("skipping service line")
				continue
			}
			records = append(records, rec)
		}
	}
	if seen > 0 && len(records) == 0 {
		return nil, &model.ExtractionError{
			ClaimType: model.TypeMedHistory, Index: -1,
			Err: fmt.Errorf("no records extracted from %d service lines", seen),
		}
	}
	return records, nil
}

func (s *FixedSchema) medLineRecord(claim, line map[string]interface{}, index int) (model.ClaimRecord, error) {
	id := extract.ResolveString(line, "lineId")
	if id == "" {
		id = generateID(model.TypeMedHistory, index)
	}

	// Line-level fallbacks first, then the parent claim's dates.
	spec := model.DateSpec{
		Path:      "srvcStart",
		Fallbacks: []string{"serviceDate", "admissionDate", "procedureDate"},
	}
	start, err := extract.ExtractDate(line, spec, s.cfg.DateFormat, model.TypeMedHistory, id)
	if err != nil {
		parentSpec := model.DateSpec{Path: "claimDate", Fallbacks: []string{"serviceDate"}}
		start, err = extract.ExtractDate(claim, parentSpec, s.cfg.DateFormat, model.TypeMedHistory, id)
		if err != nil {
			return model.ClaimRecord{}, err
		}
	}

	// Same-day service when srvcEnd is absent or unparseable.
	end, endErr := extract.ExtractDate(line, model.DateSpec{Path: "srvcEnd"}, s.cfg.DateFormat, model.TypeMedHistory, id)
	if endErr != nil {
		end = start
	}
	if end.Before(start.Time) {
		end = start.AddDays(1)
	}

	name := extract.ResolveString(line, "description")
	if name == "" {
		name = extract.ResolveString(line, "serviceType")
	}
	if name == "" {
		name = defaultDisplayName(model.TypeMedHistory, id)
	}

	details := cloneDetails(line)
	for _, k := range []string{"claimId", "provider", "claimDate", "totalAmount"} {
		if v, ok := claim[k]; ok {
			if _, exists := details[k]; !exists {
				details[k] = v
			}
		}
	}

	return model.ClaimRecord{
		ID:          id,
		Type:        model.TypeMedHistory,
		StartDate:   start,
		EndDate:     end,
		DisplayName: name,
		Color:       s.cfg.Color(model.TypeMedHistory),
		Details:     details,
	}, nil
}
