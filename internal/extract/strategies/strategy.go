// Package strategies implements the extraction strategies the orchestrator
// tries in order: fixed schema, configuration-driven, and a minimal
// baseline. Each turns a decoded JSON document into a canonical timeline.
package strategies

import (
	"context"
	"fmt"

	"github.com/claimline/claimline/internal/model"
)

// Strategy is one complete extraction algorithm. Extract validates the
// document structure itself and either returns a full timeline or an error
// describing why this strategy cannot handle the input.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, doc map[string]interface{}) (*model.Timeline, error)
}

// generateID builds the positional fallback id for a record with no usable
// id field.
func generateID(claimType string, index int) string {
	return fmt.Sprintf("%s_%d", claimType, index)
}

// defaultDisplayName builds the fallback display name for a record.
func defaultDisplayName(claimType, id string) string {
	return fmt.Sprintf("%s Claim %s", claimType, id)
}

// checkCancel aborts between items, never mid-item, so large files stay
// interruptible without leaving a record half-normalized.
func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// finalizeRecords is the belt-and-suspenders pass every strategy runs before
// returning: re-derive every date to local midnight and structurally
// re-validate each record, independent of the per-item extraction logic.
func finalizeRecords(records []model.ClaimRecord) ([]model.ClaimRecord, error) {
	out := make([]model.ClaimRecord, 0, len(records))
	for i, r := range records {
		r.StartDate = model.NewDate(r.StartDate.Time)
		r.EndDate = model.NewDate(r.EndDate.Time)
		if err := validateRecord(r); err != nil {
			return nil, &model.ExtractionError{ClaimType: r.Type, Index: i, Err: err}
		}
		out = append(out, r)
	}
	return out, nil
}

func validateRecord(r model.ClaimRecord) error {
	switch {
	case r.ID == "":
		return fmt.Errorf("record has empty id")
	case r.Type == "":
		return fmt.Errorf("record %s has empty type", r.ID)
	case r.DisplayName == "":
		return fmt.Errorf("record %s has empty display name", r.ID)
	case r.Color == "":
		return fmt.Errorf("record %s has empty color", r.ID)
	case r.StartDate.IsZero() || r.EndDate.IsZero():
		return fmt.Errorf("record %s has an unset date", r.ID)
	case r.EndDate.Before(r.StartDate.Time):
		return fmt.Errorf("record %s ends %s before it starts %s", r.ID, r.EndDate, r.StartDate)
	case r.Details == nil:
		return fmt.Errorf("record %s has nil details", r.ID)
	}
	return nil
}

// cloneDetails copies the raw source item into a fresh details map so the
// emitted record does not alias the decoded document.
func cloneDetails(item map[string]interface{}) map[string]interface{} {
	details := make(map[string]interface{}, len(item))
	for k, v := range item {
		details[k] = v
	}
	return details
}
