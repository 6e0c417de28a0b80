package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/claimline/claimline/internal/model"
)

// Offset coercion bounds for calculated dates and days-supply fields.
const (
	DefaultOffsetDays = 30
	MinOffsetDays     = 1
	MaxOffsetDays     = 365
)

// ExtractDate resolves a DateSpec against one record. Field specs try the
// primary path, then each fallback in order; calculation specs parse the
// base field and apply the offset. claimType and claimID are carried into
// any date error for diagnostics.
func ExtractDate(record map[string]interface{}, spec model.DateSpec, format, claimType, claimID string) (model.Date, error) {
	if spec.IsCalculated() {
		return extractCalculated(record, spec, format, claimType, claimID)
	}
	return extractFieldDate(record, spec.Path, spec.Fallbacks, format, claimType, claimID)
}

func extractFieldDate(record map[string]interface{}, path string, fallbacks []string, format, claimType, claimID string) (model.Date, error) {
	primary, _ := Resolve(record, path)
	d, err := NormalizeDate(primary, format)
	if err == nil {
		return d, nil
	}
	for _, fb := range fallbacks {
		v, ok := Resolve(record, fb)
		if !ok {
			continue
		}
		if d, fbErr := NormalizeDate(v, format); fbErr == nil {
			return d, nil
		}
	}
	if derr, ok := err.(*model.DateParseError); ok {
		derr.Field = path
		derr.ClaimType = claimType
		derr.ClaimID = claimID
		return model.Date{}, derr
	}
	return model.Date{}, err
}

func extractCalculated(record map[string]interface{}, spec model.DateSpec, format, claimType, claimID string) (model.Date, error) {
	calc := spec.Calculation
	base, err := extractFieldDate(record, calc.BaseField, spec.Fallbacks, format, claimType, claimID)
	if err != nil {
		return model.Date{}, err
	}
	days := resolveOffset(record, calc.Value)
	if strings.EqualFold(calc.Operation, "subtract") {
		return base.AddDays(-days), nil
	}
	return base.AddDays(days), nil
}

// resolveOffset turns a calculation value into a day count. A number is
// taken literally; a string is a field path whose value is coerced. Anything
// unusable falls back to DefaultOffsetDays, and the result is clamped to
// [MinOffsetDays, MaxOffsetDays].
func resolveOffset(record map[string]interface{}, value interface{}) int {
	switch v := value.(type) {
	case nil:
		return DefaultOffsetDays
	case float64:
		return ClampDays(int(v))
	case int:
		return ClampDays(v)
	case string:
		resolved, ok := Resolve(record, v)
		if !ok {
			return DefaultOffsetDays
		}
		return CoerceDays(resolved)
	default:
		return DefaultOffsetDays
	}
}

// CoerceDays coerces an arbitrary JSON value to a clamped day count,
// defaulting when the value is missing or non-numeric.
func CoerceDays(v interface{}) int {
	switch t := v.(type) {
	case float64:
		return ClampDays(int(t))
	case int:
		return ClampDays(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return DefaultOffsetDays
		}
		return ClampDays(n)
	default:
		return DefaultOffsetDays
	}
}

// ClampDays bounds a day count to [MinOffsetDays, MaxOffsetDays].
func ClampDays(n int) int {
	if n < MinOffsetDays {
		return MinOffsetDays
	}
	if n > MaxOffsetDays {
		return MaxOffsetDays
	}
	return n
}

// FormattedField is one rendered display field, a tooltip-oriented
// projection of a raw source value.
type FormattedField struct {
	Label         string `json:"label"`
	Value         string `json:"value"`
	ShowInTooltip bool   `json:"showInTooltip"`
	ShowInDetails bool   `json:"showInDetails"`
}

// FormatDisplayFields renders the configured display fields of one record.
// Fields whose path resolves to nothing are omitted.
func FormatDisplayFields(record map[string]interface{}, fields []model.DisplayField, dateFormat string) []FormattedField {
	var out []FormattedField
	for _, f := range fields {
		v, ok := Resolve(record, f.Path)
		if !ok {
			continue
		}
		rendered := formatValue(v, f.Format, dateFormat)
		if rendered == "" {
			continue
		}
		out = append(out, FormattedField{
			Label:         f.Label,
			Value:         rendered,
			ShowInTooltip: f.ShowInTooltip,
			ShowInDetails: f.ShowInDetails,
		})
	}
	return out
}

func formatValue(v interface{}, format, dateFormat string) string {
	switch format {
	case "date":
		if d, err := NormalizeDate(v, dateFormat); err == nil {
			return d.String()
		}
		return Stringify(v)
	case "currency":
		if f, ok := v.(float64); ok {
			return fmt.Sprintf("$%.2f", f)
		}
		if s := Stringify(v); s != "" {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return fmt.Sprintf("$%.2f", f)
			}
		}
		return Stringify(v)
	case "number":
		return Stringify(v)
	default: // text
		return Stringify(v)
	}
}
