package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/claimline/claimline/internal/model"
)

// DefaultDateFormat is the format assumed when none is configured.
const DefaultDateFormat = "YYYY-MM-DD"

// SupportedDateFormats is the fixed trial order used when no explicit
// non-default format is configured.
var SupportedDateFormats = []string{
	"YYYY-MM-DD",
	"MM/DD/YYYY",
	"DD-MM-YYYY",
	"YYYY/MM/DD",
	"DD/MM/YYYY",
	"MM-DD-YYYY",
}

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeDate interprets raw as a calendar date at local midnight.
//
// When preferred is set to a non-default format, only that format is tried.
// Otherwise an exact YYYY-MM-DD match is parsed directly, then every
// supported format is tried in order. Every candidate is validated for
// calendar correctness: a parsed date must round-trip to the same
// year/month/day that were supplied, which rejects values like 2024-02-30
// instead of rolling them forward.
func NormalizeDate(raw interface{}, preferred string) (model.Date, error) {
	s, ok := raw.(string)
	if !ok {
		return model.Date{}, &model.DateParseError{
			Value:  Stringify(raw),
			Reason: fmt.Sprintf("expected a string, got %T", raw),
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, &model.DateParseError{
			Value:  s,
			Reason: "empty value",
		}
	}

	formats := trialFormats(preferred)
	if !strictFormat(preferred) && isoDatePattern.MatchString(s) {
		if d, ok := parseWithFormat(s, DefaultDateFormat); ok {
			return d, nil
		}
	}
	for _, format := range formats {
		if d, ok := parseWithFormat(s, format); ok {
			return d, nil
		}
	}
	return model.Date{}, &model.DateParseError{
		Value:            s,
		AttemptedFormats: formats,
		Examples:         FormatExamples(time.Now()),
		Reason:           "no supported format matched or the date is not a real calendar day",
	}
}

// strictFormat reports whether preferred restricts the trial to itself.
func strictFormat(preferred string) bool {
	return preferred != "" && preferred != DefaultDateFormat
}

func trialFormats(preferred string) []string {
	if strictFormat(preferred) {
		return []string{preferred}
	}
	return SupportedDateFormats
}

// parseWithFormat splits s per the format's separator and component order,
// constructs a local-midnight date, and verifies the calendar round-trip.
func parseWithFormat(s, format string) (model.Date, bool) {
	sep := "-"
	if strings.Contains(format, "/") {
		sep = "/"
	}
	if !strings.Contains(s, sep) {
		return model.Date{}, false
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return model.Date{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return model.Date{}, false
		}
		nums[i] = n
	}

	var year, month, day int
	switch format {
	case "YYYY-MM-DD", "YYYY/MM/DD":
		year, month, day = nums[0], nums[1], nums[2]
	case "MM/DD/YYYY", "MM-DD-YYYY":
		month, day, year = nums[0], nums[1], nums[2]
	case "DD-MM-YYYY", "DD/MM/YYYY":
		day, month, year = nums[0], nums[1], nums[2]
	default:
		return model.Date{}, false
	}
	if year < 1 || year > 9999 {
		return model.Date{}, false
	}

	d := model.DateOf(year, time.Month(month), day)
	gy, gm, gd := d.Date()
	if gy != year || int(gm) != month || gd != day {
		return model.Date{}, false
	}
	return d, true
}

// FormatExamples renders one worked example per supported format for the
// given reference day, so failure messages can show actionable guidance.
func FormatExamples(now time.Time) map[string]string {
	y, m, d := now.Date()
	return map[string]string{
		"YYYY-MM-DD": fmt.Sprintf("%04d-%02d-%02d", y, m, d),
		"MM/DD/YYYY": fmt.Sprintf("%02d/%02d/%04d", m, d, y),
		"DD-MM-YYYY": fmt.Sprintf("%02d-%02d-%04d", d, m, y),
		"YYYY/MM/DD": fmt.Sprintf("%04d/%02d/%02d", y, m, d),
		"DD/MM/YYYY": fmt.Sprintf("%02d/%02d/%04d", d, m, y),
		"MM-DD-YYYY": fmt.Sprintf("%02d-%02d-%04d", m, d, y),
	}
}
