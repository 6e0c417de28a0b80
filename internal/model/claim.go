package model

import (
	"fmt"
	"strings"
	"time"
)

// Claim type names recognized by the fixed schema.
const (
	TypeRxTba      = "rxTba"
	TypeRxHistory  = "rxHistory"
	TypeMedHistory = "medHistory"
)

// Date is a calendar date pinned to local midnight. All dates emitted by the
// pipeline use this type so that serialization boundaries cannot reintroduce
// a time-of-day or a UTC off-by-one shift.
type Date struct {
	time.Time
}

// NewDate truncates t to local midnight.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.Local)}
}

// DateOf builds a local-midnight date from components.
func DateOf(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.Local)}
}

// Today returns the current date at local midnight.
func Today() Date {
	return NewDate(time.Now())
}

// AddDays returns the date n calendar days later (earlier when n < 0).
func (d Date) AddDays(n int) Date {
	return NewDate(d.Time.AddDate(0, 0, n))
}

// String renders the date as ISO-8601 (YYYY-MM-DD).
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// MarshalJSON serializes the date as an ISO-8601 calendar date string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON reconstructs a local-midnight date. Consumers must never
// reinterpret serialized dates as UTC instants.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// ClaimRecord is the canonical output unit: one medical or prescription
// event, normalized away from whatever JSON shape it was extracted from.
type ClaimRecord struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	StartDate   Date                   `json:"startDate"`
	EndDate     Date                   `json:"endDate"`
	DisplayName string                 `json:"displayName"`
	Color       string                 `json:"color"`
	Details     map[string]interface{} `json:"details"`
}

// DateRange is the inclusive span covered by a timeline.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Metadata summarizes an assembled timeline. ClaimTypes preserves the order
// of first occurrence.
type Metadata struct {
	TotalClaims int      `json:"totalClaims"`
	ClaimTypes  []string `json:"claimTypes"`
}

// Timeline is the canonical result of one parse: claims sorted by start date
// descending (most recent first), immutable once returned.
type Timeline struct {
	Claims    []ClaimRecord `json:"claims"`
	DateRange DateRange     `json:"dateRange"`
	Metadata  Metadata      `json:"metadata"`
}
