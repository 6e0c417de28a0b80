package extract

import (
	"errors"
	"testing"

	"github.com/claimline/claimline/internal/model"
)

func TestExtractDate_PrimaryField(t *testing.T) {
	record := testDoc(t, `{"dos": "2024-01-15"}`)
	d, err := ExtractDate(record, model.DateSpec{Path: "dos"}, "", "rxTba", "rx1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.String() != "2024-01-15" {
		t.Errorf("Expected 2024-01-15, got %s", d)
	}
}

func TestExtractDate_FallbackChain(t *testing.T) {
	record := testDoc(t, `{"dos": "garbage", "fillDate": "bad too", "prescriptionDate": "2024-02-01"}`)
	spec := model.DateSpec{Path: "dos", Fallbacks: []string{"fillDate", "prescriptionDate", "serviceDate"}}

	d, err := ExtractDate(record, spec, "", "rxTba", "rx1")
	if err != nil {
		t.Fatalf("Expected fallback to succeed, got %v", err)
	}
	if d.String() != "2024-02-01" {
		t.Errorf("Expected 2024-02-01, got %s", d)
	}
}

func TestExtractDate_FailureCarriesContext(t *testing.T) {
	record := testDoc(t, `{"dos": "garbage"}`)
	spec := model.DateSpec{Path: "dos", Fallbacks: []string{"fillDate"}}

	_, err := ExtractDate(record, spec, "", "rxTba", "rx7")
	var derr *model.DateParseError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected DateParseError, got %v", err)
	}
	if derr.Field != "dos" || derr.ClaimType != "rxTba" || derr.ClaimID != "rx7" {
		t.Errorf("Expected error context for rxTba/rx7/dos, got %+v", derr)
	}
	if derr.Value != "garbage" {
		t.Errorf("Expected offending value, got %q", derr.Value)
	}
}

func TestExtractDate_CalculationLiteral(t *testing.T) {
	record := testDoc(t, `{"admit": "2024-01-10"}`)
	spec := model.DateSpec{Calculation: &model.Calculation{
		BaseField: "admit", Operation: "add", Value: float64(10), Unit: "days",
	}}

	d, err := ExtractDate(record, spec, "", "stay", "s1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.String() != "2024-01-20" {
		t.Errorf("Expected 2024-01-20, got %s", d)
	}
}

func TestExtractDate_CalculationSubtract(t *testing.T) {
	record := testDoc(t, `{"discharge": "2024-01-10"}`)
	spec := model.DateSpec{Calculation: &model.Calculation{
		BaseField: "discharge", Operation: "subtract", Value: float64(3), Unit: "days",
	}}

	d, err := ExtractDate(record, spec, "", "stay", "s1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.String() != "2024-01-07" {
		t.Errorf("Expected 2024-01-07, got %s", d)
	}
}

func TestExtractDate_CalculationFieldReferencedOffset(t *testing.T) {
	record := testDoc(t, `{"dos": "2024-01-01", "dayssupply": "45"}`)
	spec := model.DateSpec{Calculation: &model.Calculation{
		BaseField: "dos", Operation: "add", Value: "dayssupply", Unit: "days",
	}}

	d, err := ExtractDate(record, spec, "", "rxTba", "rx1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.String() != "2024-02-15" {
		t.Errorf("Expected 2024-02-15, got %s", d)
	}
}

func TestExtractDate_OffsetDefaultsAndClamping(t *testing.T) {
	cases := []struct {
		name   string
		doc    string
		value  interface{}
		want   string
	}{
		{"missing offset field", `{"dos": "2024-01-01"}`, "dayssupply", "2024-01-31"},
		{"non-numeric offset", `{"dos": "2024-01-01", "dayssupply": "soon"}`, "dayssupply", "2024-01-31"},
		{"ceiling 365", `{"dos": "2024-01-01", "dayssupply": 1000}`, "dayssupply", "2024-12-31"},
		{"floor 1", `{"dos": "2024-01-01", "dayssupply": 0}`, "dayssupply", "2024-01-02"},
		{"nil literal", `{"dos": "2024-01-01"}`, nil, "2024-01-31"},
	}
	for _, tc := range cases {
		record := testDoc(t, tc.doc)
		spec := model.DateSpec{Calculation: &model.Calculation{
			BaseField: "dos", Operation: "add", Value: tc.value, Unit: "days",
		}}
		d, err := ExtractDate(record, spec, "", "rxTba", "rx1")
		if err != nil {
			t.Errorf("%s: expected no error, got %v", tc.name, err)
			continue
		}
		if d.String() != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, d)
		}
	}
}

func TestCoerceDays(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int
	}{
		{float64(30), 30},
		{float64(0), 1},
		{float64(400), 365},
		{"14", 14},
		{"bogus", 30},
		{nil, 30},
		{true, 30},
	}
	for _, tc := range cases {
		if got := CoerceDays(tc.in); got != tc.want {
			t.Errorf("CoerceDays(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatDisplayFields(t *testing.T) {
	record := testDoc(t, `{
		"copay": 12.5,
		"fillDate": "2024-01-15",
		"pharmacy": "Main Street Pharmacy",
		"quantity": 60
	}`)
	fields := []model.DisplayField{
		{Label: "Copay", Path: "copay", Format: "currency", ShowInTooltip: true},
		{Label: "Filled", Path: "fillDate", Format: "date", ShowInDetails: true},
		{Label: "Pharmacy", Path: "pharmacy", ShowInTooltip: true},
		{Label: "Quantity", Path: "quantity", Format: "number"},
		{Label: "Missing", Path: "ndc"},
	}

	out := FormatDisplayFields(record, fields, "")
	if len(out) != 4 {
		t.Fatalf("Expected 4 formatted fields (missing path omitted), got %d", len(out))
	}
	if out[0].Value != "$12.50" {
		t.Errorf("Expected $12.50, got %s", out[0].Value)
	}
	if out[1].Value != "2024-01-15" {
		t.Errorf("Expected 2024-01-15, got %s", out[1].Value)
	}
	if out[2].Value != "Main Street Pharmacy" || !out[2].ShowInTooltip {
		t.Errorf("Unexpected field: %+v", out[2])
	}
	if out[3].Value != "60" {
		t.Errorf("Expected 60, got %s", out[3].Value)
	}
}
