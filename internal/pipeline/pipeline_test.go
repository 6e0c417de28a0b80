package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/claimline/claimline/internal/extract/strategies"
	"github.com/claimline/claimline/internal/model"
)

func newTestParser(cfg *model.Config) *Parser {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	return NewParser(cfg, zerolog.Nop())
}

func TestParser_FixedSchemaWins(t *testing.T) {
	input := []byte(`{"rxTba": [{"id": "rx1", "dos": "2024-01-15", "dayssupply": 30, "medication": "Med A"}]}`)

	p := newTestParser(nil)
	tl, err := p.Parse(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tl.Claims) != 1 || tl.Claims[0].DisplayName != "Med A" {
		t.Fatalf("Unexpected timeline: %+v", tl)
	}

	// Fallback monotonicity: the orchestrator returns the fixed-schema
	// strategy's result verbatim.
	fixed := strategies.NewFixedSchema(model.DefaultParserConfig(), zerolog.Nop())
	doc, err := decode(input)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	direct, err := fixed.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("direct extraction: %v", err)
	}
	if !reflect.DeepEqual(tl, direct) {
		t.Error("Orchestrator result differs from the fixed-schema strategy's direct result")
	}
}

func TestParser_Idempotent(t *testing.T) {
	input := []byte(`{"rxTba": [
		{"id": "rx1", "dos": "2024-01-15", "dayssupply": 30},
		{"id": "rx2", "dos": "2024-02-01", "dayssupply": 7}
	]}`)

	p := newTestParser(nil)
	first, err := p.Parse(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := p.Parse(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Parsing the same document twice must yield identical timelines")
	}
}

func TestParser_FallsBackToConfigurable(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Parser.ClaimTypes = []model.ClaimTypeConfig{{
		Name:      "visits",
		ArrayPath: "visits",
		IDField:   model.FieldSpec{Path: "visitId"},
		StartDate: model.DateSpec{Path: "visitDate"},
	}}
	input := []byte(`{"visits": [{"visitId": "v1", "visitDate": "2024-02-01"}]}`)

	p := newTestParser(cfg)
	tl, err := p.Parse(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected configurable strategy to succeed, got %v", err)
	}
	if tl.Claims[0].Type != "visits" {
		t.Errorf("Expected a visits claim, got %s", tl.Claims[0].Type)
	}

	strategy, err := p.Probe(context.Background(), input)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if strategy != "configurable" {
		t.Errorf("Expected probe to report configurable, got %s", strategy)
	}
}

func TestParser_ExhaustionAggregatesAllStrategies(t *testing.T) {
	p := newTestParser(nil)
	_, err := p.Parse(context.Background(), []byte(`{"unrelated": "data"}`))

	var exhausted *model.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected ExhaustedError, got %v", err)
	}
	if len(exhausted.Attempts) != 3 {
		t.Fatalf("Expected 3 attempted strategies, got %d", len(exhausted.Attempts))
	}
	want := []string{"fixed-schema", "configurable", "baseline"}
	for i, attempt := range exhausted.Attempts {
		if attempt.Strategy != want[i] {
			t.Errorf("Attempt %d: expected %s, got %s", i, want[i], attempt.Strategy)
		}
		if attempt.Err == nil {
			t.Errorf("Attempt %d carries no error", i)
		}
	}

	msg := err.Error()
	for _, name := range want {
		if !strings.Contains(msg, name) {
			t.Errorf("Expected failure message to name %s: %s", name, msg)
		}
	}
}

func TestParser_ExhaustionHintListsFormats(t *testing.T) {
	p := newTestParser(nil)
	_, err := p.Parse(context.Background(), []byte(`{"unrelated": "data"}`))

	var exhausted *model.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected ExhaustedError, got %v", err)
	}
	if !strings.Contains(exhausted.Hint, "rxTba") || !strings.Contains(exhausted.Hint, "MM/DD/YYYY") {
		t.Errorf("Expected remediation hint with expected arrays and date formats, got %q", exhausted.Hint)
	}
}

func TestParser_EmptyInput(t *testing.T) {
	p := newTestParser(nil)
	for name, input := range map[string][]byte{
		"zero bytes":      {},
		"whitespace only": []byte("  \n\t "),
	} {
		_, err := p.Parse(context.Background(), input)
		var serr *model.SourceError
		if !errors.As(err, &serr) || serr.Kind != model.KindEmptyInput {
			t.Errorf("%s: expected empty-input error, got %v", name, err)
		}
	}
}

func TestParser_MalformedJSON(t *testing.T) {
	p := newTestParser(nil)
	for name, input := range map[string][]byte{
		"syntax error":     []byte(`{"rxTba": [}`),
		"top-level array":  []byte(`[1, 2, 3]`),
		"top-level scalar": []byte(`42`),
	} {
		_, err := p.Parse(context.Background(), input)
		var serr *model.SourceError
		if !errors.As(err, &serr) || serr.Kind != model.KindJSONSyntax {
			t.Errorf("%s: expected JSON syntax error, got %v", name, err)
		}
	}
}

func TestParser_BaselineAsLastResort(t *testing.T) {
	// dos values the fixed schema cannot parse at all still produce sentinel
	// records there, so craft input where fixed fails structurally under
	// custom paths but the baseline's hard-coded rxTba is present.
	cfg := model.DefaultConfig()
	cfg.Parser.RxTbaPath = "pending"
	cfg.Parser.RxHistoryPath = "history"
	cfg.Parser.MedHistoryPath = "medical"
	input := []byte(`{"rxTba": [{"id": "rx1", "dos": "2024-01-15"}]}`)

	p := newTestParser(cfg)
	strategy, err := p.Probe(context.Background(), input)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if strategy != "baseline" {
		t.Errorf("Expected baseline to win, got %s", strategy)
	}

	tl, err := p.Parse(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected baseline parse to succeed, got %v", err)
	}
	if len(tl.Claims) != 1 || tl.Claims[0].ID != "rx1" {
		t.Errorf("Unexpected baseline timeline: %+v", tl.Claims)
	}
}

func TestParser_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestParser(nil)
	_, err := p.Parse(ctx, []byte(`{"rxTba": [{"dos": "2024-01-15"}]}`))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestReadSource_MissingFile(t *testing.T) {
	_, err := ReadSource("/nonexistent/claims.json")
	var serr *model.SourceError
	if !errors.As(err, &serr) || serr.Kind != model.KindFileAccess {
		t.Fatalf("Expected file-access error, got %v", err)
	}
	if !strings.Contains(serr.Hint, "does not exist") {
		t.Errorf("Expected a not-found hint, got %q", serr.Hint)
	}
}
