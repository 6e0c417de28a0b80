// Package pipeline orchestrates the fallback parse: source acquisition,
// JSON decoding, and the ordered strategy trial.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/claimline/claimline/internal/extract"
	"github.com/claimline/claimline/internal/extract/strategies"
	"github.com/claimline/claimline/internal/model"
)

// Parser runs the three extraction strategies in order (fixed schema,
// configuration-driven, baseline) against the same document. The first
// success wins verbatim; exhaustion aggregates every failure. A Parser is
// stateless per call and safe for concurrent use.
type Parser struct {
	cfg        *model.Config
	strategies []strategies.Strategy
	log        zerolog.Logger
}

// NewParser creates a parser with the standard strategy order.
func NewParser(cfg *model.Config, log zerolog.Logger) *Parser {
	pc := &cfg.Parser
	return &Parser{
		cfg: cfg,
		strategies: []strategies.Strategy{
			strategies.NewFixedSchema(pc, log),
			strategies.NewFlexible(pc, log),
			strategies.NewBaseline(pc, log),
		},
		log: log,
	}
}

// ParseFile reads one file and parses it.
func (p *Parser) ParseFile(ctx context.Context, path string) (*model.Timeline, error) {
	data, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, data)
}

// Parse decodes raw bytes and runs the strategy trial. Each parse run
// carries its own id in diagnostics.
func (p *Parser) Parse(ctx context.Context, data []byte) (*model.Timeline, error) {
	log := p.log.With().Str("run_id", uuid.NewString()).Logger()

	doc, err := decode(data)
	if err != nil {
		return nil, err
	}

	var attempts []model.StrategyFailure
	for _, s := range p.strategies {
		tl, err := s.Extract(ctx, doc)
		if err == nil {
			log.Debug().Str("strategy", s.Name()).Int("claims", tl.Metadata.TotalClaims).Msg("strategy succeeded")
			return tl, nil
		}
		// Cancellation is not a strategy failure; stop the trial.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debug().Str("strategy", s.Name()).Err(err).Msg("strategy failed")
		attempts = append(attempts, model.StrategyFailure{Strategy: s.Name(), Err: err})
	}

	return nil, &model.ExhaustedError{
		Attempts: attempts,
		Hint:     remediationHint(&p.cfg.Parser),
	}
}

// Probe replays the same ordered trial without mutating anything and reports
// which strategy would succeed on this input.
func (p *Parser) Probe(ctx context.Context, data []byte) (string, error) {
	doc, err := decode(data)
	if err != nil {
		return "", err
	}
	for _, s := range p.strategies {
		if _, err := s.Extract(ctx, doc); err == nil {
			return s.Name(), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("no strategy succeeds on this input")
}

// decode turns raw bytes into a document object, classifying empty input,
// JSON syntax errors, and non-object roots.
func decode(data []byte) (map[string]interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &model.SourceError{
			Kind: model.KindEmptyInput,
			Hint: "the source contains no data; supply a JSON document with at least one claim array",
		}
	}

	var root interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &model.SourceError{
			Kind: model.KindJSONSyntax,
			Hint: "fix the JSON syntax; common causes are trailing commas, unquoted keys, and truncated files",
			Err:  err,
		}
	}

	doc, ok := root.(map[string]interface{})
	if !ok {
		return nil, &model.SourceError{
			Kind: model.KindJSONSyntax,
			Hint: fmt.Sprintf("the top-level JSON value is %T, but an object with claim arrays is required", root),
			Err:  fmt.Errorf("top-level value is not an object"),
		}
	}
	return doc, nil
}

// remediationHint summarizes what the document would need for any strategy
// to succeed, including the supported date formats with worked examples.
func remediationHint(pc *model.ParserConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "expected one of: an array at %q, %q, or %q.claims[].lines[]",
		pc.RxTbaPath, pc.RxHistoryPath, pc.MedHistoryPath)
	if len(pc.ClaimTypes) > 0 {
		names := make([]string, len(pc.ClaimTypes))
		for i, ct := range pc.ClaimTypes {
			names[i] = fmt.Sprintf("%s at %q", ct.Name, ct.ArrayPath)
		}
		fmt.Fprintf(&b, "; or one of the configured claim types: %s", strings.Join(names, ", "))
	}
	b.WriteString(". Supported date formats: ")
	examples := extract.FormatExamples(model.Today().Time)
	for i, f := range extract.SupportedDateFormats {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s (e.g. %s)", f, examples[f])
	}
	return b.String()
}
