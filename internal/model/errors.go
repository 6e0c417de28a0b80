package model

import (
	"fmt"
	"strings"
)

// ErrorKind classifies parse failures for diagnostics and recovery guidance.
type ErrorKind string

const (
	KindFileAccess ErrorKind = "file_access"
	KindEmptyInput ErrorKind = "empty_input"
	KindJSONSyntax ErrorKind = "json_syntax"
	KindStructure  ErrorKind = "structure_validation"
	KindDateParse  ErrorKind = "date_parse"
	KindExtraction ErrorKind = "extraction"
)

// SourceError covers failures before extraction starts: unreadable files,
// empty input, and malformed JSON.
type SourceError struct {
	Kind ErrorKind
	Path string // source path, empty for in-memory input
	Hint string // concrete remediation text
	Err  error
}

func (e *SourceError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindFileAccess:
		b.WriteString("cannot read source")
	case KindEmptyInput:
		b.WriteString("source is empty")
	case KindJSONSyntax:
		b.WriteString("source is not valid JSON")
	default:
		b.WriteString("source error")
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, " (%s)", e.Hint)
	}
	return b.String()
}

func (e *SourceError) Unwrap() error { return e.Err }

// PathFinding records what structural validation found at one checked path.
type PathFinding struct {
	Path   string `json:"path"`
	Found  string `json:"found"` // "missing", "not an array", "array", ...
	Detail string `json:"detail,omitempty"`
}

// StructureError means the document parsed but contains no recognizable
// claim arrays. It lists every path checked and what was found there.
type StructureError struct {
	Strategy string
	Checked  []PathFinding
	Hint     string
}

func (e *StructureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no extractable claims found by %s strategy", e.Strategy)
	if len(e.Checked) > 0 {
		b.WriteString(": checked ")
		for i, f := range e.Checked {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s (%s", f.Path, f.Found)
			if f.Detail != "" {
				fmt.Fprintf(&b, ": %s", f.Detail)
			}
			b.WriteString(")")
		}
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, " (%s)", e.Hint)
	}
	return b.String()
}

// DateParseError means a specific field's value could not be interpreted as
// a date under any attempted format.
type DateParseError struct {
	Value            string
	Field            string
	ClaimType        string
	ClaimID          string
	AttemptedFormats []string
	Examples         map[string]string // format -> worked example for today
	Reason           string
}

func (e *DateParseError) Error() string {
	var b strings.Builder
	b.WriteString("cannot parse date")
	if e.Field != "" {
		fmt.Fprintf(&b, " in field %q", e.Field)
	}
	if e.ClaimType != "" || e.ClaimID != "" {
		fmt.Fprintf(&b, " (claim %s %s)", e.ClaimType, e.ClaimID)
	}
	fmt.Fprintf(&b, ": %q", e.Value)
	if e.Reason != "" {
		fmt.Fprintf(&b, " (%s)", e.Reason)
	}
	if len(e.AttemptedFormats) > 0 {
		fmt.Fprintf(&b, "; tried formats %s", strings.Join(e.AttemptedFormats, ", "))
	}
	return b.String()
}

// ExtractionError means a whole array or claim type yielded zero records
// from non-empty input, or an unexpected failure hit a structurally valid
// record.
type ExtractionError struct {
	ClaimType string
	Index     int
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("extract %s[%d]: %v", e.ClaimType, e.Index, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.ClaimType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// StrategyFailure records one strategy's terminal error during the
// orchestrated trial.
type StrategyFailure struct {
	Strategy string
	Err      error
}

// ExhaustedError aggregates the failures of every attempted strategy. It is
// the only extraction failure a caller ever sees from the orchestrator.
type ExhaustedError struct {
	Attempts []StrategyFailure
	Hint     string
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	b.WriteString("all extraction strategies failed")
	if len(e.Attempts) > 0 {
		names := make([]string, len(e.Attempts))
		for i, a := range e.Attempts {
			names[i] = a.Strategy
		}
		fmt.Fprintf(&b, " (tried %s)", strings.Join(names, ", "))
		last := e.Attempts[len(e.Attempts)-1]
		fmt.Fprintf(&b, "; last error: %v", last.Err)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, " (%s)", e.Hint)
	}
	return b.String()
}

// Unwrap exposes the terminal error for errors.Is/As.
func (e *ExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
