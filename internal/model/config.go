package model

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default JSON paths for the fixed schema.
const (
	DefaultRxTbaPath      = "rxTba"
	DefaultRxHistoryPath  = "rxHistory"
	DefaultMedHistoryPath = "medHistory"
)

// Default colors for the three fixed claim types.
var DefaultColors = map[string]string{
	TypeRxTba:      "#FF6B6B",
	TypeRxHistory:  "#4ECDC4",
	TypeMedHistory: "#45B7D1",
}

// FieldSpec names a single field by path with an optional default value.
type FieldSpec struct {
	Path         string `json:"path" yaml:"path"`
	DefaultValue string `json:"defaultValue,omitempty" yaml:"default_value,omitempty"`
}

// Calculation derives a date from a base field plus an offset. Value is
// either a literal number of days or a path to a field holding one.
type Calculation struct {
	BaseField string      `json:"baseField" yaml:"base_field"`
	Operation string      `json:"operation" yaml:"operation"` // "add" or "subtract"
	Value     interface{} `json:"value" yaml:"value"`
	Unit      string      `json:"unit" yaml:"unit"` // "days"
}

// DateSpec resolves a date either from a field (with ordered fallbacks) or
// from a calculation. Exactly one of Path/Calculation is expected; when both
// are present the calculation wins.
type DateSpec struct {
	Path        string       `json:"path,omitempty" yaml:"path,omitempty"`
	Fallbacks   []string     `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
	Calculation *Calculation `json:"calculation,omitempty" yaml:"calculation,omitempty"`
}

// IsCalculated reports whether the spec derives its date from an offset.
func (s DateSpec) IsCalculated() bool {
	return s.Calculation != nil
}

// IsZero reports whether the spec carries no resolution rule at all.
func (s DateSpec) IsZero() bool {
	return s.Path == "" && s.Calculation == nil
}

// DisplayField is one formatted projection of a source field, used by
// renderers for tooltips and detail panes.
type DisplayField struct {
	Label         string `json:"label" yaml:"label"`
	Path          string `json:"path" yaml:"path"`
	Format        string `json:"format,omitempty" yaml:"format,omitempty"` // date, currency, number, text
	ShowInTooltip bool   `json:"showInTooltip" yaml:"show_in_tooltip"`
	ShowInDetails bool   `json:"showInDetails" yaml:"show_in_details"`
}

// ClaimTypeConfig describes one user-defined claim type for the
// configuration-driven extractor.
type ClaimTypeConfig struct {
	Name          string         `json:"name" yaml:"name"`
	ArrayPath     string         `json:"arrayPath" yaml:"array_path"`
	Color         string         `json:"color,omitempty" yaml:"color,omitempty"`
	IDField       FieldSpec      `json:"idField" yaml:"id_field"`
	StartDate     DateSpec       `json:"startDate" yaml:"start_date"`
	EndDate       DateSpec       `json:"endDate" yaml:"end_date"`
	DisplayName   FieldSpec      `json:"displayName" yaml:"display_name"`
	DisplayFields []DisplayField `json:"displayFields,omitempty" yaml:"display_fields,omitempty"`
}

// ParserConfig carries both extraction strategies' settings on one object;
// each strategy reads only the fields relevant to it.
type ParserConfig struct {
	RxTbaPath      string            `json:"rxTbaPath" yaml:"rx_tba_path"`
	RxHistoryPath  string            `json:"rxHistoryPath" yaml:"rx_history_path"`
	MedHistoryPath string            `json:"medHistoryPath" yaml:"med_history_path"`
	DateFormat     string            `json:"dateFormat" yaml:"date_format"`
	Colors         map[string]string `json:"colors" yaml:"colors"`

	ClaimTypes       []ClaimTypeConfig `json:"claimTypes,omitempty" yaml:"claim_types,omitempty"`
	GlobalDateFormat string            `json:"globalDateFormat" yaml:"global_date_format"`
}

// Color returns the configured color for a claim type, falling back to the
// built-in palette.
func (c *ParserConfig) Color(claimType string) string {
	if col, ok := c.Colors[claimType]; ok && col != "" {
		return col
	}
	if col, ok := DefaultColors[claimType]; ok {
		return col
	}
	return "#999999"
}

// ConcurrencyConfig controls batch parallelism.
type ConcurrencyConfig struct {
	Workers int `json:"workers" yaml:"workers"`
}

// CacheConfig controls the in-run result cache.
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	TTL     time.Duration `json:"ttl" yaml:"ttl"`
}

// LLMConfig controls the optional timeline summarizer. The summary never
// affects the timeline value.
type LLMConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Model   string `json:"model" yaml:"model"`
	APIKey  string `json:"-" yaml:"-"`
	BaseURL string `json:"baseUrl,omitempty" yaml:"base_url,omitempty"`
}

// OutputConfig controls rendering behavior.
type OutputConfig struct {
	Verbose          bool    `json:"verbose" yaml:"verbose"`
	ProgressPerSec   float64 `json:"progressPerSec" yaml:"progress_per_sec"`
	ProgressBurst    int     `json:"progressBurst" yaml:"progress_burst"`
}

// Config is the full application configuration.
type Config struct {
	Parser      ParserConfig      `json:"parser" yaml:"parser"`
	Concurrency ConcurrencyConfig `json:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `json:"cache" yaml:"cache"`
	LLM         LLMConfig         `json:"llm" yaml:"llm"`
	Output      OutputConfig      `json:"output" yaml:"output"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Parser:      *DefaultParserConfig(),
		Concurrency: ConcurrencyConfig{Workers: 4},
		Cache:       CacheConfig{Enabled: true, TTL: 15 * time.Minute},
		LLM:         LLMConfig{Model: "gpt-4o-mini"},
		Output:      OutputConfig{ProgressPerSec: 5, ProgressBurst: 10},
	}
}

// DefaultParserConfig returns the fixed-schema defaults with no flexible
// claim types configured.
func DefaultParserConfig() *ParserConfig {
	colors := make(map[string]string, len(DefaultColors))
	for k, v := range DefaultColors {
		colors[k] = v
	}
	return &ParserConfig{
		RxTbaPath:        DefaultRxTbaPath,
		RxHistoryPath:    DefaultRxHistoryPath,
		MedHistoryPath:   DefaultMedHistoryPath,
		DateFormat:       "YYYY-MM-DD",
		Colors:           colors,
		GlobalDateFormat: "YYYY-MM-DD",
	}
}

// claimTypesFile is the on-disk shape of a claim-types configuration file.
type claimTypesFile struct {
	GlobalDateFormat string            `yaml:"global_date_format"`
	ClaimTypes       []ClaimTypeConfig `yaml:"claim_types"`
}

// LoadClaimTypes reads a claim-types YAML file and applies it to the parser
// configuration, enabling the configuration-driven strategy.
func (c *ParserConfig) LoadClaimTypes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read claim config: %w", err)
	}
	var file claimTypesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse claim config %s: %w", path, err)
	}
	if len(file.ClaimTypes) == 0 {
		return fmt.Errorf("claim config %s defines no claim types", path)
	}
	for i, ct := range file.ClaimTypes {
		if ct.Name == "" {
			return fmt.Errorf("claim config %s: claim type %d has no name", path, i)
		}
		if ct.ArrayPath == "" {
			return fmt.Errorf("claim config %s: claim type %q has no array path", path, ct.Name)
		}
	}
	c.ClaimTypes = file.ClaimTypes
	if file.GlobalDateFormat != "" {
		c.GlobalDateFormat = file.GlobalDateFormat
	}
	return nil
}
