package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimline/claimline/internal/llm"
	"github.com/claimline/claimline/internal/model"
	"github.com/claimline/claimline/internal/pipeline"
)

var (
	outJSON      string
	claimConfig  string
	dateFormat   string
	parseTimeout time.Duration
	probeOnly    bool
	llmEnabled   bool
	llmModel     string
	llmBaseURL   string
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse one claims JSON file into a canonical timeline",
	Long: `Parse normalizes a single claims JSON document into a date-sorted
timeline and writes it as JSON.

The fixed schema expects any of rxTba, rxHistory, or medHistory.claims at
the document root. Other shapes can be described with a claim-types
configuration file (--claim-config).

Example:
  claimline parse claims.json
  claimline parse claims.json --json timeline.json
  claimline parse custom.json --claim-config claim-types.yaml
  claimline parse claims.json --probe`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&outJSON, "json", "-", "output JSON path (\"-\" for stdout)")
	parseCmd.Flags().StringVar(&claimConfig, "claim-config", "", "claim-types YAML for the configuration-driven strategy")
	parseCmd.Flags().StringVar(&dateFormat, "date-format", "", "expected date format (restricts parsing to that format)")
	parseCmd.Flags().DurationVar(&parseTimeout, "timeout", time.Minute, "overall parse timeout")
	parseCmd.Flags().BoolVar(&probeOnly, "probe", false, "report which strategy would succeed, without emitting a timeline")

	parseCmd.Flags().BoolVar(&llmEnabled, "llm", false, "append a plain-language LLM summary (requires OPENAI_API_KEY)")
	parseCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
	parseCmd.Flags().StringVar(&llmBaseURL, "llm-base-url", "", "OpenAI-compatible base URL override")
}

func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Output.Verbose = verbose
	if dateFormat != "" {
		cfg.Parser.DateFormat = dateFormat
		cfg.Parser.GlobalDateFormat = dateFormat
	}
	if claimConfig != "" {
		if err := cfg.Parser.LoadClaimTypes(claimConfig); err != nil {
			return nil, err
		}
	}
	if llmEnabled {
		cfg.LLM.Enabled = true
		cfg.LLM.Model = llmModel
		cfg.LLM.BaseURL = llmBaseURL
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	return cfg, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	log := newLogger()
	parser := pipeline.NewParser(cfg, log)

	if probeOnly {
		data, err := pipeline.ReadSource(file)
		if err != nil {
			return err
		}
		strategy, err := parser.Probe(ctx, data)
		if err != nil {
			return fmt.Errorf("probe failed: %w", err)
		}
		fmt.Printf("strategy: %s\n", strategy)
		return nil
	}

	tl, err := parser.ParseFile(ctx, file)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	renderer := pipeline.NewRenderer()
	if err := renderer.RenderJSON(tl, outJSON); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if outJSON != "-" {
		renderer.RenderSummary(tl, os.Stderr)
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	if cfg.LLM.Enabled {
		summarizer, err := llm.NewSummarizer(cfg.LLM)
		if err != nil {
			return err
		}
		summary, err := summarizer.Summarize(ctx, tl)
		if err != nil {
			// The summary is cosmetic; a failure never fails the parse.
			fmt.Fprintf(os.Stderr, "Warning: LLM summary failed: %v\n", err)
			return nil
		}
		fmt.Fprintf(os.Stderr, "\n%s\n", summary)
	}
	return nil
}
