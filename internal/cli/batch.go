package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimline/claimline/internal/cache"
	"github.com/claimline/claimline/internal/pipeline"
	"github.com/claimline/claimline/internal/worker"
)

var (
	batchOutDir  string
	concurrency  int
	batchTimeout time.Duration
	noCache      bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir-or-files...>",
	Short: "Parse many claims files in parallel",
	Long: `Batch parses every given JSON file (or every *.json file in a given
directory) concurrently and writes one timeline per input. Each parse is an
independent, pure transform, so files are processed fully in parallel.

Example:
  claimline batch ./claims/ --out timelines/
  claimline batch a.json b.json c.json --workers 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchOutDir, "out", "timelines", "output directory")
	batchCmd.Flags().IntVar(&concurrency, "workers", 4, "number of parallel workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "overall batch timeout")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the in-run result cache")
	batchCmd.Flags().StringVar(&claimConfig, "claim-config", "", "claim-types YAML for the configuration-driven strategy")
	batchCmd.Flags().StringVar(&dateFormat, "date-format", "", "expected date format (restricts parsing to that format)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	paths, err := collectInputs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no JSON files found in %s", strings.Join(args, ", "))
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Concurrency.Workers = concurrency
	cfg.Cache.Enabled = !noCache

	if err := os.MkdirAll(batchOutDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	log := newLogger()
	parser := pipeline.NewParser(cfg, log)

	var resultCache cache.Cache
	if cfg.Cache.Enabled {
		resultCache = cache.NewMemory(cfg.Cache.TTL)
	}
	progress := worker.NewProgressLimiter(cfg.Output.ProgressPerSec, cfg.Output.ProgressBurst)
	processor := worker.NewBatchProcessor(parser, cfg.Concurrency.Workers, resultCache, progress, log)

	fmt.Fprintf(os.Stderr, "⚙️  Parsing %d files with %d workers...\n", len(paths), cfg.Concurrency.Workers)
	results := processor.Process(ctx, paths)

	renderer := pipeline.NewRenderer()
	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.Err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Err)
			continue
		}
		outPath := filepath.Join(batchOutDir, outputName(result.Path))
		if err := renderer.RenderJSON(result.Timeline, outPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, err)
			continue
		}
		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d claims)\n", result.Path, result.Timeline.Metadata.TotalClaims)
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d  Success: %d  Failures: %d  Output: %s\n",
		len(results), successCount, failureCount, batchOutDir)
	if failureCount > 0 {
		return fmt.Errorf("%d of %d files failed", failureCount, len(results))
	}
	return nil
}

// collectInputs expands directories into their *.json files.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", arg, err)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}

// outputName derives the timeline filename for one input file.
func outputName(inputPath string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".timeline.json"
}
