// Package worker parses many claim files in parallel. The pipeline is pure
// per invocation, so files need no synchronization beyond bounding
// concurrency.
package worker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/claimline/claimline/internal/cache"
	"github.com/claimline/claimline/internal/model"
	"github.com/claimline/claimline/internal/pipeline"
)

// ParseResult is the outcome for one file in a batch.
type ParseResult struct {
	Path     string
	Timeline *model.Timeline
	Cached   bool
	Err      error
}

// BatchProcessor fans file parses out over a bounded worker set, reusing
// cached results for byte-identical inputs within the run.
type BatchProcessor struct {
	parser   *pipeline.Parser
	workers  int
	cache    cache.Cache
	progress *ProgressLimiter
	log      zerolog.Logger
}

// NewBatchProcessor creates a batch processor. cache may be nil to disable
// result reuse.
func NewBatchProcessor(parser *pipeline.Parser, workers int, c cache.Cache, progress *ProgressLimiter, log zerolog.Logger) *BatchProcessor {
	if workers <= 0 {
		workers = 4
	}
	return &BatchProcessor{
		parser:   parser,
		workers:  workers,
		cache:    c,
		progress: progress,
		log:      log,
	}
}

// Process parses every path and returns results in input order.
func (b *BatchProcessor) Process(ctx context.Context, paths []string) []ParseResult {
	results := make([]ParseResult, len(paths))
	semaphore := make(chan struct{}, b.workers)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				results[idx] = ParseResult{Path: p, Err: err}
				return
			}
			select {
			case <-ctx.Done():
				results[idx] = ParseResult{Path: p, Err: ctx.Err()}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = b.parseOne(ctx, p)
			if b.progress != nil && b.progress.Allow() {
				b.log.Info().Str("file", p).Bool("cached", results[idx].Cached).
					Err(results[idx].Err).Msg("processed")
			}
		}(i, path)
	}

	wg.Wait()
	return results
}

func (b *BatchProcessor) parseOne(ctx context.Context, path string) ParseResult {
	data, err := pipeline.ReadSource(path)
	if err != nil {
		return ParseResult{Path: path, Err: err}
	}

	var key string
	if b.cache != nil {
		key = cache.Key(data)
		if blob, ok := b.cache.Get(key); ok {
			var tl model.Timeline
			if err := json.Unmarshal(blob, &tl); err == nil {
				return ParseResult{Path: path, Timeline: &tl, Cached: true}
			}
			// Corrupt entry; fall through to a fresh parse.
		}
	}

	tl, err := b.parser.Parse(ctx, data)
	if err != nil {
		return ParseResult{Path: path, Err: err}
	}

	if b.cache != nil {
		if blob, err := json.Marshal(tl); err == nil {
			b.cache.Set(key, blob)
		}
	}
	return ParseResult{Path: path, Timeline: tl}
}
