package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/claimline/claimline/internal/cache"
	"github.com/claimline/claimline/internal/model"
	"github.com/claimline/claimline/internal/pipeline"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newProcessor(c cache.Cache) *BatchProcessor {
	parser := pipeline.NewParser(model.DefaultConfig(), zerolog.Nop())
	return NewBatchProcessor(parser, 2, c, nil, zerolog.Nop())
}

func TestBatchProcessor_MixedResults(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"rxTba": [{"id": "rx1", "dos": "2024-01-15"}]}`)
	bad := writeFile(t, dir, "bad.json", `{"unrelated": true}`)
	missing := filepath.Join(dir, "missing.json")

	results := newProcessor(nil).Process(context.Background(), []string{good, bad, missing})
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	// Results keep input order.
	if results[0].Path != good || results[1].Path != bad || results[2].Path != missing {
		t.Fatal("Results out of input order")
	}
	if results[0].Err != nil || results[0].Timeline == nil || results[0].Timeline.Metadata.TotalClaims != 1 {
		t.Errorf("Expected good file to parse, got %+v", results[0])
	}
	if results[1].Err == nil {
		t.Error("Expected unparseable file to fail")
	}
	if results[2].Err == nil {
		t.Error("Expected missing file to fail")
	}
}

func TestBatchProcessor_CachesByContent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "claims.json", `{"rxTba": [{"id": "rx1", "dos": "2024-01-15", "dayssupply": 7}]}`)

	processor := newProcessor(cache.NewMemory(time.Minute))

	first := processor.Process(context.Background(), []string{path})
	if first[0].Err != nil || first[0].Cached {
		t.Fatalf("Expected a fresh parse, got %+v", first[0])
	}

	second := processor.Process(context.Background(), []string{path})
	if second[0].Err != nil {
		t.Fatalf("Expected cached parse to succeed, got %v", second[0].Err)
	}
	if !second[0].Cached {
		t.Error("Expected the second parse of identical bytes to hit the cache")
	}
	if second[0].Timeline.Claims[0].EndDate.String() != first[0].Timeline.Claims[0].EndDate.String() {
		t.Error("Cached timeline differs from the fresh parse")
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "claims.json", `{"rxTba": []}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newProcessor(nil).Process(ctx, []string{path, path, path})
	for i, r := range results {
		if r.Err == nil {
			t.Errorf("Result %d: expected cancellation error", i)
		}
	}
}
