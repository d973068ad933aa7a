package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
)

type fixedCounter struct {
	perFile int
}

func (c fixedCounter) Count(string) int { return c.perFile }

func TestParseFlagsDefaultsToOnlineResources(t *testing.T) {
	opts, err := parseFlags([]string{"-dir", "/corpus"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.collection != domain.OnlineResourcesCollection {
		t.Fatalf("default collection = %q, want %q", opts.collection, domain.OnlineResourcesCollection)
	}
	if opts.dir != "/corpus" {
		t.Fatalf("dir = %q", opts.dir)
	}
}

func TestParseFlagsCollectionOverride(t *testing.T) {
	opts, err := parseFlags([]string{"-dir", "/corpus", "-collection", domain.ManualsCollection})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.collection != domain.ManualsCollection {
		t.Fatalf("collection = %q, want %q", opts.collection, domain.ManualsCollection)
	}
}

func TestCollectBatchesSplitsOnTokenBudget(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("content"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	// Two files fit under the budget, the third starts a new batch.
	batches, err := collectBatches(dir, fixedCounter{perFile: batchTokenBudget / 2})
	if err != nil {
		t.Fatalf("collectBatches() error = %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d: %v", len(batches), batches)
	}
	if len(batches[0]) != 2 || len(batches[1]) != 1 {
		t.Fatalf("unexpected packing: %v", batches)
	}
}

func TestCollectBatchesOversizedFileFormsOwnBatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"big.md", "huge.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("content"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	batches, err := collectBatches(dir, fixedCounter{perFile: batchTokenBudget + 1})
	if err != nil {
		t.Fatalf("collectBatches() error = %v", err)
	}
	if len(batches) != 2 || len(batches[0]) != 1 || len(batches[1]) != 1 {
		t.Fatalf("oversized files must each form their own batch: %v", batches)
	}
}

func TestCollectBatchesSkipsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "guide.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	batches, err := collectBatches(dir, fixedCounter{perFile: 1})
	if err != nil {
		t.Fatalf("collectBatches() error = %v", err)
	}
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("unexpected batches: %v", batches)
	}
	if filepath.Base(batches[0][0]) != "guide.md" {
		t.Fatalf("unexpected file: %v", batches[0])
	}
}
