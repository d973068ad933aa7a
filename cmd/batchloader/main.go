// Command batchloader walks a corpus directory, groups files into
// token-bounded batches, and publishes one index job per batch for the
// worker to consume.
package main

import (
	"context"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mkotelnikov/autotech-rag/internal/bootstrap"
	"github.com/mkotelnikov/autotech-rag/internal/config"
	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/core/ports"
	"github.com/mkotelnikov/autotech-rag/internal/infrastructure/tokencount"
	"github.com/mkotelnikov/autotech-rag/internal/observability/logging"
)

const batchTokenBudget = 600_000

var supportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

type options struct {
	dir        string
	collection string
}

// parseFlags defaults the target to the online-resources collection: the
// manuals collection is fed by live uploads, the batch path feeds the
// scraped corpus.
func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("batchloader", flag.ContinueOnError)
	dir := fs.String("dir", "", "corpus directory to load")
	collection := fs.String("collection", domain.OnlineResourcesCollection, "target collection")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return options{dir: *dir, collection: *collection}, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger("batchloader", cfg.LogLevel))

	if opts.dir == "" {
		slog.Error("-dir is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := bootstrap.NewQueue(cfg)
	if err != nil {
		slog.Error("queue error", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	counter := tokencount.NewCounter()
	batches, err := collectBatches(opts.dir, counter)
	if err != nil {
		slog.Error("collect batches", "error", err)
		os.Exit(1)
	}
	if len(batches) == 0 {
		slog.Warn("no supported files found", "dir", opts.dir)
		return
	}

	published := 0
	for _, paths := range batches {
		job := domain.IndexBatchJob{Collection: opts.collection, Paths: paths}
		if err := queue.PublishIndexBatch(ctx, job); err != nil {
			slog.Error("publish batch", "error", err, "published", published)
			os.Exit(1)
		}
		published++
		slog.Info("batch published", "collection", opts.collection, "files", len(paths))
	}
	slog.Info("all batches published", "batches", published)
}

// collectBatches walks dir and packs supported files into batches whose
// combined token estimate stays under the budget. A single file larger
// than the budget forms its own batch.
func collectBatches(dir string, counter ports.TokenCounter) ([][]string, error) {
	var batches [][]string
	var current []string
	currentTokens := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tokens := counter.Count(string(raw))
		if len(current) > 0 && currentTokens+tokens > batchTokenBudget {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, path)
		currentTokens += tokens
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches, nil
}
