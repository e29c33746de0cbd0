// Package ingest sequences an ingestion run: parse the dump into the
// in-memory graph, then stream the graph to the store in two flushed phases.
package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/OFFIS-RIT/wikigraph/internal/config"
	"github.com/OFFIS-RIT/wikigraph/internal/storage"
	"github.com/OFFIS-RIT/wikigraph/internal/util"
	"github.com/OFFIS-RIT/wikigraph/pkg/archive"
	"github.com/OFFIS-RIT/wikigraph/pkg/graph"
	"github.com/OFFIS-RIT/wikigraph/pkg/logger"
	"github.com/OFFIS-RIT/wikigraph/pkg/store"
	storeneo4j "github.com/OFFIS-RIT/wikigraph/pkg/store/neo4j"
	storepgx "github.com/OFFIS-RIT/wikigraph/pkg/store/pgx"
)

const (
	articleType  = "article"
	linkType     = "link"
	nameProperty = "name"

	progressEvery = 10_000
)

// OpenStore builds the configured graph store backend.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreAdapter {
	case config.AdapterPostgres:
		return storepgx.NewStore(ctx, storepgx.Params{
			DatabaseURL:  cfg.DatabaseURL,
			ConnectTries: cfg.ConnectTries,
			ConnectDelay: cfg.ConnectDelay,
		})
	default:
		return storeneo4j.NewStore(ctx, storeneo4j.Params{
			URI:          cfg.Neo4jURI,
			User:         cfg.Neo4jUser,
			Password:     cfg.Neo4jPassword,
			Database:     cfg.Neo4jDatabase,
			ConnectTries: cfg.ConnectTries,
			ConnectDelay: cfg.ConnectDelay,
		})
	}
}

// NewAssigner builds the identifier assigner for the configured policy.
func NewAssigner(cfg *config.Config) (*graph.Assigner, error) {
	return graph.NewAssigner(graph.IDPolicy(cfg.IDPolicy))
}

// ParseArchive streams the dump at archivePath into a fresh ArticleMap.
func ParseArchive(ctx context.Context, cfg *config.Config, archivePath string) (*graph.ArticleMap, error) {
	assigner, err := NewAssigner(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse phase failed: %w", err)
	}
	m := graph.NewArticleMap(assigner)

	src, err := storage.OpenArchive(ctx, archivePath)
	if err != nil {
		return nil, fmt.Errorf("parse phase failed: %w", err)
	}
	defer src.Close()

	r, err := archive.OpenReader(src, archivePath)
	if err != nil {
		return nil, fmt.Errorf("parse phase failed: %w", err)
	}

	start := time.Now()
	if err := archive.Parse(r, m); err != nil {
		return nil, fmt.Errorf("parse phase failed: %w", err)
	}
	logger.Info("archive parsed",
		"articles", m.ArticleLen(),
		"links", m.LinkLen(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return m, nil
}

// LoadArticleMap returns the graph for archivePath, reading the snapshot at
// snapshotPath when one exists and writing it after a fresh parse otherwise.
func LoadArticleMap(ctx context.Context, cfg *config.Config, archivePath, snapshotPath string) (*graph.ArticleMap, error) {
	if _, err := os.Stat(snapshotPath); err == nil {
		assigner, err := NewAssigner(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("reading snapshot", "path", snapshotPath)
		return graph.ReadSnapshot(snapshotPath, assigner)
	}

	m, err := ParseArchive(ctx, cfg, archivePath)
	if err != nil {
		return nil, err
	}
	if err := graph.WriteSnapshot(snapshotPath, m); err != nil {
		return nil, fmt.Errorf("parse phase failed: %w", err)
	}
	logger.Info("snapshot written", "path", snapshotPath)
	return m, nil
}

// InsertArticles streams one vertex and one name property per article. The
// pair is pushed in a single call so it always lands in one batch.
func InsertArticles(ctx context.Context, s store.Store, m *graph.ArticleMap, cfg *config.Config) error {
	w := store.NewBulkWriter(ctx, s, store.BulkWriterParams{
		BatchSize: cfg.BatchSize,
		Workers:   cfg.Workers,
		Window:    cfg.Window,
	})
	progress := util.NewProgress("indexing articles", progressEvery)

	for name, id := range m.UUIDs {
		err := w.Push(ctx,
			store.VertexItem(id, articleType),
			store.VertexPropertyItem(id, nameProperty, name),
		)
		if err != nil {
			// The Push error already carries the failure; Flush only
			// releases the workers here.
			_ = w.Flush(ctx)
			return fmt.Errorf("dispatch phase failed while indexing articles: %w", err)
		}
		progress.Add(1)
	}

	if err := w.Flush(ctx); err != nil {
		return fmt.Errorf("dispatch phase failed while indexing articles: %w", err)
	}
	progress.Done()
	return nil
}

// InsertLinks streams one edge per link. Must only run after InsertArticles
// has returned, so every referenced vertex is already durable.
func InsertLinks(ctx context.Context, s store.Store, m *graph.ArticleMap, cfg *config.Config) error {
	w := store.NewBulkWriter(ctx, s, store.BulkWriterParams{
		BatchSize: cfg.BatchSize,
		Workers:   cfg.Workers,
		Window:    cfg.Window,
	})
	progress := util.NewProgress("indexing links", progressEvery)

	for src, dsts := range m.Links {
		for dst := range dsts {
			if err := w.Push(ctx, store.EdgeItem(src, linkType, dst)); err != nil {
				_ = w.Flush(ctx)
				return fmt.Errorf("dispatch phase failed while indexing links: %w", err)
			}
			progress.Add(1)
		}
	}

	if err := w.Flush(ctx); err != nil {
		return fmt.Errorf("dispatch phase failed while indexing links: %w", err)
	}
	progress.Done()
	return nil
}

// Dispatch streams the graph to the configured store, articles first, then
// links, each phase flushed before the next begins.
func Dispatch(ctx context.Context, cfg *config.Config, m *graph.ArticleMap) error {
	s, err := OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dispatch phase failed: %w", err)
	}
	defer s.Close(ctx)

	start := time.Now()
	if err := InsertArticles(ctx, s, m, cfg); err != nil {
		return err
	}
	if err := InsertLinks(ctx, s, m, cfg); err != nil {
		return err
	}
	logger.Info("dispatch complete",
		"articles", m.ArticleLen(),
		"links", m.LinkLen(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// Run performs a full crawl: resolve the graph, then dispatch it.
func Run(ctx context.Context, cfg *config.Config, archivePath, snapshotPath string) error {
	m, err := LoadArticleMap(ctx, cfg, archivePath, snapshotPath)
	if err != nil {
		return err
	}
	return Dispatch(ctx, cfg, m)
}
