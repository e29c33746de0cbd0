// Package pgx implements the graph store boundary on top of PostgreSQL.
// Batches are written with a single pipelined pgx.Batch per call, which
// keeps the item submission order intact.
package pgx

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OFFIS-RIT/wikigraph/internal/util"
	"github.com/OFFIS-RIT/wikigraph/pkg/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store talks to one PostgreSQL database through a connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Params configures the connection. ConnectTries and ConnectDelay bound the
// pre-run connection retry; once a run has started there are no retries.
type Params struct {
	DatabaseURL  string
	ConnectTries int
	ConnectDelay time.Duration
}

// NewStore connects, verifies the connection and applies pending schema
// migrations.
func NewStore(ctx context.Context, params Params) (*Store, error) {
	tries := params.ConnectTries
	if tries <= 0 {
		tries = 1
	}
	delay := params.ConnectDelay
	if delay <= 0 {
		delay = time.Second
	}

	pool, err := pgxpool.New(ctx, params.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	_, err = util.RetryWithContextDelay(ctx, tries, delay, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	if err := applyMigrations(params.DatabaseURL); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

func applyMigrations(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// BulkInsert applies one batch inside a transaction, one queued statement per
// item in submission order. Conflicting re-inserts are ignored so repeated
// loads of the same content-addressed graph stay idempotent.
func (s *Store) BulkInsert(ctx context.Context, items []store.Item) error {
	batch := &pgx.Batch{}
	for _, item := range items {
		switch item.Kind {
		case store.ItemKindVertex:
			batch.Queue(
				`INSERT INTO articles (id, type) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				item.ID, item.Type,
			)
		case store.ItemKindVertexProperty:
			batch.Queue(
				`INSERT INTO article_properties (article_id, name, value) VALUES ($1, $2, $3)
				 ON CONFLICT (article_id, name) DO UPDATE SET value = EXCLUDED.value`,
				item.ID, item.Property, item.Value,
			)
		case store.ItemKindEdge:
			batch.Queue(
				`INSERT INTO links (src, type, dst) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
				item.Src, item.Type, item.Dst,
			)
		default:
			return fmt.Errorf("unhandled bulk item kind %d", item.Kind)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin bulk write transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("bulk write batch failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit bulk write transaction: %w", err)
	}
	return nil
}

// GetArticle returns the stored article, or nil if the id is unknown.
func (s *Store) GetArticle(ctx context.Context, id uuid.UUID) (*store.Article, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT a.id, coalesce(p.value, '')
		FROM articles a
		LEFT JOIN article_properties p ON p.article_id = a.id AND p.name = 'name'
		WHERE a.id = $1`, id)

	var article store.Article
	if err := row.Scan(&article.ID, &article.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query article: %w", err)
	}
	return &article, nil
}

// GetOutboundLinks returns up to limit articles linked from src.
func (s *Store) GetOutboundLinks(ctx context.Context, src uuid.UUID, limit int) ([]store.Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT l.dst, coalesce(p.value, '')
		FROM links l
		LEFT JOIN article_properties p ON p.article_id = l.dst AND p.name = 'name'
		WHERE l.src = $1
		ORDER BY p.value
		LIMIT $2`, src, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbound links: %w", err)
	}
	defer rows.Close()

	var links []store.Article
	for rows.Next() {
		var article store.Article
		if err := rows.Scan(&article.ID, &article.Name); err != nil {
			return nil, fmt.Errorf("failed to scan outbound link: %w", err)
		}
		links = append(links, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query outbound links: %w", err)
	}
	return links, nil
}

// CountOutboundLinks returns the total outbound link count of src.
func (s *Store) CountOutboundLinks(ctx context.Context, src uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM links WHERE src = $1`, src).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count outbound links: %w", err)
	}
	return count, nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
