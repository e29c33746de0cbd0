// Package neo4j implements the graph store boundary on top of a Neo4j
// server, batching writes through UNWIND statements.
package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/OFFIS-RIT/wikigraph/internal/util"
	"github.com/OFFIS-RIT/wikigraph/pkg/store"
)

// Store talks to one Neo4j database. Safe for concurrent use; every
// BulkInsert runs in its own session.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// Params configures the connection. ConnectTries and ConnectDelay bound the
// pre-run connection retry; once a run has started there are no retries.
type Params struct {
	URI          string
	User         string
	Password     string
	Database     string
	MaxPoolSize  int
	ConnectTries int
	ConnectDelay time.Duration
}

// NewStore connects, verifies connectivity and ensures the article id
// constraint exists.
func NewStore(ctx context.Context, params Params) (*Store, error) {
	maxPool := params.MaxPoolSize
	if maxPool <= 0 {
		maxPool = 50
	}
	tries := params.ConnectTries
	if tries <= 0 {
		tries = 1
	}
	delay := params.ConnectDelay
	if delay <= 0 {
		delay = time.Second
	}

	auth := neo4j.BasicAuth(params.User, params.Password, "")
	driver, err := neo4j.NewDriverWithContext(params.URI, auth, func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = maxPool
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	s := &Store{driver: driver, database: params.Database}

	_, err = util.RetryWithContextDelay(ctx, tries, delay, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, driver.VerifyConnectivity(ctx)
	})
	if err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach neo4j: %w", err)
	}

	if err := s.ensureSchema(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	session := s.newSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	res, err := session.Run(ctx,
		`CREATE CONSTRAINT article_id_unique IF NOT EXISTS FOR (a:Article) REQUIRE a.id IS UNIQUE`, nil)
	if err != nil {
		return fmt.Errorf("failed to create article id constraint: %w", err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("failed to create article id constraint: %w", err)
	}
	return nil
}

func (s *Store) newSession(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// BulkInsert applies one batch in a single write transaction. Items are
// grouped by kind and vertices run first; properties and edges only ever
// reference vertices from the same batch or an earlier flushed phase.
func (s *Store) BulkInsert(ctx context.Context, items []store.Item) error {
	var vertices []map[string]any
	props := make(map[string][]map[string]any)
	edges := make(map[string][]map[string]any)

	for _, item := range items {
		switch item.Kind {
		case store.ItemKindVertex:
			vertices = append(vertices, map[string]any{
				"id":   item.ID.String(),
				"type": item.Type,
			})
		case store.ItemKindVertexProperty:
			props[item.Property] = append(props[item.Property], map[string]any{
				"id":    item.ID.String(),
				"value": item.Value,
			})
		case store.ItemKindEdge:
			edges[item.Type] = append(edges[item.Type], map[string]any{
				"src": item.Src.String(),
				"dst": item.Dst.String(),
			})
		default:
			return fmt.Errorf("unhandled bulk item kind %d", item.Kind)
		}
	}

	session := s.newSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(vertices) > 0 {
			if err := runConsume(ctx, tx, `
UNWIND $vertices AS v
MERGE (a:Article {id: v.id})
SET a.type = v.type
`, map[string]any{"vertices": vertices}); err != nil {
				return nil, err
			}
		}

		// Property keys and relationship types cannot be parameterized in
		// Cypher, so one statement runs per distinct name. The names come
		// from the ingestion pipeline, not from dump content.
		for property, rows := range props {
			query := fmt.Sprintf(`
UNWIND $rows AS p
MATCH (a:Article {id: p.id})
SET a.%s = p.value
`, escapeName(property))
			if err := runConsume(ctx, tx, query, map[string]any{"rows": rows}); err != nil {
				return nil, err
			}
		}

		for edgeType, rows := range edges {
			query := fmt.Sprintf(`
UNWIND $rows AS e
MATCH (src:Article {id: e.src})
MATCH (dst:Article {id: e.dst})
MERGE (src)-[:%s]->(dst)
`, escapeName(edgeType))
			if err := runConsume(ctx, tx, query, map[string]any{"rows": rows}); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("bulk write transaction failed: %w", err)
	}
	return nil
}

// GetArticle returns the stored article, or nil if the id is unknown.
func (s *Store) GetArticle(ctx context.Context, id uuid.UUID) (*store.Article, error) {
	session := s.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	res, err := session.Run(ctx,
		`MATCH (a:Article {id: $id}) RETURN a.name`,
		map[string]any{"id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to query article: %w", err)
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return nil, fmt.Errorf("failed to query article: %w", err)
		}
		return nil, nil
	}

	article := &store.Article{ID: id}
	if name, ok := res.Record().Values[0].(string); ok {
		article.Name = name
	}
	return article, nil
}

// GetOutboundLinks returns up to limit articles linked from src.
func (s *Store) GetOutboundLinks(ctx context.Context, src uuid.UUID, limit int) ([]store.Article, error) {
	session := s.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	res, err := session.Run(ctx, `
MATCH (a:Article {id: $id})-[]->(b:Article)
RETURN b.id, b.name
ORDER BY b.name
LIMIT $limit
`, map[string]any{"id": src.String(), "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to query outbound links: %w", err)
	}

	var links []store.Article
	for res.Next(ctx) {
		values := res.Record().Values
		rawID, _ := values[0].(string)
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("store returned malformed article id %q: %w", rawID, err)
		}
		name, _ := values[1].(string)
		links = append(links, store.Article{ID: id, Name: name})
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("failed to query outbound links: %w", err)
	}
	return links, nil
}

// CountOutboundLinks returns the total outbound link count of src.
func (s *Store) CountOutboundLinks(ctx context.Context, src uuid.UUID) (int64, error) {
	session := s.newSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	res, err := session.Run(ctx,
		`MATCH (a:Article {id: $id})-[r]->() RETURN count(r)`,
		map[string]any{"id": src.String()})
	if err != nil {
		return 0, fmt.Errorf("failed to count outbound links: %w", err)
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return 0, fmt.Errorf("failed to count outbound links: %w", err)
		}
		return 0, nil
	}
	count, _ := res.Record().Values[0].(int64)
	return count, nil
}

// Close releases the driver and its connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func runConsume(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) error {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

// escapeName backtick-quotes an identifier for interpolation into Cypher.
func escapeName(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
