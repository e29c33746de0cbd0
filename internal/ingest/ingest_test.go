package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/OFFIS-RIT/wikigraph/internal/config"
	"github.com/OFFIS-RIT/wikigraph/pkg/graph"
	"github.com/OFFIS-RIT/wikigraph/pkg/store"
)

// memStore collects delivered items for assertions. A non-nil insertErr
// fails every BulkInsert.
type memStore struct {
	mu        sync.Mutex
	items     []store.Item
	insertErr error
}

func (s *memStore) BulkInsert(ctx context.Context, items []store.Item) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
	return nil
}

func (s *memStore) GetArticle(ctx context.Context, id uuid.UUID) (*store.Article, error) {
	return nil, nil
}

func (s *memStore) GetOutboundLinks(ctx context.Context, src uuid.UUID, limit int) ([]store.Article, error) {
	return nil, nil
}

func (s *memStore) CountOutboundLinks(ctx context.Context, src uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *memStore) Close(ctx context.Context) error {
	return nil
}

func (s *memStore) countByKind() map[store.ItemKind]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[store.ItemKind]int)
	for _, item := range s.items {
		counts[item.Kind]++
	}
	return counts
}

func testConfig() *config.Config {
	return &config.Config{
		BatchSize: 4,
		Workers:   2,
		Window:    2,
	}
}

func buildTestGraph(t *testing.T) *graph.ArticleMap {
	t.Helper()
	assigner, err := graph.NewAssigner(graph.IDPolicyContentHash)
	if err != nil {
		t.Fatal(err)
	}
	m := graph.NewArticleMap(assigner)

	a, _ := m.InsertArticle("A")
	b, _ := m.InsertArticle("B")
	c, _ := m.InsertArticle("C")
	m.InsertLink(a, b)
	m.InsertLink(a, c)
	m.InsertLink(b, c)
	return m
}

func TestInsertArticles(t *testing.T) {
	ctx := context.Background()
	s := &memStore{}
	m := buildTestGraph(t)

	if err := InsertArticles(ctx, s, m, testConfig()); err != nil {
		t.Fatal(err)
	}

	counts := s.countByKind()
	if counts[store.ItemKindVertex] != 3 {
		t.Errorf("vertex items = %d, want 3", counts[store.ItemKindVertex])
	}
	if counts[store.ItemKindVertexProperty] != 3 {
		t.Errorf("property items = %d, want 3", counts[store.ItemKindVertexProperty])
	}
	if counts[store.ItemKindEdge] != 0 {
		t.Errorf("edge items = %d, want 0 before the link phase", counts[store.ItemKindEdge])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[string]bool)
	for _, item := range s.items {
		if item.Kind == store.ItemKindVertexProperty {
			if item.Property != "name" {
				t.Errorf("unexpected property %q", item.Property)
			}
			names[item.Value] = true
		}
	}
	for _, want := range []string{"A", "B", "C"} {
		if !names[want] {
			t.Errorf("missing name property for %q", want)
		}
	}
}

func TestInsertArticlesStoreError(t *testing.T) {
	ctx := context.Background()
	s := &memStore{insertErr: errors.New("store down")}
	m := buildTestGraph(t)

	err := InsertArticles(ctx, s, m, testConfig())
	if err == nil {
		t.Fatal("expected error from failing store, got nil")
	}
	if !errors.Is(err, s.insertErr) {
		t.Errorf("error %v does not wrap the store error", err)
	}
}

func TestInsertLinksStoreError(t *testing.T) {
	ctx := context.Background()
	s := &memStore{insertErr: errors.New("store down")}
	m := buildTestGraph(t)

	err := InsertLinks(ctx, s, m, testConfig())
	if err == nil {
		t.Fatal("expected error from failing store, got nil")
	}
	if !errors.Is(err, s.insertErr) {
		t.Errorf("error %v does not wrap the store error", err)
	}
}

func TestInsertLinks(t *testing.T) {
	ctx := context.Background()
	s := &memStore{}
	m := buildTestGraph(t)

	if err := InsertLinks(ctx, s, m, testConfig()); err != nil {
		t.Fatal(err)
	}

	counts := s.countByKind()
	if counts[store.ItemKindEdge] != 3 {
		t.Errorf("edge items = %d, want 3", counts[store.ItemKindEdge])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.Kind != store.ItemKindEdge {
			continue
		}
		if item.Type != "link" {
			t.Errorf("edge type = %q, want link", item.Type)
		}
		if _, ok := m.Links[item.Src][item.Dst]; !ok {
			t.Errorf("dispatched edge %s -> %s not present in the graph", item.Src, item.Dst)
		}
	}
}
