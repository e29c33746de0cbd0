package server

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/OFFIS-RIT/wikigraph/internal/config"
	"github.com/OFFIS-RIT/wikigraph/pkg/graph"
	"github.com/OFFIS-RIT/wikigraph/pkg/store"
)

// stubStore satisfies store.Store with empty results.
type stubStore struct{}

func (stubStore) BulkInsert(ctx context.Context, items []store.Item) error {
	return nil
}

func (stubStore) GetArticle(ctx context.Context, id uuid.UUID) (*store.Article, error) {
	return nil, nil
}

func (stubStore) GetOutboundLinks(ctx context.Context, src uuid.UUID, limit int) ([]store.Article, error) {
	return nil, nil
}

func (stubStore) CountOutboundLinks(ctx context.Context, src uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubStore) Close(ctx context.Context) error {
	return nil
}

func TestInitStopsOnContextCancel(t *testing.T) {
	assigner, err := graph.NewAssigner(graph.IDPolicyContentHash)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Port: "0"}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Init(ctx, cfg, stubStore{}, assigner)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Init did not return after context cancellation")
	}
}
