// Package store defines the write boundary to the external graph store and
// the batched dispatcher that feeds it. The store itself is an external
// collaborator; this package only consumes its bulk API.
package store

import (
	"context"

	"github.com/google/uuid"
)

// Article is the read-side view of one stored vertex.
type Article struct {
	ID   uuid.UUID
	Name string
}

// Store is one graph store backend. BulkInsert accepts a whole batch and
// either applies it or fails it as a unit. The read methods back the
// explorer only.
type Store interface {
	// BulkInsert writes a batch of heterogeneous items. Safe for
	// concurrent use by multiple writer workers.
	BulkInsert(ctx context.Context, items []Item) error

	// GetArticle returns the stored article, or nil if the id is unknown.
	GetArticle(ctx context.Context, id uuid.UUID) (*Article, error)
	// GetOutboundLinks returns up to limit articles linked from src.
	GetOutboundLinks(ctx context.Context, src uuid.UUID, limit int) ([]Article, error)
	// CountOutboundLinks returns the total outbound link count of src.
	CountOutboundLinks(ctx context.Context, src uuid.UUID) (int64, error)

	Close(ctx context.Context) error
}
