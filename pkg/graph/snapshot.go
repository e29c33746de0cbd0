package graph

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// snapshot is the on-disk form of an ArticleMap. Only the two tables are
// persisted; the assigner is configuration and travels with the process.
type snapshot struct {
	UUIDs map[string]uuid.UUID
	Links map[uuid.UUID]map[uuid.UUID]struct{}
}

// WriteSnapshot persists the graph to path so a later run can skip re-parsing
// the compressed dump.
func WriteSnapshot(path string, m *ArticleMap) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	enc := gob.NewEncoder(f)
	if err := enc.Encode(snapshot{UUIDs: m.UUIDs, Links: m.Links}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return f.Close()
}

// ReadSnapshot loads a graph previously written by WriteSnapshot. The
// assigner must use the same identifier policy as the run that wrote the
// snapshot, otherwise later inserts would not line up with the stored ids.
func ReadSnapshot(path string, assigner *Assigner) (*ArticleMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	var snap snapshot
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	m := NewArticleMap(assigner)
	if snap.UUIDs != nil {
		m.UUIDs = snap.UUIDs
	}
	if snap.Links != nil {
		m.Links = snap.Links
	}
	return m, nil
}
