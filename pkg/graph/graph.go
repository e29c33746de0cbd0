// Package graph holds the deduplicated in-memory article graph produced by
// parsing a dump, along with the identifier assignment policy.
package graph

import (
	"github.com/google/uuid"
)

// ArticleMap is the deduplicated article/link graph for one ingestion run.
// It is populated by the single-threaded parse phase and read-only afterwards,
// so it carries no locking.
type ArticleMap struct {
	// UUIDs maps article names to their identifiers.
	UUIDs map[string]uuid.UUID
	// Links maps a source article id to the set of ids it links to.
	Links map[uuid.UUID]map[uuid.UUID]struct{}

	assigner *Assigner
}

// NewArticleMap creates an empty graph that resolves names through assigner.
func NewArticleMap(assigner *Assigner) *ArticleMap {
	return &ArticleMap{
		UUIDs:    make(map[string]uuid.UUID),
		Links:    make(map[uuid.UUID]map[uuid.UUID]struct{}),
		assigner: assigner,
	}
}

// InsertArticle returns the identifier for name, creating the entry on first
// sight. Inserting the same name twice yields the same identifier and no
// second entry.
func (m *ArticleMap) InsertArticle(name string) (uuid.UUID, error) {
	if id, ok := m.UUIDs[name]; ok {
		return id, nil
	}
	id, err := m.assigner.Assign(name)
	if err != nil {
		return uuid.Nil, err
	}
	m.UUIDs[name] = id
	return id, nil
}

// InsertLink records a link from src to dst. Duplicate pairs collapse to one.
func (m *ArticleMap) InsertLink(src, dst uuid.UUID) {
	container, ok := m.Links[src]
	if !ok {
		container = make(map[uuid.UUID]struct{})
		m.Links[src] = container
	}
	container[dst] = struct{}{}
}

// ArticleLen returns the number of distinct articles.
func (m *ArticleMap) ArticleLen() int64 {
	return int64(len(m.UUIDs))
}

// LinkLen returns the total number of distinct links.
func (m *ArticleMap) LinkLen() int64 {
	var n int64
	for _, dsts := range m.Links {
		n += int64(len(dsts))
	}
	return n
}
