package store

import (
	"github.com/google/uuid"
)

// ItemKind discriminates the closed set of bulk write item variants.
type ItemKind int

const (
	// ItemKindVertex creates a vertex with an id and a type tag.
	ItemKindVertex ItemKind = iota
	// ItemKindVertexProperty sets a named property on an existing vertex.
	ItemKindVertexProperty
	// ItemKindEdge creates a typed edge between two vertices.
	ItemKindEdge
)

// Item is a single bulk write. Kind selects which of the remaining fields
// are meaningful; backends must handle all kinds exhaustively and reject
// anything else.
type Item struct {
	Kind ItemKind

	// ID is the vertex id for vertex and property items.
	ID uuid.UUID
	// Type is the vertex or edge type tag.
	Type string
	// Property and Value carry a property assignment.
	Property string
	Value    string
	// Src and Dst are the edge endpoints.
	Src uuid.UUID
	Dst uuid.UUID
}

// VertexItem builds a vertex-create item.
func VertexItem(id uuid.UUID, vertexType string) Item {
	return Item{Kind: ItemKindVertex, ID: id, Type: vertexType}
}

// VertexPropertyItem builds a property-set item.
func VertexPropertyItem(id uuid.UUID, property, value string) Item {
	return Item{Kind: ItemKindVertexProperty, ID: id, Property: property, Value: value}
}

// EdgeItem builds an edge-create item.
func EdgeItem(src uuid.UUID, edgeType string, dst uuid.UUID) Item {
	return Item{Kind: ItemKindEdge, Src: src, Type: edgeType, Dst: dst}
}
