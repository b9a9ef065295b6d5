package index

import (
	"context"

	"github.com/siherrmann/memgraph/model"
)

// Point is a single record in a collection: a deterministic numeric id,
// an embedding vector and a free-form JSON payload.
type Point struct {
	ID      uint64         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload model.Metadata `json:"payload"`
}

// ScoredPoint is a point annotated with a similarity score.
type ScoredPoint struct {
	Point
	Score float64 `json:"score"`
}

// CollectionInfo describes a collection's configuration and size.
type CollectionInfo struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Points    int64  `json:"points"`
}

// Index is the vector index service the graph store is built on.
// The index's own search algorithm is an external capability; this
// interface only names the operations the store depends on.
type Index interface {
	// EnsureCollection creates the collection if it does not exist.
	// The vector dimension is fixed at creation time.
	EnsureCollection(ctx context.Context, collection string, dimension int) error
	// CollectionInfo returns the collection's configured dimension and point count.
	CollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error)
	// DeleteCollection drops the collection and all its points.
	DeleteCollection(ctx context.Context, collection string) error
	// Upsert writes points by id, overwriting existing points in place.
	Upsert(ctx context.Context, collection string, points []*Point) error
	// Search returns up to limit points matching filter, ranked by
	// cosine similarity to vector.
	Search(ctx context.Context, collection string, vector []float32, filter *Filter, limit int) ([]*ScoredPoint, error)
	// Scroll pages through points matching filter. The returned cursor
	// is opaque; an empty cursor means the scan is exhausted.
	Scroll(ctx context.Context, collection string, filter *Filter, limit int, cursor string) ([]*Point, string, error)
	// DeletePoints removes points by id.
	DeletePoints(ctx context.Context, collection string, ids []uint64) error
	// DeleteByFilter removes every point matching filter.
	DeleteByFilter(ctx context.Context, collection string, filter *Filter) error
}
