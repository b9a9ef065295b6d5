package model

import "time"

// Entity represents a named node in the knowledge graph.
// Identity is the name; persisting an entity with an existing name
// overwrites the stored record (last write wins, no merge).
type Entity struct {
	Name         string    `json:"name"`
	EntityType   string    `json:"entity_type"`
	Observations []string  `json:"observations"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Relation represents a typed directed edge between two entities.
// Identity is the (From, RelationType, To) triple; persisting the same
// triple twice overwrites the stored edge instead of duplicating it.
type Relation struct {
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relation_type"`
}

// Graph is a reconstructed view of the stored graph.
type Graph struct {
	Entities  []*Entity   `json:"entities"`
	Relations []*Relation `json:"relations"`
}
