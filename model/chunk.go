package model

import "time"

// ChunkKind identifies the kind of record a chunk carries.
type ChunkKind string

const (
	ChunkKindMetadata       ChunkKind = "metadata"
	ChunkKindImplementation ChunkKind = "implementation"
	ChunkKindRelation       ChunkKind = "relation"
)

// KnownChunkKind reports whether s names one of the chunk kinds callers
// may filter by. Entity-type tokens and chunk-kind tokens are disjoint
// vocabularies; this is the membership test used to split them.
func KnownChunkKind(s string) bool {
	return s == string(ChunkKindMetadata) || s == string(ChunkKindImplementation)
}

// SemanticMetadata carries structured call/import information recorded by
// the ingestion path for implementation chunks.
type SemanticMetadata struct {
	Calls       []string `json:"calls,omitempty"`
	ImportsUsed []string `json:"imports_used,omitempty"`
}

// Chunk is the physical storage unit kept in the vector index. A chunk
// is either entity metadata, a relation edge, or an implementation
// snippet, distinguished by Kind.
type Chunk struct {
	// ID is deterministic: a fixed-width hash of the chunk's canonical
	// key, so re-persisting the same logical record overwrites in place.
	ID   uint64    `json:"id"`
	Kind ChunkKind `json:"chunk_type"`

	EntityName   string   `json:"entity_name"`
	EntityType   string   `json:"entity_type,omitempty"`
	Observations []string `json:"observations,omitempty"`
	Content      string   `json:"content,omitempty"`

	// Relation chunks only. EntityName doubles as the from endpoint.
	RelationTarget string `json:"relation_target,omitempty"`
	RelationType   string `json:"relation_type,omitempty"`

	// Implementation chunks only.
	FilePath  string            `json:"file_path,omitempty"`
	LineStart int               `json:"line_start,omitempty"`
	LineEnd   int               `json:"line_end,omitempty"`
	Semantic  *SemanticMetadata `json:"semantic_metadata,omitempty"`

	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// EmbeddingText returns the text embedded for this chunk. Entity name is
// always part of it so name-only queries match.
func (c *Chunk) EmbeddingText() string {
	if c.Content != "" {
		return c.EntityName + "\n" + c.Content
	}
	return c.EntityName
}
