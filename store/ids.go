package store

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/siherrmann/memgraph/model"
)

// ChunkID computes the deterministic point id for a chunk: a fixed-width
// integer hashed from the canonical key "collection::logical-id::kind".
// Identical logical key means identical id, so upserts overwrite in
// place and never create duplicate chunks.
func ChunkID(collection string, logicalID string, kind model.ChunkKind) uint64 {
	key := fmt.Sprintf("%s::%s::%s", collection, logicalID, kind)
	sum := sha256.Sum256([]byte(key))
	return binary.BigEndian.Uint64(sum[:8])
}

// EntityChunkID returns the id of an entity's metadata chunk.
func EntityChunkID(collection string, name string) uint64 {
	return ChunkID(collection, name, model.ChunkKindMetadata)
}

// RelationChunkID returns the id of a relation chunk. The logical id is
// the (from, relationType, to) triple, so the same edge always maps to
// the same point.
func RelationChunkID(collection string, relation *model.Relation) uint64 {
	logicalID := fmt.Sprintf("%s|%s|%s", relation.From, relation.RelationType, relation.To)
	return ChunkID(collection, logicalID, model.ChunkKindRelation)
}

// ImplementationChunkID returns the id of an implementation chunk. Two
// snippets of the same entity are distinguished by source location.
func ImplementationChunkID(collection string, chunk *model.Chunk) uint64 {
	logicalID := fmt.Sprintf("%s|%s:%d", chunk.EntityName, chunk.FilePath, chunk.LineStart)
	return ChunkID(collection, logicalID, model.ChunkKindImplementation)
}
