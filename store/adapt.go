package store

import (
	"time"

	"github.com/siherrmann/memgraph/model"
)

// Payload field names. The current layout nests the chunk fields under
// the "metadata" sub-object; the legacy layout keeps them flat at the
// top level. Readers prefer the current layout and fall back to legacy;
// writers only emit the current layout.
const (
	payloadFieldType     = "type"
	payloadFieldMetadata = "metadata"
	payloadTypeChunk     = "chunk"
)

// chunkToPayload renders a chunk into the current payload layout.
func chunkToPayload(chunk *model.Chunk) model.Metadata {
	fields := model.Metadata{
		"chunk_type":  string(chunk.Kind),
		"entity_name": chunk.EntityName,
	}
	if chunk.EntityType != "" {
		fields["entity_type"] = chunk.EntityType
	}
	if len(chunk.Observations) > 0 {
		fields["observations"] = chunk.Observations
	}
	if chunk.Content != "" {
		fields["content"] = chunk.Content
	}
	if chunk.RelationTarget != "" {
		fields["relation_target"] = chunk.RelationTarget
		fields["relation_type"] = chunk.RelationType
	}
	if chunk.FilePath != "" {
		fields["file_path"] = chunk.FilePath
		fields["line_start"] = chunk.LineStart
		fields["line_end"] = chunk.LineEnd
	}
	if chunk.Semantic != nil {
		semantic := model.Metadata{}
		if len(chunk.Semantic.Calls) > 0 {
			semantic["calls"] = chunk.Semantic.Calls
		}
		if len(chunk.Semantic.ImportsUsed) > 0 {
			semantic["imports_used"] = chunk.Semantic.ImportsUsed
		}
		fields["semantic_metadata"] = semantic
	}
	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	fields["created_at"] = createdAt.Format(time.RFC3339)

	return model.Metadata{
		payloadFieldType:     payloadTypeChunk,
		payloadFieldMetadata: fields,
	}
}

// payloadToChunk normalizes a stored payload into a chunk. This is the
// single place both payload layouts are understood; everything above
// the store sees only the canonical Chunk shape.
func payloadToChunk(id uint64, payload model.Metadata) *model.Chunk {
	fields := payload.Sub(payloadFieldMetadata)
	if fields == nil {
		// Legacy layout: chunk fields flat at the top level.
		fields = payload
	}

	chunk := &model.Chunk{
		ID:             id,
		Kind:           model.ChunkKind(fields.String("chunk_type")),
		EntityName:     fields.String("entity_name"),
		EntityType:     fields.String("entity_type"),
		Observations:   fields.Strings("observations"),
		Content:        fields.String("content"),
		RelationTarget: fields.String("relation_target"),
		RelationType:   fields.String("relation_type"),
		FilePath:       fields.String("file_path"),
		LineStart:      fields.Int("line_start"),
		LineEnd:        fields.Int("line_end"),
	}

	if semantic := fields.Sub("semantic_metadata"); semantic != nil {
		chunk.Semantic = &model.SemanticMetadata{
			Calls:       semantic.Strings("calls"),
			ImportsUsed: semantic.Strings("imports_used"),
		}
	}

	if createdAt := fields.String("created_at"); createdAt != "" {
		if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
			chunk.CreatedAt = parsed
		}
	}

	return chunk
}

// chunkToEntity reconstructs the graph entity a metadata chunk records.
func chunkToEntity(chunk *model.Chunk) *model.Entity {
	return &model.Entity{
		Name:         chunk.EntityName,
		EntityType:   chunk.EntityType,
		Observations: chunk.Observations,
		CreatedAt:    chunk.CreatedAt,
	}
}

// chunkToRelation reconstructs the graph relation a relation chunk records.
func chunkToRelation(chunk *model.Chunk) *model.Relation {
	return &model.Relation{
		From:         chunk.EntityName,
		To:           chunk.RelationTarget,
		RelationType: chunk.RelationType,
	}
}
