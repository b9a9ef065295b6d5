package store

import (
	"testing"
	"time"

	"github.com/siherrmann/memgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkToPayload(t *testing.T) {
	t.Run("Nests fields under metadata", func(t *testing.T) {
		chunk := &model.Chunk{
			Kind:         model.ChunkKindMetadata,
			EntityName:   "auth_service",
			EntityType:   "service",
			Observations: []string{"handles login"},
			Content:      "service: handles login",
		}
		payload := chunkToPayload(chunk)

		assert.Equal(t, "chunk", payload.String("type"), "payload should be marked as a chunk")
		fields := payload.Sub("metadata")
		require.NotNil(t, fields, "chunk fields should live under the metadata sub-object")
		assert.Equal(t, "metadata", fields.String("chunk_type"), "chunk kind should be rendered")
		assert.Equal(t, "auth_service", fields.String("entity_name"), "entity name should be rendered")
		assert.Equal(t, []string{"handles login"}, fields.Strings("observations"), "observations should be rendered")
		assert.NotEmpty(t, fields.String("created_at"), "a missing creation time should be filled in")
	})

	t.Run("Omits empty optional fields", func(t *testing.T) {
		payload := chunkToPayload(&model.Chunk{Kind: model.ChunkKindMetadata, EntityName: "auth_service"})
		fields := payload.Sub("metadata")
		require.NotNil(t, fields)
		_, hasTarget := fields["relation_target"]
		_, hasFile := fields["file_path"]
		assert.False(t, hasTarget, "relation fields should be omitted for a metadata chunk")
		assert.False(t, hasFile, "location fields should be omitted without a file path")
	})

	t.Run("Renders semantic metadata", func(t *testing.T) {
		chunk := &model.Chunk{
			Kind:       model.ChunkKindImplementation,
			EntityName: "process_payment",
			FilePath:   "billing/payments.py",
			LineStart:  10,
			LineEnd:    42,
			Semantic: &model.SemanticMetadata{
				Calls:       []string{"validate_order"},
				ImportsUsed: []string{"stripe_client"},
			},
		}
		fields := chunkToPayload(chunk).Sub("metadata")
		require.NotNil(t, fields)
		semantic := fields.Sub("semantic_metadata")
		require.NotNil(t, semantic, "semantic metadata should be rendered as a sub-object")
		assert.Equal(t, []string{"validate_order"}, semantic.Strings("calls"), "calls should be rendered")
		assert.Equal(t, []string{"stripe_client"}, semantic.Strings("imports_used"), "imports should be rendered")
	})
}

func TestPayloadToChunk(t *testing.T) {
	t.Run("Round trips the current layout", func(t *testing.T) {
		createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		original := &model.Chunk{
			Kind:           model.ChunkKindRelation,
			EntityName:     "auth_service",
			RelationTarget: "user_store",
			RelationType:   "depends_on",
			Content:        "auth_service depends_on user_store",
			CreatedAt:      createdAt,
		}

		chunk := payloadToChunk(7, chunkToPayload(original))
		assert.Equal(t, uint64(7), chunk.ID, "point id should be carried onto the chunk")
		assert.Equal(t, model.ChunkKindRelation, chunk.Kind, "chunk kind should survive the round trip")
		assert.Equal(t, "auth_service", chunk.EntityName, "entity name should survive the round trip")
		assert.Equal(t, "user_store", chunk.RelationTarget, "relation target should survive the round trip")
		assert.Equal(t, "depends_on", chunk.RelationType, "relation type should survive the round trip")
		assert.Equal(t, createdAt, chunk.CreatedAt, "creation time should survive the round trip")
	})

	t.Run("Reads the legacy flat layout", func(t *testing.T) {
		payload := model.Metadata{
			"chunk_type":   "metadata",
			"entity_name":  "auth_service",
			"entity_type":  "service",
			"observations": []string{"handles login"},
		}

		chunk := payloadToChunk(3, payload)
		assert.Equal(t, model.ChunkKindMetadata, chunk.Kind, "legacy payload should yield the chunk kind")
		assert.Equal(t, "auth_service", chunk.EntityName, "legacy payload should yield the entity name")
		assert.Equal(t, "service", chunk.EntityType, "legacy payload should yield the entity type")
		assert.Equal(t, []string{"handles login"}, chunk.Observations, "legacy payload should yield the observations")
	})

	t.Run("Ignores an unparseable creation time", func(t *testing.T) {
		payload := model.Metadata{
			"chunk_type":  "metadata",
			"entity_name": "auth_service",
			"created_at":  "yesterday",
		}
		chunk := payloadToChunk(1, payload)
		assert.True(t, chunk.CreatedAt.IsZero(), "a malformed creation time should be dropped, not fail the read")
	})

	t.Run("Reads semantic metadata", func(t *testing.T) {
		payload := model.Metadata{
			"chunk_type":  "implementation",
			"entity_name": "process_payment",
			"semantic_metadata": map[string]any{
				"calls":        []any{"validate_order", "_charge_card"},
				"imports_used": []any{"stripe_client"},
			},
		}
		chunk := payloadToChunk(1, payload)
		require.NotNil(t, chunk.Semantic, "semantic metadata should be read when present")
		assert.Equal(t, []string{"validate_order", "_charge_card"}, chunk.Semantic.Calls, "calls should be read")
		assert.Equal(t, []string{"stripe_client"}, chunk.Semantic.ImportsUsed, "imports should be read")
	})
}

func TestChunkToEntityAndRelation(t *testing.T) {
	t.Run("Chunk to entity", func(t *testing.T) {
		chunk := &model.Chunk{
			Kind:         model.ChunkKindMetadata,
			EntityName:   "auth_service",
			EntityType:   "service",
			Observations: []string{"handles login"},
		}
		entity := chunkToEntity(chunk)
		assert.Equal(t, "auth_service", entity.Name, "entity name should be taken from the chunk")
		assert.Equal(t, "service", entity.EntityType, "entity type should be taken from the chunk")
		assert.Equal(t, []string{"handles login"}, entity.Observations, "observations should be taken from the chunk")
	})

	t.Run("Chunk to relation", func(t *testing.T) {
		chunk := &model.Chunk{
			Kind:           model.ChunkKindRelation,
			EntityName:     "auth_service",
			RelationTarget: "user_store",
			RelationType:   "depends_on",
		}
		relation := chunkToRelation(chunk)
		assert.Equal(t, "auth_service", relation.From, "relation source should be the chunk's entity name")
		assert.Equal(t, "user_store", relation.To, "relation target should be taken from the chunk")
		assert.Equal(t, "depends_on", relation.RelationType, "relation type should be taken from the chunk")
	})
}
