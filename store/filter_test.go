package store

import (
	"testing"

	"github.com/siherrmann/memgraph/index"
	"github.com/siherrmann/memgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTypeTokens(t *testing.T) {
	t.Run("Separates chunk kinds from entity types", func(t *testing.T) {
		entityTypes, chunkKinds := splitTypeTokens([]string{"service", "metadata", "implementation", "function"})
		assert.Equal(t, []string{"service", "function"}, entityTypes, "unknown tokens should be treated as entity types")
		assert.Equal(t, []string{"metadata", "implementation"}, chunkKinds, "known kind tokens should be treated as chunk kinds")
	})

	t.Run("Drops empty tokens", func(t *testing.T) {
		entityTypes, chunkKinds := splitTypeTokens([]string{"", "service"})
		assert.Equal(t, []string{"service"}, entityTypes, "empty tokens should be dropped")
		assert.Empty(t, chunkKinds, "empty tokens should not become chunk kinds")
	})
}

func TestTypeFilter(t *testing.T) {
	t.Run("No types gives the base chunk restriction", func(t *testing.T) {
		filter := typeFilter(nil, false)
		require.Len(t, filter.Must, 1, "only the chunk restriction should be required")
		assert.Equal(t, index.MatchField("type", "chunk"), filter.Must[0], "payloads should be restricted to graph chunks")
		assert.Empty(t, filter.Should, "no type facets should be present")
	})

	t.Run("Entity types become an any-of group over both layouts", func(t *testing.T) {
		filter := typeFilter([]string{"service"}, false)
		require.Len(t, filter.Should, 2, "one condition per payload layout")
		assert.Equal(t, index.AnyField("metadata.entity_type", []string{"service"}), filter.Should[0], "current layout should be matched first")
		assert.Equal(t, index.AnyField("entity_type", []string{"service"}), filter.Should[1], "legacy layout should be the fallback")
	})

	t.Run("Mixed facets are combined in one group", func(t *testing.T) {
		filter := typeFilter([]string{"service", "implementation"}, false)
		require.Len(t, filter.Should, 4, "both facets should contribute both layouts")
		assert.Equal(t, index.AnyField("metadata.chunk_type", []string{"implementation"}), filter.Should[2], "chunk kinds should be part of the same group")
	})

	t.Run("Relations pass with withRelations", func(t *testing.T) {
		filter := typeFilter([]string{"service"}, true)
		assert.Contains(t, filter.Should, index.MatchField("metadata.chunk_type", "relation"), "relation chunks should pass the filter")
	})
}

func TestEntityNameFilter(t *testing.T) {
	filter := entityNameFilter("auth_service")
	require.Len(t, filter.Must, 1)
	assert.Equal(t, index.MatchField("type", "chunk"), filter.Must[0], "payloads should be restricted to graph chunks")
	assert.Equal(t, []index.Condition{
		index.MatchField("metadata.entity_name", "auth_service"),
		index.MatchField("entity_name", "auth_service"),
	}, filter.Should, "name should be matched in both payload layouts")
}

func TestRelationEndpointFilter(t *testing.T) {
	filter := relationEndpointFilter("auth_service")

	t.Run("Requires relation chunks in either layout", func(t *testing.T) {
		assert.Contains(t, filter.Must, index.OneOf(
			index.MatchField("metadata.chunk_type", "relation"),
			index.MatchField("chunk_type", "relation"),
		), "only relation chunks should pass, whichever layout they use")
	})

	t.Run("Matches source or target", func(t *testing.T) {
		assert.Contains(t, filter.Should, index.MatchField("metadata.entity_name", "auth_service"), "the entity as source should pass")
		assert.Contains(t, filter.Should, index.MatchField("metadata.relation_target", "auth_service"), "the entity as target should pass")
	})
}

func TestKindFilter(t *testing.T) {
	t.Run("Without entity name", func(t *testing.T) {
		filter := kindFilter(model.ChunkKindMetadata, "")
		require.Len(t, filter.Must, 1, "only the chunk restriction should be required")
		assert.Equal(t, []index.Condition{
			index.MatchField("metadata.chunk_type", "metadata"),
			index.MatchField("chunk_type", "metadata"),
		}, filter.Should, "kind should be matched in both payload layouts")
	})

	t.Run("With entity name", func(t *testing.T) {
		filter := kindFilter(model.ChunkKindImplementation, "process_payment")
		assert.Contains(t, filter.Must, index.OneOf(
			index.MatchField("metadata.entity_name", "process_payment"),
			index.MatchField("entity_name", "process_payment"),
		), "entity name should be required alongside the kind, in either layout")
	})
}
