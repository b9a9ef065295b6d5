package store

import (
	"github.com/siherrmann/memgraph/index"
	"github.com/siherrmann/memgraph/model"
)

// bothLayouts returns one condition per payload layout for a field, the
// current nested location first.
func bothLayoutsMatch(field, value string) []index.Condition {
	return []index.Condition{
		index.MatchField(payloadFieldMetadata+"."+field, value),
		index.MatchField(field, value),
	}
}

func bothLayoutsAny(field string, values []string) []index.Condition {
	return []index.Condition{
		index.AnyField(payloadFieldMetadata+"."+field, values),
		index.AnyField(field, values),
	}
}

// splitTypeTokens splits a caller-supplied mixed list of "types" into
// its two facets. Chunk-kind tokens (metadata, implementation) and
// entity-type tokens are disjoint vocabularies, but callers pass them
// in a single list that may mean either.
func splitTypeTokens(types []string) (entityTypes []string, chunkKinds []string) {
	for _, t := range types {
		if model.KnownChunkKind(t) {
			chunkKinds = append(chunkKinds, t)
		} else if t != "" {
			entityTypes = append(entityTypes, t)
		}
	}
	return entityTypes, chunkKinds
}

// typeFilter builds the server-side filter for a mixed type list. The
// base clause restricts to graph chunks; each non-empty facet becomes
// one OR-group matching both payload layouts, and the facets are ORed
// together so neither facet's matches are silently dropped. When
// withRelations is set, relation chunks pass the filter too and are
// post-filtered client-side.
func typeFilter(types []string, withRelations bool) *index.Filter {
	filter := &index.Filter{
		Must: []index.Condition{index.MatchField(payloadFieldType, payloadTypeChunk)},
	}

	entityTypes, chunkKinds := splitTypeTokens(types)
	if len(entityTypes) == 0 && len(chunkKinds) == 0 {
		return filter
	}

	if len(entityTypes) > 0 {
		filter.Should = append(filter.Should, bothLayoutsAny("entity_type", entityTypes)...)
	}
	if len(chunkKinds) > 0 {
		filter.Should = append(filter.Should, bothLayoutsAny("chunk_type", chunkKinds)...)
	}
	if withRelations {
		filter.Should = append(filter.Should, bothLayoutsMatch("chunk_type", string(model.ChunkKindRelation))...)
	}

	return filter
}

// entityNameFilter matches every chunk belonging to an entity,
// metadata and implementation chunks alike.
func entityNameFilter(name string) *index.Filter {
	return &index.Filter{
		Must:   []index.Condition{index.MatchField(payloadFieldType, payloadTypeChunk)},
		Should: bothLayoutsMatch("entity_name", name),
	}
}

// relationEndpointFilter matches relation chunks referencing the
// entity as source or target, in either payload layout.
func relationEndpointFilter(name string) *index.Filter {
	filter := &index.Filter{
		Must: []index.Condition{
			index.MatchField(payloadFieldType, payloadTypeChunk),
			index.OneOf(bothLayoutsMatch("chunk_type", string(model.ChunkKindRelation))...),
		},
	}
	filter.Should = append(filter.Should, bothLayoutsMatch("entity_name", name)...)
	filter.Should = append(filter.Should, bothLayoutsMatch("relation_target", name)...)
	return filter
}

// kindFilter matches chunks of one kind, optionally for one entity.
// Every clause matches both payload layouts, so point lookups find
// legacy flat records too.
func kindFilter(kind model.ChunkKind, entityName string) *index.Filter {
	filter := &index.Filter{
		Must:   []index.Condition{index.MatchField(payloadFieldType, payloadTypeChunk)},
		Should: bothLayoutsMatch("chunk_type", string(kind)),
	}
	if entityName != "" {
		filter.Must = append(filter.Must, index.OneOf(bothLayoutsMatch("entity_name", entityName)...))
	}
	return filter
}
