package store

import (
	"context"

	"github.com/siherrmann/memgraph/helper"
	"github.com/siherrmann/memgraph/model"
)

// ScrollOptions configures a paginated full scan of the graph.
type ScrollOptions struct {
	// EntityTypes optionally restricts the scan. The list may mix
	// entity-type and chunk-kind tokens; the filter splits the facets.
	EntityTypes []string
	// EntityLimit caps the number of reconstructed entities. Relations
	// are not capped by it; the scan keeps collecting relation chunks
	// after the cap is reached.
	EntityLimit int
	// PageSize is the scroll batch size, defaulted when zero.
	PageSize int
}

const defaultScrollPageSize = 256

// ScrollAll reconstructs the stored graph by scanning every matching
// chunk. Pagination follows the index's opaque cursor until it is
// exhausted, accumulating across batches.
func (s *Store) ScrollAll(ctx context.Context, opts ScrollOptions) (*model.Graph, error) {
	if err := s.checkCollection(); err != nil {
		return nil, err
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultScrollPageSize
	}

	typed := len(opts.EntityTypes) > 0
	filter := typeFilter(opts.EntityTypes, typed)

	graph := &model.Graph{}
	// Name to type of every metadata chunk seen, including entities
	// beyond the cap; the relation post-filter needs the full map.
	entityTypes := make(map[string]string)

	cursor := ""
	for {
		points, next, err := s.index.Scroll(ctx, s.config.Collection, filter, pageSize, cursor)
		if err != nil {
			return nil, helper.NewError("scroll chunks", err)
		}

		for _, point := range points {
			chunk := payloadToChunk(point.ID, point.Payload)
			switch chunk.Kind {
			case model.ChunkKindMetadata:
				entityTypes[chunk.EntityName] = chunk.EntityType
				if opts.EntityLimit <= 0 || len(graph.Entities) < opts.EntityLimit {
					graph.Entities = append(graph.Entities, chunkToEntity(chunk))
				}
			case model.ChunkKindRelation:
				graph.Relations = append(graph.Relations, chunkToRelation(chunk))
			}
		}

		if next == "" {
			break
		}
		cursor = next
	}

	if typed {
		graph.Relations = filterRelationsByEntityType(graph.Relations, entityTypes, opts.EntityTypes)
	}

	return graph, nil
}

// MetadataChunks scans every metadata chunk. The keyword index is
// rebuilt from this scan; there is no push-based change feed to
// subscribe to.
func (s *Store) MetadataChunks(ctx context.Context) ([]*model.Chunk, error) {
	return s.scanKind(ctx, model.ChunkKindMetadata)
}

// AllImplementations scans every implementation chunk, for view
// assembly over the whole graph.
func (s *Store) AllImplementations(ctx context.Context) ([]*model.Chunk, error) {
	return s.scanKind(ctx, model.ChunkKindImplementation)
}

func (s *Store) scanKind(ctx context.Context, kind model.ChunkKind) ([]*model.Chunk, error) {
	if err := s.checkCollection(); err != nil {
		return nil, err
	}

	filter := kindFilter(kind, "")

	var chunks []*model.Chunk
	cursor := ""
	for {
		points, next, err := s.index.Scroll(ctx, s.config.Collection, filter, defaultScrollPageSize, cursor)
		if err != nil {
			return nil, helper.NewError("scroll chunks", err)
		}
		for _, point := range points {
			chunks = append(chunks, payloadToChunk(point.ID, point.Payload))
		}
		if next == "" {
			break
		}
		cursor = next
	}

	return chunks, nil
}

// filterRelationsByEntityType keeps relations with at least one
// endpoint whose entity type survived the scan filter. This is a
// type-membership check, distinct from "does the endpoint name exist
// in the filtered entity set".
func filterRelationsByEntityType(relations []*model.Relation, entityTypes map[string]string, requested []string) []*model.Relation {
	wanted, _ := splitTypeTokens(requested)
	if len(wanted) == 0 {
		return relations
	}

	wantedSet := make(map[string]bool, len(wanted))
	for _, t := range wanted {
		wantedSet[t] = true
	}

	var kept []*model.Relation
	for _, relation := range relations {
		if wantedSet[entityTypes[relation.From]] || wantedSet[entityTypes[relation.To]] {
			kept = append(kept, relation)
		}
	}

	return kept
}
