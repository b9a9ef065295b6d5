package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/siherrmann/memgraph/core/pipeline"
	"github.com/siherrmann/memgraph/helper"
	"github.com/siherrmann/memgraph/index"
	"github.com/siherrmann/memgraph/model"
)

// Config holds the store's collection configuration.
type Config struct {
	// Collection is the index collection holding the graph. Required;
	// a missing collection name is a call-time error on every
	// operation, never silently defaulted.
	Collection string
	// Dimension is the collection's configured embedding size.
	Dimension int
}

// Store translates graph entities and relations to and from
// content-addressed chunks in the vector index. It owns filter
// construction, payload normalization and paginated full scans.
//
// Store methods return errors as they happen; the availability policy
// of degrading read failures to empty results belongs to the caller.
type Store struct {
	index    index.Index
	embedder pipeline.EmbedFunc
	config   Config
	logger   *slog.Logger
}

// NewStore creates a new chunk graph store on the given index and
// ensures the backing collection exists.
func NewStore(ctx context.Context, idx index.Index, embedder pipeline.EmbedFunc, config Config, logger *slog.Logger) (*Store, error) {
	if idx == nil {
		return nil, helper.NewError("store validation", fmt.Errorf("index is nil"))
	}
	if embedder == nil {
		return nil, helper.NewError("store validation", fmt.Errorf("embedder is nil"))
	}
	if config.Collection == "" {
		return nil, helper.NewError("store validation", fmt.Errorf("collection name is required"))
	}
	if config.Dimension <= 0 {
		return nil, helper.NewError("store validation", fmt.Errorf("embedding dimension is required"))
	}
	if logger == nil {
		logger = slog.Default()
	}

	err := idx.EnsureCollection(ctx, config.Collection, config.Dimension)
	if err != nil {
		return nil, helper.NewError("ensure collection", err)
	}

	store := &Store{
		index:    idx,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}

	logger.Info("Initialized chunk graph store", slog.String("collection", config.Collection), slog.Int("dimension", config.Dimension))

	return store, nil
}

// checkCollection guards every operation; running without a collection
// name is a configuration error, not something to repair at runtime.
func (s *Store) checkCollection() error {
	if s.config.Collection == "" {
		return helper.NewError("collection validation", fmt.Errorf("collection name is required"))
	}
	return nil
}

// ErrEmbedding marks embedding-provider failures. They stay hard
// errors on every path, while plain read failures may be degraded to
// empty results by the caller.
var ErrEmbedding = errors.New("embedding provider failure")

// embed generates the embedding for text and verifies its size against
// the collection's configured dimension. A mismatch is logged and
// returned, never auto-repaired.
func (s *Store) embed(text string) ([]float32, error) {
	vector, err := s.embedder(text)
	if err != nil {
		return nil, helper.NewError("generate embedding", fmt.Errorf("%w: %v", ErrEmbedding, err))
	}
	if len(vector) != s.config.Dimension {
		s.logger.Error("Embedding dimension mismatch",
			slog.Int("got", len(vector)),
			slog.Int("want", s.config.Dimension),
			slog.String("collection", s.config.Collection),
		)
		return nil, helper.NewError("embedding validation", fmt.Errorf("%w: embedding dimension %d does not match collection dimension %d", ErrEmbedding, len(vector), s.config.Dimension))
	}
	return vector, nil
}

// zeroVector returns the neutral similarity vector used for filter-only
// queries where ranking is irrelevant.
func (s *Store) zeroVector() []float32 {
	return make([]float32, s.config.Dimension)
}

// PersistEntity upserts the entity's metadata chunk. Same name, same
// deterministic id, so re-persisting overwrites instead of merging.
func (s *Store) PersistEntity(ctx context.Context, entity *model.Entity) error {
	if err := s.checkCollection(); err != nil {
		return err
	}
	if entity.Name == "" {
		return helper.NewError("entity validation", fmt.Errorf("entity name is required"))
	}

	chunk := &model.Chunk{
		ID:           EntityChunkID(s.config.Collection, entity.Name),
		Kind:         model.ChunkKindMetadata,
		EntityName:   entity.Name,
		EntityType:   entity.EntityType,
		Observations: entity.Observations,
		Content:      entityContent(entity),
		CreatedAt:    time.Now().UTC(),
	}

	vector, err := s.embed(chunk.EmbeddingText())
	if err != nil {
		return err
	}

	err = s.index.Upsert(ctx, s.config.Collection, []*index.Point{{
		ID:      chunk.ID,
		Vector:  vector,
		Payload: chunkToPayload(chunk),
	}})
	if err != nil {
		return helper.NewError("persist entity", err)
	}

	return nil
}

// PersistRelation upserts the relation's chunk. Identity is the
// (from, relationType, to) triple; no second edge is ever created.
func (s *Store) PersistRelation(ctx context.Context, relation *model.Relation) error {
	if err := s.checkCollection(); err != nil {
		return err
	}
	if relation.From == "" || relation.To == "" || relation.RelationType == "" {
		return helper.NewError("relation validation", fmt.Errorf("relation requires from, to and relation type"))
	}

	chunk := &model.Chunk{
		ID:             RelationChunkID(s.config.Collection, relation),
		Kind:           model.ChunkKindRelation,
		EntityName:     relation.From,
		RelationTarget: relation.To,
		RelationType:   relation.RelationType,
		Content:        fmt.Sprintf("%s %s %s", relation.From, relation.RelationType, relation.To),
		CreatedAt:      time.Now().UTC(),
	}

	vector, err := s.embed(chunk.EmbeddingText())
	if err != nil {
		return err
	}

	err = s.index.Upsert(ctx, s.config.Collection, []*index.Point{{
		ID:      chunk.ID,
		Vector:  vector,
		Payload: chunkToPayload(chunk),
	}})
	if err != nil {
		return helper.NewError("persist relation", err)
	}

	return nil
}

// PersistImplementation upserts an implementation chunk. Ingestion
// itself lives outside this store; this is the write hook it uses.
func (s *Store) PersistImplementation(ctx context.Context, chunk *model.Chunk) error {
	if err := s.checkCollection(); err != nil {
		return err
	}
	if chunk.EntityName == "" {
		return helper.NewError("implementation validation", fmt.Errorf("entity name is required"))
	}

	chunk.Kind = model.ChunkKindImplementation
	chunk.ID = ImplementationChunkID(s.config.Collection, chunk)
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC()
	}

	vector, err := s.embed(chunk.EmbeddingText())
	if err != nil {
		return err
	}

	err = s.index.Upsert(ctx, s.config.Collection, []*index.Point{{
		ID:      chunk.ID,
		Vector:  vector,
		Payload: chunkToPayload(chunk),
	}})
	if err != nil {
		return helper.NewError("persist implementation", err)
	}

	return nil
}

// GetEntity fetches one entity by name, or nil when it does not exist.
func (s *Store) GetEntity(ctx context.Context, name string) (*model.Entity, error) {
	if err := s.checkCollection(); err != nil {
		return nil, err
	}

	filter := kindFilter(model.ChunkKindMetadata, name)
	points, err := s.index.Search(ctx, s.config.Collection, s.zeroVector(), filter, 1)
	if err != nil {
		return nil, helper.NewError("get entity", err)
	}
	if len(points) == 0 {
		return nil, nil
	}

	chunk := payloadToChunk(points[0].ID, points[0].Payload)
	return chunkToEntity(chunk), nil
}

// DeleteEntity deletes every chunk recorded for the entity, metadata
// and implementation chunks alike, in one filtered delete. Relations
// referencing the entity are not cascaded; that is the caller's
// best-effort follow-up.
func (s *Store) DeleteEntity(ctx context.Context, name string) error {
	if err := s.checkCollection(); err != nil {
		return err
	}
	if name == "" {
		return helper.NewError("entity validation", fmt.Errorf("entity name is required"))
	}

	err := s.index.DeleteByFilter(ctx, s.config.Collection, entityNameFilter(name))
	if err != nil {
		return helper.NewError("delete entity", err)
	}

	return nil
}

// DeleteRelation deletes exactly one relation chunk by its
// deterministic id.
func (s *Store) DeleteRelation(ctx context.Context, relation *model.Relation) error {
	if err := s.checkCollection(); err != nil {
		return err
	}

	err := s.index.DeletePoints(ctx, s.config.Collection, []uint64{RelationChunkID(s.config.Collection, relation)})
	if err != nil {
		return helper.NewError("delete relation", err)
	}

	return nil
}

// RelationsFor fetches every relation chunk referencing the entity on
// either endpoint.
func (s *Store) RelationsFor(ctx context.Context, name string, limit int) ([]*model.Relation, error) {
	chunks, err := s.filterOnly(ctx, relationEndpointFilter(name), limit)
	if err != nil {
		return nil, err
	}

	relations := make([]*model.Relation, 0, len(chunks))
	for _, chunk := range chunks {
		if relation := chunkToRelation(chunk); relation != nil {
			relations = append(relations, relation)
		}
	}
	return relations, nil
}

// DeleteEntityRelations deletes every relation chunk referencing the
// entity on either endpoint. This is the best-effort cascade after
// DeleteEntity, an independent round trip rather than a transaction.
func (s *Store) DeleteEntityRelations(ctx context.Context, name string) error {
	if err := s.checkCollection(); err != nil {
		return err
	}
	if name == "" {
		return helper.NewError("entity validation", fmt.Errorf("entity name is required"))
	}

	err := s.index.DeleteByFilter(ctx, s.config.Collection, relationEndpointFilter(name))
	if err != nil {
		return helper.NewError("delete entity relations", err)
	}

	return nil
}

// SemanticSearch runs a vector similarity query over metadata chunks,
// optionally restricted by entity type.
func (s *Store) SemanticSearch(ctx context.Context, query string, types []string, limit int) ([]*model.RetrievalResult, error) {
	if err := s.checkCollection(); err != nil {
		return nil, err
	}

	vector, err := s.embed(query)
	if err != nil {
		return nil, err
	}

	points, err := s.index.Search(ctx, s.config.Collection, vector, typeFilter(types, false), limit)
	if err != nil {
		return nil, helper.NewError("semantic search", err)
	}

	results := make([]*model.RetrievalResult, 0, len(points))
	for _, point := range points {
		chunk := payloadToChunk(point.ID, point.Payload)
		if chunk.Kind == model.ChunkKindRelation {
			continue
		}
		results = append(results, &model.RetrievalResult{
			Chunk:           chunk,
			Score:           point.Score,
			SimilarityScore: point.Score,
			RetrievalMethod: string(model.SearchModeSemantic),
		})
	}

	return results, nil
}

// ImplementationChunks fetches the implementation chunks recorded for
// an entity. Ranking is irrelevant here, so the query is filter-only.
func (s *Store) ImplementationChunks(ctx context.Context, name string, limit int) ([]*model.Chunk, error) {
	return s.filterOnly(ctx, kindFilter(model.ChunkKindImplementation, name), limit)
}

// ImplementationsByFile fetches implementation chunks sharing a source file.
func (s *Store) ImplementationsByFile(ctx context.Context, filePath string, limit int) ([]*model.Chunk, error) {
	filter := kindFilter(model.ChunkKindImplementation, "")
	filter.Must = append(filter.Must, index.OneOf(bothLayoutsMatch("file_path", filePath)...))
	return s.filterOnly(ctx, filter, limit)
}

// ImplementationsByNames fetches implementation chunks for any of the
// given entity names.
func (s *Store) ImplementationsByNames(ctx context.Context, names []string, limit int) ([]*model.Chunk, error) {
	if len(names) == 0 {
		return nil, nil
	}
	filter := kindFilter(model.ChunkKindImplementation, "")
	filter.Must = append(filter.Must, index.OneOf(bothLayoutsAny("entity_name", names)...))
	return s.filterOnly(ctx, filter, limit)
}

func (s *Store) filterOnly(ctx context.Context, filter *index.Filter, limit int) ([]*model.Chunk, error) {
	if err := s.checkCollection(); err != nil {
		return nil, err
	}

	points, err := s.index.Search(ctx, s.config.Collection, s.zeroVector(), filter, limit)
	if err != nil {
		return nil, helper.NewError("filter query", err)
	}

	chunks := make([]*model.Chunk, 0, len(points))
	for _, point := range points {
		chunks = append(chunks, payloadToChunk(point.ID, point.Payload))
	}

	return chunks, nil
}

// entityContent builds the free-text content embedded for an entity.
func entityContent(entity *model.Entity) string {
	if len(entity.Observations) == 0 {
		return entity.EntityType
	}
	return fmt.Sprintf("%s: %s", entity.EntityType, strings.Join(entity.Observations, ". "))
}
