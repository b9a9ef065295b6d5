// Package memgraph maintains a knowledge graph of named entities and
// typed relations as content-addressed chunks in a vector index, and
// answers hybrid retrieval and token-bounded graph view queries
// against it.
package memgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/memgraph/core/assemble"
	"github.com/siherrmann/memgraph/core/pipeline"
	"github.com/siherrmann/memgraph/core/retrieval"
	"github.com/siherrmann/memgraph/core/scope"
	"github.com/siherrmann/memgraph/helper"
	"github.com/siherrmann/memgraph/index"
	"github.com/siherrmann/memgraph/model"
	loadSql "github.com/siherrmann/memgraph/sql"
	"github.com/siherrmann/memgraph/store"
)

// defaultImplementationLimit bounds the base result set of a fetch
// implementation call before scope expansion.
const defaultImplementationLimit = 10

// Config configures a Memgraph instance.
type Config struct {
	// Collection names the index collection holding the graph. Required.
	Collection string
	// Dimension is the embedding size of the collection. Required.
	Dimension int
	// Embedder generates embeddings for stored and queried text. When
	// nil, a local model is loaded according to the EMBEDDING_MODEL
	// environment variable.
	Embedder pipeline.EmbedFunc
}

// Memgraph provides a unified interface to the knowledge graph: graph
// mutations, hybrid retrieval, scoped implementation fetches and
// token-bounded graph views.
type Memgraph struct {
	DB        *helper.Database
	Index     *index.PostgresIndex
	Store     *store.Store
	Engine    *retrieval.Engine
	Expander  *scope.Expander
	Assembler *assemble.Assembler
	// Logging
	log *slog.Logger
}

// NewMemgraph creates a new Memgraph instance with all handlers
// initialized on the given database.
func NewMemgraph(dbConfig *helper.DatabaseConfiguration, config Config) (*Memgraph, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("memgraph", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload SQL functions if they already exist
	idx, err := index.NewPostgresIndex(db, false)
	if err != nil {
		return nil, helper.NewError("create index handler", err)
	}

	embedder := config.Embedder
	if embedder == nil {
		embedder, err = pipeline.EmbedderFromEnv()
		if err != nil {
			return nil, helper.NewError("create embedder", err)
		}
	}

	graphStore, err := store.NewStore(context.Background(), idx, embedder, store.Config{
		Collection: config.Collection,
		Dimension:  config.Dimension,
	}, logger)
	if err != nil {
		return nil, helper.NewError("create graph store", err)
	}

	return &Memgraph{
		DB:        db,
		Index:     idx,
		Store:     graphStore,
		Engine:    retrieval.NewEngine(graphStore, logger),
		Expander:  scope.NewExpander(graphStore, logger),
		Assembler: assemble.NewAssembler(logger),
		log:       logger,
	}, nil
}

// Close closes the database connection
func (g *Memgraph) Close() error {
	if g.DB != nil && g.DB.Instance != nil {
		return g.DB.Instance.Close()
	}
	return nil
}

// CreateEntities upserts the given entities. Identity is the name;
// creating an existing entity overwrites its stored record. Each
// entity is an independent round trip, a failure mid-batch leaves the
// earlier entities persisted.
func (g *Memgraph) CreateEntities(ctx context.Context, entities []*model.Entity) error {
	for i, entity := range entities {
		if err := g.Store.PersistEntity(ctx, entity); err != nil {
			return helper.NewError(fmt.Sprintf("create entity %d", i), err)
		}
	}

	g.log.Info("Created entities", slog.Int("count", len(entities)))
	return nil
}

// DeleteEntities deletes the named entities with all their chunks and,
// best effort, every relation referencing them.
func (g *Memgraph) DeleteEntities(ctx context.Context, names []string) error {
	for _, name := range names {
		if err := g.Store.DeleteEntity(ctx, name); err != nil {
			return helper.NewError(fmt.Sprintf("delete entity %s", name), err)
		}
		if err := g.Store.DeleteEntityRelations(ctx, name); err != nil {
			return helper.NewError(fmt.Sprintf("delete relations of entity %s", name), err)
		}
	}

	g.log.Info("Deleted entities", slog.Int("count", len(names)))
	return nil
}

// CreateRelations upserts the given relations. Both endpoints must
// exist; a missing endpoint is a hard error, not silently dropped.
func (g *Memgraph) CreateRelations(ctx context.Context, relations []*model.Relation) error {
	for i, relation := range relations {
		for _, endpoint := range []string{relation.From, relation.To} {
			entity, err := g.Store.GetEntity(ctx, endpoint)
			if err != nil {
				return helper.NewError(fmt.Sprintf("create relation %d", i), err)
			}
			if entity == nil {
				return helper.NewError(fmt.Sprintf("create relation %d", i), fmt.Errorf("entity %q does not exist", endpoint))
			}
		}
		if err := g.Store.PersistRelation(ctx, relation); err != nil {
			return helper.NewError(fmt.Sprintf("create relation %d", i), err)
		}
	}

	g.log.Info("Created relations", slog.Int("count", len(relations)))
	return nil
}

// DeleteRelations deletes the given relations by their identity
// triple. Deleting an absent relation is not an error.
func (g *Memgraph) DeleteRelations(ctx context.Context, relations []*model.Relation) error {
	for i, relation := range relations {
		if err := g.Store.DeleteRelation(ctx, relation); err != nil {
			return helper.NewError(fmt.Sprintf("delete relation %d", i), err)
		}
	}

	g.log.Info("Deleted relations", slog.Int("count", len(relations)))
	return nil
}

// AddObservations appends observations to an existing entity. The
// entity must exist.
func (g *Memgraph) AddObservations(ctx context.Context, name string, observations []string) error {
	entity, err := g.Store.GetEntity(ctx, name)
	if err != nil {
		return helper.NewError("add observations", err)
	}
	if entity == nil {
		return helper.NewError("add observations", fmt.Errorf("entity %q does not exist", name))
	}

	entity.Observations = append(entity.Observations, observations...)
	if err := g.Store.PersistEntity(ctx, entity); err != nil {
		return helper.NewError("add observations", err)
	}

	return nil
}

// DeleteObservations removes the given observations from an existing
// entity. Observations not present are ignored.
func (g *Memgraph) DeleteObservations(ctx context.Context, name string, observations []string) error {
	entity, err := g.Store.GetEntity(ctx, name)
	if err != nil {
		return helper.NewError("delete observations", err)
	}
	if entity == nil {
		return helper.NewError("delete observations", fmt.Errorf("entity %q does not exist", name))
	}

	remove := make(map[string]bool, len(observations))
	for _, observation := range observations {
		remove[observation] = true
	}
	kept := entity.Observations[:0]
	for _, observation := range entity.Observations {
		if !remove[observation] {
			kept = append(kept, observation)
		}
	}
	entity.Observations = kept

	if err := g.Store.PersistEntity(ctx, entity); err != nil {
		return helper.NewError("delete observations", err)
	}

	return nil
}

// Search retrieves entities matching the query with the configured
// strategy. Store read failures degrade to an empty result instead of
// an error; only embedding-provider failures are raised.
func (g *Memgraph) Search(ctx context.Context, query string, config *model.SearchConfig) ([]*model.RetrievalResult, error) {
	if config == nil {
		defaults := model.DefaultSearchConfig()
		config = &defaults
	}

	results, err := g.Engine.Retrieve(ctx, query, config)
	if err != nil {
		if errors.Is(err, store.ErrEmbedding) {
			return nil, err
		}
		g.log.Warn("Search degraded to empty results", slog.String("query", query), slog.String("error", err.Error()))
		return []*model.RetrievalResult{}, nil
	}

	return results, nil
}

// FetchImplementation fetches the implementation chunks of an entity,
// expanded to the configured scope. Store read failures degrade to an
// empty result.
func (g *Memgraph) FetchImplementation(ctx context.Context, name string, config *model.ScopeConfig) ([]*model.RetrievalResult, error) {
	if config == nil {
		defaults := model.DefaultScopeConfig(model.ScopeMinimal)
		config = &defaults
	}

	chunks, err := g.Store.ImplementationChunks(ctx, name, defaultImplementationLimit)
	if err != nil {
		g.log.Warn("Implementation fetch degraded to empty results", slog.String("entity", name), slog.String("error", err.Error()))
		return []*model.RetrievalResult{}, nil
	}

	base := make([]*model.RetrievalResult, len(chunks))
	for i, chunk := range chunks {
		base[i] = &model.RetrievalResult{Chunk: chunk, Score: 1, RetrievalMethod: "implementation"}
	}

	expanded, err := g.Expander.Expand(ctx, base, config)
	if err != nil {
		g.log.Warn("Scope expansion degraded to base results", slog.String("entity", name), slog.String("scope", string(config.Scope)), slog.String("error", err.Error()))
		return base, nil
	}

	return expanded, nil
}

// FetchGraph assembles a token-bounded view of the stored graph. Store
// read failures degrade to a view over the empty graph.
func (g *Memgraph) FetchGraph(ctx context.Context, config *model.ViewConfig) (*model.GraphView, error) {
	if config == nil {
		defaults := model.DefaultViewConfig()
		config = &defaults
	}

	input := &assemble.Input{}
	graph, err := g.Store.ScrollAll(ctx, store.ScrollOptions{
		EntityTypes: config.EntityTypes,
		EntityLimit: config.EntityLimit,
	})
	if err != nil {
		g.log.Warn("Graph fetch degraded to empty view", slog.String("error", err.Error()))
	} else {
		input.Entities = graph.Entities
		input.Relations = graph.Relations
	}

	if config.Mode == model.ViewModeSmart || config.Mode == "" {
		implementations, err := g.Store.AllImplementations(ctx)
		if err != nil {
			g.log.Warn("Implementation scan degraded to empty", slog.String("error", err.Error()))
		} else if len(config.EntityTypes) > 0 || config.EntityLimit > 0 {
			kept := make(map[string]bool, len(input.Entities))
			for _, entity := range input.Entities {
				kept[entity.Name] = true
			}
			for _, chunk := range implementations {
				if kept[chunk.EntityName] {
					input.Implementations = append(input.Implementations, chunk)
				}
			}
		} else {
			input.Implementations = implementations
		}
	}

	return g.Assembler.Assemble(input, config), nil
}
