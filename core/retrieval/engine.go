package retrieval

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/siherrmann/memgraph/core/keyword"
	"github.com/siherrmann/memgraph/model"
	"github.com/siherrmann/memgraph/store"
)

// Engine provides semantic, keyword and hybrid retrieval over the
// chunk graph store.
type Engine struct {
	store    *store.Store
	keywords *keyword.Index
	logger   *slog.Logger
}

// NewEngine creates a new retrieval engine.
func NewEngine(graphStore *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    graphStore,
		keywords: keyword.NewIndex(),
		logger:   logger,
	}
}

// SemanticRetrieve performs pure vector similarity search.
func (e *Engine) SemanticRetrieve(ctx context.Context, query string, config *model.SearchConfig) ([]*model.RetrievalResult, error) {
	return e.store.SemanticSearch(ctx, query, config.EntityTypes, config.Limit)
}

// KeywordRetrieve performs BM25 ranked retrieval. The in-memory index
// is rebuilt from a full scan first; the backing store has no change
// feed to keep it current incrementally. The rebuild swaps the index
// snapshot atomically, so concurrent queries stay safe.
func (e *Engine) KeywordRetrieve(ctx context.Context, query string, config *model.SearchConfig) ([]*model.RetrievalResult, error) {
	if err := e.rebuildKeywordIndex(ctx); err != nil {
		return nil, err
	}

	hits := e.keywords.Search(query, config.Limit, config.EntityTypes)

	results := make([]*model.RetrievalResult, len(hits))
	for i, hit := range hits {
		results[i] = &model.RetrievalResult{
			Chunk:           hit.Document.Chunk,
			Score:           hit.Score,
			KeywordScore:    hit.Score,
			RetrievalMethod: string(model.SearchModeKeyword),
		}
	}
	return results, nil
}

// HybridRetrieve runs the semantic and keyword queries concurrently
// and fuses the two rankings. The branches share no state, so the only
// join point is the fusion after both complete.
func (e *Engine) HybridRetrieve(ctx context.Context, query string, config *model.SearchConfig) ([]*model.RetrievalResult, error) {
	var semantic, keywordResults []*model.RetrievalResult

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		results, err := e.SemanticRetrieve(groupCtx, query, config)
		if err != nil {
			return err
		}
		semantic = results
		return nil
	})
	group.Go(func() error {
		results, err := e.KeywordRetrieve(groupCtx, query, config)
		if err != nil {
			return err
		}
		keywordResults = results
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return FuseRanked(semantic, keywordResults, config), nil
}

// Retrieve dispatches to the strategy selected by config.Mode.
func (e *Engine) Retrieve(ctx context.Context, query string, config *model.SearchConfig) ([]*model.RetrievalResult, error) {
	return StrategyFor(e, config.Mode).Retrieve(ctx, query, config)
}

func (e *Engine) rebuildKeywordIndex(ctx context.Context) error {
	chunks, err := e.store.MetadataChunks(ctx)
	if err != nil {
		return err
	}

	docs := make([]*keyword.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = &keyword.Document{
			ID:         chunk.ID,
			EntityName: chunk.EntityName,
			EntityType: chunk.EntityType,
			Text:       chunk.EmbeddingText(),
			Chunk:      chunk,
		}
	}
	e.keywords.Index(docs)

	e.logger.Debug("Rebuilt keyword index", slog.Int("documents", len(docs)))

	return nil
}
