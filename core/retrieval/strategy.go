package retrieval

import (
	"context"

	"github.com/siherrmann/memgraph/model"
)

// Strategy defines a retrieval strategy
type Strategy interface {
	Retrieve(ctx context.Context, query string, config *model.SearchConfig) ([]*model.RetrievalResult, error)
}

// SemanticStrategy performs pure vector similarity search
type SemanticStrategy struct {
	engine *Engine
}

// NewSemanticStrategy creates a new semantic-only strategy
func NewSemanticStrategy(engine *Engine) *SemanticStrategy {
	return &SemanticStrategy{engine: engine}
}

// Retrieve performs semantic-only retrieval
func (s *SemanticStrategy) Retrieve(ctx context.Context, query string, config *model.SearchConfig) ([]*model.RetrievalResult, error) {
	return s.engine.SemanticRetrieve(ctx, query, config)
}

// KeywordStrategy performs BM25 ranked retrieval
type KeywordStrategy struct {
	engine *Engine
}

// NewKeywordStrategy creates a new keyword-only strategy
func NewKeywordStrategy(engine *Engine) *KeywordStrategy {
	return &KeywordStrategy{engine: engine}
}

// Retrieve performs keyword-only retrieval
func (s *KeywordStrategy) Retrieve(ctx context.Context, query string, config *model.SearchConfig) ([]*model.RetrievalResult, error) {
	return s.engine.KeywordRetrieve(ctx, query, config)
}

// HybridStrategy fuses concurrent semantic and keyword retrieval with
// Reciprocal Rank Fusion
type HybridStrategy struct {
	engine *Engine
}

// NewHybridStrategy creates a new hybrid strategy
func NewHybridStrategy(engine *Engine) *HybridStrategy {
	return &HybridStrategy{engine: engine}
}

// Retrieve performs hybrid retrieval
func (s *HybridStrategy) Retrieve(ctx context.Context, query string, config *model.SearchConfig) ([]*model.RetrievalResult, error) {
	return s.engine.HybridRetrieve(ctx, query, config)
}

// StrategyFor returns the strategy for a search mode, defaulting to
// hybrid for unknown modes.
func StrategyFor(engine *Engine, mode model.SearchMode) Strategy {
	switch mode {
	case model.SearchModeSemantic:
		return NewSemanticStrategy(engine)
	case model.SearchModeKeyword:
		return NewKeywordStrategy(engine)
	default:
		return NewHybridStrategy(engine)
	}
}
