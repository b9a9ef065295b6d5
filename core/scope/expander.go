// Package scope grows a base retrieval result along recorded call and
// import edges. Expansion is exact metadata matching against the chunk
// graph store, never a ranked search.
package scope

import (
	"context"
	"log/slog"
	"strings"

	"github.com/siherrmann/memgraph/model"
	"github.com/siherrmann/memgraph/store"
)

// RetrievalMethodExpansion marks results added by scope expansion.
const RetrievalMethodExpansion = "scope_expansion"

// Expander fetches implementation chunks related to a base result set
// through shared files, calls and imports.
type Expander struct {
	store  *store.Store
	logger *slog.Logger
}

// NewExpander creates a new scope expander on the given store.
func NewExpander(graphStore *store.Store, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{store: graphStore, logger: logger}
}

// Expand grows the base result set according to the configured scope.
// The base always survives; additional chunks are appended and the
// merged set is deduplicated by entity name, keeping the
// highest-scoring occurrence in first-seen order.
func (e *Expander) Expand(ctx context.Context, base []*model.RetrievalResult, config *model.ScopeConfig) ([]*model.RetrievalResult, error) {
	if config == nil || config.Scope == model.ScopeMinimal || len(base) == 0 {
		return base, nil
	}

	limit := config.Limit
	if limit <= 0 {
		limit = model.DefaultScopeConfig(config.Scope).Limit
	}

	chunks := make([]*model.Chunk, 0, len(base))
	for _, result := range base {
		chunks = append(chunks, result.Chunk)
	}
	meta := DeriveMetadata(chunks)

	var additional []*model.Chunk
	var err error
	switch config.Scope {
	case model.ScopeLogical:
		additional, err = e.logicalChunks(ctx, meta, limit)
	case model.ScopeDependencies:
		additional, err = e.dependencyChunks(ctx, meta, limit)
	default:
		return base, nil
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Expanded scope",
		slog.String("scope", string(config.Scope)),
		slog.Int("base", len(base)),
		slog.Int("additional", len(additional)),
	)

	merged := make([]*model.RetrievalResult, 0, len(base)+len(additional))
	merged = append(merged, base...)
	for _, chunk := range additional {
		merged = append(merged, &model.RetrievalResult{
			Chunk:           chunk,
			RetrievalMethod: RetrievalMethodExpansion,
		})
	}
	return dedupeByName(merged), nil
}

// logicalChunks fetches implementation chunks sharing a file with the
// base entity, keeping a chunk when the base calls it or when its name
// follows the private-helper convention of a leading underscore.
func (e *Expander) logicalChunks(ctx context.Context, meta *ExpansionMetadata, limit int) ([]*model.Chunk, error) {
	calls := toSet(meta.Calls)

	var kept []*model.Chunk
	for _, filePath := range meta.FilePaths {
		chunks, err := e.store.ImplementationsByFile(ctx, filePath, limit)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			if !calls[chunk.EntityName] && !strings.HasPrefix(chunk.EntityName, "_") {
				continue
			}
			kept = append(kept, chunk)
			if len(kept) >= limit {
				return kept, nil
			}
		}
	}
	return kept, nil
}

// dependencyChunks fetches implementation chunks named by the base's
// imports or calls, regardless of file.
func (e *Expander) dependencyChunks(ctx context.Context, meta *ExpansionMetadata, limit int) ([]*model.Chunk, error) {
	names := meta.ImportsUsed
	imported := toSet(meta.ImportsUsed)
	for _, call := range meta.Calls {
		if !imported[call] {
			names = append(names, call)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	return e.store.ImplementationsByNames(ctx, names, limit)
}

// dedupeByName keeps one result per entity name: the highest-scoring
// occurrence wins, but the position of the first occurrence is kept.
func dedupeByName(results []*model.RetrievalResult) []*model.RetrievalResult {
	position := make(map[string]int, len(results))
	deduped := make([]*model.RetrievalResult, 0, len(results))

	for _, result := range results {
		name := result.Chunk.EntityName
		if at, seen := position[name]; seen {
			if result.Score > deduped[at].Score {
				deduped[at] = result
			}
			continue
		}
		position[name] = len(deduped)
		deduped = append(deduped, result)
	}
	return deduped
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
