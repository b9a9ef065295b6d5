package retrieval

import (
	"sort"

	"github.com/siherrmann/memgraph/model"
)

// FuseRanked merges the semantic and keyword rankings by Reciprocal
// Rank Fusion:
//
//	fused(doc) = Σ weight[source] / (K + rank_source(doc))
//
// with 1-based ranks; a document absent from a source contributes 0
// from that source. Documents found by both strategies are rewarded
// without any score-scale normalization between cosine similarity and
// BM25. The fused list is sorted by descending score; ties keep the
// order in which a document was first encountered, semantic list
// first. The result is truncated to config.Limit.
func FuseRanked(semantic []*model.RetrievalResult, keyword []*model.RetrievalResult, config *model.SearchConfig) []*model.RetrievalResult {
	k := config.FusionK
	if k <= 0 {
		k = model.DefaultSearchConfig().FusionK
	}
	semanticWeight := config.SemanticWeight
	keywordWeight := config.KeywordWeight
	if semanticWeight == 0 && keywordWeight == 0 {
		defaults := model.DefaultSearchConfig()
		semanticWeight = defaults.SemanticWeight
		keywordWeight = defaults.KeywordWeight
	}

	// First-seen order is the documented tie-break, so fused entries
	// are collected in encounter order, never re-keyed by map order.
	type fused struct {
		result *model.RetrievalResult
		score  float64
	}
	var entries []*fused
	byID := make(map[uint64]*fused)

	for rank, result := range semantic {
		entry := &fused{
			result: &model.RetrievalResult{
				Chunk:           result.Chunk,
				SimilarityScore: result.SimilarityScore,
				RetrievalMethod: string(model.SearchModeHybrid),
			},
			score: semanticWeight / (k + float64(rank+1)),
		}
		byID[result.Chunk.ID] = entry
		entries = append(entries, entry)
	}

	for rank, result := range keyword {
		contribution := keywordWeight / (k + float64(rank+1))
		if entry, ok := byID[result.Chunk.ID]; ok {
			entry.score += contribution
			entry.result.KeywordScore = result.KeywordScore
			continue
		}
		entry := &fused{
			result: &model.RetrievalResult{
				Chunk:           result.Chunk,
				KeywordScore:    result.KeywordScore,
				RetrievalMethod: string(model.SearchModeHybrid),
			},
			score: contribution,
		}
		byID[result.Chunk.ID] = entry
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	if config.Limit > 0 && len(entries) > config.Limit {
		entries = entries[:config.Limit]
	}

	results := make([]*model.RetrievalResult, len(entries))
	for i, entry := range entries {
		entry.result.Score = entry.score
		results[i] = entry.result
	}
	return results
}
