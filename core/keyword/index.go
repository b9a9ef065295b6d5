// Package keyword provides an in-memory ranked-retrieval index over
// the textual content of metadata chunks. Scoring is BM25 with the
// usual two tunables: a term-frequency saturation constant and a
// length-normalization constant.
package keyword

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/siherrmann/memgraph/model"
)

// Default BM25 constants.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Document is one indexable record: the chunk id, the text scored by
// BM25 and the source fields carried through to results. Text is the
// concatenation of entity name and stored content, so name-only
// queries match.
type Document struct {
	ID         uint64
	EntityName string
	EntityType string
	Text       string
	Chunk      *model.Chunk
}

// Result is a ranked search hit.
type Result struct {
	Document *Document
	Score    float64
}

// Index is a process-local BM25 index. Rebuilds replace the whole
// snapshot behind a lock, so queries racing a rebuild see either the
// old snapshot or the new one, never a half-built index.
type Index struct {
	k1 float64
	b  float64

	mu       sync.RWMutex
	snapshot *snapshot
}

// snapshot is one immutable build of the index.
type snapshot struct {
	docs      []*Document
	docTokens [][]string
	termFreqs []map[string]int
	docFreq   map[string]int
	avgLen    float64
}

// NewIndex creates an empty index with default constants.
func NewIndex() *Index {
	return &Index{k1: DefaultK1, b: DefaultB, snapshot: &snapshot{docFreq: map[string]int{}}}
}

// Clear drops all indexed documents.
func (i *Index) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.snapshot = &snapshot{docFreq: map[string]int{}}
}

// Index replaces the indexed document set. The new snapshot is built
// completely before the swap.
func (i *Index) Index(docs []*Document) {
	next := &snapshot{
		docs:      docs,
		docTokens: make([][]string, len(docs)),
		termFreqs: make([]map[string]int, len(docs)),
		docFreq:   make(map[string]int),
	}

	var totalLen float64
	for n, doc := range docs {
		tokens := tokenize(doc.Text)
		next.docTokens[n] = tokens
		totalLen += float64(len(tokens))

		freqs := make(map[string]int, len(tokens))
		for _, token := range tokens {
			freqs[token]++
		}
		next.termFreqs[n] = freqs
		for token := range freqs {
			next.docFreq[token]++
		}
	}
	if len(docs) > 0 {
		next.avgLen = totalLen / float64(len(docs))
	}

	i.mu.Lock()
	i.snapshot = next
	i.mu.Unlock()
}

// Len returns the number of indexed documents.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.snapshot.docs)
}

// Search scores documents against the query and returns up to limit
// hits with score > 0, best first. An entity-type filter keeps only
// documents whose type is in the set.
func (i *Index) Search(query string, limit int, types []string) []Result {
	i.mu.RLock()
	snap := i.snapshot
	i.mu.RUnlock()

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 || len(snap.docs) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	n := float64(len(snap.docs))

	// IDF per query term
	idf := make(map[string]float64, len(queryTerms))
	for _, term := range queryTerms {
		df := float64(snap.docFreq[term])
		idf[term] = math.Log((n-df+0.5)/(df+0.5) + 1)
	}

	type scored struct {
		index int
		score float64
	}
	var results []scored
	for d, doc := range snap.docs {
		if len(typeSet) > 0 && !typeSet[doc.EntityType] {
			continue
		}

		dl := float64(len(snap.docTokens[d]))
		var score float64
		for _, term := range queryTerms {
			f := float64(snap.termFreqs[d][term])
			score += idf[term] * (f * (i.k1 + 1)) / (f + i.k1*(1-i.b+i.b*dl/snap.avgLen))
		}
		if score > 0 {
			results = append(results, scored{index: d, score: score})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].score > results[b].score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	ranked := make([]Result, len(results))
	for r, s := range results {
		ranked[r] = Result{Document: snap.docs[s.index], Score: s.score}
	}
	return ranked
}

// tokenize splits text into lowercase tokens, treating common
// punctuation as separators.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', '.', ',', ';', ':', '(', ')', '[', ']', '{', '}', '"', '\'', '!', '?', '/', '-':
			return true
		}
		return false
	})
}
