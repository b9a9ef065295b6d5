package model

// RetrievalResult represents a chunk retrieved by a query.
type RetrievalResult struct {
	Chunk           *Chunk  `json:"chunk"`
	Score           float64 `json:"score"`            // Combined score from ranking
	SimilarityScore float64 `json:"similarity_score"` // Cosine similarity score
	KeywordScore    float64 `json:"keyword_score"`    // BM25 score
	RetrievalMethod string  `json:"retrieval_method"` // How it was retrieved (semantic, keyword, hybrid, scope)
}

// GraphView is the assembled, token-bounded rendering of a graph query.
// EstimatedTokens never exceeds TokenLimit; when not even the summary
// fits, Content is empty and Reason carries the diagnostic.
type GraphView struct {
	Content         string   `json:"content"`
	EstimatedTokens int      `json:"estimated_tokens"`
	TokenLimit      int      `json:"token_limit"`
	Truncated       bool     `json:"truncated"`
	Reason          string   `json:"reason,omitempty"`
	Sections        []string `json:"sections"`
}
