package model

// SearchMode selects the retrieval strategy for a query.
type SearchMode string

const (
	SearchModeSemantic SearchMode = "semantic"
	SearchModeKeyword  SearchMode = "keyword"
	SearchModeHybrid   SearchMode = "hybrid"
)

// Scope selects the breadth of graph traversal applied when fetching an
// entity's implementation.
type Scope string

const (
	ScopeMinimal      Scope = "minimal"
	ScopeLogical      Scope = "logical"
	ScopeDependencies Scope = "dependencies"
)

// ViewMode selects the shape of an assembled graph view.
type ViewMode string

const (
	ViewModeSmart         ViewMode = "smart"
	ViewModeEntities      ViewMode = "entities"
	ViewModeRelationships ViewMode = "relationships"
	ViewModeRaw           ViewMode = "raw"
)

// SearchConfig represents configuration for a retrieval query.
type SearchConfig struct {
	Mode        SearchMode `json:"mode"`
	Limit       int        `json:"limit"`
	EntityTypes []string   `json:"entity_types,omitempty"`
	// Fusion parameters for hybrid mode.
	FusionK        float64 `json:"fusion_k"`
	SemanticWeight float64 `json:"semantic_weight"`
	KeywordWeight  float64 `json:"keyword_weight"`
}

// DefaultSearchConfig returns a sensible default configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Mode:           SearchModeHybrid,
		Limit:          10,
		FusionK:        60,
		SemanticWeight: 0.7,
		KeywordWeight:  0.3,
	}
}

// ScopeConfig bounds a scope expansion.
type ScopeConfig struct {
	Scope Scope `json:"scope"`
	Limit int   `json:"limit"`
}

// DefaultScopeConfig returns the default bound for the given scope.
func DefaultScopeConfig(scope Scope) ScopeConfig {
	cfg := ScopeConfig{Scope: scope}
	switch scope {
	case ScopeDependencies:
		cfg.Limit = 40
	default:
		cfg.Limit = 12
	}
	return cfg
}

// ViewConfig represents configuration for an assembled graph view.
type ViewConfig struct {
	Mode         ViewMode `json:"mode"`
	EntityTypes  []string `json:"entity_types,omitempty"`
	CenterEntity string   `json:"center_entity,omitempty"`
	TokenLimit   int      `json:"token_limit"`
	// EntityLimit caps the number of entities scanned into the view.
	// Relations are not capped by it. Zero means no cap.
	EntityLimit int `json:"entity_limit,omitempty"`
}

// DefaultViewConfig returns a sensible default configuration.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		Mode:       ViewModeSmart,
		TokenLimit: 10000,
	}
}
