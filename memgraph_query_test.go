package memgraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/siherrmann/memgraph/model"
	"github.com/siherrmann/memgraph/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGraph(t *testing.T, g *Memgraph) {
	ctx := context.Background()

	err := g.CreateEntities(ctx, []*model.Entity{
		{Name: "auth_service", EntityType: "service", Observations: []string{"Handles authentication", "Issues JWT tokens"}},
		{Name: "token_store", EntityType: "store", Observations: []string{"Persists refresh tokens"}},
		{Name: "login_handler", EntityType: "handler", Observations: []string{"HTTP entry point for login"}},
	})
	require.NoError(t, err)

	err = g.CreateRelations(ctx, []*model.Relation{
		{From: "login_handler", To: "auth_service", RelationType: "calls"},
		{From: "auth_service", To: "token_store", RelationType: "uses"},
	})
	require.NoError(t, err)

	err = g.Store.PersistImplementation(ctx, &model.Chunk{
		EntityName: "auth_service",
		EntityType: "service",
		Content:    "def authenticate(user, password):\n    _check_password(user, password)",
		FilePath:   "auth/service.py",
		LineStart:  10,
		LineEnd:    20,
		Semantic:   &model.SemanticMetadata{Calls: []string{"_check_password"}, ImportsUsed: []string{"token_store"}},
	})
	require.NoError(t, err)
	err = g.Store.PersistImplementation(ctx, &model.Chunk{
		EntityName: "_check_password",
		EntityType: "function",
		Content:    "def _check_password(user, password): ...",
		FilePath:   "auth/service.py",
		LineStart:  30,
		LineEnd:    34,
	})
	require.NoError(t, err)
	err = g.Store.PersistImplementation(ctx, &model.Chunk{
		EntityName: "token_store",
		EntityType: "store",
		Content:    "class TokenStore: ...",
		FilePath:   "auth/token_store.py",
		LineStart:  1,
		LineEnd:    40,
	})
	require.NoError(t, err)
}

func TestSearch(t *testing.T) {
	g := initMemgraph(t)
	seedGraph(t, g)
	ctx := context.Background()

	t.Run("Hybrid search by default", func(t *testing.T) {
		results, err := g.Search(ctx, "authentication tokens", nil)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "auth_service", results[0].Chunk.EntityName)
		assert.Equal(t, string(model.SearchModeHybrid), results[0].RetrievalMethod)
	})

	t.Run("Respects mode and type filter", func(t *testing.T) {
		config := model.DefaultSearchConfig()
		config.Mode = model.SearchModeKeyword
		config.EntityTypes = []string{"store"}

		results, err := g.Search(ctx, "tokens", &config)
		require.NoError(t, err)
		for _, r := range results {
			assert.Equal(t, "store", r.Chunk.EntityType, "the type filter must hold")
		}
	})

	t.Run("Read failures degrade to empty results", func(t *testing.T) {
		broken := initMemgraph(t)
		require.NoError(t, broken.DB.Instance.Close(), "closing the connection to force read failures")

		results, err := broken.Search(ctx, "anything", nil)
		require.NoError(t, err, "a store read failure must not surface as an error")
		assert.Empty(t, results, "a failed search degrades to empty results")
	})

	t.Run("Embedding failures stay hard errors", func(t *testing.T) {
		failing := initMemgraphWithEmbedder(t, func(text string) ([]float32, error) {
			return nil, fmt.Errorf("model not loaded")
		})

		config := model.DefaultSearchConfig()
		config.Mode = model.SearchModeSemantic
		_, err := failing.Search(ctx, "anything", &config)
		require.Error(t, err, "an embedding-provider failure must be raised")
		assert.ErrorIs(t, err, store.ErrEmbedding)
	})
}

func TestFetchImplementation(t *testing.T) {
	g := initMemgraph(t)
	seedGraph(t, g)
	ctx := context.Background()

	t.Run("Minimal scope returns only the target", func(t *testing.T) {
		results, err := g.FetchImplementation(ctx, "auth_service", nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "auth_service", results[0].Chunk.EntityName)
		assert.Equal(t, "auth/service.py", results[0].Chunk.FilePath)
	})

	t.Run("Logical scope adds same-file helpers", func(t *testing.T) {
		config := model.DefaultScopeConfig(model.ScopeLogical)
		results, err := g.FetchImplementation(ctx, "auth_service", &config)
		require.NoError(t, err)

		got := entityNames(results)
		assert.Contains(t, got, "auth_service")
		assert.Contains(t, got, "_check_password", "the called private helper belongs to the logical scope")
		assert.NotContains(t, got, "token_store", "other files stay out of the logical scope")
	})

	t.Run("Dependencies scope follows imports", func(t *testing.T) {
		config := model.DefaultScopeConfig(model.ScopeDependencies)
		results, err := g.FetchImplementation(ctx, "auth_service", &config)
		require.NoError(t, err)

		got := entityNames(results)
		assert.Contains(t, got, "token_store", "imported entities belong to the dependencies scope")
	})

	t.Run("Unknown entity returns empty without error", func(t *testing.T) {
		results, err := g.FetchImplementation(ctx, "ghost", nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Read failures degrade to empty results", func(t *testing.T) {
		broken := initMemgraph(t)
		require.NoError(t, broken.DB.Instance.Close())

		results, err := broken.FetchImplementation(ctx, "auth_service", nil)
		require.NoError(t, err, "a store read failure must not surface as an error")
		assert.Empty(t, results)
	})
}

func TestFetchGraph(t *testing.T) {
	g := initMemgraph(t)
	seedGraph(t, g)
	ctx := context.Background()

	t.Run("Smart view carries all sections", func(t *testing.T) {
		view, err := g.FetchGraph(ctx, nil)
		require.NoError(t, err)

		assert.False(t, view.Truncated)
		assert.Contains(t, view.Content, "Entities: 3, relations: 2")
		assert.Contains(t, view.Content, "auth/service.py")
		assert.Contains(t, view.Content, "login_handler -[calls]-> auth_service")
		assert.LessOrEqual(t, view.EstimatedTokens, view.TokenLimit)
	})

	t.Run("Entities view with a type filter", func(t *testing.T) {
		config := model.ViewConfig{Mode: model.ViewModeEntities, EntityTypes: []string{"service"}, TokenLimit: 1000}
		view, err := g.FetchGraph(ctx, &config)
		require.NoError(t, err)

		assert.Contains(t, view.Content, "auth_service")
		assert.NotContains(t, view.Content, "token_store", "entities of other types are filtered out")
	})

	t.Run("Entity limit caps entities but not relations", func(t *testing.T) {
		config := model.DefaultViewConfig()
		config.EntityLimit = 1
		view, err := g.FetchGraph(ctx, &config)
		require.NoError(t, err)

		assert.Contains(t, view.Content, "Entities: 1, relations: 2", "the cap holds for entities while relations keep accumulating")
	})

	t.Run("Centered view keeps the neighborhood", func(t *testing.T) {
		config := model.DefaultViewConfig()
		config.CenterEntity = "token_store"
		view, err := g.FetchGraph(ctx, &config)
		require.NoError(t, err)

		assert.Contains(t, view.Content, "token_store")
		assert.Contains(t, view.Content, "auth_service", "direct neighbors stay in the view")
		assert.NotContains(t, view.Content, "login_handler -[calls]-> auth_service", "edges not touching the center are cut")
	})

	t.Run("Read failures degrade to a view over the empty graph", func(t *testing.T) {
		broken := initMemgraph(t)
		require.NoError(t, broken.DB.Instance.Close())

		view, err := broken.FetchGraph(ctx, nil)
		require.NoError(t, err, "a store read failure must not surface as an error")
		assert.Contains(t, view.Content, "Entities: 0, relations: 0", "the degraded view reflects an empty graph")
	})
}
