package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/siherrmann/memgraph/model"
)

// EntityInput is one entity in a create_entities call.
type EntityInput struct {
	Name         string   `json:"name" jsonschema:"The unique name of the entity"`
	EntityType   string   `json:"entityType" jsonschema:"The type of the entity, e.g. function, class, service"`
	Observations []string `json:"observations,omitempty" jsonschema:"Facts recorded about the entity"`
}

// RelationInput is one relation in a create_relations or
// delete_relations call.
type RelationInput struct {
	From         string `json:"from" jsonschema:"The name of the source entity"`
	To           string `json:"to" jsonschema:"The name of the target entity"`
	RelationType string `json:"relationType" jsonschema:"The type of the relation, e.g. calls, uses, inherits_from"`
}

// CreateEntitiesInput defines the input schema for create_entities.
type CreateEntitiesInput struct {
	Entities []EntityInput `json:"entities" jsonschema:"The entities to create or overwrite"`
}

// DeleteEntitiesInput defines the input schema for delete_entities.
type DeleteEntitiesInput struct {
	Names []string `json:"names" jsonschema:"The names of the entities to delete"`
}

// RelationsInput defines the input schema for create_relations and
// delete_relations.
type RelationsInput struct {
	Relations []RelationInput `json:"relations" jsonschema:"The relations to operate on"`
}

// ObservationsInput defines the input schema for add_observations and
// delete_observations.
type ObservationsInput struct {
	EntityName   string   `json:"entityName" jsonschema:"The name of the entity to modify"`
	Observations []string `json:"observations" jsonschema:"The observations to add or remove"`
}

// SearchInput defines the input schema for search.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"The search query"`
	Mode        string   `json:"mode,omitempty" jsonschema:"Retrieval mode: semantic, keyword or hybrid (default hybrid)"`
	EntityTypes []string `json:"entityTypes,omitempty" jsonschema:"Restrict results to these entity types"`
	Limit       int      `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

// FetchImplementationInput defines the input schema for
// fetch_implementation.
type FetchImplementationInput struct {
	EntityName string `json:"entityName" jsonschema:"The name of the entity to fetch"`
	Scope      string `json:"scope,omitempty" jsonschema:"Traversal breadth: minimal, logical or dependencies (default minimal)"`
}

// FetchGraphInput defines the input schema for fetch_graph.
type FetchGraphInput struct {
	Mode         string   `json:"mode,omitempty" jsonschema:"View mode: smart, entities, relationships or raw (default smart)"`
	EntityTypes  []string `json:"entityTypes,omitempty" jsonschema:"Restrict the view to these entity types"`
	CenterEntity string   `json:"centerEntity,omitempty" jsonschema:"Center the view on this entity and its neighbors"`
	TokenLimit   int      `json:"tokenLimit,omitempty" jsonschema:"Output size budget in tokens (default 10000)"`
	EntityLimit  int      `json:"entityLimit,omitempty" jsonschema:"Maximum number of entities in the view, relations are not capped (default unlimited)"`
}

func (s *Server) registerCreateEntities() error {
	inputSchema, err := jsonschema.For[CreateEntitiesInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "create_entities",
		Description: "Create or overwrite entities in the knowledge graph. Entity identity is the name; creating an existing name replaces its record.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in CreateEntitiesInput) (*mcp.CallToolResult, any, error) {
		entities := make([]*model.Entity, len(in.Entities))
		for i, e := range in.Entities {
			entities[i] = &model.Entity{Name: e.Name, EntityType: e.EntityType, Observations: e.Observations}
		}
		if err := s.graph.CreateEntities(ctx, entities); err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(fmt.Sprintf("Created %d entities", len(entities))), nil, nil
	})
	return nil
}

func (s *Server) registerDeleteEntities() error {
	inputSchema, err := jsonschema.For[DeleteEntitiesInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "delete_entities",
		Description: "Delete entities from the knowledge graph together with their implementation chunks and any relations referencing them.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in DeleteEntitiesInput) (*mcp.CallToolResult, any, error) {
		if err := s.graph.DeleteEntities(ctx, in.Names); err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(fmt.Sprintf("Deleted %d entities", len(in.Names))), nil, nil
	})
	return nil
}

func (s *Server) registerCreateRelations() error {
	inputSchema, err := jsonschema.For[RelationsInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "create_relations",
		Description: "Create typed directed relations between existing entities. Both endpoints must exist; a missing endpoint is an error.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in RelationsInput) (*mcp.CallToolResult, any, error) {
		relations := make([]*model.Relation, len(in.Relations))
		for i, r := range in.Relations {
			relations[i] = &model.Relation{From: r.From, To: r.To, RelationType: r.RelationType}
		}
		if err := s.graph.CreateRelations(ctx, relations); err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(fmt.Sprintf("Created %d relations", len(relations))), nil, nil
	})
	return nil
}

func (s *Server) registerDeleteRelations() error {
	inputSchema, err := jsonschema.For[RelationsInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "delete_relations",
		Description: "Delete relations from the knowledge graph by their (from, relationType, to) identity.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in RelationsInput) (*mcp.CallToolResult, any, error) {
		relations := make([]*model.Relation, len(in.Relations))
		for i, r := range in.Relations {
			relations[i] = &model.Relation{From: r.From, To: r.To, RelationType: r.RelationType}
		}
		if err := s.graph.DeleteRelations(ctx, relations); err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(fmt.Sprintf("Deleted %d relations", len(relations))), nil, nil
	})
	return nil
}

func (s *Server) registerAddObservations() error {
	inputSchema, err := jsonschema.For[ObservationsInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "add_observations",
		Description: "Append observations to an existing entity.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in ObservationsInput) (*mcp.CallToolResult, any, error) {
		if err := s.graph.AddObservations(ctx, in.EntityName, in.Observations); err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(fmt.Sprintf("Added %d observations to %s", len(in.Observations), in.EntityName)), nil, nil
	})
	return nil
}

func (s *Server) registerDeleteObservations() error {
	inputSchema, err := jsonschema.For[ObservationsInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "delete_observations",
		Description: "Remove observations from an existing entity. Observations not present are ignored.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in ObservationsInput) (*mcp.CallToolResult, any, error) {
		if err := s.graph.DeleteObservations(ctx, in.EntityName, in.Observations); err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(fmt.Sprintf("Deleted %d observations from %s", len(in.Observations), in.EntityName)), nil, nil
	})
	return nil
}

func (s *Server) registerSearch() error {
	inputSchema, err := jsonschema.For[SearchInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "search",
		Description: "Search the knowledge graph. Hybrid mode fuses vector similarity and keyword ranking; semantic and keyword modes use one strategy only.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
		config := model.DefaultSearchConfig()
		if in.Mode != "" {
			config.Mode = model.SearchMode(in.Mode)
		}
		if in.Limit > 0 {
			config.Limit = in.Limit
		}
		config.EntityTypes = in.EntityTypes

		results, err := s.graph.Search(ctx, in.Query, &config)
		if err != nil {
			return errorResult(err), nil, nil
		}

		payload, err := json.MarshalIndent(searchOutput(results), "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode results: %w", err)
		}
		return textResult(string(payload)), nil, nil
	})
	return nil
}

func (s *Server) registerFetchImplementation() error {
	inputSchema, err := jsonschema.For[FetchImplementationInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "fetch_implementation",
		Description: "Fetch the implementation chunks of an entity, optionally expanded along call and import edges (logical or dependencies scope).",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in FetchImplementationInput) (*mcp.CallToolResult, any, error) {
		scopeConfig := model.DefaultScopeConfig(model.Scope(in.Scope))
		if in.Scope == "" {
			scopeConfig = model.DefaultScopeConfig(model.ScopeMinimal)
		}

		results, err := s.graph.FetchImplementation(ctx, in.EntityName, &scopeConfig)
		if err != nil {
			return errorResult(err), nil, nil
		}

		payload, err := json.MarshalIndent(implementationOutput(results), "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode results: %w", err)
		}
		return textResult(string(payload)), nil, nil
	})
	return nil
}

func (s *Server) registerFetchGraph() error {
	inputSchema, err := jsonschema.For[FetchGraphInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "fetch_graph",
		Description: "Assemble a token-bounded view of the stored graph: a smart sectioned overview, a flat entity or relation list, or the raw combination.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in FetchGraphInput) (*mcp.CallToolResult, any, error) {
		config := model.DefaultViewConfig()
		if in.Mode != "" {
			config.Mode = model.ViewMode(in.Mode)
		}
		if in.TokenLimit > 0 {
			config.TokenLimit = in.TokenLimit
		}
		config.EntityTypes = in.EntityTypes
		config.CenterEntity = in.CenterEntity
		if in.EntityLimit > 0 {
			config.EntityLimit = in.EntityLimit
		}

		view, err := s.graph.FetchGraph(ctx, &config)
		if err != nil {
			return errorResult(err), nil, nil
		}

		text := view.Content
		if view.Truncated {
			text += fmt.Sprintf("\n\n[truncated: %s]", view.Reason)
		}
		return textResult(text), nil, nil
	})
	return nil
}

// searchResultOutput is the wire shape of one search hit.
type searchResultOutput struct {
	Name            string   `json:"name"`
	EntityType      string   `json:"entity_type,omitempty"`
	Observations    []string `json:"observations,omitempty"`
	Score           float64  `json:"score"`
	RetrievalMethod string   `json:"retrieval_method"`
}

func searchOutput(results []*model.RetrievalResult) []searchResultOutput {
	out := make([]searchResultOutput, len(results))
	for i, r := range results {
		out[i] = searchResultOutput{
			Name:            r.Chunk.EntityName,
			EntityType:      r.Chunk.EntityType,
			Observations:    r.Chunk.Observations,
			Score:           r.Score,
			RetrievalMethod: r.RetrievalMethod,
		}
	}
	return out
}

// implementationOutput is the wire shape of one implementation chunk.
type implementationChunkOutput struct {
	Name            string `json:"name"`
	FilePath        string `json:"file_path,omitempty"`
	LineStart       int    `json:"line_start,omitempty"`
	LineEnd         int    `json:"line_end,omitempty"`
	Content         string `json:"content,omitempty"`
	RetrievalMethod string `json:"retrieval_method"`
}

func implementationOutput(results []*model.RetrievalResult) []implementationChunkOutput {
	out := make([]implementationChunkOutput, len(results))
	for i, r := range results {
		out[i] = implementationChunkOutput{
			Name:            r.Chunk.EntityName,
			FilePath:        r.Chunk.FilePath,
			LineStart:       r.Chunk.LineStart,
			LineEnd:         r.Chunk.LineEnd,
			Content:         r.Chunk.Content,
			RetrievalMethod: r.RetrievalMethod,
		}
	}
	return out
}
