package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/memgraph"
	"github.com/siherrmann/memgraph/helper"
	"github.com/siherrmann/memgraph/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// The default embedder loads the all-MiniLM-L6-v2 sentence
	// transformer (384 dimensions).
	g, err := memgraph.NewMemgraph(dbConfig, memgraph.Config{
		Collection: "example_basic",
		Dimension:  384,
	})
	if err != nil {
		log.Fatalf("Failed to create memgraph: %v", err)
	}
	defer g.Close()

	ctx := context.Background()

	// Build a small knowledge graph
	fmt.Println("Creating entities...")
	err = g.CreateEntities(ctx, []*model.Entity{
		{Name: "auth_service", EntityType: "service", Observations: []string{
			"Handles user authentication",
			"Issues and validates JWT tokens",
		}},
		{Name: "token_store", EntityType: "store", Observations: []string{
			"Persists refresh tokens in PostgreSQL",
		}},
		{Name: "login_handler", EntityType: "handler", Observations: []string{
			"HTTP entry point for the login flow",
		}},
	})
	if err != nil {
		log.Fatalf("Failed to create entities: %v", err)
	}

	fmt.Println("Creating relations...")
	err = g.CreateRelations(ctx, []*model.Relation{
		{From: "login_handler", To: "auth_service", RelationType: "calls"},
		{From: "auth_service", To: "token_store", RelationType: "uses"},
	})
	if err != nil {
		log.Fatalf("Failed to create relations: %v", err)
	}

	// Hybrid search fuses vector similarity and keyword ranking
	query := "Who issues JWT tokens?"
	fmt.Printf("\nSearching: %s\n", query)

	results, err := g.Search(ctx, query, nil)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	for i, result := range results {
		fmt.Printf("%d. %s (%s) score=%.4f via %s\n",
			i+1, result.Chunk.EntityName, result.Chunk.EntityType, result.Score, result.RetrievalMethod)
	}

	// Assemble a token-bounded view of the whole graph
	fmt.Println("\nGraph view:")
	view, err := g.FetchGraph(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to fetch graph: %v", err)
	}
	fmt.Println(view.Content)
	fmt.Printf("\n(%d of %d tokens used, truncated: %v)\n", view.EstimatedTokens, view.TokenLimit, view.Truncated)
}
