package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/memgraph"
	"github.com/siherrmann/memgraph/helper"
	"github.com/siherrmann/memgraph/model"
)

// This example ingests implementation chunks alongside the graph and
// shows the retrieval modes, scoped implementation fetches and the
// view modes of the assembler.
func main() {
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	g, err := memgraph.NewMemgraph(dbConfig, memgraph.Config{
		Collection: "example_advanced",
		Dimension:  384,
	})
	if err != nil {
		log.Fatalf("Failed to create memgraph: %v", err)
	}
	defer g.Close()

	ctx := context.Background()

	// Entities and relations of a small payment module
	err = g.CreateEntities(ctx, []*model.Entity{
		{Name: "process_payment", EntityType: "function", Observations: []string{"Validates and charges an order"}},
		{Name: "validate_order", EntityType: "function", Observations: []string{"Checks order totals and stock"}},
		{Name: "stripe_client", EntityType: "module", Observations: []string{"Wrapper around the Stripe API"}},
	})
	if err != nil {
		log.Fatalf("Failed to create entities: %v", err)
	}
	err = g.CreateRelations(ctx, []*model.Relation{
		{From: "process_payment", To: "validate_order", RelationType: "calls"},
		{From: "process_payment", To: "stripe_client", RelationType: "uses"},
	})
	if err != nil {
		log.Fatalf("Failed to create relations: %v", err)
	}

	// Implementation chunks carry source locations and recorded
	// call/import edges; scope expansion traverses those.
	implementations := []*model.Chunk{
		{
			EntityName: "process_payment",
			EntityType: "function",
			Content:    "def process_payment(order):\n    validate_order(order)\n    _charge(order)",
			FilePath:   "billing/payments.py",
			LineStart:  10, LineEnd: 14,
			Semantic: &model.SemanticMetadata{
				Calls:       []string{"validate_order", "_charge"},
				ImportsUsed: []string{"stripe_client"},
			},
		},
		{
			EntityName: "validate_order",
			EntityType: "function",
			Content:    "def validate_order(order): ...",
			FilePath:   "billing/payments.py",
			LineStart:  20, LineEnd: 26,
		},
		{
			EntityName: "_charge",
			EntityType: "function",
			Content:    "def _charge(order): ...",
			FilePath:   "billing/payments.py",
			LineStart:  30, LineEnd: 38,
		},
		{
			EntityName: "stripe_client",
			EntityType: "module",
			Content:    "class StripeClient: ...",
			FilePath:   "billing/stripe_client.py",
			LineStart:  1, LineEnd: 60,
		},
	}
	for _, chunk := range implementations {
		if err := g.Store.PersistImplementation(ctx, chunk); err != nil {
			log.Fatalf("Failed to persist implementation: %v", err)
		}
	}

	// Compare the three retrieval modes
	for _, mode := range []model.SearchMode{model.SearchModeSemantic, model.SearchModeKeyword, model.SearchModeHybrid} {
		config := model.DefaultSearchConfig()
		config.Mode = mode
		config.Limit = 3

		results, err := g.Search(ctx, "charge an order", &config)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		fmt.Printf("\n%s results:\n", mode)
		for i, result := range results {
			fmt.Printf("  %d. %s score=%.4f\n", i+1, result.Chunk.EntityName, result.Score)
		}
	}

	// Fetch process_payment with growing scopes
	for _, s := range []model.Scope{model.ScopeMinimal, model.ScopeLogical, model.ScopeDependencies} {
		config := model.DefaultScopeConfig(s)
		results, err := g.FetchImplementation(ctx, "process_payment", &config)
		if err != nil {
			log.Fatalf("Fetch implementation failed: %v", err)
		}
		fmt.Printf("\nScope %s:\n", s)
		for _, result := range results {
			fmt.Printf("  %s (%s:%d)\n", result.Chunk.EntityName, result.Chunk.FilePath, result.Chunk.LineStart)
		}
	}

	// A tightly bounded view gets sections dropped, summary first in,
	// relations first out.
	view, err := g.FetchGraph(ctx, &model.ViewConfig{Mode: model.ViewModeSmart, TokenLimit: 120})
	if err != nil {
		log.Fatalf("Fetch graph failed: %v", err)
	}
	fmt.Printf("\nBounded view (%d/%d tokens):\n%s\n", view.EstimatedTokens, view.TokenLimit, view.Content)
	if view.Truncated {
		fmt.Printf("Truncated: %s\n", view.Reason)
	}
}
