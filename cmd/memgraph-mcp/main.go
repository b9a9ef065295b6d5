// Command memgraph-mcp serves the knowledge graph over the Model
// Context Protocol on stdio. Database connection parameters come from
// the environment (or a .env file); the collection name, embedding
// dimension and embedding model are configured the same way.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/siherrmann/memgraph"
	"github.com/siherrmann/memgraph/core/pipeline"
	"github.com/siherrmann/memgraph/helper"
	"github.com/siherrmann/memgraph/server"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("memgraph-mcp: %v", err)
	}
}

func run() error {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return fmt.Errorf("loading database configuration: %w", err)
	}

	collection := os.Getenv("MEMGRAPH_COLLECTION")
	if collection == "" {
		collection = "memory"
	}
	dimension := pipeline.DefaultEmbeddingDimension
	if value := os.Getenv("EMBEDDING_DIMENSION"); value != "" {
		dimension, err = strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid EMBEDDING_DIMENSION %q: %w", value, err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	graph, err := memgraph.NewMemgraph(dbConfig, memgraph.Config{
		Collection: collection,
		Dimension:  dimension,
	})
	if err != nil {
		return fmt.Errorf("initializing graph: %w", err)
	}
	defer graph.Close()

	mcpServer, err := server.NewServer(server.Config{
		Name:    "memgraph",
		Version: version,
		Graph:   graph,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	log.Printf("memgraph-mcp %s serving on stdio, instance %s", version, mcpServer.InstanceID())

	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
