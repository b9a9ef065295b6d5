// Package server exposes the knowledge graph over the Model Context
// Protocol. Each tool validates its arguments, calls the Memgraph
// facade and renders the outcome as a text result.
package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/siherrmann/memgraph"
)

// Server wraps the MCP SDK server around a Memgraph instance.
type Server struct {
	mcpServer  *mcp.Server
	graph      *memgraph.Memgraph
	name       string
	version    string
	instanceID uuid.UUID
}

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
	Graph   *memgraph.Memgraph
}

// NewServer creates a new MCP server exposing the graph tools.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Graph == nil {
		return nil, fmt.Errorf("memgraph instance is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer:  mcpServer,
		graph:      cfg.Graph,
		name:       cfg.Name,
		version:    cfg.Version,
		instanceID: uuid.New(),
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// InstanceID returns the id assigned to this server process, for log
// correlation across restarts on the same transport.
func (s *Server) InstanceID() uuid.UUID {
	return s.instanceID
}

// Run starts the MCP server on the given transport. This is a blocking
// call that handles all protocol communication.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools() error {
	register := []func() error{
		s.registerCreateEntities,
		s.registerDeleteEntities,
		s.registerCreateRelations,
		s.registerDeleteRelations,
		s.registerAddObservations,
		s.registerDeleteObservations,
		s.registerSearch,
		s.registerFetchImplementation,
		s.registerFetchGraph,
	}
	for _, fn := range register {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// textResult builds a plain text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult builds a tool-level error result, distinct from a
// protocol error.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}
}
