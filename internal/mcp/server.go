package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/turnguard/internal/config"
	"github.com/ziadkadry99/turnguard/internal/pipeline"
	"github.com/ziadkadry99/turnguard/internal/retrieval"
	"github.com/ziadkadry99/turnguard/internal/session"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the oversight pipeline as
// tools an agent can call.
type Server struct {
	cfg      *config.Config
	engine   *pipeline.Engine
	sessions *session.Store
	evidence *retrieval.Store
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server. evidence may be nil.
func NewServer(cfg *config.Config, engine *pipeline.Engine, sessions *session.Store, evidence *retrieval.Store) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		sessions: sessions,
		evidence: evidence,
	}

	s.mcp = server.NewMCPServer(
		"turnguard",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(respondTool, s.handleRespond)
	s.mcp.AddTool(sessionStateTool, s.handleSessionState)
	s.mcp.AddTool(addEvidenceTool, s.handleAddEvidence)
	s.mcp.AddTool(searchEvidenceTool, s.handleSearchEvidence)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
