package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/turnguard/internal/audit"
	"github.com/ziadkadry99/turnguard/internal/config"
	"github.com/ziadkadry99/turnguard/internal/db"
	"github.com/ziadkadry99/turnguard/internal/logging"
	"github.com/ziadkadry99/turnguard/internal/pipeline"
	"github.com/ziadkadry99/turnguard/internal/planner"
	"github.com/ziadkadry99/turnguard/internal/session"
)

func newTestMCP(t *testing.T) *Server {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	cfg := config.DefaultConfig()
	sessions := session.NewStore(d)
	engine := pipeline.NewEngine(cfg, logging.Nop(), sessions, audit.NewStore(d), nil, planner.NewLocalComposer())
	return NewServer(cfg, engine, sessions, nil)
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatalf("no text content in %+v", result.Content)
	return ""
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"respond", respondTool, "respond"},
		{"session_state", sessionStateTool, "session_state"},
		{"add_evidence", addEvidenceTool, "add_evidence"},
		{"search_evidence", searchEvidenceTool, "search_evidence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestMCP(t)
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.engine == nil {
		t.Fatal("engine not set")
	}
}

func TestHandleRespond(t *testing.T) {
	srv := newTestMCP(t)
	ctx := context.Background()

	t.Run("clear task emits", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"task":       "implement a health check endpoint for the service",
			"context":    "Go service",
			"session_id": "s1",
		}

		result, err := srv.handleRespond(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := toolText(t, result)
		if !strings.Contains(text, "Outcome: emit") {
			t.Errorf("output missing emit outcome:\n%s", text)
		}
	})

	t.Run("vague task clarifies", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"task":       "make it better somehow",
			"session_id": "s2",
		}

		result, err := srv.handleRespond(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := toolText(t, result)
		if !strings.Contains(text, "Outcome: clarify") {
			t.Errorf("output missing clarify outcome:\n%s", text)
		}
		if !strings.Contains(text, "Questions:") {
			t.Errorf("clarify output missing questions:\n%s", text)
		}
	})

	t.Run("missing task", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleRespond(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing task")
		}
	})
}

func TestHandleSessionState(t *testing.T) {
	srv := newTestMCP(t)
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"task":       "make it better somehow",
		"session_id": "s1",
	}
	if _, err := srv.handleRespond(ctx, req); err != nil {
		t.Fatalf("respond: %v", err)
	}

	t.Run("known session", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"session_id": "s1"}

		result, err := srv.handleSessionState(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := toolText(t, result)
		if !strings.Contains(text, "Suspended since") {
			t.Errorf("state should show the suspended turn:\n%s", text)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"session_id": "nope"}

		result, err := srv.handleSessionState(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for unknown session")
		}
	})
}

func TestEvidenceToolsWithoutStore(t *testing.T) {
	srv := newTestMCP(t)
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"content": "x"}
	result, err := srv.handleAddEvidence(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("add_evidence without a store should error")
	}

	req = mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"query": "x"}
	result, err = srv.handleSearchEvidence(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("search_evidence without a store should error")
	}
}
