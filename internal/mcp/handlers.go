package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/turnguard/internal/pipeline"
	"github.com/ziadkadry99/turnguard/internal/retrieval"
	"github.com/ziadkadry99/turnguard/internal/schema"
	"github.com/ziadkadry99/turnguard/internal/session"
)

// handleRespond runs one turn through the pipeline.
func (s *Server) handleRespond(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := request.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task"), nil
	}

	req := &schema.UserRequest{
		Task:          task,
		Context:       request.GetString("context", ""),
		SessionID:     request.GetString("session_id", ""),
		RiskTolerance: schema.RiskTolerance(request.GetString("risk_tolerance", "")),
	}

	res, err := s.engine.Respond(ctx, req, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("turn failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatResult(res)), nil
}

// handleSessionState reports the persisted state of a session.
func (s *Server) handleSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no session %q", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("loading session: %v", err)), nil
	}

	return mcp.NewToolResultText(formatSession(sess)), nil
}

// handleAddEvidence screens and stores one evidence item.
func (s *Server) handleAddEvidence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.evidence == nil {
		return mcp.NewToolResultError("evidence store not configured"), nil
	}

	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	item := retrieval.Evidence{
		Content: content,
		Source:  request.GetString("source", ""),
		Tier:    retrieval.SourceTier(request.GetInt("tier", int(retrieval.TierUnverified))),
		Topic:   request.GetString("topic", ""),
	}

	accepted, err := s.evidence.Add(ctx, []retrieval.Evidence{item})
	if err != nil {
		if errors.Is(err, retrieval.ErrQuarantined) {
			return mcp.NewToolResultError("evidence quarantined: injection patterns detected"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("storing evidence: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Stored evidence %s (tier %d).", accepted[0].ID, accepted[0].Tier)), nil
}

// handleSearchEvidence performs semantic search over the evidence store.
func (s *Server) handleSearchEvidence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.evidence == nil {
		return mcp.NewToolResultError("evidence store not configured"), nil
	}

	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	var filter *retrieval.Filter
	if maxTier := request.GetInt("max_tier", 0); maxTier > 0 {
		filter = &retrieval.Filter{MaxTier: retrieval.SourceTier(maxTier)}
	}

	results, err := s.evidence.Search(ctx, query, limit, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No evidence found. Add evidence with the add_evidence tool."), nil
	}

	return mcp.NewToolResultText(formatEvidence(results)), nil
}

// formatResult renders a turn result as text for agent consumption.
func formatResult(res *pipeline.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Outcome: %s\n", res.Outcome)
	fmt.Fprintf(&sb, "Session: %s\n", res.SessionID)
	fmt.Fprintf(&sb, "Mode: %s\n", res.Mode)
	if res.Quality != nil {
		fmt.Fprintf(&sb, "Quality: %.2f\n", res.Quality.Overall)
	}
	fmt.Fprintf(&sb, "Fallback level: %d\n", res.Fallback.Level)

	if res.Response != nil {
		sb.WriteString("\n")
		sb.WriteString(res.Response.Answer)
		sb.WriteString("\n")

		if len(res.Response.Questions) > 0 {
			sb.WriteString("\nQuestions:\n")
			for _, q := range res.Response.Questions {
				fmt.Fprintf(&sb, "- %s\n", q)
			}
		}
		if len(res.Response.Assumptions) > 0 {
			sb.WriteString("\nAssumptions:\n")
			for _, a := range res.Response.Assumptions {
				fmt.Fprintf(&sb, "- %s\n", a)
			}
		}
		if len(res.Response.Caveats) > 0 {
			sb.WriteString("\nCaveats:\n")
			for _, c := range res.Response.Caveats {
				fmt.Fprintf(&sb, "- %s\n", c)
			}
		}
	}
	return sb.String()
}

// formatSession renders session state as text.
func formatSession(sess *session.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session: %s\n", sess.ID)
	fmt.Fprintf(&sb, "Fallback level: %d\n", sess.FallbackLevel)
	fmt.Fprintf(&sb, "Consecutive failed checks: %d\n", sess.ConsecutiveFailedChecks)
	fmt.Fprintf(&sb, "Ambiguity threshold: %.2f\n", sess.AmbiguityThreshold)

	if sess.Suspended != nil {
		fmt.Fprintf(&sb, "Suspended since %s, waiting on:\n", sess.Suspended.ParkedAt.Format("2006-01-02 15:04:05"))
		for _, q := range sess.Suspended.Questions {
			fmt.Fprintf(&sb, "- %s\n", q)
		}
	}
	if len(sess.OpenDecisions) > 0 {
		sb.WriteString("Open decisions:\n")
		for _, d := range sess.OpenDecisions {
			fmt.Fprintf(&sb, "- %s\n", d)
		}
	}
	if len(sess.CarriedAssumptions) > 0 {
		sb.WriteString("Carried assumptions:\n")
		for _, a := range sess.CarriedAssumptions {
			fmt.Fprintf(&sb, "- %s\n", a)
		}
	}
	return sb.String()
}

// formatEvidence renders search results as text.
func formatEvidence(results []retrieval.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		if r.Evidence.Source != "" {
			fmt.Fprintf(&sb, "Source: %s (tier %d)\n", r.Evidence.Source, r.Evidence.Tier)
		} else {
			fmt.Fprintf(&sb, "Tier: %d\n", r.Evidence.Tier)
		}
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n", r.Similarity*100)
		if r.Caveat != "" {
			fmt.Fprintf(&sb, "Caveat: %s\n", r.Caveat)
		}
		sb.WriteString("\n")
		sb.WriteString(r.Evidence.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
