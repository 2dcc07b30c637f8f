package mcp

import "github.com/mark3labs/mcp-go/mcp"

// respondTool defines the respond MCP tool.
var respondTool = mcp.NewTool("respond",
	mcp.WithDescription("Run a request through the oversight pipeline. The pipeline classifies the request, scores ambiguity and risk, drafts an answer, gates it on quality, and either emits it, asks clarifying questions, or stops."),
	mcp.WithString("task",
		mcp.Required(),
		mcp.Description("What the user wants done"),
	),
	mcp.WithString("context",
		mcp.Description("Background the task should be read against"),
	),
	mcp.WithString("session_id",
		mcp.Description("Session to continue; omit to start a new one"),
	),
	mcp.WithString("risk_tolerance",
		mcp.Description("How much risk the caller accepts (default medium)"),
		mcp.Enum("low", "medium", "high"),
	),
)

// sessionStateTool defines the session_state MCP tool.
var sessionStateTool = mcp.NewTool("session_state",
	mcp.WithDescription("Inspect a session: fallback level, adaptive ambiguity threshold, open decisions, and any turn suspended on clarification."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session to inspect"),
	),
)

// addEvidenceTool defines the add_evidence MCP tool.
var addEvidenceTool = mcp.NewTool("add_evidence",
	mcp.WithDescription("Add a piece of evidence to the retrieval store. Evidence is screened for prompt injection before it is accepted."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("The evidence text"),
	),
	mcp.WithString("source",
		mcp.Description("Where the evidence came from"),
	),
	mcp.WithNumber("tier",
		mcp.Description("Source tier: 1 verified, 2 reputable, 3 unverified (default 3)"),
	),
	mcp.WithString("topic",
		mcp.Description("Topic label for filtered search"),
	),
)

// searchEvidenceTool defines the search_evidence MCP tool.
var searchEvidenceTool = mcp.NewTool("search_evidence",
	mcp.WithDescription("Search the evidence store semantically. Results from unverified tiers carry caveats."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
	mcp.WithNumber("max_tier",
		mcp.Description("Only return evidence at this tier or better"),
	),
)
