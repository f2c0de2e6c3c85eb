// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/abfolio/abfolio/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the abfolio MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Experiment Portfolio Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_experiment_stats ---
	s.AddTool(mcp.NewTool("get_experiment_stats",
		mcp.WithDescription("Aggregate all ended experiments into portfolio statistics: verdicts, win rates, lifts, health checks and breakdowns."),
		mcp.WithString("project", mcp.Description("Restrict the analysis to one project.")),
		mcp.WithString("tag", mcp.Description("Restrict the analysis to experiments carrying this tag.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of experiment cards returned.")),
	), h.handleGetExperimentStats)

	// --- 2. Tool: get_experiment_verdict ---
	s.AddTool(mcp.NewTool("get_experiment_verdict",
		mcp.WithDescription("Compute the verdict, primary-metric lift and health checks for a single experiment."),
		mcp.WithString("experiment_id", mcp.Description("The platform ID of the experiment."), mcp.Required()),
	), h.handleGetExperimentVerdict)

	// --- 3. Tool: resolve_metrics ---
	s.AddTool(mcp.NewTool("resolve_metrics",
		mcp.WithDescription("Resolve metric IDs to their metadata (name, inverse flag, type) across the legacy and fact metric catalogs."),
		mcp.WithString("metric_ids", mcp.Description("Comma-separated list of metric IDs to resolve."), mcp.Required()),
	), h.handleResolveMetrics)

	return s
}

// StartMCPServer starts the abfolio MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
