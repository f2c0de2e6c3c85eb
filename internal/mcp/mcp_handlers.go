package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abfolio/abfolio/core"
	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/internal/platform"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// newResolver wires the platform catalog, the shared metric cache and the
// optional durable store into a resolver for one tool call.
func (h *toolHandler) newResolver(client *platform.Client) *core.MetricResolver {
	cache := core.SharedMetricCache()
	if h.mgr != nil {
		if store := h.mgr.GetMetricStore(); store != nil {
			cache = cache.WithStore(store)
		}
	}
	return core.NewMetricResolver(client, cache)
}

func (h *toolHandler) handleGetExperimentStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("project", ""); p != "" {
		cfg.Project = p
	}
	if tag := request.GetString("tag", ""); tag != "" {
		cfg.Tag = tag
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	client := platform.NewClient(cfg)
	report, err := core.GetExperimentStatsResults(core.WithSuppressProgress(ctx), cfg, client, h.newResolver(client), h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("aggregation failed: %v", err)), nil
	}

	// Cap the card list the same way the CLI table does.
	if len(report.Stats.Experiments) > cfg.ResultLimit {
		report.Stats.Experiments = report.Stats.Experiments[:cfg.ResultLimit]
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetExperimentVerdict(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	experimentID := request.GetString("experiment_id", "")
	if experimentID == "" {
		return mcp.NewToolResultError("experiment_id is required"), nil
	}

	cfg := h.baseCfg.Clone()
	client := platform.NewClient(cfg)
	result, exp, err := core.GetExperimentVerdictResult(core.WithSuppressProgress(ctx), client, h.newResolver(client), experimentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("verdict computation failed: %v", err)), nil
	}

	view := map[string]any{
		"id":     exp.ID,
		"name":   exp.Name,
		"status": exp.Status,
		"result": result,
	}
	jsonData, _ := json.MarshalIndent(view, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleResolveMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := request.GetString("metric_ids", "")
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return mcp.NewToolResultError("metric_ids must contain at least one metric ID"), nil
	}

	cfg := h.baseCfg.Clone()
	client := platform.NewClient(cfg)
	resolved, err := h.newResolver(client).Resolve(core.WithSuppressProgress(ctx), ids)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("metric resolution failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(resolved, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
