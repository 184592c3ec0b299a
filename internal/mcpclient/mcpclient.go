// Package mcpclient implements the Agent Runner's (C11) tool transport: a
// real MCP streamable-HTTP client (aistudio headers-mode or Smithery
// URL-signed-config-mode) and a mock tool provider that role-plays tool
// execution through the LLM itself. Grounded on internal/mcp/transport_http.go
// (streamable-HTTP call shape) and internal/mcp/manager.go (server lifecycle),
// re-targeted at the per-task MCPInfo catalogs described in §4.11 instead of
// the teacher's static server registry.
package mcpclient

import (
	"context"

	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// Deps bundles the collaborators the mock tool provider needs; the real
// HTTP transport needs none of these, since its catalog and auth live
// entirely inside MCPInfo.
type Deps struct {
	LLMClient *llmclient.Client
	Prompts   *promptstore.Store
}

// Client executes tool calls against one MCP group, whatever the underlying
// transport (real streamable-HTTP or a mock role-play provider).
type Client interface {
	// ListTools returns the group's tool catalog as OpenAI-compatible tool
	// definitions.
	ListTools(ctx context.Context) ([]models.ToolDefinition, error)
	// CallTools invokes one or more calls from the same assistant turn,
	// returning one result per call in input order. Parallel calls are
	// batched into a single request so the mock provider can roleplay them
	// together (§4.11.1); the real transport just dispatches each in turn.
	CallTools(ctx context.Context, calls []models.ToolCall) ([]string, error)
	// Close releases any transport resources. Both current transports hold
	// no persistent session, so for them it is a no-op.
	Close() error
}

// New selects the transport implied by info.CallInfo.ModeOf() (§4.11
// "assemble a streamable-http MCP client config... or build a mock tool
// binding"). query is the task's user query, threaded into the mock
// provider's prompt when non-empty (§4.11.1); the real transport ignores it.
func New(ctx context.Context, info models.MCPInfo, deps Deps, query string) (Client, error) {
	switch info.CallInfo.ModeOf() {
	case models.CallModeMock:
		return NewMockClient(deps.LLMClient, deps.Prompts, info.BaseInfo.ToolList, info.BaseInfo.GroupInfo, query), nil
	case models.CallModeAIStudio, models.CallModeSmithery:
		return NewHTTPClient(info)
	default:
		return NewMockClient(deps.LLMClient, deps.Prompts, info.BaseInfo.ToolList, info.BaseInfo.GroupInfo, query), nil
	}
}

func mcpToolsToDefinitions(tools []models.MCPToolSpec) []models.ToolDefinition {
	out := make([]models.ToolDefinition, len(tools))
	for i, t := range tools {
		out[i] = models.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		}
	}
	return out
}
