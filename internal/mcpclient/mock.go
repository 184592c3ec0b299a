package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// maxHistoryPairs bounds how many prior (function_call, observation) pairs
// are carried into the mock prompt for consistency (§4.11.1 "up to the last
// 5 prior (function_call, observation) pairs").
const maxHistoryPairs = 5

// callObservation is one prior invocation/result pair kept for roleplay
// consistency, matching original_source's history[-5:] convention.
type callObservation struct {
	Name      string `json:"function_call_name"`
	Arguments string `json:"function_call_arguments"`
	Result    string `json:"observation"`
}

// mockToolResult is one element of the model's documented [{name, results}]
// return shape.
type mockToolResult struct {
	Name    string `json:"name"`
	Results string `json:"results"`
}

// MockClient simulates tool execution by asking the LLM to role-play the
// tools of one MCP group, for MCPInfo records whose call_info.mock_tool is
// true (§4.11.1). Grounded on internal/agent/tool_exec.go's dispatch shape
// — here the "real executor" call is swapped for an llmclient.Client call
// that is told which tools it is impersonating. One MockClient is scoped to
// a single task (constructed fresh per mcpclient.New call), so its history
// field naturally tracks only that task's prior calls.
type MockClient struct {
	client    *llmclient.Client
	prompts   *promptstore.Store
	tools     []models.MCPToolSpec
	groupInfo models.GroupInfo
	query     string
	history   []callObservation
}

// NewMockClient builds a MockClient over the given tool catalog, server
// description, and (optionally) the user query driving this task.
func NewMockClient(client *llmclient.Client, prompts *promptstore.Store, tools []models.MCPToolSpec, groupInfo models.GroupInfo, query string) *MockClient {
	return &MockClient{client: client, prompts: prompts, tools: tools, groupInfo: groupInfo, query: query}
}

// ListTools returns the mock catalog as OpenAI-compatible tool definitions.
func (m *MockClient) ListTools(ctx context.Context) ([]models.ToolDefinition, error) {
	return mcpToolsToDefinitions(m.tools), nil
}

// CallTools asks the LLM to role-play every call in the batch in a single
// request, carrying the tool definitions, server description, optional user
// query, and up to the last 5 prior (function_call, observation) pairs for
// consistency. The model must return a JSON list [{name, results}] for the
// batch, which is parsed and matched back to calls by tool name, falling
// back to position for calls no name matched (§4.11.1).
func (m *MockClient) CallTools(ctx context.Context, calls []models.ToolCall) ([]string, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	toolDefsJSON, err := json.Marshal(mcpToolsToDefinitions(m.tools))
	if err != nil {
		return nil, err
	}

	invocations := make([]map[string]string, len(calls))
	for i, call := range calls {
		invocations[i] = map[string]string{"name": call.Function.Name, "arguments": call.Function.Arguments}
	}
	invocationsJSON, err := json.Marshal(invocations)
	if err != nil {
		return nil, err
	}

	historyJSON, err := json.Marshal(m.recentHistory())
	if err != nil {
		return nil, err
	}

	prompt, err := m.prompts.Render("mock_tool_roleplay", map[string]string{
		"tool_defs":          string(toolDefsJSON),
		"tool_calls":         string(invocationsJSON),
		"server_description": m.groupInfo.ServerName + ": " + m.groupInfo.ServerDescription,
		"history":            string(historyJSON),
		"query":              m.query,
	})
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return nil, err
	}

	var parsed []mockToolResult
	if p := parser.ParseInto(resp.Content, &parsed); p.Err != nil {
		return nil, p.Err
	}

	results := matchResults(calls, parsed)
	for i, call := range calls {
		m.history = append(m.history, callObservation{Name: call.Function.Name, Arguments: call.Function.Arguments, Result: results[i]})
	}
	if len(m.history) > maxHistoryPairs {
		m.history = m.history[len(m.history)-maxHistoryPairs:]
	}
	return results, nil
}

// recentHistory returns the last maxHistoryPairs entries, oldest first.
func (m *MockClient) recentHistory() []callObservation {
	if len(m.history) <= maxHistoryPairs {
		return m.history
	}
	return m.history[len(m.history)-maxHistoryPairs:]
}

// matchResults pairs each call with its simulated result by name first
// (consuming each parsed entry at most once), falling back to positional
// matching when names don't line up — the model is asked for an
// order-matching list but is not guaranteed to echo names verbatim.
func matchResults(calls []models.ToolCall, parsed []mockToolResult) []string {
	results := make([]string, len(calls))
	used := make([]bool, len(parsed))

	for i, call := range calls {
		for j, p := range parsed {
			if !used[j] && p.Name == call.Function.Name {
				results[i] = p.Results
				used[j] = true
				break
			}
		}
	}
	for i := range calls {
		if results[i] != "" {
			continue
		}
		if i < len(parsed) && !used[i] {
			results[i] = parsed[i].Results
			used[i] = true
		} else {
			results[i] = fmt.Sprintf("[ERROR: no mock result returned for %q]", calls[i].Function.Name)
		}
	}
	return results
}

// Close is a no-op: the mock provider has no transport session.
func (m *MockClient) Close() error {
	return nil
}
