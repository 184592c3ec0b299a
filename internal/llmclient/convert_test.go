package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

func TestNormalizeOutbound_MergesConsecutiveFunctionCalls(t *testing.T) {
	in := []models.ChatMessage{
		{Role: models.RoleUser, Content: "do two things"},
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{Function: models.FunctionCall{Name: "a", Arguments: "{}"}}}},
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{Function: models.FunctionCall{Name: "b", Arguments: "{}"}}}},
		{Role: models.RoleTool, Name: "a", Content: "result a"},
		{Role: models.RoleTool, Name: "b", Content: "result b"},
	}

	out := normalizeOutbound(in)

	require := assert.New(t)
	require.Len(out, 4, "the two assistant function_call turns merge into one")
	require.Equal(models.RoleAssistant, out[1].Role)
	require.Len(out[1].ToolCalls, 2)
	require.NotEmpty(out[1].ToolCalls[0].ID)
	require.NotEqual(out[1].ToolCalls[0].ID, out[1].ToolCalls[1].ID)

	// Both tool results follow the merged turn and are back-filled with its
	// call IDs.
	require.Equal(models.RoleTool, out[2].Role)
	require.Equal(out[1].ToolCalls[0].ID, out[2].ToolCallID)
	require.Equal(models.RoleTool, out[3].Role)
	require.Equal(out[1].ToolCalls[1].ID, out[3].ToolCallID)
}

func TestNormalizeOutbound_BackfillsToolCallID(t *testing.T) {
	in := []models.ChatMessage{
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{Function: models.FunctionCall{Name: "search", Arguments: "{}"}}}},
		{Role: models.RoleTool, Name: "search", Content: "result"},
	}

	out := normalizeOutbound(in)

	assistantCall := out[0].ToolCalls[0]
	toolMsg := out[1]
	assert.Equal(t, assistantCall.ID, toolMsg.ToolCallID, "tool_call_id must resolve to the matching assistant call")
}

func TestNormalizeOutbound_LeavesAlreadyIDedCallsAlone(t *testing.T) {
	in := []models.ChatMessage{
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "call_1", Function: models.FunctionCall{Name: "x"}}}},
		{Role: models.RoleTool, ToolCallID: "call_1", Name: "x"},
	}

	out := normalizeOutbound(in)
	assert.Len(t, out, 2)
	assert.Equal(t, "call_1", out[0].ToolCalls[0].ID)
	assert.Equal(t, "call_1", out[1].ToolCallID)
}

func TestConvertTools_DefaultsEmptySchema(t *testing.T) {
	tools := []models.ToolDefinition{{Name: "noop", Description: "does nothing"}}
	out := convertTools(tools)
	assert.Len(t, out, 1)
	assert.Equal(t, "noop", out[0].Function.Name)
}

func TestConvertToolCallsOut_RoundTrips(t *testing.T) {
	in := []models.ToolCall{{ID: "1", Type: "function", Function: models.FunctionCall{Name: "f", Arguments: `{"a":1}`}}}
	oai := convertToolCallsIn(in)
	back := convertToolCallsOut(oai)
	assert.Equal(t, in, back)
}
