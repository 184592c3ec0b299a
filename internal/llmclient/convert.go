package llmclient

import (
	"encoding/json"
	"strconv"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

// normalizeOutbound merges consecutive assistant messages that each carry a
// single function_call into one assistant message with a tool_calls array,
// synthesizing a stable id per call, and back-fills tool_call_id on the
// following tool-role messages from the nearest preceding assistant call
// with a matching function name (§4.2 "Normalization for outbound
// messages").
func normalizeOutbound(messages []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(messages))
	pendingByName := make(map[string]string)

	for _, msg := range messages {
		if msg.Role == models.RoleAssistant && len(msg.ToolCalls) == 1 && msg.ToolCalls[0].ID == "" {
			call := msg.ToolCalls[0]
			call.ID = syntheticCallID(len(out), call.Function.Name)
			call.Type = "function"
			pendingByName[call.Function.Name] = call.ID

			if len(out) > 0 {
				last := &out[len(out)-1]
				if last.Role == models.RoleAssistant && last.Content == "" {
					last.ToolCalls = append(last.ToolCalls, call)
					continue
				}
			}
			msg.ToolCalls = []models.ToolCall{call}
			out = append(out, msg)
			continue
		}

		if msg.Role == models.RoleTool && msg.ToolCallID == "" {
			if id, ok := pendingByName[msg.Name]; ok {
				msg.ToolCallID = id
			}
		}

		out = append(out, msg)
	}

	return out
}

func syntheticCallID(seq int, name string) string {
	return "call_" + name + "_" + strconv.Itoa(seq)
}

func convertMessages(messages []models.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}

		switch msg.Role {
		case models.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				oaiMsg.ToolCalls = convertToolCallsIn(msg.ToolCalls)
			}
		case models.RoleTool:
			oaiMsg.ToolCallID = msg.ToolCallID
			oaiMsg.Role = openai.ChatMessageRoleTool
		}

		out = append(out, oaiMsg)
	}
	return out
}

func convertToolCallsIn(calls []models.ToolCall) []openai.ToolCall {
	out := make([]openai.ToolCall, len(calls))
	for i, tc := range calls {
		out[i] = openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
	}
	return out
}

func convertToolCallsOut(calls []openai.ToolCall) []models.ToolCall {
	out := make([]models.ToolCall, len(calls))
	for i, tc := range calls {
		out[i] = models.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: models.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
	}
	return out
}

func convertTools(tools []models.ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		var schemaMap map[string]any
		if raw, err := json.Marshal(t.Parameters); err == nil {
			_ = json.Unmarshal(raw, &schemaMap)
		}
		if schemaMap == nil {
			schemaMap = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schemaMap,
			},
		}
	}
	return out
}

func reasoningOf(msg openai.ChatCompletionMessage) string {
	return msg.ReasoningContent
}

func reasoningDeltaOf(delta openai.ChatCompletionStreamChoiceDelta) string {
	return delta.ReasoningContent
}
