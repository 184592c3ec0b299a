package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

func TestDominantLanguage(t *testing.T) {
	assert.Equal(t, "zh", dominantLanguage("这是一段完全中文的问题"))
	assert.Equal(t, "en", dominantLanguage("this is a fully english question about things"))
	assert.Equal(t, "", dominantLanguage("123 !!! ???"))
}

func TestLanguagesConsistent(t *testing.T) {
	assert.True(t, languagesConsistent("what is the weather", "it is sunny today in the city"))
	assert.False(t, languagesConsistent("what is the weather today", "今天天气晴朗适合出门散步"))
	assert.True(t, languagesConsistent("123", "456"))
}

func TestExtractURLs(t *testing.T) {
	urls := extractURLs("see https://example.com/a and also http://foo.bar/baz for details")
	assert.Equal(t, []string{"https://example.com/a", "http://foo.bar/baz"}, urls)
}

func TestUrlsGroundedInTrajectory(t *testing.T) {
	assert.True(t, urlsGroundedInTrajectory("no urls here", "irrelevant text"))
	assert.True(t, urlsGroundedInTrajectory("see https://a.com", "tool result mentioned https://a.com earlier"))
	assert.False(t, urlsGroundedInTrajectory("see https://missing.com", "tool result mentioned https://a.com earlier"))
}

func toolCallMsg(id, name, args string) models.ChatMessage {
	return models.ChatMessage{
		Role: models.RoleAssistant,
		ToolCalls: []models.ToolCall{
			{ID: id, Type: "function", Function: models.FunctionCall{Name: name, Arguments: args}},
		},
	}
}

func toolResultMsg(id, content string) models.ChatMessage {
	return models.ChatMessage{Role: models.RoleTool, ToolCallID: id, Content: content}
}

func TestCollectToolCalls_PairsCallWithResult(t *testing.T) {
	traj := models.Trajectory{Messages: []models.ChatMessage{
		{Role: models.RoleUser, Content: "q"},
		toolCallMsg("c1", "search", `{"q":"x"}`),
		toolResultMsg("c1", "result text"),
		{Role: models.RoleAssistant, Content: "done"},
	}}

	entries := collectToolCalls(traj)
	assert.Len(t, entries, 1)
	assert.Equal(t, "search", entries[0].Name)
	assert.Equal(t, "result text", entries[0].Result)
}

func TestFinalAnswer_ReturnsLastAssistantMessageWithoutToolCalls(t *testing.T) {
	traj := models.Trajectory{Messages: []models.ChatMessage{
		{Role: models.RoleUser, Content: "q"},
		toolCallMsg("c1", "search", `{}`),
		toolResultMsg("c1", "r"),
		{Role: models.RoleAssistant, Content: "final answer"},
	}}
	assert.Equal(t, "final answer", finalAnswer(traj))
}

func TestFirstAssistantTurn(t *testing.T) {
	traj := models.Trajectory{Messages: []models.ChatMessage{
		{Role: models.RoleUser, Content: "q"},
		{Role: models.RoleAssistant, Content: "first"},
		{Role: models.RoleAssistant, Content: "second"},
	}}
	first := firstAssistantTurn(traj)
	if assert.NotNil(t, first) {
		assert.Equal(t, "first", first.Content)
	}

	empty := firstAssistantTurn(models.Trajectory{})
	assert.Nil(t, empty)
}

func TestIntermediatePlanPoints_OnlyAtToolFollowedByToolCallAssistant(t *testing.T) {
	traj := models.Trajectory{Messages: []models.ChatMessage{
		{Role: models.RoleUser, Content: "q"},
		toolCallMsg("c1", "search", `{}`), // initial plan, index 1 — not preceded by a tool message
		toolResultMsg("c1", "r1"),
		toolCallMsg("c2", "search2", `{}`), // re-plan point: preceded by tool message
		toolResultMsg("c2", "r2"),
		{Role: models.RoleAssistant, Content: "final"}, // no tool calls, not a plan point
	}}

	points := intermediatePlanPoints(traj)
	assert.Len(t, points, 1)
	assert.Equal(t, "search2", points[0].planMessage.ToolCalls[0].Function.Name)
}

func TestClampPlanScore(t *testing.T) {
	assert.Equal(t, 0.0, clampPlanScore(0.1, 1))
	assert.Equal(t, 1.0, clampPlanScore(0.9, 1))
	assert.Equal(t, 0.0, clampPlanScore(0.1, 2))
	assert.Equal(t, 0.5, clampPlanScore(0.4, 2))
	assert.Equal(t, 1.0, clampPlanScore(0.9, 2))
}

func TestIsRedundantRepetition(t *testing.T) {
	batch := toolReturnBatch{
		callingMessage: toolCallMsg("c1", "search", `{"q":"x"}`),
		following:      &models.ChatMessage{ToolCalls: toolCallMsg("c2", "search", `{"q":"x"}`).ToolCalls},
	}
	assert.True(t, isRedundantRepetition(batch))

	changed := toolReturnBatch{
		callingMessage: toolCallMsg("c1", "search", `{"q":"x"}`),
		following:      &models.ChatMessage{ToolCalls: toolCallMsg("c2", "search", `{"q":"y"}`).ToolCalls},
	}
	assert.False(t, isRedundantRepetition(changed))

	noFollowing := toolReturnBatch{callingMessage: toolCallMsg("c1", "search", `{}`)}
	assert.False(t, isRedundantRepetition(noFollowing))
}

func TestToolReturnBatches_ExcludesFinalBatch(t *testing.T) {
	traj := models.Trajectory{Messages: []models.ChatMessage{
		{Role: models.RoleUser, Content: "q"},
		toolCallMsg("c1", "search", `{}`),
		toolResultMsg("c1", "r1"),
		toolCallMsg("c2", "search", `{}`),
		toolResultMsg("c2", "r2"),
		{Role: models.RoleAssistant, Content: "final"},
	}}

	batches := toolReturnBatches(traj)
	assert.Len(t, batches, 1)
	assert.Equal(t, "r1", batches[0].toolMessages[0].Content)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.5, mean([]float64{0, 1}))
	assert.Equal(t, 0.0, mean(nil))
}
