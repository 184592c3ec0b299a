package mcpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

func toolCall(name string) models.ToolCall {
	return models.ToolCall{ID: name + "-id", Function: models.FunctionCall{Name: name}}
}

func TestMatchResults_MatchesByName(t *testing.T) {
	calls := []models.ToolCall{toolCall("search"), toolCall("fetch")}
	parsed := []mockToolResult{{Name: "fetch", Results: "fetch result"}, {Name: "search", Results: "search result"}}

	results := matchResults(calls, parsed)

	assert.Equal(t, []string{"search result", "fetch result"}, results)
}

func TestMatchResults_FallsBackPositionallyWhenNamesDontMatch(t *testing.T) {
	calls := []models.ToolCall{toolCall("search"), toolCall("fetch")}
	parsed := []mockToolResult{{Name: "", Results: "first"}, {Name: "", Results: "second"}}

	results := matchResults(calls, parsed)

	assert.Equal(t, []string{"first", "second"}, results)
}

func TestMatchResults_ErrorsWhenFewerResultsThanCalls(t *testing.T) {
	calls := []models.ToolCall{toolCall("search"), toolCall("fetch")}
	parsed := []mockToolResult{{Name: "search", Results: "search result"}}

	results := matchResults(calls, parsed)

	assert.Equal(t, "search result", results[0])
	assert.Contains(t, results[1], "ERROR")
}

func TestMockClient_RecentHistory_BoundsToLast5(t *testing.T) {
	m := &MockClient{}
	for i := 0; i < 8; i++ {
		m.history = append(m.history, callObservation{Name: "tool"})
	}

	recent := m.recentHistory()

	assert.Len(t, recent, maxHistoryPairs)
}

func TestMockClient_RecentHistory_ReturnsAllWhenUnderLimit(t *testing.T) {
	m := &MockClient{history: []callObservation{{Name: "tool"}}}

	assert.Len(t, m.recentHistory(), 1)
}
