package agentrun

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

type stubToolClient struct {
	listed []models.ToolDefinition
	err    error
	called *bool
}

func (s stubToolClient) ListTools(ctx context.Context) ([]models.ToolDefinition, error) {
	return s.listed, s.err
}
func (s stubToolClient) CallTools(ctx context.Context, calls []models.ToolCall) ([]string, error) {
	if s.called != nil {
		*s.called = true
	}
	out := make([]string, len(calls))
	for i := range calls {
		out[i] = "ok"
	}
	return out, nil
}
func (s stubToolClient) Close() error { return nil }

func TestConfig_SanitizedDefaultsMaxIterations(t *testing.T) {
	cfg := Config{}.sanitized()
	assert.Equal(t, 10, cfg.MaxIterations)
}

func TestConfig_SanitizedKeepsExplicitValue(t *testing.T) {
	cfg := Config{MaxIterations: 3}.sanitized()
	assert.Equal(t, 3, cfg.MaxIterations)
}

func TestErrorMessage_FormatsAsBracketedError(t *testing.T) {
	msg := errorMessage(errors.New("boom"))
	assert.Equal(t, models.RoleAssistant, msg.Role)
	assert.Equal(t, "[ERROR: boom]", msg.Content)
}

func TestMcpToolDefsOrListed_PrefersListedWhenNonEmpty(t *testing.T) {
	client := stubToolClient{listed: []models.ToolDefinition{{Name: "listed_tool"}}}
	fallback := []models.MCPToolSpec{{Name: "fallback_tool"}}

	defs := mcpToolDefsOrListed(context.Background(), client, fallback)

	assert.Len(t, defs, 1)
	assert.Equal(t, "listed_tool", defs[0].Name)
}

func TestMcpToolDefsOrListed_FallsBackOnEmptyOrError(t *testing.T) {
	fallback := []models.MCPToolSpec{{Name: "fallback_tool", Description: "does a thing"}}

	client := stubToolClient{}
	defs := mcpToolDefsOrListed(context.Background(), client, fallback)
	assert.Len(t, defs, 1)
	assert.Equal(t, "fallback_tool", defs[0].Name)

	erroring := stubToolClient{err: errors.New("unreachable")}
	defs = mcpToolDefsOrListed(context.Background(), erroring, fallback)
	assert.Len(t, defs, 1)
	assert.Equal(t, "fallback_tool", defs[0].Name)
}

func TestQuestionOf_PrefersAugmentedQuestionWhenPresent(t *testing.T) {
	qi := models.QueryInfo{
		GeneratedQuestion:  "original",
		AugmentedQueryInfo: &models.AugmentedQueryInfo{Mode: "diverse", AugmentedQuestion: "augmented"},
	}
	assert.Equal(t, "augmented", questionOf(qi))
}

func TestQuestionOf_FallsBackToGeneratedQuestion(t *testing.T) {
	qi := models.QueryInfo{GeneratedQuestion: "original"}
	assert.Equal(t, "original", questionOf(qi))

	qi.AugmentedQueryInfo = &models.AugmentedQueryInfo{}
	assert.Equal(t, "original", questionOf(qi))
}

func TestToolDefByName(t *testing.T) {
	defs := []models.ToolDefinition{{Name: "search"}, {Name: "fetch"}}

	def, ok := toolDefByName(defs, "fetch")
	assert.True(t, ok)
	assert.Equal(t, "fetch", def.Name)

	_, ok = toolDefByName(defs, "missing")
	assert.False(t, ok)
}

func TestResult_RecordKeyDelegatesToQueryRecord(t *testing.T) {
	rec := models.QueryRecord{
		QueryInfo: models.QueryInfo{GeneratedQuestion: "q"},
		MCPInfo:   models.MCPInfo{BaseInfo: models.BaseInfo{GroupInfo: models.GroupInfo{GroupID: "g1"}}},
	}
	result := Result{QueryRecord: rec}
	assert.Equal(t, rec.RecordKey(), result.RecordKey())
}
