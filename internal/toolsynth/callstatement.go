package toolsynth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/retry"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type callStatementOutput struct {
	Call     string `json:"call"`
	Analysis string `json:"analysis"`
}

// generateCallStatement emits a single-line name(arg=value, ...) expression
// strictly using the refined doc's parameter names. The expression must
// never contain the literal substring "http" (§4.7.3, §8).
func (s *Synthesizer) generateCallStatement(ctx context.Context, doc models.ToolDefinition, question string) (string, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	prompt, err := s.prompts.Render("call_statement_generation", map[string]string{
		"doc":      string(docJSON),
		"question": question,
	})
	if err != nil {
		return "", err
	}

	out, result := retry.DoWithValue(ctx, s.retryConfig(), func() (callStatementOutput, error) {
		resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
		if err != nil {
			return callStatementOutput{}, err
		}
		var o callStatementOutput
		p := parser.ParseInto(resp.Content, &o)
		if p.Err != nil {
			return callStatementOutput{}, p.Err
		}
		if o.Call == "" || o.Analysis == "" {
			return callStatementOutput{}, errors.New("toolsynth: call-statement response missing call or analysis")
		}
		if strings.Contains(o.Call, "http") {
			return callStatementOutput{}, errors.New("toolsynth: call statement must not contain \"http\"")
		}
		if !usesOnlyDeclaredParams(o.Call, doc) {
			return callStatementOutput{}, errors.New("toolsynth: call statement references an undeclared parameter")
		}
		return o, nil
	})
	if result.Err != nil {
		return "", result.Err
	}
	return out.Call, nil
}

// usesOnlyDeclaredParams is a best-effort guard: every required parameter
// name must appear as a keyword argument in the call expression.
func usesOnlyDeclaredParams(call string, doc models.ToolDefinition) bool {
	for _, required := range doc.Parameters.Required {
		if !strings.Contains(call, required+"=") {
			return false
		}
	}
	return true
}
