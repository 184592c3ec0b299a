package toolsynth

import (
	"context"
	"errors"

	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/retry"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type docOutput struct {
	Tool     models.ToolDefinition `json:"tool"`
	Analysis string                `json:"analysis"`
}

// generateDoc prompts the model to propose a tool document matching the
// question, retrying up to innerRetry times on a malformed response (§4.7.1).
func (s *Synthesizer) generateDoc(ctx context.Context, question string) (models.ToolDefinition, error) {
	prompt, err := s.prompts.Render("tool_doc_generation", map[string]string{"question": question})
	if err != nil {
		return models.ToolDefinition{}, err
	}

	out, result := retry.DoWithValue(ctx, s.retryConfig(), func() (docOutput, error) {
		resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
		if err != nil {
			return docOutput{}, err
		}
		var o docOutput
		p := parser.ParseInto(resp.Content, &o)
		if p.Err != nil {
			return docOutput{}, p.Err
		}
		if o.Tool.Name == "" || o.Analysis == "" {
			return docOutput{}, errors.New("toolsynth: doc response missing tool or analysis")
		}
		return o, nil
	})
	if result.Err != nil {
		return models.ToolDefinition{}, result.Err
	}
	out.Tool.Analysis = out.Analysis
	return out.Tool, nil
}
