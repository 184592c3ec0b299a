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

type implementationOutput struct {
	Code     string `json:"code"`
	Analysis string `json:"analysis"`
}

// generateImplementation synthesizes the function body using only
// built-in facilities of a general-purpose language, defensive validation
// of its arguments, and mock data chosen so the documented test cases
// return the expected answer (§4.7.4). The function name and parameter
// names must match doc exactly.
func (s *Synthesizer) generateImplementation(ctx context.Context, doc models.ToolDefinition) (string, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	prompt, err := s.prompts.Render("implementation_deployment", map[string]string{"doc": string(docJSON)})
	if err != nil {
		return "", err
	}

	out, result := retry.DoWithValue(ctx, s.retryConfig(), func() (implementationOutput, error) {
		resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
		if err != nil {
			return implementationOutput{}, err
		}
		var o implementationOutput
		p := parser.ParseInto(resp.Content, &o)
		if p.Err != nil {
			return implementationOutput{}, p.Err
		}
		if o.Code == "" {
			return implementationOutput{}, errors.New("toolsynth: implementation response missing code")
		}
		if !strings.Contains(o.Code, "def "+doc.Name+"(") {
			return implementationOutput{}, errors.New("toolsynth: implementation does not define the documented function name")
		}
		return o, nil
	})
	if result.Err != nil {
		return "", result.Err
	}
	return out.Code, nil
}
