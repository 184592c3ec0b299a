package toolsynth

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/retry"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type complexityOutput struct {
	RefinedVersion models.ToolDefinition `json:"refined_version"`
	Analysis       string                `json:"analysis"`
}

// scaleComplexity rewrites doc into a richer schema while preserving
// backward compatibility — every original parameter must still be present
// and required parameters must remain required (§4.7.2).
func (s *Synthesizer) scaleComplexity(ctx context.Context, doc models.ToolDefinition) (models.ToolDefinition, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return models.ToolDefinition{}, err
	}

	prompt, err := s.prompts.Render("complexity_scaling", map[string]string{"doc": string(docJSON)})
	if err != nil {
		return models.ToolDefinition{}, err
	}

	out, result := retry.DoWithValue(ctx, s.retryConfig(), func() (complexityOutput, error) {
		resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
		if err != nil {
			return complexityOutput{}, err
		}
		var o complexityOutput
		p := parser.ParseInto(resp.Content, &o)
		if p.Err != nil {
			return complexityOutput{}, p.Err
		}
		if o.RefinedVersion.Name == "" || o.Analysis == "" {
			return complexityOutput{}, errors.New("toolsynth: complexity response missing refined_version or analysis")
		}
		if !backwardCompatible(doc, o.RefinedVersion) {
			return complexityOutput{}, errors.New("toolsynth: refined doc drops an original parameter or required flag")
		}
		return o, nil
	})
	if result.Err != nil {
		return models.ToolDefinition{}, result.Err
	}
	return out.RefinedVersion, nil
}

// backwardCompatible checks that every parameter in original still appears
// in refined and that every parameter original requires is still required
// (§4.7.2 "preserving backward compatibility").
func backwardCompatible(original, refined models.ToolDefinition) bool {
	for name := range original.Parameters.Properties {
		if _, ok := refined.Parameters.Properties[name]; !ok {
			return false
		}
	}
	stillRequired := make(map[string]bool, len(refined.Parameters.Required))
	for _, name := range refined.Parameters.Required {
		stillRequired[name] = true
	}
	for _, name := range original.Parameters.Required {
		if !stillRequired[name] {
			return false
		}
	}
	return true
}
