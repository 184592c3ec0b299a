package decomp

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type dependencyJudgeOutput struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// dependencyJudges builds one judge.Func per dependent step — every
// sub-question with a non-empty dependency list gets its own vote, scored
// 0/1 on whether every cited upstream step is needed (no missing, no
// redundant) (§4.6.1).
func (v *Verifier) dependencyJudges(trace models.DecompositionTrace) []judge.Func {
	var funcs []judge.Func
	for _, step := range trace.Steps {
		deps := step.NormalizedDependency()
		if len(deps) == 0 {
			continue
		}
		step := step
		funcs = append(funcs, func(ctx context.Context) (judge.Vote, error) {
			return v.judgeDependency(ctx, trace, step, deps)
		})
	}
	if len(funcs) == 0 {
		// No dependent steps: the invariant holds vacuously.
		funcs = append(funcs, func(context.Context) (judge.Vote, error) {
			return judge.Vote{Score: 1.0, Bool: true}, nil
		})
	}
	return funcs
}

func (v *Verifier) judgeDependency(ctx context.Context, trace models.DecompositionTrace, step models.DecompositionStep, deps []string) (judge.Vote, error) {
	var upstream strings.Builder
	for _, dep := range deps {
		if s, ok := trace.StepByUUID(dep); ok {
			fmt.Fprintf(&upstream, "- %s => %s\n", s.SubQuestion, s.SubAnswer)
		}
	}

	prompt, err := v.prompts.Render("dependency_necessity", map[string]string{
		"sub_question": step.SubQuestion,
		"upstream":     upstream.String(),
	})
	if err != nil {
		return judge.Vote{}, err
	}

	resp, err := v.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return judge.Vote{}, err
	}

	var out dependencyJudgeOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return judge.Vote{}, p.Err
	}

	return judge.Vote{Score: out.Score, Bool: out.Score >= 1}, nil
}
