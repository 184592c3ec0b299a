package decomp

import (
	"context"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type coverageAnalysis struct {
	CoveredRequirements  []string `json:"covered_requirements"`
	MissingRequirements  []string `json:"missing_requirements"`
}

type completenessOutput struct {
	MainQuestionRequirements []string         `json:"main_question_requirements"`
	CoverageAnalysis         coverageAnalysis `json:"coverage_analysis"`
	Score                    float64          `json:"score"`
}

// completenessOutcome asks whether the union of sub-questions covers every
// requirement of the main question (§4.6.4).
func (v *Verifier) completenessOutcome(ctx context.Context, trace models.DecompositionTrace) models.JudgeOutcome {
	votes := judge.Run(ctx, v.sems, "completeness_score", safeDefault, []judge.Func{
		func(ctx context.Context) (judge.Vote, error) { return v.judgeCompleteness(ctx, trace) },
	})
	v0 := votes[0]
	return models.JudgeOutcome{Score: v0.Score, IsSafeScore: v0.IsSafeDefault}
}

func (v *Verifier) judgeCompleteness(ctx context.Context, trace models.DecompositionTrace) (judge.Vote, error) {
	prompt, err := v.prompts.Render("completeness", map[string]string{
		"main_question": trace.MainQuestion,
		"trace":         renderTrace(trace),
	})
	if err != nil {
		return judge.Vote{}, err
	}

	resp, err := v.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return judge.Vote{}, err
	}

	var out completenessOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return judge.Vote{}, p.Err
	}

	return judge.Vote{Score: out.Score, Bool: out.Score >= 1}, nil
}
