package decomp

import (
	"context"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type forcedSerializationOutput struct {
	Score             float64  `json:"score"`
	ProblematicSteps  []string `json:"problematic_steps"`
	Reasoning         string   `json:"reasoning"`
}

// forcedSerializationOutcome identifies steps placed in later hops despite
// being independent of prior results; every step in problematic_steps scores
// 0, every other step scores 1, aggregated by mean (§4.6.3).
func (v *Verifier) forcedSerializationOutcome(ctx context.Context, trace models.DecompositionTrace) models.JudgeOutcome {
	votes := judge.Run(ctx, v.sems, "forced_serialization_score", safeDefault, []judge.Func{
		func(ctx context.Context) (judge.Vote, error) { return v.judgeForcedSerialization(ctx, trace) },
	})
	v0 := votes[0]
	return models.JudgeOutcome{Score: v0.Score, IsSafeScore: v0.IsSafeDefault}
}

func (v *Verifier) judgeForcedSerialization(ctx context.Context, trace models.DecompositionTrace) (judge.Vote, error) {
	prompt, err := v.prompts.Render("forced_serialization", map[string]string{
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

	var out forcedSerializationOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return judge.Vote{}, p.Err
	}

	if len(trace.Steps) == 0 {
		return judge.Vote{Score: 1.0, Bool: true}, nil
	}

	problematic := make(map[string]bool, len(out.ProblematicSteps))
	for _, id := range out.ProblematicSteps {
		problematic[id] = true
	}

	var sum float64
	for _, step := range trace.Steps {
		if !problematic[step.UUID] {
			sum += 1
		}
	}
	score := sum / float64(len(trace.Steps))
	return judge.Vote{Score: score, Bool: score >= 1}, nil
}
