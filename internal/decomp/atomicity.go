package decomp

import (
	"context"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type atomicityEntry struct {
	IsAtomic     int    `json:"is_atomic"`
	ReasonAtomic string `json:"reason_atomic"`
}

// atomicityOutcome asks a single judge to classify every non-terminal step
// as atomic (independent, single-task, single-tool-verifiable), exempting
// the summary step, and aggregates the per-step results by mean (§4.6.2).
func (v *Verifier) atomicityOutcome(ctx context.Context, trace models.DecompositionTrace) models.JudgeOutcome {
	votes := judge.Run(ctx, v.sems, "atomicity_score", safeDefault, []judge.Func{
		func(ctx context.Context) (judge.Vote, error) { return v.judgeAtomicity(ctx, trace) },
	})
	v0 := votes[0]
	return models.JudgeOutcome{Score: v0.Score, IsSafeScore: v0.IsSafeDefault}
}

func (v *Verifier) judgeAtomicity(ctx context.Context, trace models.DecompositionTrace) (judge.Vote, error) {
	prompt, err := v.prompts.Render("atomicity", map[string]string{
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

	var results map[string]atomicityEntry
	if p := parser.ParseInto(resp.Content, &results); p.Err != nil {
		return judge.Vote{}, p.Err
	}

	nonTerminal := nonTerminalSteps(trace)
	if len(nonTerminal) == 0 {
		return judge.Vote{Score: 1.0, Bool: true}, nil
	}

	var sum float64
	for _, step := range nonTerminal {
		if entry, ok := results[step.UUID]; ok && entry.IsAtomic == 1 {
			sum += 1
		}
	}
	score := sum / float64(len(nonTerminal))
	return judge.Vote{Score: score, Bool: score >= 1}, nil
}

// nonTerminalSteps excludes the record's final (summary) step, which is
// exempt from the atomicity requirement.
func nonTerminalSteps(trace models.DecompositionTrace) []models.DecompositionStep {
	if len(trace.Steps) <= 1 {
		return nil
	}
	return trace.Steps[:len(trace.Steps)-1]
}

func renderTrace(trace models.DecompositionTrace) string {
	out := ""
	for _, s := range trace.Steps {
		out += s.UUID + ": " + s.SubQuestion + " => " + s.SubAnswer + "\n"
	}
	return out
}
