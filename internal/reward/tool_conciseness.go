package reward

import (
	"context"
	"strings"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type toolConcisenessScore struct {
	Necessary            int    `json:"necessary"`
	ParametersCorrect     int    `json:"parameters_correct"`
	InformationGain        int    `json:"information_gain"`
	Reason                  string `json:"reason"`
}

// toolConcisenessOutcome scores every tool call 0/1 on necessity, parameter
// correctness, and information gain, averaging the per-call averages into
// the trajectory-level score (§4.12.1). A trajectory with no tool calls
// gets the safe default.
func (s *Scorer) toolConcisenessOutcome(ctx context.Context, traj models.Trajectory) models.JudgeOutcome {
	calls := collectToolCalls(traj)
	if len(calls) == 0 {
		return outcomeFromVote(safeDefault)
	}

	votes := judge.Run(ctx, s.sems, "reward_tool_conciseness", safeDefault, []judge.Func{
		func(ctx context.Context) (judge.Vote, error) { return s.judgeToolConciseness(ctx, calls) },
	})
	return outcomeFromVote(votes[0])
}

func (s *Scorer) judgeToolConciseness(ctx context.Context, calls []toolCallEntry) (judge.Vote, error) {
	prompt, err := s.prompts.Render("tool_conciseness", map[string]string{
		"tool_calls": renderToolCalls(calls),
	})
	if err != nil {
		return judge.Vote{}, err
	}

	resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return judge.Vote{}, err
	}

	var scores map[string]toolConcisenessScore
	if p := parser.ParseInto(resp.Content, &scores); p.Err != nil {
		return judge.Vote{}, p.Err
	}

	var sum float64
	for _, call := range calls {
		entry, ok := scores[call.ID]
		if !ok {
			continue
		}
		sum += perCallAverage(entry)
	}
	score := sum / float64(len(calls))
	return judge.Vote{Score: score, Bool: score >= 1}, nil
}

func perCallAverage(entry toolConcisenessScore) float64 {
	return (float64(entry.Necessary) + float64(entry.ParametersCorrect) + float64(entry.InformationGain)) / 3.0
}

func renderToolCalls(calls []toolCallEntry) string {
	var b strings.Builder
	for _, c := range calls {
		b.WriteString(c.ID)
		b.WriteString(": ")
		b.WriteString(c.Name)
		b.WriteString("(")
		b.WriteString(c.Arguments)
		b.WriteString(") -> ")
		b.WriteString(c.Result)
		b.WriteString("\n")
	}
	return b.String()
}
