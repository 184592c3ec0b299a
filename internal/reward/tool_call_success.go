package reward

import (
	"context"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type toolStatusEntry struct {
	ToolStatus bool   `json:"tool_status"`
	Reason     string `json:"reason"`
}

// toolCallSuccessOutcome scores the trajectory as
// (1.0*#success + 0.5*#fail) / #total (§4.12.4): a failed tool call still
// earns half credit because the call itself executed, it just didn't
// succeed. No tool calls at all gets the safe default.
func (s *Scorer) toolCallSuccessOutcome(ctx context.Context, traj models.Trajectory) models.JudgeOutcome {
	calls := collectToolCalls(traj)
	if len(calls) == 0 {
		return outcomeFromVote(safeDefault)
	}

	votes := judge.Run(ctx, s.sems, "reward_tool_call_success", safeDefault, []judge.Func{
		func(ctx context.Context) (judge.Vote, error) { return s.judgeToolCallSuccess(ctx, calls) },
	})
	return outcomeFromVote(votes[0])
}

func (s *Scorer) judgeToolCallSuccess(ctx context.Context, calls []toolCallEntry) (judge.Vote, error) {
	prompt, err := s.prompts.Render("tool_call_success", map[string]string{
		"tool_calls": renderToolCalls(calls),
	})
	if err != nil {
		return judge.Vote{}, err
	}

	resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return judge.Vote{}, err
	}

	var statuses map[string]toolStatusEntry
	if p := parser.ParseInto(resp.Content, &statuses); p.Err != nil {
		return judge.Vote{}, p.Err
	}

	var sum float64
	for _, call := range calls {
		entry, ok := statuses[call.ID]
		if ok && entry.ToolStatus {
			sum += 1.0
		} else {
			sum += 0.5
		}
	}
	score := sum / float64(len(calls))
	return judge.Vote{Score: score, Bool: score >= 1}, nil
}
