package reward

import (
	"context"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type globalJudgeOutput struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// globalUnderstandingOutcome judges whether the trajectory's first
// assistant turn demonstrates correct understanding of the user's query
// (§4.12.7). No assistant turn at all gets the safe default.
func (s *Scorer) globalUnderstandingOutcome(ctx context.Context, query string, traj models.Trajectory) models.JudgeOutcome {
	first := firstAssistantTurn(traj)
	if first == nil {
		return outcomeFromVote(safeDefault)
	}

	votes := judge.Run(ctx, s.sems, "reward_global_understanding", safeDefault, []judge.Func{
		func(ctx context.Context) (judge.Vote, error) {
			return s.judgeGlobal(ctx, "global_understanding", query, *first)
		},
	})
	return outcomeFromVote(votes[0])
}

// globalPlanOutcome judges whether the first assistant turn lays out a
// sound overall plan for answering the query (§4.12.7).
func (s *Scorer) globalPlanOutcome(ctx context.Context, query string, traj models.Trajectory) models.JudgeOutcome {
	first := firstAssistantTurn(traj)
	if first == nil {
		return outcomeFromVote(safeDefault)
	}

	votes := judge.Run(ctx, s.sems, "reward_global_plan", safeDefault, []judge.Func{
		func(ctx context.Context) (judge.Vote, error) {
			return s.judgeGlobal(ctx, "global_plan", query, *first)
		},
	})
	return outcomeFromVote(votes[0])
}

func (s *Scorer) judgeGlobal(ctx context.Context, template string, query string, first models.ChatMessage) (judge.Vote, error) {
	prompt, err := s.prompts.Render(template, map[string]string{
		"query":         query,
		"first_turn":    first.Content,
		"planned_calls": renderToolCalls(toolCallEntriesOf(first)),
	})
	if err != nil {
		return judge.Vote{}, err
	}

	resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return judge.Vote{}, err
	}

	var out globalJudgeOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return judge.Vote{}, p.Err
	}

	score := clampPlanScore(out.Score, 2)
	return judge.Vote{Score: score, Bool: score >= 1}, nil
}
