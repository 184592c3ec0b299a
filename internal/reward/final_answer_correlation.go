package reward

import (
	"context"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type correlationOutput struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// finalAnswerCorrelationOutcome checks the query's and answer's dominant
// language match before asking a judge to score 0/0.5/1 for how well the
// answer actually addresses the query (§4.12.2). A language mismatch scores
// 0.0 without a judge call.
func (s *Scorer) finalAnswerCorrelationOutcome(ctx context.Context, query string, traj models.Trajectory) models.JudgeOutcome {
	answer := finalAnswer(traj)
	if !languagesConsistent(query, answer) {
		return models.JudgeOutcome{Score: 0.0}
	}

	votes := judge.Run(ctx, s.sems, "reward_final_answer_correlation", safeDefault, []judge.Func{
		func(ctx context.Context) (judge.Vote, error) { return s.judgeFinalAnswerCorrelation(ctx, query, answer) },
	})
	return outcomeFromVote(votes[0])
}

func (s *Scorer) judgeFinalAnswerCorrelation(ctx context.Context, query, answer string) (judge.Vote, error) {
	prompt, err := s.prompts.Render("final_answer_correlation", map[string]string{
		"query":  query,
		"answer": answer,
	})
	if err != nil {
		return judge.Vote{}, err
	}

	resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return judge.Vote{}, err
	}

	var out correlationOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return judge.Vote{}, p.Err
	}
	return judge.Vote{Score: out.Score, Bool: out.Score >= 1}, nil
}
