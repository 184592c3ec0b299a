package reward

import (
	"context"
	"strings"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type urlVerificationOutput struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason"`
}

type summaryOutput struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// finalAnswerSummaryOutcome checks that any URL cited in the answer also
// appears in the trajectory; if one doesn't, a URL-verification judge gets
// the final say before falling back to a plain summary-quality judge
// (§4.12.3).
func (s *Scorer) finalAnswerSummaryOutcome(ctx context.Context, query string, traj models.Trajectory) models.JudgeOutcome {
	answer := finalAnswer(traj)
	trajectoryText := renderTrajectoryText(traj)

	if !urlsGroundedInTrajectory(answer, trajectoryText) {
		votes := judge.Run(ctx, s.sems, "reward_url_verification", safeDefault, []judge.Func{
			func(ctx context.Context) (judge.Vote, error) { return s.judgeURLVerification(ctx, answer, trajectoryText) },
		})
		if !votes[0].Bool {
			return models.JudgeOutcome{Score: 0.0}
		}
	}

	votes := judge.Run(ctx, s.sems, "reward_final_answer_summary", safeDefault, []judge.Func{
		func(ctx context.Context) (judge.Vote, error) { return s.judgeFinalAnswerSummary(ctx, query, answer) },
	})
	return outcomeFromVote(votes[0])
}

func (s *Scorer) judgeURLVerification(ctx context.Context, answer, trajectoryText string) (judge.Vote, error) {
	prompt, err := s.prompts.Render("url_verification", map[string]string{
		"answer":      answer,
		"trajectory":  trajectoryText,
		"urls_in_answer": strings.Join(extractURLs(answer), ", "),
	})
	if err != nil {
		return judge.Vote{}, err
	}

	resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return judge.Vote{}, err
	}

	var out urlVerificationOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return judge.Vote{}, p.Err
	}
	score := 0.0
	if out.Verified {
		score = 1.0
	}
	return judge.Vote{Score: score, Bool: out.Verified}, nil
}

func (s *Scorer) judgeFinalAnswerSummary(ctx context.Context, query, answer string) (judge.Vote, error) {
	prompt, err := s.prompts.Render("final_answer_summary", map[string]string{
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

	var out summaryOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return judge.Vote{}, p.Err
	}
	return judge.Vote{Score: out.Score, Bool: out.Score >= 1}, nil
}

func renderTrajectoryText(traj models.Trajectory) string {
	var b strings.Builder
	for _, msg := range traj.Messages {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
