package reward

import (
	"context"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type returnUnderstandingOutput struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// toolReturnBatch is one parallel tool-call batch plus the assistant
// message (if any) that follows it directly.
type toolReturnBatch struct {
	callingMessage models.ChatMessage // the assistant message whose tool_calls produced this batch
	toolMessages   []models.ChatMessage
	following      *models.ChatMessage
}

// toolReturnUnderstandingOutcome judges every parallel tool-call batch
// except the last (which normally precedes the final answer, not a
// re-planning step) on whether the following assistant turn demonstrates
// correct interpretation of the tool results (§4.12.6). A batch whose
// following turn redundantly repeats the same tool call without any
// apparent change in strategy is forced to 0 without a judge call. No
// eligible batches gets the safe default.
func (s *Scorer) toolReturnUnderstandingOutcome(ctx context.Context, traj models.Trajectory) models.JudgeOutcome {
	batches := toolReturnBatches(traj)
	if len(batches) == 0 {
		return outcomeFromVote(safeDefault)
	}

	funcs := make([]judge.Func, len(batches))
	for i, b := range batches {
		b := b
		funcs[i] = func(ctx context.Context) (judge.Vote, error) { return s.judgeToolReturnBatch(ctx, b) }
	}
	votes := judge.Run(ctx, s.sems, "reward_tool_return_understanding", safeDefault, funcs)

	return models.JudgeOutcome{Score: judge.MeanOfScores(votes)}
}

// toolReturnBatches groups consecutive tool messages and excludes the final
// batch, matching the teacher's "everything but the terminal observation"
// windowing.
func toolReturnBatches(traj models.Trajectory) []toolReturnBatch {
	var batches []toolReturnBatch
	var current []models.ChatMessage
	var callingMessage models.ChatMessage

	flush := func(followingIdx int) {
		if len(current) == 0 {
			return
		}
		var following *models.ChatMessage
		if followingIdx < len(traj.Messages) {
			following = &traj.Messages[followingIdx]
		}
		batches = append(batches, toolReturnBatch{callingMessage: callingMessage, toolMessages: current, following: following})
		current = nil
	}

	for i, msg := range traj.Messages {
		if msg.Role == models.RoleTool {
			if len(current) == 0 && i > 0 {
				callingMessage = traj.Messages[i-1]
			}
			current = append(current, msg)
			continue
		}
		flush(i)
	}
	flush(len(traj.Messages))

	if len(batches) <= 1 {
		return nil
	}
	return batches[:len(batches)-1]
}

func (s *Scorer) judgeToolReturnBatch(ctx context.Context, b toolReturnBatch) (judge.Vote, error) {
	if isRedundantRepetition(b) {
		return judge.Vote{Score: 0}, nil
	}

	followingText := ""
	if b.following != nil {
		followingText = b.following.Content
	}

	prompt, err := s.prompts.Render("tool_return_understanding", map[string]string{
		"planned_calls":  renderToolCalls(toolCallEntriesOf(b.callingMessage)),
		"tool_results":   renderTrajectoryText(models.Trajectory{Messages: b.toolMessages}),
		"following_turn": followingText,
	})
	if err != nil {
		return judge.Vote{}, err
	}

	resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return judge.Vote{}, err
	}

	var out returnUnderstandingOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return judge.Vote{}, p.Err
	}

	score := clampPlanScore(out.Score, 2) // always on the {0,0.5,1} scale
	return judge.Vote{Score: score, Bool: score >= 1}, nil
}

// isRedundantRepetition reports whether the assistant turn following b
// requests the exact same tool name+arguments as b's originating batch,
// which the spec treats as evidence of no strategy change.
func isRedundantRepetition(b toolReturnBatch) bool {
	if b.following == nil || len(b.following.ToolCalls) == 0 {
		return false
	}
	prior := make(map[string]bool)
	for _, c := range b.callingMessage.ToolCalls {
		prior[c.Function.Name+"|"+c.Function.Arguments] = true
	}
	for _, c := range b.following.ToolCalls {
		if prior[c.Function.Name+"|"+c.Function.Arguments] {
			return true
		}
	}
	return false
}
