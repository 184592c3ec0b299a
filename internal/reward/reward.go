// Package reward implements the Reward Scorer (C12): eight independent
// judge dimensions over a completed agent trajectory, combined into an overall
// reward. Grounded on internal/decomp's composition idiom (one judge.Func
// per sub-judge, run under a named semaphore with safe-default
// substitution on failure) applied to trajectories instead of
// decomposition traces.
package reward

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/internal/semreg"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// safeDefault is the fallback vote (score 1.0, is_safe_score=1) any
// dimension substitutes when its judge call fails, per the spec's safe-
// default table (§7).
var safeDefault = judge.Vote{Score: 1.0, Bool: true}

// Scorer computes a trajectory's RewardScores.
type Scorer struct {
	client  *llmclient.Client
	prompts *promptstore.Store
	sems    *semreg.Registry
}

// New builds a Scorer.
func New(client *llmclient.Client, prompts *promptstore.Store, sems *semreg.Registry) *Scorer {
	return &Scorer{client: client, prompts: prompts, sems: sems}
}

// Score runs all eight judge dimensions concurrently and combines them into
// an overall reward. query is the active question text (original or
// augmented) and tools is the catalog the trajectory's agent had access to.
func (s *Scorer) Score(ctx context.Context, query string, traj models.Trajectory, tools []models.ToolDefinition) models.RewardScores {
	var out models.RewardScores
	var g errgroup.Group

	g.Go(func() error { out.ToolConciseness = s.toolConcisenessOutcome(ctx, traj); return nil })
	g.Go(func() error { out.FinalAnswerCorrelation = s.finalAnswerCorrelationOutcome(ctx, query, traj); return nil })
	g.Go(func() error { out.FinalAnswerSummary = s.finalAnswerSummaryOutcome(ctx, query, traj); return nil })
	g.Go(func() error { out.ToolCallSuccess = s.toolCallSuccessOutcome(ctx, traj); return nil })
	g.Go(func() error { out.IntermediatePlan = s.intermediatePlanOutcome(ctx, traj, tools); return nil })
	g.Go(func() error { out.ToolReturnUnderstanding = s.toolReturnUnderstandingOutcome(ctx, traj); return nil })
	g.Go(func() error { out.GlobalUnderstanding = s.globalUnderstandingOutcome(ctx, query, traj); return nil })
	g.Go(func() error { out.GlobalPlan = s.globalPlanOutcome(ctx, query, traj); return nil })
	_ = g.Wait() // every goroutine above always returns nil; failures become safe-default outcomes

	out.OverallReward = mean([]float64{
		out.ToolConciseness.Score,
		out.FinalAnswerCorrelation.Score,
		out.FinalAnswerSummary.Score,
		out.ToolCallSuccess.Score,
		out.IntermediatePlan.Score,
		out.ToolReturnUnderstanding.Score,
		out.GlobalUnderstanding.Score,
		out.GlobalPlan.Score,
	})
	return out
}

func mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// toolCallEntry pairs one requested tool invocation with its resulting tool
// message content, if any, for judges that need both sides.
type toolCallEntry struct {
	ID        string
	Name      string
	Arguments string
	Result    string
}

// collectToolCalls walks traj in order, pairing every assistant tool_call
// with the tool message (if any) that resolves it.
func collectToolCalls(traj models.Trajectory) []toolCallEntry {
	var entries []toolCallEntry
	for _, msg := range traj.Messages {
		for _, call := range msg.ToolCalls {
			entries = append(entries, toolCallEntry{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
		}
	}
	for i := range entries {
		entries[i].Result = resultFor(traj, entries[i].ID)
	}
	return entries
}

func resultFor(traj models.Trajectory, callID string) string {
	for _, msg := range traj.Messages {
		if msg.Role == models.RoleTool && msg.ToolCallID == callID {
			return msg.Content
		}
	}
	return ""
}

// finalAnswer is the trajectory's last assistant message with no pending
// tool_calls — the answer actually delivered to the user.
func finalAnswer(traj models.Trajectory) string {
	for i := len(traj.Messages) - 1; i >= 0; i-- {
		msg := traj.Messages[i]
		if msg.Role == models.RoleAssistant && len(msg.ToolCalls) == 0 {
			return msg.Content
		}
	}
	return ""
}

// firstAssistantTurn is the trajectory's first assistant message, the basis
// for the global-understanding and global-plan judges.
func firstAssistantTurn(traj models.Trajectory) *models.ChatMessage {
	for i := range traj.Messages {
		if traj.Messages[i].Role == models.RoleAssistant {
			return &traj.Messages[i]
		}
	}
	return nil
}

func outcomeFromVote(v judge.Vote) models.JudgeOutcome {
	return models.JudgeOutcome{Score: v.Score, IsSafeScore: v.IsSafeDefault}
}
