package reward

import (
	"context"
	"strconv"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type planOutput struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// intermediatePlanOutcome judges each mid-trajectory re-planning point: an
// assistant message that follows a tool message and itself carries
// tool_calls (§4.12.5). A single-call segment is judged on a {0,1} scale, a
// parallel (multi-call) segment on {0,0.5,1}; the trajectory score is the
// mean across all such points. A trajectory with no re-planning points
// (only the initial plan) gets the safe default.
func (s *Scorer) intermediatePlanOutcome(ctx context.Context, traj models.Trajectory, tools []models.ToolDefinition) models.JudgeOutcome {
	points := intermediatePlanPoints(traj)
	if len(points) == 0 {
		return outcomeFromVote(safeDefault)
	}

	votes := judge.Run(ctx, s.sems, "reward_intermediate_plan", safeDefault,
		planFuncs(s, points, tools))

	return models.JudgeOutcome{Score: judge.MeanOfScores(votes)}
}

type planPoint struct {
	priorContext []models.ChatMessage
	planMessage  models.ChatMessage
}

func intermediatePlanPoints(traj models.Trajectory) []planPoint {
	var points []planPoint
	for i, msg := range traj.Messages {
		if i == 0 || msg.Role != models.RoleAssistant || len(msg.ToolCalls) == 0 {
			continue
		}
		if traj.Messages[i-1].Role != models.RoleTool {
			continue
		}
		points = append(points, planPoint{priorContext: traj.Messages[:i], planMessage: msg})
	}
	return points
}

func planFuncs(s *Scorer, points []planPoint, tools []models.ToolDefinition) []judge.Func {
	funcs := make([]judge.Func, len(points))
	for i, p := range points {
		p := p
		funcs[i] = func(ctx context.Context) (judge.Vote, error) { return s.judgePlanPoint(ctx, p, tools) }
	}
	return funcs
}

func (s *Scorer) judgePlanPoint(ctx context.Context, p planPoint, tools []models.ToolDefinition) (judge.Vote, error) {
	prompt, err := s.prompts.Render("intermediate_plan", map[string]string{
		"prior_context":   renderTrajectoryText(models.Trajectory{Messages: p.priorContext}),
		"planned_calls":   renderToolCalls(toolCallEntriesOf(p.planMessage)),
		"tool_count":      strconv.Itoa(len(p.planMessage.ToolCalls)),
		"available_tools": renderToolDefinitions(tools),
	})
	if err != nil {
		return judge.Vote{}, err
	}

	resp, err := s.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return judge.Vote{}, err
	}

	var out planOutput
	if p2 := parser.ParseInto(resp.Content, &out); p2.Err != nil {
		return judge.Vote{}, p2.Err
	}

	score := clampPlanScore(out.Score, len(p.planMessage.ToolCalls))
	return judge.Vote{Score: score, Bool: score >= 1}, nil
}

// clampPlanScore snaps a judge's score to the allowed discrete scale for the
// segment's arity: {0,1} for a single call, {0,0.5,1} for parallel calls.
func clampPlanScore(score float64, callCount int) float64 {
	if callCount <= 1 {
		if score >= 0.5 {
			return 1
		}
		return 0
	}
	switch {
	case score >= 0.75:
		return 1
	case score >= 0.25:
		return 0.5
	default:
		return 0
	}
}

func renderToolDefinitions(tools []models.ToolDefinition) string {
	out := ""
	for _, t := range tools {
		out += t.Name + ": " + t.Description + "\n"
	}
	return out
}

func toolCallEntriesOf(msg models.ChatMessage) []toolCallEntry {
	entries := make([]toolCallEntry, len(msg.ToolCalls))
	for i, c := range msg.ToolCalls {
		entries[i] = toolCallEntry{ID: c.ID, Name: c.Function.Name, Arguments: c.Function.Arguments}
	}
	return entries
}
