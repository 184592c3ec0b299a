// Package decomp implements the Decomposition Verifier (C6): four
// concurrent sub-judges over a DecompositionTrace — dependency necessity,
// atomicity, forced serialization, and completeness — combined into one
// composite score, plus the separate tool_necessity_legitimacy check.
// Grounded on the teacher's multi-file-per-strategy layout
// (internal/multiagent/router.go, supervisor.go, swarm.go, each an
// independent strategy composed by one orchestrator) — here each file is an
// independent sub-judge composed by Verify.
package decomp

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/internal/semreg"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// Verifier runs the four sub-judges over a DecompositionTrace.
type Verifier struct {
	client *llmclient.Client
	prompts *promptstore.Store
	sems   *semreg.Registry
}

// New builds a Verifier.
func New(client *llmclient.Client, prompts *promptstore.Store, sems *semreg.Registry) *Verifier {
	return &Verifier{client: client, prompts: prompts, sems: sems}
}

// safeDefault is the Decomposition Verifier's safe-default vote: every
// sub-judge defaults to a passing score on failure (§7 safe-default table).
var safeDefault = judge.Vote{Score: 1.0, Bool: true}

// Verify runs all four sub-judges concurrently and returns the composite
// VerifyResult (§4.6). The tool_necessity_legitimacy flag is not part of it;
// ToolNecessityLegitimate computes that separately.
func (v *Verifier) Verify(ctx context.Context, trace models.DecompositionTrace) models.VerifyResult {
	var depVotes []judge.Vote
	var atomicityOutcome, forcedOutcome, completenessOutcome models.JudgeOutcome

	var g errgroup.Group
	g.Go(func() error { depVotes = judge.Run(ctx, v.sems, "dependency_score", safeDefault, v.dependencyJudges(trace)); return nil })
	g.Go(func() error { atomicityOutcome = v.atomicityOutcome(ctx, trace); return nil })
	g.Go(func() error { forcedOutcome = v.forcedSerializationOutcome(ctx, trace); return nil })
	g.Go(func() error { completenessOutcome = v.completenessOutcome(ctx, trace); return nil })
	_ = g.Wait() // every goroutine above always returns nil; failures become safe-default outcomes

	dependencyOutcome := models.JudgeOutcome{
		Score:       judge.MeanOfScores(depVotes),
		IsSafeScore: anySafe(depVotes),
	}

	composite := mean4(dependencyOutcome.Score, atomicityOutcome.Score, forcedOutcome.Score, completenessOutcome.Score)

	return models.VerifyResult{
		Score:               composite,
		Dependency:          dependencyOutcome,
		Atomicity:           atomicityOutcome,
		ForcedSerialization: forcedOutcome,
		Completeness:        completenessOutcome,
	}
}

// ToolNecessityLegitimate checks that every step cited as a dependency of
// another step has ToolNecessity == true (§4.6 final sentence).
func ToolNecessityLegitimate(trace models.DecompositionTrace) bool {
	for dep := range trace.DependentUUIDs() {
		step, ok := trace.StepByUUID(dep)
		if !ok {
			return false
		}
		if step.ToolNecessity == nil || !*step.ToolNecessity {
			return false
		}
	}
	return true
}

func mean4(a, b, c, d float64) float64 {
	return (a + b + c + d) / 4
}

func anySafe(votes []judge.Vote) bool {
	for _, v := range votes {
		if v.IsSafeDefault {
			return true
		}
	}
	return false
}
