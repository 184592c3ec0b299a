// Package judge implements the Judge Ensemble (C5): N LLM judges voting in
// parallel under a named semaphore, with safe-default substitution on any
// individual judge's failure so one bad vote never aborts the whole score
// (§4.5, §7 "Parse/Schema failure" and "Transient" taxonomy entries).
// Grounded on the Stage Executor's worker-isolation pattern
// (internal/stage/stage.go) applied at vote granularity instead of
// input-record granularity, and on intelligencedev-manifold's errgroup fan-out.
package judge

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/haasonsaas/agentsynth/internal/semreg"
)

// Vote is one judge's opinion on a single item. IsSafeDefault is set when
// the vote had to fall back to the safe-default score table rather than a
// real judgment (§7 "Safe-default score table": every fallback is flagged
// is_safe_score=1).
type Vote struct {
	Score         float64
	Bool          bool
	IsSafeDefault bool
}

// Func is a single judge's evaluation function.
type Func func(ctx context.Context) (Vote, error)

// Run executes judges concurrently under the named semaphore, substituting
// safeDefault for any judge that errors, and returns one Vote per judge in
// input order.
func Run(ctx context.Context, sems *semreg.Registry, semaphoreName string, safeDefault Vote, judges []Func) []Vote {
	sem := sems.Get(semaphoreName)
	votes := make([]Vote, len(judges))

	group, gctx := errgroup.WithContext(ctx)
	for i, fn := range judges {
		i, fn := i, fn
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				votes[i] = safeDefaultVote(safeDefault)
				return nil
			}
			defer sem.Release(1)

			v, err := fn(gctx)
			if err != nil {
				slog.Warn("judge vote failed, substituting safe default", "semaphore", semaphoreName, "index", i, "error", err)
				votes[i] = safeDefaultVote(safeDefault)
				return nil
			}
			votes[i] = v
			return nil
		})
	}
	_ = group.Wait() // judges never return an error from Run itself — failures are per-vote

	return votes
}

func safeDefaultVote(safeDefault Vote) Vote {
	safeDefault.IsSafeDefault = true
	return safeDefault
}

// MeanOfScores aggregates numeric-score votes by arithmetic mean (§4.5
// "mean-of-numeric" aggregator; used by C6's composite and C12's reward).
func MeanOfScores(votes []Vote) float64 {
	if len(votes) == 0 {
		return 0
	}
	var sum float64
	for _, v := range votes {
		sum += v.Score
	}
	return sum / float64(len(votes))
}

// MajorityOfBool aggregates boolean votes by simple majority, ties resolved
// false (§4.5 "majority-of-bool" aggregator).
func MajorityOfBool(votes []Vote) bool {
	if len(votes) == 0 {
		return false
	}
	trueCount := 0
	for _, v := range votes {
		if v.Bool {
			trueCount++
		}
	}
	return trueCount*2 > len(votes)
}

// AllMatch reports whether every vote's Bool is true — used by the
// back-translation / all-match aggregator (§4.5).
func AllMatch(votes []Vote) bool {
	for _, v := range votes {
		if !v.Bool {
			return false
		}
	}
	return true
}
