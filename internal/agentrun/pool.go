package agentrun

import (
	"context"
	"fmt"
	"time"

	"github.com/haasonsaas/agentsynth/internal/retry"
	"github.com/haasonsaas/agentsynth/internal/stage"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// Result is one QueryRecord's trajectory, the ts-agent stage's output unit.
type Result struct {
	models.QueryRecord
	Trajectory models.Trajectory `json:"trajectory"`
}

// RecordKey delegates to the embedded QueryRecord so stage.Map's resume
// checkpoint recognizes a Result as completing the matching input.
func (r Result) RecordKey() string {
	return r.QueryRecord.RecordKey()
}

// PoolConfig bounds the worker pool driving the batch of tasks.
type PoolConfig struct {
	stage.Config
	// TaskTimeout is the per-task wall-clock budget (§4.11); on expiry the
	// task's trajectory gets a terminal "[ERROR: ...]" message and is still
	// committed, rather than being dropped or retried.
	TaskTimeout time.Duration
}

// RunBatch drives records through runner with cfg's worker pool and resume
// semantics, writing one Result per record to cfg.OutputPath.
func RunBatch(ctx context.Context, runner *Runner, records []models.QueryRecord, cfg PoolConfig) error {
	timeout := cfg.TaskTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	fn := func(ctx context.Context, rec models.QueryRecord) (Result, error) {
		query := questionOf(rec.QueryInfo)

		var traj models.Trajectory
		err := retry.WithTimeout(ctx, timeout, func(ctx context.Context) error {
			t, runErr := runner.Run(ctx, query, rec.MCPInfo)
			traj = t
			return runErr
		})
		if err != nil {
			traj = models.Trajectory{Messages: append(traj.Messages, errorMessage(fmt.Errorf("task timed out or failed: %w", err)))}
		}

		return Result{QueryRecord: rec, Trajectory: traj}, nil
	}

	return stage.Map(ctx, cfg.Config, records, fn)
}

// questionOf selects the active question text: the augmented variant if
// present, else the originally generated question.
func questionOf(qi models.QueryInfo) string {
	if qi.AugmentedQueryInfo != nil && qi.AugmentedQueryInfo.AugmentedQuestion != "" {
		return qi.AugmentedQueryInfo.AugmentedQuestion
	}
	return qi.GeneratedQuestion
}
