// Package stage implements the Stage Executor (C4): a bounded-concurrency
// map from inputs to outputs with checkpoint/resume and worker isolation,
// grounded on intelligencedev-manifold's errgroup-based orchestration
// (internal/agent/warpp.go) for the concurrency fan-out and on the teacher's
// JSONL trace writer (internal/agent/trace.go) for the output side.
package stage

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/haasonsaas/agentsynth/internal/recordio"
)

// Fn processes one input record and returns its output record. A non-nil
// error is captured into the output via ErrorRecord rather than aborting the
// whole stage — one input's failure must not block its siblings or prevent
// it from being marked processed (§4.4 "Worker isolation").
type Fn[In, Out any] func(ctx context.Context, in In) (Out, error)

// Keyed identifies an input/output pair for checkpoint-resume purposes.
type Keyed interface {
	RecordKey() string
}

// ErrorRecord wraps an input with an attached error message when Fn fails.
// It is written as {"input": <input>, "error": "..."}: the input's fields
// are nested under "input", not spread beside "error". It is still
// written to the output file so a resumed run does not re-attempt it unless
// the caller explicitly filters on Error being non-empty.
type ErrorRecord[In any] struct {
	Input In     `json:"input"`
	Error string `json:"error"`
}

func (e ErrorRecord[In]) RecordKey() string {
	if k, ok := any(e.Input).(Keyed); ok {
		return k.RecordKey()
	}
	return ""
}

// Config controls one Map invocation.
type Config struct {
	// Concurrency bounds the number of workers running Fn simultaneously.
	Concurrency int
	// OutputPath is the JSONL file results are appended to.
	OutputPath string
	// Resume, when true, skips inputs whose key already appears in
	// OutputPath.
	Resume bool
}

// Map fans out over inputs with bounded concurrency, appending each result
// (or ErrorRecord on failure) to cfg.OutputPath as it completes. Results are
// committed in completion order, not input order — downstream stages must
// not assume ordering is preserved (§4.4).
func Map[In Keyed, Out any](ctx context.Context, cfg Config, inputs []In, fn Fn[In, Out]) error {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	pending := inputs
	if cfg.Resume {
		processed, err := recordio.ReadProcessedIDs(cfg.OutputPath, func(raw json.RawMessage) (string, bool) {
			var errRec ErrorRecord[In]
			if err := json.Unmarshal(raw, &errRec); err == nil && errRec.RecordKey() != "" {
				return errRec.RecordKey(), true
			}
			var input In
			if err := json.Unmarshal(raw, &input); err == nil && input.RecordKey() != "" {
				return input.RecordKey(), true
			}
			return "", false
		})
		if err != nil {
			return fmt.Errorf("stage: read checkpoint: %w", err)
		}

		filtered := make([]In, 0, len(inputs))
		for _, in := range inputs {
			if _, done := processed[in.RecordKey()]; done {
				continue
			}
			filtered = append(filtered, in)
		}
		pending = filtered
	}

	writer, err := recordio.OpenAppend(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("stage: open output: %w", err)
	}
	defer writer.Close()

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.Concurrency)

	for _, in := range pending {
		in := in
		group.Go(func() error {
			out, err := runIsolated(gctx, in, fn)
			if err != nil {
				return writer.Write(ErrorRecord[In]{Input: in, Error: err.Error()})
			}
			return writer.Write(out)
		})
	}

	return group.Wait()
}

// runIsolated invokes fn, converting a panic into an error so one worker's
// crash cannot take down the whole fan-out.
func runIsolated[In Keyed, Out any](ctx context.Context, in In, fn Fn[In, Out]) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, in)
}

// MapSharded partitions inputs into n shards and runs Map over each shard
// concurrently, approximating the source's "N processes x M async each"
// execution mode (true OS-process isolation is out of scope here — see
// DESIGN.md). Every shard shares cfg.OutputPath so resume still sees a
// single coherent checkpoint.
func MapSharded[In Keyed, Out any](ctx context.Context, cfg Config, shards int, inputs []In, fn Fn[In, Out]) error {
	if shards <= 1 {
		return Map(ctx, cfg, inputs, fn)
	}

	buckets := make([][]In, shards)
	for i, in := range inputs {
		buckets[i%shards] = append(buckets[i%shards], in)
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, bucket := range buckets {
		bucket := bucket
		if len(bucket) == 0 {
			continue
		}
		group.Go(func() error {
			return Map(gctx, cfg, bucket, fn)
		})
	}
	return group.Wait()
}
