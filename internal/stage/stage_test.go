package stage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/agentsynth/internal/recordio"
)

type input struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

func (i input) RecordKey() string { return i.ID }

type output struct {
	ID     string `json:"id"`
	Double int    `json:"double"`
}

func (o output) RecordKey() string { return o.ID }

func makeInputs(n int) []input {
	out := make([]input, n)
	for i := range out {
		out[i] = input{ID: string(rune('a' + i)), Value: i}
	}
	return out
}

func TestMap_ProcessesAllInputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	inputs := makeInputs(10)

	err := Map(context.Background(), Config{Concurrency: 4, OutputPath: path}, inputs, func(_ context.Context, in input) (output, error) {
		return output{ID: in.ID, Double: in.Value * 2}, nil
	})
	require.NoError(t, err)

	got, err := readOutputs(path)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestMap_WorkerIsolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	inputs := makeInputs(5)

	err := Map(context.Background(), Config{Concurrency: 2, OutputPath: path}, inputs, func(_ context.Context, in input) (output, error) {
		if in.Value == 2 {
			return output{}, errors.New("boom")
		}
		return output{ID: in.ID, Double: in.Value * 2}, nil
	})
	require.NoError(t, err, "one failing fn must not abort the whole stage")

	got, err := readOutputs(path)
	require.NoError(t, err)
	assert.Len(t, got, 5, "failed input is still written so resume does not retry it")
}

func TestMap_ResumeSkipsProcessed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	inputs := makeInputs(6)

	calls := 0
	fn := func(_ context.Context, in input) (output, error) {
		calls++
		return output{ID: in.ID, Double: in.Value * 2}, nil
	}

	require.NoError(t, Map(context.Background(), Config{Concurrency: 3, OutputPath: path, Resume: true}, inputs[:3], fn))
	require.NoError(t, Map(context.Background(), Config{Concurrency: 3, OutputPath: path, Resume: true}, inputs, fn))

	got, err := readOutputs(path)
	require.NoError(t, err)
	assert.Len(t, got, 6)
	assert.Equal(t, 6, calls, "resume must not re-run already-processed inputs")
}

func readOutputs(path string) ([]output, error) {
	return recordio.ReadAll[output](path)
}
