package recordio

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

func idKeyer(raw json.RawMessage) (string, bool) {
	var f fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", false
	}
	return f.ID, f.ID != ""
}

func TestAppendWriter_FlushesEveryLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	w, err := OpenAppend(path)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Write(fixture{ID: string(rune('a' + i)), Value: i}))
	}
	require.NoError(t, w.Close())

	got, err := ReadAll[fixture](path)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestReadProcessedIDs_MissingFileIsEmptySet(t *testing.T) {
	ids, err := ReadProcessedIDs(filepath.Join(t.TempDir(), "missing.jsonl"), idKeyer)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// TestResumeIdempotence verifies §8's invariant: running the same stage
// twice over the same inputs, with resume filtering already-processed IDs,
// produces a final output file whose line set equals the input set exactly
// once each — no duplicates, no drops.
func TestResumeIdempotence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	inputs := []fixture{{ID: "1", Value: 1}, {ID: "2", Value: 2}, {ID: "3", Value: 3}}

	runPass := func(subset []fixture) {
		processed, err := ReadProcessedIDs(path, idKeyer)
		require.NoError(t, err)

		w, err := OpenAppend(path)
		require.NoError(t, err)
		defer w.Close()

		for _, in := range subset {
			if _, done := processed[in.ID]; done {
				continue
			}
			require.NoError(t, w.Write(in))
		}
	}

	// First pass processes only the first two (simulating a kill mid-run).
	runPass(inputs[:2])
	// Second pass re-requests all three; resume must skip 1 and 2.
	runPass(inputs)

	got, err := ReadAll[fixture](path)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, g := range got {
		seen[g.ID]++
	}
	assert.Len(t, got, 3)
	for _, in := range inputs {
		assert.Equal(t, 1, seen[in.ID], "id %s should appear exactly once", in.ID)
	}
}
