package promptstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndRender(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dependency_necessity.txt"), []byte("Question: {question}\nUpstream: {upstream}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.json"), []byte("{}"), 0o644))

	store, err := Load(dir)
	require.NoError(t, err)

	rendered, err := store.Render("dependency_necessity", map[string]string{
		"question": "why?",
		"upstream": "step_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Question: why?\nUpstream: step_1", rendered)
}

func TestRender_UnknownTemplate(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	require.NoError(t, err)

	_, err = store.Render("missing", nil)
	assert.Error(t, err)
}

func TestReload_PicksUpNewFile(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "atomicity.txt"), []byte("step: {step}"), 0o644))
	require.NoError(t, store.reload())

	rendered, err := store.Render("atomicity", map[string]string{"step": "1"})
	require.NoError(t, err)
	assert.Equal(t, "step: 1", rendered)
}
