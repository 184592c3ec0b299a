package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/agentsynth/internal/config"
)

func TestNew_AppliesSemaphoreOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Semaphores = []config.SemaphoreConfig{{Name: "tool_call", MaxConcurrent: 2}}

	rt := New(cfg, nil, nil)
	sem := rt.Sems.Get("tool_call")

	assert.True(t, sem.TryAcquire(2))
	assert.False(t, sem.TryAcquire(1))
}

func TestLLMClient_ErrorsOnUnknownModel(t *testing.T) {
	cfg := config.DefaultConfig()
	rt := New(cfg, nil, nil)

	_, err := rt.LLMClient("not_configured")
	require.Error(t, err)
}

func TestLLMClient_BuildsClientForConfiguredModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.APIConfigs["test-model"] = config.ModelConfig{Model: "test-model", APIKey: "x"}
	rt := New(cfg, nil, nil)

	client, err := rt.LLMClient("test-model")
	require.NoError(t, err)
	assert.NotNil(t, client)
}
