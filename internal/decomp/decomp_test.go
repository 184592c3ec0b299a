package decomp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

func boolPtr(b bool) *bool { return &b }

func TestToolNecessityLegitimate(t *testing.T) {
	legitimate := models.DecompositionTrace{
		Steps: []models.DecompositionStep{
			{UUID: "a", ToolNecessity: boolPtr(true)},
			{UUID: "b", Dependency: []string{"a"}, ToolNecessity: boolPtr(false)},
		},
	}
	assert.True(t, ToolNecessityLegitimate(legitimate))

	illegitimate := models.DecompositionTrace{
		Steps: []models.DecompositionStep{
			{UUID: "a", ToolNecessity: boolPtr(false)},
			{UUID: "b", Dependency: []string{"a"}, ToolNecessity: boolPtr(false)},
		},
	}
	assert.False(t, ToolNecessityLegitimate(illegitimate))
}

func TestToolNecessityLegitimate_MissingDependencyStep(t *testing.T) {
	trace := models.DecompositionTrace{
		Steps: []models.DecompositionStep{
			{UUID: "b", Dependency: []string{"missing"}, ToolNecessity: boolPtr(true)},
		},
	}
	assert.False(t, ToolNecessityLegitimate(trace))
}

func TestNonTerminalSteps_ExemptsSummaryStep(t *testing.T) {
	trace := models.DecompositionTrace{
		Steps: []models.DecompositionStep{
			{UUID: "a"}, {UUID: "b"}, {UUID: "summary"},
		},
	}
	nt := nonTerminalSteps(trace)
	assert.Len(t, nt, 2)
	assert.Equal(t, "a", nt[0].UUID)
	assert.Equal(t, "b", nt[1].UUID)
}

func TestMean4(t *testing.T) {
	assert.InDelta(t, 0.5, mean4(1, 0, 1, 0), 1e-9)
}
