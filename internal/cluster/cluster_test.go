package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haasonsaas/agentsynth/pkg/models"
)

func TestResolveMembers(t *testing.T) {
	members := map[string]Member{
		"a": {UUID: "a"},
		"b": {UUID: "b"},
	}
	cluster := models.Cluster{UUIDs: []string{"a", "b", "missing"}}

	resolved := resolveMembers(cluster, members)
	assert.Len(t, resolved, 2)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, "passed", statusFor(models.ClusterVerification{PassedCount: 2, TotalCount: 2}))
	assert.Equal(t, "partial_success", statusFor(models.ClusterVerification{PassedCount: 1, TotalCount: 2}))
	assert.Equal(t, "failed", statusFor(models.ClusterVerification{PassedCount: 0, TotalCount: 2}))
}

func TestApplyMerge_RewritesPassingMembers(t *testing.T) {
	envResults := map[string]*models.EnvResult{
		"a": {Answer: "5"},
		"b": {Answer: "6"},
	}
	merged := models.MergedCluster{
		Status:     "passed",
		MergedCode: "def f(): pass",
		Verification: models.ClusterVerification{
			TestResults: []models.ClusterTestResult{
				{UUID: "a", Statement: "f(x=1)", Passed: true, Stdout: "5"},
				{UUID: "b", Statement: "f(x=2)", Passed: true, Stdout: "6"},
			},
			PassedCount: 2,
			TotalCount:  2,
		},
	}

	ok := ApplyMerge(envResults, merged)
	assert.True(t, ok)
	assert.True(t, envResults["a"].MergeFlag)
	assert.Equal(t, "f(x=1)", envResults["a"].EnvSynthesisResult.Data.ToolCallStatement)
}

func TestApplyMerge_RejectsWholeRecordOnMismatchInPassingCluster(t *testing.T) {
	envResults := map[string]*models.EnvResult{"a": {Answer: "5"}}
	merged := models.MergedCluster{
		Status: "passed",
		Verification: models.ClusterVerification{
			TestResults: []models.ClusterTestResult{{UUID: "a", Passed: false}},
			PassedCount: 0,
			TotalCount:  1,
		},
	}

	ok := ApplyMerge(envResults, merged)
	assert.False(t, ok, "a failing member inside a \"passed\"-status cluster must reject the whole record")
}

func TestApplyMerge_FailedStatusIsNoop(t *testing.T) {
	envResults := map[string]*models.EnvResult{"a": {Answer: "5"}}
	merged := models.MergedCluster{Status: "failed"}

	ok := ApplyMerge(envResults, merged)
	assert.True(t, ok)
	assert.False(t, envResults["a"].MergeFlag)
}
