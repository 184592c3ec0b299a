package cluster

import "github.com/haasonsaas/agentsynth/pkg/models"

// ApplyMerge rewrites the env results of the members of a passed or
// partial_success cluster whose individual test passed, with the merged
// code, tool document, and that member's regenerated call statement and
// output, and sets their MergeFlag true; members whose test failed keep
// their env results unchanged (§4.8.3). It returns false if any
// selected test within an otherwise-passing cluster still fails the
// substring check — the caller must then reject (drop) the whole record.
func ApplyMerge(envResults map[string]*models.EnvResult, merged models.MergedCluster) bool {
	if merged.Status == "failed" {
		return true // nothing to apply; record stands unchanged
	}

	byUUID := make(map[string]models.ClusterTestResult, len(merged.Verification.TestResults))
	for _, r := range merged.Verification.TestResults {
		byUUID[r.UUID] = r
	}

	ok := true
	for uuid, result := range byUUID {
		if !result.Passed {
			if merged.Status == "passed" {
				ok = false
			}
			continue
		}

		env, exists := envResults[uuid]
		if !exists || env == nil {
			continue
		}
		env.EnvSynthesisResult.Data.Code = merged.MergedCode
		env.EnvSynthesisResult.Data.ToolDocument = merged.ToolDocument
		env.EnvSynthesisResult.Data.ToolCallStatement = result.Statement
		env.EnvSynthesisResult.Data.ToolCallAns = result.Stdout
		env.MergeFlag = true
	}

	return ok
}
