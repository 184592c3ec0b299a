package models

// DecompositionStep is one hop in a multi-hop question's decomposition.
//
// Invariants: UUID is unique within its record; every Dependency entry
// references an earlier step's UUID; HopLevel is monotonically
// non-decreasing along dependency edges.
type DecompositionStep struct {
	UUID         string   `json:"uuid"`
	HopLevel     int      `json:"hop_level"`
	SubQuestion  string   `json:"sub_question"`
	SubAnswer    string   `json:"sub_answer"`
	Dependency   []string `json:"dependency,omitempty"`
	IsParallel   bool     `json:"is_parallel,omitempty"`
	ToolNecessity *bool   `json:"tool_necessity,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// NormalizedDependency returns Dependency with the sentinel forms the source
// data uses for "no dependency" (nil, the literal string "null", or "None")
// collapsed to an empty slice.
func (s DecompositionStep) NormalizedDependency() []string {
	if len(s.Dependency) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.Dependency))
	for _, dep := range s.Dependency {
		switch dep {
		case "", "null", "None":
			continue
		default:
			out = append(out, dep)
		}
	}
	return out
}

// VerifyResult is the composite output of the Decomposition Verifier (C6).
type VerifyResult struct {
	Score              float64        `json:"score"`
	Dependency         JudgeOutcome   `json:"dependency"`
	Atomicity          JudgeOutcome   `json:"atomicity"`
	ForcedSerialization JudgeOutcome  `json:"forced_serialization"`
	Completeness       JudgeOutcome   `json:"completeness"`
}

// JudgeOutcome is one sub-judge's contribution to a VerifyResult, carrying
// enough detail for downstream auditing and for the safe-default flag.
type JudgeOutcome struct {
	Score       float64        `json:"score"`
	IsSafeScore bool           `json:"is_safe_score"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// DecompositionTrace is the ES pipeline's input record: a multi-hop question
// together with its decomposition into sub-questions and dependencies.
type DecompositionTrace struct {
	UUID         string              `json:"uuid"`
	MainQuestion string              `json:"main_question"`
	FinalAnswer  string              `json:"final_answer"`
	Steps        []DecompositionStep `json:"decomposition_trace"`

	ToolNecessityLegitimacy *bool         `json:"tool_necessity_legitimacy,omitempty"`
	VerifyResult            *VerifyResult `json:"verify_result,omitempty"`
}

// RecordKey identifies a trace for stage.Map checkpoint/resume purposes.
func (d DecompositionTrace) RecordKey() string {
	return d.UUID
}

// StepByUUID returns the step with the given uuid, or false if absent.
func (d DecompositionTrace) StepByUUID(uuid string) (DecompositionStep, bool) {
	for _, s := range d.Steps {
		if s.UUID == uuid {
			return s, true
		}
	}
	return DecompositionStep{}, false
}

// DependentUUIDs returns the set of uuids that appear as a dependency of any
// other step in the trace — used to decide tool-necessity legitimacy.
func (d DecompositionTrace) DependentUUIDs() map[string]bool {
	out := make(map[string]bool)
	for _, s := range d.Steps {
		for _, dep := range s.NormalizedDependency() {
			out[dep] = true
		}
	}
	return out
}
