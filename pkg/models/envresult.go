package models

import "strings"

// ToolSynthesisData is the artifact produced by the Tool Synthesizer (C7)
// for one sub-question: a tool document, the single-line call statement used
// to invoke it, the generated code, and the answer the sandbox produced.
type ToolSynthesisData struct {
	ToolDocument       ToolDefinition `json:"tool_document"`
	ToolCallStatement  string         `json:"tool_call_statement"`
	Code               string         `json:"code"`
	ToolCallAns        string         `json:"tool_call_ans"`
}

// EnvSynthesisResult wraps ToolSynthesisData with bookkeeping about the
// synthesis attempt (retry counts, timing) that downstream stages may audit
// but never interpret.
type EnvSynthesisResult struct {
	Data      ToolSynthesisData `json:"data"`
	ExtraInfo map[string]any    `json:"extra_info,omitempty"`
}

// EnvResult is the per-sub-question-uuid output of the ES pipeline. A nil
// EnvResult (represented here as a nil pointer in the owning map) means the
// tool was not needed or synthesis failed permanently.
type EnvResult struct {
	Question             string               `json:"question"`
	Answer                string               `json:"answer"`
	EnvSynthesisResult    EnvSynthesisResult   `json:"env_synthesis_result"`
	MergeFlag             bool                 `json:"merge_flag,omitempty"`
}

// AnswerContained reports the Env Result invariant: when MergeFlag is unset,
// Answer must be a substring of the synthesized call's stdout answer.
func (e *EnvResult) AnswerContained() bool {
	if e == nil {
		return true
	}
	if e.MergeFlag {
		return true
	}
	return strings.Contains(e.EnvSynthesisResult.Data.ToolCallAns, e.Answer)
}

// CallStatementSafe reports the invariant that a tool call statement never
// contains the literal substring "http".
func (e *EnvResult) CallStatementSafe() bool {
	if e == nil {
		return true
	}
	return !strings.Contains(e.EnvSynthesisResult.Data.ToolCallStatement, "http")
}

// DocumentWellFormed reports that the tool document carries name,
// description, and parameters, and that required is a subset of properties.
func (e *EnvResult) DocumentWellFormed() bool {
	if e == nil {
		return true
	}
	doc := e.EnvSynthesisResult.Data.ToolDocument
	if doc.Name == "" || doc.Description == "" {
		return false
	}
	return doc.Parameters.RequiredSubsetOfProperties()
}

// TraceWithEnvResults carries a DecompositionTrace alongside the per-step
// EnvResult the Tool Synthesizer (C7) and Cluster Merge Engine (C8) stages
// attach, keyed by each step's uuid. A step absent from EnvResults means the
// step never needed a tool (ToolNecessity false).
type TraceWithEnvResults struct {
	DecompositionTrace
	EnvResults map[string]*EnvResult `json:"env_results"`
}

// RecordKey identifies the wrapped trace for stage.Map checkpoint/resume.
func (t TraceWithEnvResults) RecordKey() string {
	return t.DecompositionTrace.RecordKey()
}
