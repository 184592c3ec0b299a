// Package toolsynth implements the Tool Synthesizer (C7): a four-stage
// pipeline (doc, complexity, call statement, implementation) each
// independently retried, wrapped in an outer validation loop that re-runs
// from the call-statement stage and submits the result to the sandbox.
// Grounded on internal/agent/loop.go's staged state machine (Init -> Stream
// -> Execute Tools -> Complete/Continue): the same "bounded retry around a
// multi-stage pipeline with an outer acceptance loop" shape, here with the
// sandbox standing in for tool execution and the answer-substring check
// standing in for the loop's completion condition.
package toolsynth

import (
	"context"
	"fmt"

	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/internal/retry"
	"github.com/haasonsaas/agentsynth/internal/sandbox"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// DependencyRef is one upstream (question, answer) pair injected into a
// hop_level>1 sub-question's synthesis prompt (§4.7 "Additional Information").
type DependencyRef struct {
	Question string
	Answer   string
}

// Request is one QA pair to synthesize a tool for.
type Request struct {
	Question     string
	Answer       string
	Dependencies []DependencyRef
}

// Synthesizer drives the four-stage pipeline and outer validation loop.
type Synthesizer struct {
	client      *llmclient.Client
	prompts     *promptstore.Store
	sandbox     *sandbox.Client
	innerRetry  int
	outerRetry  int
}

// Config controls retry bounds (§4.7 defaults: inner=5, outer=15).
type Config struct {
	InnerMaxRetryTimes int
	OuterMaxRetryTimes int
}

// New builds a Synthesizer.
func New(client *llmclient.Client, prompts *promptstore.Store, sbx *sandbox.Client, cfg Config) *Synthesizer {
	inner := cfg.InnerMaxRetryTimes
	if inner <= 0 {
		inner = 5
	}
	outer := cfg.OuterMaxRetryTimes
	if outer <= 0 {
		outer = 15
	}
	return &Synthesizer{client: client, prompts: prompts, sandbox: sbx, innerRetry: inner, outerRetry: outer}
}

// Synthesize runs the full pipeline for one request and returns the
// accepted ToolSynthesisData, or an error if the outer loop is exhausted
// without the sandbox confirming the answer.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (models.ToolSynthesisData, error) {
	questionForSynthesis := augmentWithDependencies(req.Question, req.Dependencies)

	doc, err := s.generateDoc(ctx, questionForSynthesis)
	if err != nil {
		return models.ToolSynthesisData{}, fmt.Errorf("toolsynth: doc generation: %w", err)
	}

	refined, err := s.scaleComplexity(ctx, doc)
	if err != nil {
		return models.ToolSynthesisData{}, fmt.Errorf("toolsynth: complexity scaling: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.outerRetry; attempt++ {
		callStmt, err := s.generateCallStatement(ctx, refined, questionForSynthesis)
		if err != nil {
			lastErr = err
			continue
		}

		code, err := s.generateImplementation(ctx, refined)
		if err != nil {
			lastErr = err
			continue
		}

		full := code + "\n" + printCall(callStmt)
		resp, err := s.sandbox.Run(ctx, full, "python")
		if err != nil {
			lastErr = err
			continue
		}

		if sandbox.AnswerPresent(resp, req.Answer) {
			return models.ToolSynthesisData{
				ToolDocument:      refined,
				ToolCallStatement: callStmt,
				Code:              code,
				ToolCallAns:       resp.RunResult.Stdout,
			}, nil
		}

		lastErr = fmt.Errorf("sandbox did not confirm answer on attempt %d", attempt)
	}

	return models.ToolSynthesisData{}, fmt.Errorf("toolsynth: outer loop exhausted after %d attempts: %w", s.outerRetry, lastErr)
}

func printCall(call string) string {
	return "print(" + call + ")"
}

// augmentWithDependencies prepends an "Additional Information" section
// listing each dependency's (question, answer) pair (§4.7).
func augmentWithDependencies(question string, deps []DependencyRef) string {
	if len(deps) == 0 {
		return question
	}
	out := question + "\n\nAdditional Information:\n"
	for _, d := range deps {
		out += fmt.Sprintf("- %s => %s\n", d.Question, d.Answer)
	}
	return out
}

func (s *Synthesizer) retryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = s.innerRetry
	return cfg
}
