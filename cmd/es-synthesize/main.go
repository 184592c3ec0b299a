// es-synthesize runs the Tool Synthesizer (C7) over every tool-needing step
// of a file of (verified) DecompositionTrace records, attaching one EnvResult
// per step uuid. A step whose ToolNecessity is false or unset is left out of
// the output's env_results map entirely (§4.7).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/agentsynth/internal/cli"
	"github.com/haasonsaas/agentsynth/internal/recordio"
	"github.com/haasonsaas/agentsynth/internal/sandbox"
	"github.com/haasonsaas/agentsynth/internal/stage"
	"github.com/haasonsaas/agentsynth/internal/toolsynth"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

func main() {
	if err := buildCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildCmd() *cobra.Command {
	var (
		configPath  string
		inputFile   string
		outputFile  string
		modelName   string
		concurrency int
		resume      bool
	)

	cmd := &cobra.Command{
		Use:   "es-synthesize",
		Short: "Synthesize a tool implementation for every tool-needing decomposition step",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, inputFile, outputFile, modelName, concurrency, resume)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to pipeline YAML config")
	cmd.Flags().StringVar(&inputFile, "input_file", "", "Input NDJSON file of DecompositionTrace records")
	cmd.Flags().StringVar(&outputFile, "output_file", "", "Output NDJSON file of TraceWithEnvResults records")
	cmd.Flags().StringVar(&modelName, "model_name", "", "api_configs key of the model to synthesize with")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "Max concurrent traces")
	cmd.Flags().BoolVar(&resume, "resume", false, "Skip traces already present in output_file")
	cmd.MarkFlagRequired("input_file")
	cmd.MarkFlagRequired("output_file")
	cmd.MarkFlagRequired("model_name")

	return cmd
}

func run(ctx context.Context, configPath, inputFile, outputFile, modelName string, concurrency int, resume bool) error {
	bt, err := cli.Init(configPath)
	if err != nil {
		return err
	}
	rt := bt.Runtime

	client, err := rt.LLMClient(modelName)
	if err != nil {
		return err
	}

	traces, err := recordio.ReadAll[models.DecompositionTrace](inputFile)
	if err != nil {
		return fmt.Errorf("es-synthesize: read input: %w", err)
	}
	rt.Logger.Info("es-synthesize: loaded traces", "count", len(traces))

	sbx := sandbox.New(rt.Config.SandboxURL)
	synth := toolsynth.New(client, rt.Prompts, sbx, toolsynth.Config{
		InnerMaxRetryTimes: rt.Config.Synthesis.InnerMaxRetryTimes,
		OuterMaxRetryTimes: rt.Config.Synthesis.OuterMaxRetryTimes,
	})

	stageCfg := stage.Config{Concurrency: concurrency, OutputPath: outputFile, Resume: resume}
	return stage.Map(ctx, stageCfg, traces, func(ctx context.Context, trace models.DecompositionTrace) (models.TraceWithEnvResults, error) {
		return synthesizeTrace(ctx, synth, trace, rt.Logger)
	})
}

func synthesizeTrace(ctx context.Context, synth *toolsynth.Synthesizer, trace models.DecompositionTrace, logger *slog.Logger) (models.TraceWithEnvResults, error) {
	out := models.TraceWithEnvResults{DecompositionTrace: trace, EnvResults: make(map[string]*models.EnvResult)}

	for _, step := range trace.Steps {
		if step.ToolNecessity == nil || !*step.ToolNecessity {
			continue
		}

		deps := dependencyRefs(trace, step)
		data, err := synth.Synthesize(ctx, toolsynth.Request{
			Question:     step.SubQuestion,
			Answer:       step.SubAnswer,
			Dependencies: deps,
		})
		if err != nil {
			logger.Warn("es-synthesize: step synthesis failed permanently", "uuid", step.UUID, "error", err)
			continue
		}

		out.EnvResults[step.UUID] = &models.EnvResult{
			Question:           step.SubQuestion,
			Answer:              step.SubAnswer,
			EnvSynthesisResult: models.EnvSynthesisResult{Data: data},
		}
	}

	return out, nil
}

// dependencyRefs resolves a step's NormalizedDependency uuids into the
// (question, answer) pairs the Tool Synthesizer injects for hop_level>1
// steps (§4.7 "Additional Information").
func dependencyRefs(trace models.DecompositionTrace, step models.DecompositionStep) []toolsynth.DependencyRef {
	deps := step.NormalizedDependency()
	if len(deps) == 0 {
		return nil
	}
	out := make([]toolsynth.DependencyRef, 0, len(deps))
	for _, uuid := range deps {
		if s, ok := trace.StepByUUID(uuid); ok {
			out = append(out, toolsynth.DependencyRef{Question: s.SubQuestion, Answer: s.SubAnswer})
		}
	}
	return out
}
