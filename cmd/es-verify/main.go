// es-verify runs the Decomposition Verifier (C6) over a file of
// DecompositionTrace records, writing each trace back out enriched with its
// VerifyResult and tool_necessity_legitimacy flag. Grounded on the teacher's
// cmd/nexus/main.go + commands.go split: a thin main wiring flags to a RunE,
// with the actual subsystem wiring factored into internal/cli.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/agentsynth/internal/cli"
	"github.com/haasonsaas/agentsynth/internal/decomp"
	"github.com/haasonsaas/agentsynth/internal/recordio"
	"github.com/haasonsaas/agentsynth/internal/stage"
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
		Use:   "es-verify",
		Short: "Verify decomposition traces (dependency, atomicity, forced-serialization, completeness)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, inputFile, outputFile, modelName, concurrency, resume)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to pipeline YAML config")
	cmd.Flags().StringVar(&inputFile, "input_file", "", "Input NDJSON file of DecompositionTrace records")
	cmd.Flags().StringVar(&outputFile, "output_file", "", "Output NDJSON file for verified traces")
	cmd.Flags().StringVar(&modelName, "model_name", "", "api_configs key of the model to verify with")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "Max concurrent verifications")
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
		return fmt.Errorf("es-verify: read input: %w", err)
	}
	rt.Logger.Info("es-verify: loaded traces", "count", len(traces))

	verifier := decomp.New(client, rt.Prompts, rt.Sems)

	stageCfg := stage.Config{Concurrency: concurrency, OutputPath: outputFile, Resume: resume}
	return stage.Map(ctx, stageCfg, traces, func(ctx context.Context, trace models.DecompositionTrace) (models.DecompositionTrace, error) {
		result := verifier.Verify(ctx, trace)
		legit := decomp.ToolNecessityLegitimate(trace)
		trace.VerifyResult = &result
		trace.ToolNecessityLegitimacy = &legit
		return trace, nil
	})
}
