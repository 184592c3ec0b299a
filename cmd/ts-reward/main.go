// ts-reward runs the Reward Model (C12) over a file of agentrun.Results,
// scoring each trajectory across eight concurrent judge dimensions and
// attaching the combined reward as a ScoredTrajectory.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/agentsynth/internal/agentrun"
	"github.com/haasonsaas/agentsynth/internal/cli"
	"github.com/haasonsaas/agentsynth/internal/recordio"
	"github.com/haasonsaas/agentsynth/internal/reward"
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
		Use:   "ts-reward",
		Short: "Score agent trajectories across the judge ensemble's reward dimensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, inputFile, outputFile, modelName, concurrency, resume)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to pipeline YAML config")
	cmd.Flags().StringVar(&inputFile, "input_file", "", "Input NDJSON file of agentrun.Results")
	cmd.Flags().StringVar(&outputFile, "output_file", "", "Output NDJSON file of ScoredTrajectory records")
	cmd.Flags().StringVar(&modelName, "model_name", "", "api_configs key of the judge model")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "Max concurrent trajectories")
	cmd.Flags().BoolVar(&resume, "resume", false, "Skip records already present in output_file")
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

	results, err := recordio.ReadAll[agentrun.Result](inputFile)
	if err != nil {
		return fmt.Errorf("ts-reward: read input: %w", err)
	}
	rt.Logger.Info("ts-reward: loaded trajectories", "count", len(results))

	scorer := reward.New(client, rt.Prompts, rt.Sems)

	stageCfg := stage.Config{Concurrency: concurrency, OutputPath: outputFile, Resume: resume}
	return stage.Map(ctx, stageCfg, results, func(ctx context.Context, res agentrun.Result) (models.ScoredTrajectory, error) {
		query := questionOf(res.QueryInfo)
		tools := toolDefsOf(res.MCPInfo)
		scores := scorer.Score(ctx, query, res.Trajectory, tools)
		return models.ScoredTrajectory{QueryRecord: res.QueryRecord, Trajectory: res.Trajectory, Reward: scores}, nil
	})
}

func questionOf(qi models.QueryInfo) string {
	if qi.AugmentedQueryInfo != nil && qi.AugmentedQueryInfo.AugmentedQuestion != "" {
		return qi.AugmentedQueryInfo.AugmentedQuestion
	}
	return qi.GeneratedQuestion
}

func toolDefsOf(info models.MCPInfo) []models.ToolDefinition {
	tools := info.BaseInfo.ToolList
	out := make([]models.ToolDefinition, len(tools))
	for i, t := range tools {
		out[i] = models.ToolDefinition{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
	}
	return out
}
