// ts-agent runs the Agent Runner (C11) over a file of QueryRecords,
// producing one Trajectory per record by driving the agent loop against
// each record's MCP tool group (real streamable-HTTP or mock role-play,
// selected by MCPInfo.CallInfo.ModeOf()).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/agentsynth/internal/agentrun"
	"github.com/haasonsaas/agentsynth/internal/cli"
	"github.com/haasonsaas/agentsynth/internal/mcpclient"
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
		configPath    string
		inputFile     string
		outputFile    string
		modelName     string
		concurrency   int
		resume        bool
		maxIterations int
		systemPrompt  string
		taskTimeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ts-agent",
		Short: "Drive the agent loop for every query record against its MCP tool group",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runConfig{
				configPath, inputFile, outputFile, modelName, concurrency, resume,
				maxIterations, systemPrompt, taskTimeout,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to pipeline YAML config")
	cmd.Flags().StringVar(&inputFile, "input_file", "", "Input NDJSON file of QueryRecords")
	cmd.Flags().StringVar(&outputFile, "output_file", "", "Output NDJSON file of agentrun.Results")
	cmd.Flags().StringVar(&modelName, "model_name", "", "api_configs key of the agent model")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "Max concurrent tasks")
	cmd.Flags().BoolVar(&resume, "resume", false, "Skip records already present in output_file")
	cmd.Flags().IntVar(&maxIterations, "max_iterations", 10, "Max model calls per task before forced termination")
	cmd.Flags().StringVar(&systemPrompt, "system_prompt", "", "Optional system message prepended to every task")
	cmd.Flags().DurationVar(&taskTimeout, "task_timeout", 5*time.Minute, "Per-task wall-clock budget")
	cmd.MarkFlagRequired("input_file")
	cmd.MarkFlagRequired("output_file")
	cmd.MarkFlagRequired("model_name")

	return cmd
}

type runConfig struct {
	configPath    string
	inputFile     string
	outputFile    string
	modelName     string
	concurrency   int
	resume        bool
	maxIterations int
	systemPrompt  string
	taskTimeout   time.Duration
}

func run(ctx context.Context, rc runConfig) error {
	bt, err := cli.Init(rc.configPath)
	if err != nil {
		return err
	}
	rt := bt.Runtime

	client, err := rt.LLMClient(rc.modelName)
	if err != nil {
		return err
	}

	records, err := recordio.ReadAll[models.QueryRecord](rc.inputFile)
	if err != nil {
		return fmt.Errorf("ts-agent: read input: %w", err)
	}
	rt.Logger.Info("ts-agent: loaded query records", "count", len(records))

	runner := agentrun.New(client, mcpclient.Deps{LLMClient: client, Prompts: rt.Prompts}, agentrun.Config{
		MaxIterations: rc.maxIterations,
		SystemPrompt:  rc.systemPrompt,
	})

	poolCfg := agentrun.PoolConfig{
		Config:      stage.Config{Concurrency: rc.concurrency, OutputPath: rc.outputFile, Resume: rc.resume},
		TaskTimeout: rc.taskTimeout,
	}
	return agentrun.RunBatch(ctx, runner, records, poolCfg)
}
