// es-merge runs the Cluster Merge Engine (C8) over a file of
// TraceWithEnvResults records: aggregate each trace's tool-needing steps
// into clusters of shared logic, merge every multi-member cluster, and
// rewrite its members' env results. A record whose merge rejects an
// otherwise-passing cluster is dropped entirely (§4.8.3).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/agentsynth/internal/cli"
	"github.com/haasonsaas/agentsynth/internal/cluster"
	"github.com/haasonsaas/agentsynth/internal/recordio"
	"github.com/haasonsaas/agentsynth/internal/sandbox"
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
		Use:   "es-merge",
		Short: "Cluster and merge tool-synthesis duplicates within each trace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, inputFile, outputFile, modelName, concurrency, resume)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to pipeline YAML config")
	cmd.Flags().StringVar(&inputFile, "input_file", "", "Input NDJSON file of TraceWithEnvResults records")
	cmd.Flags().StringVar(&outputFile, "output_file", "", "Output NDJSON file of merged TraceWithEnvResults records")
	cmd.Flags().StringVar(&modelName, "model_name", "", "api_configs key of the model to merge with")
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

	traces, err := recordio.ReadAll[models.TraceWithEnvResults](inputFile)
	if err != nil {
		return fmt.Errorf("es-merge: read input: %w", err)
	}
	rt.Logger.Info("es-merge: loaded traces", "count", len(traces))

	sbx := sandbox.New(rt.Config.SandboxURL)
	engine := cluster.New(client, rt.Prompts, sbx, rt.Config.Synthesis.MergeMaxRetryTimes)

	stageCfg := stage.Config{Concurrency: concurrency, OutputPath: outputFile, Resume: resume}
	return stage.Map(ctx, stageCfg, traces, func(ctx context.Context, trace models.TraceWithEnvResults) (models.TraceWithEnvResults, error) {
		return mergeTrace(ctx, engine, trace)
	})
}

func mergeTrace(ctx context.Context, engine *cluster.Engine, trace models.TraceWithEnvResults) (models.TraceWithEnvResults, error) {
	members := clusterMembers(trace)
	if len(members) < 2 {
		return trace, nil
	}

	clusters, err := engine.AggregateIntent(ctx, members)
	if err != nil {
		return models.TraceWithEnvResults{}, fmt.Errorf("es-merge: aggregate intent: %w", err)
	}

	byUUID := make(map[string]cluster.Member, len(members))
	for _, m := range members {
		byUUID[m.UUID] = m
	}

	for _, c := range clusters {
		if len(c.UUIDs) < 2 {
			continue
		}
		merged, err := engine.Merge(ctx, c, byUUID)
		if err != nil {
			return models.TraceWithEnvResults{}, fmt.Errorf("es-merge: merge cluster %q: %w", c.IntentSummary, err)
		}
		if ok := cluster.ApplyMerge(trace.EnvResults, merged); !ok {
			return models.TraceWithEnvResults{}, fmt.Errorf("es-merge: cluster %q rejected a passing member's test", c.IntentSummary)
		}
	}

	return trace, nil
}

// clusterMembers turns a trace's env results into the Member list
// AggregateIntent considers, skipping steps that were never synthesized
// (ToolNecessity false) or whose synthesis failed permanently.
func clusterMembers(trace models.TraceWithEnvResults) []cluster.Member {
	members := make([]cluster.Member, 0, len(trace.EnvResults))
	for uuid, env := range trace.EnvResults {
		if env == nil {
			continue
		}
		members = append(members, cluster.Member{
			UUID:     uuid,
			Question: env.Question,
			Answer:   env.Answer,
			Tool:     env.EnvSynthesisResult.Data,
		})
	}
	return members
}
