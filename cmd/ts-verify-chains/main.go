// ts-verify-chains runs the sub-chain verification stage between the Graph/
// Chain Builder (C9) and the Query Generator (C10): every chain stub is
// multi-judge vote-verified and back-translation-verified (§4.5 "C9 ->
// sub-chains -> C5 judges (vote + back-translation) -> C10"), and only
// sub-chains that pass both checks are written to output_file for ts-query
// to consume. Rejected sub-chains are written as stage.ErrorRecords, which
// also makes them naturally skip-on-resume without a separate reject file.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/agentsynth/internal/chain"
	"github.com/haasonsaas/agentsynth/internal/cli"
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
		configPath      string
		inputFile       string
		outputFile      string
		modelName       string
		concurrency     int
		resume          bool
		voteSamples     int
		backTranslation int
	)

	cmd := &cobra.Command{
		Use:   "ts-verify-chains",
		Short: "Verify detected sub-chains by multi-judge voting and back-translation before query generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runConfig{
				configPath, inputFile, outputFile, modelName, concurrency, resume, voteSamples, backTranslation,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to pipeline YAML config")
	cmd.Flags().StringVar(&inputFile, "input_file", "", "Input NDJSON file of QueryRecord chain stubs (ts-chains output)")
	cmd.Flags().StringVar(&outputFile, "output_file", "", "Output NDJSON file of verified QueryRecord chain stubs")
	cmd.Flags().StringVar(&modelName, "model_name", "", "api_configs key of the judge model")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "Max concurrent sub-chains")
	cmd.Flags().BoolVar(&resume, "resume", false, "Skip sub-chains already present in output_file")
	cmd.Flags().IntVar(&voteSamples, "vote_samples", 3, "Number of independent vote-verify samples per sub-chain")
	cmd.Flags().IntVar(&backTranslation, "back_translation_samples", 3, "Number of independent back-translation attempts per sub-chain")
	cmd.MarkFlagRequired("input_file")
	cmd.MarkFlagRequired("output_file")
	cmd.MarkFlagRequired("model_name")

	return cmd
}

type runConfig struct {
	configPath      string
	inputFile       string
	outputFile      string
	modelName       string
	concurrency     int
	resume          bool
	voteSamples     int
	backTranslation int
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

	stubs, err := recordio.ReadAll[models.QueryRecord](rc.inputFile)
	if err != nil {
		return fmt.Errorf("ts-verify-chains: read input: %w", err)
	}
	rt.Logger.Info("ts-verify-chains: loaded sub-chains", "count", len(stubs))

	verifier := chain.NewChainVerifier(client, rt.Prompts, rt.Sems)

	stageCfg := stage.Config{Concurrency: rc.concurrency, OutputPath: rc.outputFile, Resume: rc.resume}
	return stage.Map(ctx, stageCfg, stubs, func(ctx context.Context, stub models.QueryRecord) (models.QueryRecord, error) {
		groupInfo := stub.MCPInfo.BaseInfo.GroupInfo
		tools := stub.MCPInfo.BaseInfo.ToolList

		vote := verifier.VoteVerify(ctx, groupInfo, tools, stub.ChainInfo.SubChain, rc.voteSamples)
		backTranslation := verifier.BackTranslate(ctx, groupInfo, tools, stub.ChainInfo.SubChain, rc.backTranslation)

		out := stub
		if out.ChainInfo.OperatorResults == nil {
			out.ChainInfo.OperatorResults = map[string]any{}
		}
		out.ChainInfo.OperatorResults["vote_verify_chain"] = vote
		out.ChainInfo.OperatorResults["back_translation_verify_chain"] = backTranslation

		if vote.IsValid {
			if out.QueryInfo.GeneratedQuestion == "" {
				out.QueryInfo.GeneratedQuestion = vote.UserQuery
			}
		}

		if !vote.IsValid || !backTranslation.Valid {
			return out, fmt.Errorf("sub-chain rejected: vote_valid=%v back_translation_valid=%v", vote.IsValid, backTranslation.Valid)
		}
		return out, nil
	})
}
