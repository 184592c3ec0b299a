// ts-query runs the Query Generator & Augmenter (C10) over a file of
// verified QueryRecord chain stubs (MCPInfo + ChainInfo, as produced by
// ts-verify-chains after voting and back-translation reject the rest):
// generate n candidate questions per sub-chain, score each with the
// generic Judge Ensemble (C5) vote() idiom, then apply every configured
// augmentation mode. Like ts-chains this fans out (one input sub-chain can
// emit many output records) so it bypasses stage.Map's 1:1 contract in
// favor of the same direct recordio wiring.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haasonsaas/agentsynth/internal/cli"
	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/internal/query"
	"github.com/haasonsaas/agentsynth/internal/recordio"
	"github.com/haasonsaas/agentsynth/internal/semreg"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

func main() {
	if err := buildCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runConfig struct {
	configPath   string
	inputFile    string
	outputFile   string
	modelName    string
	concurrency  int
	resume       bool
	numSamples   int
	augmentModes []string
}

func buildCmd() *cobra.Command {
	var (
		rc           runConfig
		augmentModes string
	)

	cmd := &cobra.Command{
		Use:   "ts-query",
		Short: "Generate and augment benchmark questions for each detected sub-chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			rc.augmentModes = splitModes(augmentModes)
			return run(cmd.Context(), rc)
		},
	}

	cmd.Flags().StringVar(&rc.configPath, "config", "", "Path to pipeline YAML config")
	cmd.Flags().StringVar(&rc.inputFile, "input_file", "", "Input NDJSON file of verified QueryRecord chain stubs (ts-verify-chains output)")
	cmd.Flags().StringVar(&rc.outputFile, "output_file", "", "Output NDJSON file of generated/augmented QueryRecords")
	cmd.Flags().StringVar(&rc.modelName, "model_name", "", "api_configs key of the model to generate/augment with")
	cmd.Flags().IntVar(&rc.concurrency, "concurrency", 5, "Max concurrent sub-chains")
	cmd.Flags().BoolVar(&rc.resume, "resume", false, "Skip sub-chains already present in output_file")
	cmd.Flags().IntVar(&rc.numSamples, "num_samples", 1, "Samples per sub-chain prompt")
	cmd.Flags().StringVar(&augmentModes, "augment_modes", "diverse,complicate,add_ug", "Comma-separated augmentation modes to apply")
	cmd.MarkFlagRequired("input_file")
	cmd.MarkFlagRequired("output_file")
	cmd.MarkFlagRequired("model_name")

	return cmd
}

func splitModes(raw string) []string {
	var out []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
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
		return fmt.Errorf("ts-query: read input: %w", err)
	}
	rt.Logger.Info("ts-query: loaded sub-chains", "count", len(stubs))

	if rc.resume {
		processed, err := recordio.ReadProcessedIDs(rc.outputFile, subChainKeyer)
		if err != nil {
			return fmt.Errorf("ts-query: read checkpoint: %w", err)
		}
		pending := stubs[:0]
		for _, s := range stubs {
			if _, done := processed[subChainKey(s)]; !done {
				pending = append(pending, s)
			}
		}
		stubs = pending
	}

	writer, err := recordio.OpenAppend(rc.outputFile)
	if err != nil {
		return fmt.Errorf("ts-query: open output: %w", err)
	}
	defer writer.Close()

	generator := query.NewGenerator(client, rt.Prompts)
	augmenter := query.NewAugmenter(client, rt.Prompts)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(rc.concurrency)

	for _, stub := range stubs {
		stub := stub
		group.Go(func() error {
			return processSubChain(gctx, client, rt.Prompts, rt.Sems, generator, augmenter, writer, stub, rc)
		})
	}
	return group.Wait()
}

func processSubChain(
	ctx context.Context,
	client *llmclient.Client,
	prompts *promptstore.Store,
	sems *semreg.Registry,
	generator *query.Generator,
	augmenter *query.Augmenter,
	writer *recordio.AppendWriter,
	stub models.QueryRecord,
	rc runConfig,
) error {
	candidates, err := generator.Generate(ctx, stub.MCPInfo.BaseInfo.GroupInfo, stub.MCPInfo.BaseInfo.ToolList, stub.ChainInfo.SubChain, rc.numSamples)
	if err != nil {
		return writer.Write(struct {
			models.QueryRecord
			Error string `json:"error"`
		}{stub, err.Error()})
	}

	for _, qi := range candidates {
		qi.QueryScoreInfo = scoreQuality(ctx, client, prompts, sems, stub.MCPInfo.BaseInfo.GroupInfo, qi)

		base := models.QueryRecord{QueryInfo: qi, MCPInfo: stub.MCPInfo, ChainInfo: stub.ChainInfo}
		records := []models.QueryRecord{withEmptyAugmentInfo(base)}

		for _, mode := range rc.augmentModes {
			variations, err := augmenter.Augment(ctx, qi.GeneratedQuestion, models.AugmentMode(mode))
			if err != nil {
				continue
			}
			for _, emitted := range query.EmitRecords(qi, models.AugmentMode(mode), variations) {
				if emitted.AugmentedQueryInfo != nil && emitted.AugmentedQueryInfo.Mode == "" {
					continue // the EmitRecords-original duplicate; already captured in records[0]
				}
				records = append(records, models.QueryRecord{QueryInfo: emitted, MCPInfo: stub.MCPInfo, ChainInfo: stub.ChainInfo})
			}
		}

		for _, rec := range records {
			if err := writer.Write(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func withEmptyAugmentInfo(rec models.QueryRecord) models.QueryRecord {
	rec.QueryInfo.AugmentedQueryInfo = &models.AugmentedQueryInfo{}
	return rec
}

type qualityOutput struct {
	QualityScores    map[string]float64 `json:"quality_scores"`
	QualityReasoning string              `json:"quality_reasoning"`
}

// scoreQuality runs the generic Judge Ensemble judge.Run (§4.5) over one
// generated question, under the query_quality_score named semaphore, with
// an all-zero safe default on judge failure.
func scoreQuality(ctx context.Context, client *llmclient.Client, prompts *promptstore.Store, sems *semreg.Registry, server models.GroupInfo, qi models.QueryInfo) *models.QueryScoreInfo {
	safeDefault := judge.Vote{Score: 0, Bool: false}
	votes := judge.Run(ctx, sems, "query_quality_score", safeDefault, []judge.Func{
		func(ctx context.Context) (judge.Vote, error) {
			prompt, err := prompts.Render("query_quality", map[string]string{
				"server_info":  server.ServerName + ": " + server.ServerDescription,
				"target_tools": strings.Join(qi.TargetTools, ", "),
				"question":     qi.GeneratedQuestion,
			})
			if err != nil {
				return judge.Vote{}, err
			}
			resp, err := client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
			if err != nil {
				return judge.Vote{}, err
			}
			var out qualityOutput
			if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
				return judge.Vote{}, p.Err
			}
			return judge.Vote{Score: meanOf(out.QualityScores), Bool: true}, nil
		},
	})

	return &models.QueryScoreInfo{
		QualityScores:    map[string]float64{"overall": votes[0].Score},
		QualityReasoning: "",
	}
}

func meanOf(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// subChainKey and subChainKeyer identify a sub-chain stub for resume
// purposes: the group plus the exact ordered tool sequence.
func subChainKey(rec models.QueryRecord) string {
	key := rec.MCPInfo.BaseInfo.GroupInfo.GroupID
	for _, t := range rec.ChainInfo.SubChain.Tools {
		key += "|" + t
	}
	return key
}

func subChainKeyer(raw json.RawMessage) (string, bool) {
	var rec models.QueryRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", false
	}
	key := subChainKey(rec)
	if key == "" {
		return "", false
	}
	return key, true
}
