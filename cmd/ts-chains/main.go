// ts-chains runs the Graph/Chain Builder (C9) over a file of MCPInfo tool
// catalogs: detect candidate tool-dependency chains per group, build the
// directed graph, and enumerate every simple sub-chain in [min_chain_len,
// max_chain_len]. Unlike the other stage binaries this one fans out — one
// input group can emit many sub-chain records — so it does not go through
// stage.Map's 1:1 contract; it reimplements the same bounded-concurrency,
// flush-per-line, resume-by-key shape directly against internal/recordio,
// keyed by group_id instead of by output record.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haasonsaas/agentsynth/internal/chain"
	"github.com/haasonsaas/agentsynth/internal/cli"
	"github.com/haasonsaas/agentsynth/internal/recordio"
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
		minChainLen int
		maxChainLen int
	)

	cmd := &cobra.Command{
		Use:   "ts-chains",
		Short: "Detect tool-dependency chains and enumerate bounded-length sub-chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runConfig{
				configPath, inputFile, outputFile, modelName, concurrency, resume, minChainLen, maxChainLen,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to pipeline YAML config")
	cmd.Flags().StringVar(&inputFile, "input_file", "", "Input NDJSON file of MCPInfo records")
	cmd.Flags().StringVar(&outputFile, "output_file", "", "Output NDJSON file of QueryRecord chain stubs")
	cmd.Flags().StringVar(&modelName, "model_name", "", "api_configs key of the model to detect chains with")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "Max concurrent groups")
	cmd.Flags().BoolVar(&resume, "resume", false, "Skip groups already present in output_file")
	cmd.Flags().IntVar(&minChainLen, "min_chain_len", 2, "Minimum sub-chain length (inclusive)")
	cmd.Flags().IntVar(&maxChainLen, "max_chain_len", 4, "Maximum sub-chain length (inclusive)")
	cmd.MarkFlagRequired("input_file")
	cmd.MarkFlagRequired("output_file")
	cmd.MarkFlagRequired("model_name")

	return cmd
}

type runConfig struct {
	configPath  string
	inputFile   string
	outputFile  string
	modelName   string
	concurrency int
	resume      bool
	minChainLen int
	maxChainLen int
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

	groups, err := recordio.ReadAll[models.MCPInfo](rc.inputFile)
	if err != nil {
		return fmt.Errorf("ts-chains: read input: %w", err)
	}
	rt.Logger.Info("ts-chains: loaded groups", "count", len(groups))

	if rc.resume {
		processed, err := recordio.ReadProcessedIDs(rc.outputFile, groupIDKeyer)
		if err != nil {
			return fmt.Errorf("ts-chains: read checkpoint: %w", err)
		}
		pending := groups[:0]
		for _, g := range groups {
			if _, done := processed[g.RecordKey()]; !done {
				pending = append(pending, g)
			}
		}
		groups = pending
	}

	writer, err := recordio.OpenAppend(rc.outputFile)
	if err != nil {
		return fmt.Errorf("ts-chains: open output: %w", err)
	}
	defer writer.Close()

	detector := chain.NewDetector(client, rt.Prompts)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(rc.concurrency)

	for _, g := range groups {
		g := g
		group.Go(func() error {
			return processGroup(gctx, detector, writer, g, rc.minChainLen, rc.maxChainLen)
		})
	}
	return group.Wait()
}

func processGroup(ctx context.Context, detector *chain.Detector, writer *recordio.AppendWriter, g models.MCPInfo, minLen, maxLen int) error {
	groupInfo := g.BaseInfo.GroupInfo.ServerName + ": " + g.BaseInfo.GroupInfo.ServerDescription

	toolDefs := make([]models.ToolDefinition, len(g.BaseInfo.ToolList))
	for i, t := range g.BaseInfo.ToolList {
		toolDefs[i] = models.ToolDefinition{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
	}

	detections, err := detector.DetectChains(ctx, groupInfo, toolDefs)
	if err != nil {
		return writer.Write(struct {
			MCPInfo models.MCPInfo `json:"mcp_info"`
			Error   string         `json:"error"`
		}{g, err.Error()})
	}

	graph := chain.BuildGraph(detections)
	subChains := graph.EnumerateSubChains(minLen, maxLen)
	if len(subChains) == 0 {
		return writer.Write(struct {
			MCPInfo models.MCPInfo `json:"mcp_info"`
			Note    string         `json:"note"`
		}{g, "no sub-chains detected"})
	}

	for _, sc := range subChains {
		rec := models.QueryRecord{
			MCPInfo:   g,
			ChainInfo: models.ChainInfo{SubChain: models.SubChain{Tools: sc}},
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// groupIDKeyer extracts group_id from any of the three record shapes
// processGroup may have written for a group (a chain stub, an error record,
// or a "no sub-chains" note), so resume can recognize a group as done
// regardless of which branch processed it last time.
func groupIDKeyer(raw json.RawMessage) (string, bool) {
	var probe struct {
		MCPInfo models.MCPInfo `json:"mcp_info"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", false
	}
	id := probe.MCPInfo.RecordKey()
	if id == "" {
		return "", false
	}
	return id, true
}
