// Package cluster implements the Cluster Merge Engine (C8): intent
// aggregation groups sub-question uuids whose synthesized tools share logic,
// then each multi-member cluster is merged into one shared implementation
// verified per-member against the sandbox, retry-with-best-kept up to 20
// times. Grounded on internal/multiagent/orchestrator.go's group ->
// delegate -> recombine shape and the teacher's retry-keeping-the-best-
// response pattern in internal/agent/failover.go.
package cluster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/internal/sandbox"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// Member is one sub-question's synthesized tool, keyed by uuid, that Merge
// considers for clustering.
type Member struct {
	UUID     string
	Question string
	Answer   string
	Tool     models.ToolSynthesisData
}

// Engine runs intent aggregation and per-cluster merging.
type Engine struct {
	client        *llmclient.Client
	prompts       *promptstore.Store
	sandbox       *sandbox.Client
	mergeMaxRetry int
}

// New builds an Engine. mergeMaxRetry defaults to 20 (§4.8).
func New(client *llmclient.Client, prompts *promptstore.Store, sbx *sandbox.Client, mergeMaxRetry int) *Engine {
	if mergeMaxRetry <= 0 {
		mergeMaxRetry = 20
	}
	return &Engine{client: client, prompts: prompts, sandbox: sbx, mergeMaxRetry: mergeMaxRetry}
}

type clusterAggregationOutput struct {
	Clusters []models.Cluster `json:"clusters"`
}

// AggregateIntent groups members whose tools share logic, algorithm,
// parameter structure, and return shape into clusters. A parse failure
// yields no clusters — callers must leave the record unchanged in that case
// (§4.8 failure mode (a)).
func (e *Engine) AggregateIntent(ctx context.Context, members []Member) ([]models.Cluster, error) {
	payload, err := json.Marshal(members)
	if err != nil {
		return nil, err
	}
	prompt, err := e.prompts.Render("intent_aggregation", map[string]string{"members": string(payload)})
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return nil, err
	}

	var out clusterAggregationOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return nil, nil // (a) parse failure -> no clusters, not an error
	}

	for i := range out.Clusters {
		if len(out.Clusters[i].UUIDs) > 0 {
			out.Clusters[i].MainUUID = out.Clusters[i].UUIDs[0]
		}
	}
	return out.Clusters, nil
}

// Merge runs the per-cluster merge for one multi-member cluster (§4.8.2):
// ask the model to modify only the base member's mock/static data so every
// member's answer becomes a substring of its call output, regenerate each
// member's call statement, verify in the sandbox, and retry up to
// mergeMaxRetry times, always keeping the best (highest passed-count)
// attempt.
func (e *Engine) Merge(ctx context.Context, cluster models.Cluster, members map[string]Member) (models.MergedCluster, error) {
	memberList := resolveMembers(cluster, members)
	if len(memberList) == 0 {
		return models.MergedCluster{}, fmt.Errorf("cluster: no resolvable members for cluster %q", cluster.IntentSummary)
	}

	base := memberList[0]
	best := models.MergedCluster{IntentSummary: cluster.IntentSummary, Status: "failed"}

	for attempt := 1; attempt <= e.mergeMaxRetry; attempt++ {
		mergedCode, err := e.rewriteMockData(ctx, base, memberList)
		if err != nil {
			continue
		}

		statements, err := e.regenerateCallStatements(ctx, base.Tool.ToolDocument, memberList)
		if err != nil {
			continue
		}

		verification := e.verify(ctx, mergedCode, memberList, statements)

		if verification.PassedCount > best.Verification.PassedCount || best.Status == "failed" {
			best = models.MergedCluster{
				IntentSummary:      cluster.IntentSummary,
				MergedCode:         mergedCode,
				ToolDocument:       base.Tool.ToolDocument,
				ToolCallStatements: statements,
				Verification:       verification,
				Status:             statusFor(verification),
			}
		}

		if verification.AllPassed() {
			break
		}
		best.Verification.RetryCount = attempt
	}

	return best, nil
}

func statusFor(v models.ClusterVerification) string {
	switch {
	case v.AllPassed():
		return "passed"
	case v.PassedCount > 0:
		return "partial_success"
	default:
		return "failed"
	}
}

func resolveMembers(cluster models.Cluster, members map[string]Member) []Member {
	out := make([]Member, 0, len(cluster.UUIDs))
	for _, id := range cluster.UUIDs {
		if m, ok := members[id]; ok {
			out = append(out, m)
		}
	}
	return out
}
