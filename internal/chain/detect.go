package chain

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// Detection is one tool-chain candidate as judged by the LLM (§4.9).
type Detection struct {
	Detected string   `json:"tool_graph_detect"` // "yes" | "no" | "not sure"
	Chain    []string `json:"tool_graph_detect_chain"`
	Task     string   `json:"tool_graph_detect_task"`
}

// Detector wraps the single LLM call that proposes tool-dependency chains.
type Detector struct {
	client  *llmclient.Client
	prompts *promptstore.Store
}

// NewDetector builds a Detector.
func NewDetector(client *llmclient.Client, prompts *promptstore.Store) *Detector {
	return &Detector{client: client, prompts: prompts}
}

// DetectChains asks the model to propose tool-dependency chains given a
// group's info and tool catalog, keeping only "yes" entries (§4.9).
func (d *Detector) DetectChains(ctx context.Context, groupInfo string, toolList []models.ToolDefinition) ([]Detection, error) {
	toolsJSON, err := json.Marshal(toolList)
	if err != nil {
		return nil, err
	}

	prompt, err := d.prompts.Render("detect_chains", map[string]string{
		"group_info": groupInfo,
		"tool_list":  string(toolsJSON),
	})
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return nil, err
	}

	var all []Detection
	if p := parser.ParseInto(resp.Content, &all); p.Err != nil {
		return nil, p.Err
	}

	yes := make([]Detection, 0, len(all))
	for _, d := range all {
		if d.Detected == "yes" {
			yes = append(yes, d)
		}
	}
	return yes, nil
}

// BuildGraph folds every accepted detection's chain into a Graph (§4.9).
func BuildGraph(detections []Detection) *Graph {
	g := NewGraph()
	for _, d := range detections {
		g.AddChain(d.Chain)
	}
	return g
}
