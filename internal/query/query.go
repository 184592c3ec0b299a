// Package query implements the Query Generator & Augmenter (C10): an
// XML-tag-based question generator per sub-chain, plus a three-mode
// augmenter (diverse, complicate, add_ug persona-conditioned). Grounded on
// internal/parser's ParseXMLField/ParseVariations, reusing the Response
// Parser (C1) rather than introducing a second XML-scanning implementation.
package query

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// Generator produces questions for a sub-chain via an XML-tagged prompt.
type Generator struct {
	client  *llmclient.Client
	prompts *promptstore.Store
}

// NewGenerator builds a Generator.
func NewGenerator(client *llmclient.Client, prompts *promptstore.Store) *Generator {
	return &Generator{client: client, prompts: prompts}
}

// Generate renders the generation prompt for one sub-chain and returns n
// independently-sampled QueryInfo candidates (§4.10 "Multiple samples per
// prompt supported").
func (g *Generator) Generate(ctx context.Context, server models.GroupInfo, tools []models.MCPToolSpec, subChain models.SubChain, n int) ([]models.QueryInfo, error) {
	if n <= 0 {
		n = 1
	}

	toolsJSON, err := json.Marshal(tools)
	if err != nil {
		return nil, err
	}
	chainJSON, err := json.Marshal(subChain.Tools)
	if err != nil {
		return nil, err
	}

	prompt, err := g.prompts.Render("query_generation", map[string]string{
		"server_info": server.ServerName + ": " + server.ServerDescription,
		"tool_list":   string(toolsJSON),
		"sub_chain":   string(chainJSON),
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.QueryInfo, 0, n)
	for i := 0; i < n; i++ {
		resp, err := g.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
		if err != nil {
			continue
		}

		analysis := parser.ParseXMLField(resp.Content, "server_analysis")
		targetToolsRaw := parser.ParseXMLField(resp.Content, "target_tools")
		question := parser.ParseXMLField(resp.Content, "question")
		if question == "" {
			continue
		}

		out = append(out, models.QueryInfo{
			GeneratedQuestion: question,
			TargetTools:       splitCommaList(targetToolsRaw),
			ServerAnalysis:    analysis,
		})
	}
	return out, nil
}

func splitCommaList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
