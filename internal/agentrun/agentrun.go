// Package agentrun implements the Agent Runner (C11): drives an LLM agent
// loop against one MCP group's tools until it stops requesting further
// calls, appending the full assistant/tool message sequence as a
// Trajectory. Grounded directly on internal/agent/loop.go's AgenticLoop
// (the same "stream model output, execute any requested tools, loop until
// done" state machine) and internal/agent/executor.go's parallel tool
// dispatch, re-targeted at per-task MCPInfo catalogs via internal/mcpclient
// instead of nexus's built-in tool registry.
package agentrun

import (
	"context"
	"fmt"

	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/mcpclient"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// Config bounds one task's agent loop.
type Config struct {
	// MaxIterations caps the number of model calls per task, guarding
	// against a model that never stops requesting tools (teacher default:
	// 10, internal/agent/loop.go DefaultLoopConfig).
	MaxIterations int
	// SystemPrompt, if non-empty, is prepended as the loop's system message.
	SystemPrompt string
}

func (c Config) sanitized() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 10
	}
	return c
}

// Runner drives the agent loop for one task at a time; concurrency across
// tasks is the caller's concern (see Pool).
type Runner struct {
	client *llmclient.Client
	deps   mcpclient.Deps
	cfg    Config
}

// New builds a Runner.
func New(client *llmclient.Client, deps mcpclient.Deps, cfg Config) *Runner {
	return &Runner{client: client, deps: deps, cfg: cfg.sanitized()}
}

// Run drives the loop for one query against mcpInfo's tool group, returning
// the full message trajectory. Run never returns a non-nil error for a
// model or tool failure — those are folded into the trajectory as a
// terminal "[ERROR: ...]" assistant message instead (§4.11), matching the
// spec's requirement that a failed task still commit a record so resume
// does not re-attempt it. Run only returns an error for a setup failure
// that precedes any model interaction (e.g. an unresolvable MCP transport).
func (r *Runner) Run(ctx context.Context, query string, mcpInfo models.MCPInfo) (models.Trajectory, error) {
	toolClient, err := mcpclient.New(ctx, mcpInfo, r.deps, query)
	if err != nil {
		return models.Trajectory{}, fmt.Errorf("agentrun: build tool client: %w", err)
	}
	defer toolClient.Close()

	tools := mcpInfo.BaseInfo.ToolList
	toolDefs := mcpToolDefsOrListed(ctx, toolClient, tools)

	messages := make([]models.ChatMessage, 0, r.cfg.MaxIterations*2+1)
	if r.cfg.SystemPrompt != "" {
		messages = append(messages, models.ChatMessage{Role: models.RoleSystem, Content: r.cfg.SystemPrompt})
	}
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: query})

	for iter := 0; iter < r.cfg.MaxIterations; iter++ {
		resp, err := r.client.Chat(ctx, messages, toolDefs)
		if err != nil {
			messages = append(messages, errorMessage(err))
			return models.Trajectory{Messages: messages}, nil
		}
		if resp.ContextOverflow {
			messages = append(messages, errorMessage(fmt.Errorf("context window exceeded")))
			return models.Trajectory{Messages: messages}, nil
		}

		assistantMsg := models.ChatMessage{
			Role:      models.RoleAssistant,
			Content:   resp.Content,
			Reasoning: resp.Reasoning,
			ToolCalls: resp.ToolCalls,
		}
		messages = append(messages, assistantMsg)

		if len(resp.ToolCalls) == 0 {
			return models.Trajectory{Messages: messages}, nil
		}

		results := make([]string, len(resp.ToolCalls))
		var toDispatch []models.ToolCall
		var dispatchIdx []int
		for i, call := range resp.ToolCalls {
			if def, ok := toolDefByName(toolDefs, call.Function.Name); ok && len(def.Parameters.Properties) > 0 {
				if err := def.Parameters.ValidateArguments(call.Function.Arguments); err != nil {
					results[i] = fmt.Sprintf("[ERROR: %s]", err.Error())
					continue
				}
			}
			toDispatch = append(toDispatch, call)
			dispatchIdx = append(dispatchIdx, i)
		}

		if len(toDispatch) > 0 {
			dispatched, err := toolClient.CallTools(ctx, toDispatch)
			for j, idx := range dispatchIdx {
				switch {
				case err != nil:
					results[idx] = fmt.Sprintf("[ERROR: %s]", err.Error())
				case j < len(dispatched):
					results[idx] = dispatched[j]
				default:
					results[idx] = "[ERROR: no result returned for this call]"
				}
			}
		}

		for i, call := range resp.ToolCalls {
			messages = append(messages, models.ChatMessage{
				Role:       models.RoleTool,
				Content:    results[i],
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
	}

	messages = append(messages, errorMessage(fmt.Errorf("max iterations (%d) exceeded", r.cfg.MaxIterations)))
	return models.Trajectory{Messages: messages}, nil
}

func errorMessage(err error) models.ChatMessage {
	return models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: fmt.Sprintf("[ERROR: %s]", err.Error()),
	}
}

func toolDefByName(defs []models.ToolDefinition, name string) (models.ToolDefinition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return models.ToolDefinition{}, false
}

func mcpToolDefsOrListed(ctx context.Context, client mcpclient.Client, fallback []models.MCPToolSpec) []models.ToolDefinition {
	if listed, err := client.ListTools(ctx); err == nil && len(listed) > 0 {
		return listed
	}
	out := make([]models.ToolDefinition, len(fallback))
	for i, t := range fallback {
		out[i] = models.ToolDefinition{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
	}
	return out
}
