package cluster

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/sandbox"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

type mockRewriteOutput struct {
	Code     string `json:"code"`
	Analysis string `json:"analysis"`
}

// rewriteMockData asks the model to modify only the mock/static-data
// portion of base's code so every member's expected answer becomes a
// substring of its call output, keeping the function signature unchanged
// (§4.8.2).
func (e *Engine) rewriteMockData(ctx context.Context, base Member, members []Member) (string, error) {
	payload, err := json.Marshal(members)
	if err != nil {
		return "", err
	}

	prompt, err := e.prompts.Render("cluster_mock_rewrite", map[string]string{
		"base_code": base.Tool.Code,
		"members":   string(payload),
	})
	if err != nil {
		return "", err
	}

	resp, err := e.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return "", err
	}

	var out mockRewriteOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return "", p.Err
	}
	if out.Code == "" {
		return "", errors.New("cluster: mock rewrite produced no code")
	}
	return out.Code, nil
}

type callStatementsOutput struct {
	Statements []models.ClusterCallStatement `json:"statements"`
}

// regenerateCallStatements asks the model for a fresh call statement for
// every member, using only parameter names from doc's signature (§4.8.2).
func (e *Engine) regenerateCallStatements(ctx context.Context, doc models.ToolDefinition, members []Member) ([]models.ClusterCallStatement, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	membersJSON, err := json.Marshal(members)
	if err != nil {
		return nil, err
	}

	prompt, err := e.prompts.Render("cluster_call_statements", map[string]string{
		"doc":     string(docJSON),
		"members": string(membersJSON),
	})
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return nil, err
	}

	var out callStatementsOutput
	if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
		return nil, p.Err
	}
	if len(out.Statements) != len(members) {
		return nil, errors.New("cluster: call-statement count does not match member count")
	}
	return out.Statements, nil
}

// verify sandbox-executes each member's regenerated statement against
// mergedCode and checks the expected answer appears in stdout (§4.8.2).
func (e *Engine) verify(ctx context.Context, mergedCode string, members []Member, statements []models.ClusterCallStatement) models.ClusterVerification {
	byUUID := make(map[string]models.ClusterCallStatement, len(statements))
	for _, st := range statements {
		byUUID[st.UUID] = st
	}

	results := make([]models.ClusterTestResult, 0, len(members))
	passed := 0
	for _, m := range members {
		st, ok := byUUID[m.UUID]
		if !ok {
			results = append(results, models.ClusterTestResult{UUID: m.UUID, Question: m.Question, Answer: m.Answer})
			continue
		}

		full := mergedCode + "\nprint(" + st.Statement + ")"
		resp, err := e.sandbox.Run(ctx, full, "python")
		ok = err == nil && sandbox.AnswerPresent(resp, m.Answer)
		if ok {
			passed++
		}

		result := models.ClusterTestResult{
			UUID:      m.UUID,
			Statement: st.Statement,
			Question:  m.Question,
			Answer:    m.Answer,
			Passed:    ok,
		}
		if resp != nil {
			result.Stdout = resp.RunResult.Stdout
		}
		results = append(results, result)
	}

	return models.ClusterVerification{
		TestResults: results,
		PassedCount: passed,
		TotalCount:  len(members),
	}
}
