package chain

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/agentsynth/internal/judge"
	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/internal/semreg"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// VoteVerification is the vote_verify_chain operator's result: n_samples
// independent validity judgments over one sub-chain, majority-voted (§4.5
// "majority_vote_of_bool"; §1 "verify each sub-chain by multi-judge
// voting"). A valid vote also carries the synthesized task description,
// user query, and plan from one of the "valid" samples.
type VoteVerification struct {
	IsValid         bool   `json:"is_valid"`
	TaskDescription string `json:"task_description,omitempty"`
	UserQuery       string `json:"user_query,omitempty"`
	TaskPlan        string `json:"task_plan,omitempty"`
	VoteTrue        int    `json:"vote_true"`
	VoteFalse       int    `json:"vote_false"`
}

// BackTranslationAttempt is one round-trip: synthesize a query from the
// chain, then a chain from that query, and compare.
type BackTranslationAttempt struct {
	Valid          bool     `json:"valid"`
	Query          string   `json:"query,omitempty"`
	GeneratedChain []string `json:"generated_chain,omitempty"`
}

// BackTranslationVerification is the back_translation_verify_chain
// operator's result: several independent back-translation attempts,
// majority-voted (§4 glossary "Back-translation verification").
type BackTranslationVerification struct {
	Valid    bool                     `json:"valid"`
	Attempts []BackTranslationAttempt `json:"attempts"`
}

type voteJudgeOutput struct {
	IsValid         bool   `json:"is_valid"`
	TaskDescription string `json:"task_description"`
	UserQuery       string `json:"user_query"`
	TaskPlan        string `json:"task_plan"`
}

type queryFromChainOutput struct {
	Valid bool   `json:"valid"`
	Query string `json:"query"`
}

type chainFromQueryOutput struct {
	Chain []string `json:"chain"`
}

// ChainVerifier runs the C9 -> C5 sub-chain verification stage: multi-judge
// voting plus back-translation, gating which sub-chains reach C10.
// Grounded on original_source/trajectory_synthesis/src/1_graph_build/verify's
// vote_verify_chain.py and back_translation_verify_chain.py, reimplemented
// on top of internal/judge instead of that code's bespoke vote-counting and
// ThreadPoolExecutor fan-out.
type ChainVerifier struct {
	client  *llmclient.Client
	prompts *promptstore.Store
	sems    *semreg.Registry
}

// NewChainVerifier builds a ChainVerifier.
func NewChainVerifier(client *llmclient.Client, prompts *promptstore.Store, sems *semreg.Registry) *ChainVerifier {
	return &ChainVerifier{client: client, prompts: prompts, sems: sems}
}

// VoteVerify samples nSamples independent validity judgments for subChain
// against groupInfo/tools and majority-votes the result (§4.5).
func (v *ChainVerifier) VoteVerify(ctx context.Context, groupInfo models.GroupInfo, tools []models.MCPToolSpec, subChain models.SubChain, nSamples int) VoteVerification {
	if nSamples <= 0 {
		nSamples = 3
	}

	apiJSON, _ := json.Marshal(struct {
		GroupInfo models.GroupInfo    `json:"group_info"`
		ToolList  []models.MCPToolSpec `json:"tool_list"`
	}{groupInfo, tools})
	chainJSON, _ := json.Marshal(subChain.Tools)

	judges := make([]judge.Func, nSamples)
	outputs := make([]voteJudgeOutput, nSamples)
	for i := range judges {
		i := i
		judges[i] = func(ctx context.Context) (judge.Vote, error) {
			prompt, err := v.prompts.Render("vote_verify_chain", map[string]string{
				"api_info":        string(apiJSON),
				"graph_paths_str": string(chainJSON),
			})
			if err != nil {
				return judge.Vote{}, err
			}
			resp, err := v.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
			if err != nil {
				return judge.Vote{}, err
			}
			var out voteJudgeOutput
			if p := parser.ParseInto(resp.Content, &out); p.Err != nil {
				return judge.Vote{}, p.Err
			}
			outputs[i] = out
			return judge.Vote{Bool: out.IsValid}, nil
		}
	}

	safeDefault := judge.Vote{Bool: false}
	votes := judge.Run(ctx, v.sems, "chain_vote_verify", safeDefault, judges)

	result := VoteVerification{IsValid: judge.MajorityOfBool(votes)}
	for i, vote := range votes {
		if vote.Bool {
			result.VoteTrue++
		} else {
			result.VoteFalse++
		}
		if result.IsValid && vote.Bool && result.TaskDescription == "" && outputs[i].IsValid {
			result.TaskDescription = outputs[i].TaskDescription
			result.UserQuery = outputs[i].UserQuery
			result.TaskPlan = outputs[i].TaskPlan
		}
	}
	return result
}

// BackTranslate runs nAttempts independent back-translation round-trips
// (query-from-chain, then chain-from-query) and majority-votes validity.
// Each attempt's own validity is an all_match comparison, tool-by-tool,
// between the generated chain and subChain (§4.5 "all_match... the plan
// equals the original chain tool-by-tool").
func (v *ChainVerifier) BackTranslate(ctx context.Context, groupInfo models.GroupInfo, tools []models.MCPToolSpec, subChain models.SubChain, nAttempts int) BackTranslationVerification {
	if nAttempts <= 0 {
		nAttempts = 3
	}

	scenery, _ := json.Marshal(groupInfo)
	toolsJSON, _ := json.Marshal(tools)

	judges := make([]judge.Func, nAttempts)
	attempts := make([]BackTranslationAttempt, nAttempts)
	for i := range judges {
		i := i
		judges[i] = func(ctx context.Context) (judge.Vote, error) {
			attempt, err := v.backTranslateOnce(ctx, string(scenery), string(toolsJSON), subChain.Tools)
			if err != nil {
				return judge.Vote{}, err
			}
			attempts[i] = attempt
			return judge.Vote{Bool: attempt.Valid}, nil
		}
	}

	safeDefault := judge.Vote{Bool: false}
	votes := judge.Run(ctx, v.sems, "chain_back_translation", safeDefault, judges)

	return BackTranslationVerification{
		Valid:    judge.MajorityOfBool(votes),
		Attempts: attempts,
	}
}

func (v *ChainVerifier) backTranslateOnce(ctx context.Context, scenery, toolsJSON string, chain []string) (BackTranslationAttempt, error) {
	chainJSON, _ := json.Marshal(chain)
	prompt, err := v.prompts.Render("chain_query_from_chain", map[string]string{
		"scenery": scenery,
		"tools":   toolsJSON,
		"chain":   string(chainJSON),
	})
	if err != nil {
		return BackTranslationAttempt{}, err
	}
	resp, err := v.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return BackTranslationAttempt{}, err
	}
	var queryOut queryFromChainOutput
	if p := parser.ParseInto(resp.Content, &queryOut); p.Err != nil {
		return BackTranslationAttempt{}, p.Err
	}
	if !queryOut.Valid || queryOut.Query == "" {
		return BackTranslationAttempt{Valid: false}, nil
	}

	chainPrompt, err := v.prompts.Render("chain_from_query", map[string]string{
		"scenery": scenery,
		"tools":   toolsJSON,
		"query":   queryOut.Query,
	})
	if err != nil {
		return BackTranslationAttempt{}, err
	}
	chainResp, err := v.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: chainPrompt}}, nil)
	if err != nil {
		return BackTranslationAttempt{}, err
	}
	var chainOut chainFromQueryOutput
	if p := parser.ParseInto(chainResp.Content, &chainOut); p.Err != nil {
		return BackTranslationAttempt{}, p.Err
	}

	return BackTranslationAttempt{
		Valid:          chainsAllMatch(chain, chainOut.Chain),
		Query:          queryOut.Query,
		GeneratedChain: chainOut.Chain,
	}, nil
}

// chainsAllMatch reports whether generated equals original tool-by-tool,
// implemented as an all_match vote over per-position matches (§4.5).
func chainsAllMatch(original, generated []string) bool {
	if len(original) != len(generated) {
		return false
	}
	votes := make([]judge.Vote, len(original))
	for i := range original {
		votes[i] = judge.Vote{Bool: original[i] == generated[i]}
	}
	return judge.AllMatch(votes)
}
