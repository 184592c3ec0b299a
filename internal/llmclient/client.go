// Package llmclient implements the LLM Client (C2): a single OpenAI-
// compatible chat call with streaming reassembly of content, reasoning, and
// tool-call deltas, and bounded fixed-delay retries. Grounded on
// internal/agent/providers/openai.go's streaming tool-call accumulation and
// retry loop.
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/agentsynth/internal/config"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// Message is one chat turn in Client's wire-agnostic request shape.
type Message = models.ChatMessage

// Response is the single assistant turn a chat call produces.
type Response struct {
	Content   string
	Reasoning string
	ToolCalls []models.ToolCall

	// ContextOverflow is set when the provider reported the prompt exceeded
	// the model's context window; callers must not retry (§4.2, §7).
	ContextOverflow bool
}

// Client dials one model config, retrying per the configured fixed-delay
// policy (§4.2: API_MAX_RETRY_TIMES attempts, API_RETRY_SLEEP_TIME sleep).
type Client struct {
	oai        *openai.Client
	model      config.ModelConfig
	maxRetries int
	retryDelay time.Duration
}

// New builds a Client for the given model config. model_type selects the
// base-URL / auth shape (§6): oss_vllm/mistral_vllm/qwen_dashscope are all
// OpenAI-compatible endpoints reached by overriding BaseURL, matching the
// teacher's separate-file-per-backend approach (providers/azure.go,
// providers/openrouter.go) collapsed here into one config-driven client
// since every one of these backends speaks the same wire format.
func New(mc config.ModelConfig, retry config.RetryConfig) *Client {
	oaiCfg := openai.DefaultConfig(mc.APIKey)
	if mc.BaseURL != "" {
		oaiCfg.BaseURL = mc.BaseURL
	}
	if mc.ModelType == config.ModelTypeAzure {
		oaiCfg.APIType = openai.APITypeAzure
	}

	maxRetries := retry.APIMaxRetryTimes
	if maxRetries <= 0 {
		maxRetries = 10
	}
	delay := retry.APIRetrySleepTime
	if delay <= 0 {
		delay = 5 * time.Second
	}

	return &Client{
		oai:        openai.NewClientWithConfig(oaiCfg),
		model:      mc,
		maxRetries: maxRetries,
		retryDelay: delay,
	}
}

// Chat sends messages and returns the single resulting assistant turn. On
// context-overflow it returns a Response with ContextOverflow set and a nil
// error — the spec's "distinguished {response: None}" — instead of
// retrying. On retry exhaustion for any other transient error, it returns
// the last error.
func (c *Client) Chat(ctx context.Context, messages []Message, tools []models.ToolDefinition) (*Response, error) {
	req := c.buildRequest(messages, tools)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}

		if isContextOverflow(err) {
			return &Response{ContextOverflow: true}, nil
		}

		lastErr = err
	}

	return nil, fmt.Errorf("llmclient: exhausted %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) buildRequest(messages []Message, tools []models.ToolDefinition) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       c.model.Model,
		Messages:    convertMessages(normalizeOutbound(messages)),
		Temperature: float32(c.model.Temperature),
		TopP:        float32(orDefault(c.model.TopP, 0.95)),
		Stream:      c.model.Stream,
	}
	if c.model.MaxTokens > 0 {
		req.MaxTokens = c.model.MaxTokens
	}
	if len(tools) > 0 {
		req.Tools = convertTools(tools)
	}
	return req
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func (c *Client) attempt(ctx context.Context, req openai.ChatCompletionRequest) (*Response, error) {
	if req.Stream {
		return c.attemptStream(ctx, req)
	}
	return c.attemptSync(ctx, req)
}

func (c *Client) attemptSync(ctx context.Context, req openai.ChatCompletionRequest) (*Response, error) {
	resp, err := c.oai.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("llmclient: empty choices")
	}
	msg := resp.Choices[0].Message
	return &Response{
		Content:   msg.Content,
		Reasoning: reasoningOf(msg),
		ToolCalls: convertToolCallsOut(msg.ToolCalls),
	}, nil
}

func (c *Client) attemptStream(ctx context.Context, req openai.ChatCompletionRequest) (*Response, error) {
	stream, err := c.oai.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var content, reasoning string
	toolCalls := make(map[int]*models.ToolCall)

	for {
		chunk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		content += delta.Content
		reasoning += reasoningDeltaOf(delta)

		for _, tc := range delta.ToolCalls {
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			cur, ok := toolCalls[index]
			if !ok {
				cur = &models.ToolCall{Type: "function"}
				toolCalls[index] = cur
			}
			if tc.ID != "" {
				cur.ID = tc.ID
			}
			if tc.Function.Name != "" {
				cur.Function.Name = tc.Function.Name
			}
			cur.Function.Arguments += tc.Function.Arguments
		}
	}

	ordered := make([]models.ToolCall, 0, len(toolCalls))
	for i := 0; i < len(toolCalls); i++ {
		if tc, ok := toolCalls[i]; ok {
			ordered = append(ordered, *tc)
		}
	}

	return &Response{Content: content, Reasoning: reasoning, ToolCalls: ordered}, nil
}
