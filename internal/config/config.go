// Package config loads the pipeline's YAML configuration: the API_CONFIGS
// model registry, sandbox endpoint, semaphore concurrency overrides, and
// stage defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ModelType selects which OpenAI-compatible wire dialect a model speaks.
type ModelType string

const (
	ModelTypeOAI           ModelType = "oai"
	ModelTypeOSSVLLM       ModelType = "oss_vllm"
	ModelTypeMistralVLLM   ModelType = "mistral_vllm"
	ModelTypeAzure         ModelType = "azure"
	ModelTypeQwenDashscope ModelType = "qwen_dashscope"
)

// FuncCallPromptType selects how tool calls are elicited from the model.
type FuncCallPromptType string

const (
	FuncCallNative FuncCallPromptType = "native" // OpenAI tools format
	FuncCallHermes FuncCallPromptType = "hermes" // prompt-based Nous/Hermes template
)

// ModelConfig is one entry in API_CONFIGS: everything needed to dial a model.
type ModelConfig struct {
	BaseURL          string             `yaml:"base_url"`
	APIKey           string             `yaml:"api_key"`
	Model            string             `yaml:"model"`
	ModelType        ModelType          `yaml:"model_type"`
	FuncCallPrompt   FuncCallPromptType `yaml:"fncall_prompt_type"`
	Temperature      float64            `yaml:"temperature"`
	TopP             float64            `yaml:"top_p"`
	MaxTokens        int                `yaml:"max_tokens"`
	Stream           bool               `yaml:"stream"`
}

// RetryConfig configures the LLM client's bounded-retry policy (§4.2, §7).
type RetryConfig struct {
	APIMaxRetryTimes  int           `yaml:"api_max_retry_times"`
	APIRetrySleepTime time.Duration `yaml:"api_retry_sleep_time"`
}

// SynthesisConfig configures the Tool Synthesizer's inner/outer retry bounds
// (§4.7).
type SynthesisConfig struct {
	InnerMaxRetryTimes int `yaml:"inner_max_retry_times"`
	OuterMaxRetryTimes int `yaml:"outer_max_retry_times"`
	MergeMaxRetryTimes int `yaml:"merge_max_retry_times"`
}

// SemaphoreConfig overrides the default max_concurrent (5) for a named
// workload (§5).
type SemaphoreConfig struct {
	Name          string `yaml:"name"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// Config is the top-level pipeline configuration.
type Config struct {
	APIConfigs map[string]ModelConfig `yaml:"api_configs"`
	SandboxURL string                 `yaml:"sandbox_url"`
	PromptDir  string                 `yaml:"prompt_dir"`
	LogFile    string                 `yaml:"log_file"`
	Retry      RetryConfig            `yaml:"retry"`
	Synthesis  SynthesisConfig        `yaml:"synthesis"`
	Semaphores []SemaphoreConfig      `yaml:"semaphores"`
}

// DefaultConfig returns the spec's documented defaults (§4.2, §4.7, §5).
func DefaultConfig() *Config {
	return &Config{
		APIConfigs: map[string]ModelConfig{},
		SandboxURL: "http://localhost:8089/run_code",
		PromptDir:  "prompts",
		LogFile:    "pipeline.log",
		Retry: RetryConfig{
			APIMaxRetryTimes:  10,
			APIRetrySleepTime: 5 * time.Second,
		},
		Synthesis: SynthesisConfig{
			InnerMaxRetryTimes: 5,
			OuterMaxRetryTimes: 15,
			MergeMaxRetryTimes: 20,
		},
	}
}

// Load reads and parses a YAML config file, applying DefaultConfig for any
// field the file leaves unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Retry.APIMaxRetryTimes <= 0 {
		cfg.Retry.APIMaxRetryTimes = 10
	}
	if cfg.Retry.APIRetrySleepTime <= 0 {
		cfg.Retry.APIRetrySleepTime = 5 * time.Second
	}
	if cfg.Synthesis.InnerMaxRetryTimes <= 0 {
		cfg.Synthesis.InnerMaxRetryTimes = 5
	}
	if cfg.Synthesis.OuterMaxRetryTimes <= 0 {
		cfg.Synthesis.OuterMaxRetryTimes = 15
	}
	if cfg.Synthesis.MergeMaxRetryTimes <= 0 {
		cfg.Synthesis.MergeMaxRetryTimes = 20
	}
	if cfg.SandboxURL == "" {
		cfg.SandboxURL = "http://localhost:8089/run_code"
	}

	return cfg, nil
}

// ModelByName looks up a model config by its API_CONFIGS key, mirroring the
// CLI's mandatory --model_name flag (§6).
func (c *Config) ModelByName(name string) (ModelConfig, error) {
	mc, ok := c.APIConfigs[name]
	if !ok {
		return ModelConfig{}, fmt.Errorf("unknown model_name %q: not present in api_configs", name)
	}
	if mc.TopP == 0 {
		mc.TopP = 0.95
	}
	return mc, nil
}

// SemaphoreWeight returns the configured max_concurrent for name, or the
// default weight of 5 (§5).
func (c *Config) SemaphoreWeight(name string) int64 {
	for _, s := range c.Semaphores {
		if s.Name == name {
			if s.MaxConcurrent > 0 {
				return int64(s.MaxConcurrent)
			}
			break
		}
	}
	return 5
}
