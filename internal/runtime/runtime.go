// Package runtime bundles a process's shared collaborators into one
// explicit value (§9 "explicit Runtime value") instead of package-level
// singletons, so every stage entry point receives its dependencies by
// argument. The one intentional exception is the log handler, which the
// spec calls out as a singleton guarded by an initialization flag
// (logging.go's sync.Once).
package runtime

import (
	"fmt"
	"log/slog"

	"github.com/haasonsaas/agentsynth/internal/config"
	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/internal/semreg"
)

// Runtime is the set of collaborators every stage binary threads through
// its pipeline: the structured logger, the named-semaphore registry, the
// loaded config, the prompt template store, and a factory for building an
// LLM client bound to a named model_name.
type Runtime struct {
	Logger  *slog.Logger
	Sems    *semreg.Registry
	Config  *config.Config
	Prompts *promptstore.Store
}

// New builds a Runtime from a loaded Config and an already-opened prompt
// store. It does not call InitLogging itself — callers initialize logging
// once at process start (typically in a cmd/ main) and pass the resulting
// logger in.
func New(cfg *config.Config, prompts *promptstore.Store, logger *slog.Logger) *Runtime {
	overrides := make(map[string]int64, len(cfg.Semaphores))
	for _, s := range cfg.Semaphores {
		if s.MaxConcurrent > 0 {
			overrides[s.Name] = int64(s.MaxConcurrent)
		}
	}
	return &Runtime{
		Logger:  logger,
		Sems:    semreg.New(5, overrides),
		Config:  cfg,
		Prompts: prompts,
	}
}

// LLMClient builds a new llmclient.Client bound to modelName's ModelConfig
// (§9 "the LLM client is re-created per call; no shared session pooling is
// required" — here relaxed to "per stage run" rather than per call, since a
// stage processes many records against the same model).
func (rt *Runtime) LLMClient(modelName string) (*llmclient.Client, error) {
	mc, err := rt.Config.ModelByName(modelName)
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}
	return llmclient.New(mc, rt.Config.Retry), nil
}
