// Package cli holds the bootstrap sequence shared by every stage binary
// under cmd/: load config, init logging, load prompts, build a Runtime.
// Grounded on the teacher's cmd/nexus/main.go, which inlines the same
// config-then-logging-then-subsystem sequence before handing off to cobra;
// here it is factored out once since every stage binary repeats it
// verbatim with only the model name and record types differing.
package cli

import (
	"fmt"

	"github.com/haasonsaas/agentsynth/internal/config"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/internal/runtime"
)

// Bootstrap is the set of subsystems every stage binary needs before it can
// build its own engine and start processing records.
type Bootstrap struct {
	Runtime *runtime.Runtime
}

// Init loads configPath (or the documented defaults if empty), initializes
// process-wide logging, loads prompt templates from Config.PromptDir, and
// returns the resulting Runtime.
func Init(configPath string) (*Bootstrap, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("cli: load config: %w", err)
		}
		cfg = loaded
	}

	logger := runtime.InitLogging(cfg.LogFile)

	prompts, err := promptstore.Load(cfg.PromptDir)
	if err != nil {
		return nil, fmt.Errorf("cli: load prompts: %w", err)
	}

	rt := runtime.New(cfg, prompts, logger)
	return &Bootstrap{Runtime: rt}, nil
}
