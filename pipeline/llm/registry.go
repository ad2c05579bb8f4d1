package llm

import (
	"context"
	"fmt"

	contractx "github.com/supportops/caseflow/pipeline/contract"
	rolesx "github.com/supportops/caseflow/pipeline/roles"
)

type registryImpl struct {
	runtimes map[contractx.Role]contractx.AgentRuntime
	fallback contractx.AgentRuntime
}

func (r *registryImpl) Runtime(role contractx.Role) contractx.AgentRuntime {
	if rt, ok := r.runtimes[role]; ok {
		return rt
	}
	return r.fallback
}

// NewRegistry builds one runtime per role in the chain, honoring per-role
// model and temperature overrides, plus a default-model fallback for roles
// registered after construction.
func NewRegistry(ctx context.Context, cfg Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runtimes := make(map[contractx.Role]contractx.AgentRuntime, 4)
	for _, def := range rolesx.Sequence() {
		clientCfg := cfg.ClientFor(def.Role)
		chatModel, err := clientCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("create model for role=%s: %w", def.Role, err)
		}
		rt, err := NewRuntime(chatModel, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		runtimes[def.Role] = rt
	}

	defaultCfg := cfg.ClientFor("")
	defaultModel, err := defaultCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create default model: %w", err)
	}
	fallback, err := NewRuntime(defaultModel, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &registryImpl{runtimes: runtimes, fallback: fallback}, nil
}
