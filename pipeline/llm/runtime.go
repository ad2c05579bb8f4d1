package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

// Runtime is a stateless request/response wrapper around one chat model.
// Every call runs under a bounded timeout so a hung backend cannot stall the
// pipeline.
type Runtime struct {
	model   einomodel.BaseChatModel
	timeout time.Duration
}

var _ contractx.AgentRuntime = (*Runtime)(nil)

func NewRuntime(chatModel einomodel.BaseChatModel, timeout time.Duration) (*Runtime, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runtime{model: chatModel, timeout: timeout}, nil
}

func (r *Runtime) Complete(ctx context.Context, roleInstructions string, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(roleInstructions),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrAgentInvoke, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", contractx.ErrAgentInvoke)
	}
	return strings.TrimSpace(out.Content), nil
}
