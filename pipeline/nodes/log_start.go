package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

const systemAgent = "system"

func LogStart(ctx context.Context, in *GraphState, store contractx.CaseStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	detail, err := json.Marshal(in.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal case fields: %v", contractx.ErrValidation, err)
	}

	store.AppendLog(ctx, in.CaseID, contractx.LogEntry{
		Timestamp: in.Now().UTC(),
		Agent:     systemAgent,
		Action:    contractx.ActionStart,
		Detail:    string(detail),
	})
	return in, nil
}
