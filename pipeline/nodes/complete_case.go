package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

// CompleteCase writes the terminal state: the store record is marked
// completed with the summary, then the completion entry closes the log. The
// completion detail carries the summary so the log alone reconstructs the
// outcome.
func CompleteCase(ctx context.Context, in *GraphState, store contractx.CaseStore) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	now := in.Now().UTC()
	if !store.Complete(ctx, in.CaseID, in.Summary, now) {
		log.Warn().Str("case_id", string(in.CaseID)).Msg("store did not acknowledge case completion")
	}
	store.AppendLog(ctx, in.CaseID, contractx.LogEntry{
		Timestamp: now,
		Agent:     systemAgent,
		Action:    contractx.ActionCompletion,
		Detail:    in.Summary,
	})

	return GraphOutput{Summary: in.Summary}, nil
}
