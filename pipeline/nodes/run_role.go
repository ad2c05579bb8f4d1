package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/supportops/caseflow/pipeline/contract"
	rolesx "github.com/supportops/caseflow/pipeline/roles"
)

// TopKnowledgeHits bounds how many prior-case excerpts augment the analyst
// prompt.
const TopKnowledgeHits = 3

// RunRole invokes one agent role against the running transcript. A failed or
// empty completion is recovered, not fatal: the error is logged, the
// transcript stays unchanged for that role, and the chain continues.
func RunRole(
	ctx context.Context,
	in *GraphState,
	def rolesx.Definition,
	models contractx.Registry,
	retriever contractx.Retriever,
	store contractx.CaseStore,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	prompt := BasePrompt(in.Transcript, def)
	if def.Augmented {
		hits := retriever.SearchSimilar(ctx, KnowledgeQuery(in.Fields), TopKnowledgeHits)
		if len(hits) > 0 {
			prompt += AugmentationBlock(hits)
		}
	}

	text, err := models.Runtime(def.Role).Complete(ctx, def.Instructions, prompt)
	now := in.Now().UTC()
	if err != nil {
		log.Warn().
			Err(err).
			Str("case_id", string(in.CaseID)).
			Str("role", string(def.Role)).
			Msg("agent call failed, continuing without its contribution")
		store.AppendLog(ctx, in.CaseID, contractx.LogEntry{
			Timestamp: now,
			Agent:     def.DisplayName,
			Action:    contractx.ActionAgentError,
			Detail:    err.Error(),
		})
		in.Failed = append(in.Failed, def.Role)
		return in, nil
	}

	in.Transcript += "\n\n" + def.DisplayName + ": " + text
	in.Responses = append(in.Responses, contractx.AgentResponse{
		Role:      def.Role,
		Text:      text,
		Timestamp: now,
	})
	store.AppendLog(ctx, in.CaseID, contractx.LogEntry{
		Timestamp: now,
		Agent:     def.DisplayName,
		Action:    contractx.ActionAgentResponse,
		Detail:    text,
	})
	return in, nil
}

// BasePrompt is the unaugmented prompt for a role: the running transcript
// followed by the role's fixed instruction text.
func BasePrompt(transcript string, def rolesx.Definition) string {
	return fmt.Sprintf(`Previous conversation:
%s

As the %s agent, provide your response to this case following your role:
%s`, transcript, def.DisplayName, def.Instructions)
}

// KnowledgeQuery builds the retrieval query from the case's descriptive
// fields.
func KnowledgeQuery(f contractx.CaseFields) string {
	query := strings.TrimSpace(strings.Join([]string{
		f.IssueDescription,
		f.RootCause,
		f.Organization,
	}, " "))
	if query == "" {
		return "general support issue"
	}
	return query
}

// AugmentationBlock formats retrieved prior cases plus the fixed usage
// instructions appended to the analyst prompt.
func AugmentationBlock(hits []contractx.KnowledgeHit) string {
	var b strings.Builder
	b.WriteString("\n\n**RELEVANT KNOWLEDGE FROM SEARCH:**\n")
	b.WriteString("\n**Similar Historical Cases:**\n")

	for i, hit := range hits {
		fmt.Fprintf(&b, "%d. **Case ID:** %s\n", i+1, hit.ID)
		fmt.Fprintf(&b, "   **Title:** %s\n", hit.Title)
		fmt.Fprintf(&b, "   **Content:** %s\n\n", hit.Excerpt)
	}

	b.WriteString(`
**INSTRUCTIONS FOR USING THIS KNOWLEDGE:**
- Reference specific historical cases when they match the current issue
- Apply lessons learned from past resolutions
- Consider patterns from similar cases
- Recommend approaches that align with historical solutions
- Note any recurring themes in the retrieved cases
`)
	return b.String()
}
