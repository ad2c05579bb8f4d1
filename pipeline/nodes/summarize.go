package nodes

import (
	"fmt"
	"strings"

	contractx "github.com/supportops/caseflow/pipeline/contract"
	rolesx "github.com/supportops/caseflow/pipeline/roles"
)

// Summarize builds the deterministic, template-based resolution summary. It
// is never model-generated: fixed prose fragments are keyed by which roles
// produced a response, and the case's organization and issue description
// appear verbatim. With zero successful roles the summary degrades to the
// generic template and is still well-formed.
func Summarize(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	succeeded := make(map[contractx.Role]bool, len(in.Responses))
	for _, resp := range in.Responses {
		succeeded[resp.Role] = true
	}

	var fragments []string
	for _, def := range rolesx.Sequence() {
		if succeeded[def.Role] && def.SummaryFragment != "" {
			fragments = append(fragments, def.SummaryFragment)
		}
	}

	var b strings.Builder
	b.WriteString("Your support case has been resolved by our multi-agent support system.\n")
	if len(fragments) > 0 {
		b.WriteString("\nHere's what we accomplished:\n")
		for _, fragment := range fragments {
			b.WriteString("\n- " + fragment)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nThe issue affecting %s has been addressed, and your %s is now resolved.\n",
		orDefault(in.Fields.Organization, "your organization"),
		orDefault(in.Fields.IssueDescription, "technical issue"),
	)
	b.WriteString("\nOur team will continue monitoring to ensure stable operation.")

	in.Summary = b.String()
	return in, nil
}
