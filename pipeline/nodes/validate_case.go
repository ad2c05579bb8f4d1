package nodes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

var (
	ErrInvalidCaseID = errors.New("case id is empty")
)

type GraphInput struct {
	CaseID contractx.CaseID
	Fields contractx.CaseFields
}

type GraphOutput struct {
	Summary string
}

// GraphState is threaded through the resolution chain. Transcript is
// append-only: each successful role adds one "<Role>: <response>" block and a
// failed role leaves it untouched.
type GraphState struct {
	CaseID contractx.CaseID
	Fields contractx.CaseFields
	Now    func() time.Time

	Transcript string
	Responses  []contractx.AgentResponse
	Failed     []contractx.Role

	Summary string
}

func ValidateCase(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if strings.TrimSpace(string(in.CaseID)) == "" {
		return nil, ErrInvalidCaseID
	}

	return &GraphState{
		CaseID:     in.CaseID,
		Fields:     in.Fields,
		Now:        nowFn,
		Transcript: InitialContext(in.Fields),
	}, nil
}

// InitialContext renders the deterministic case block every role sees first.
func InitialContext(f contractx.CaseFields) string {
	return fmt.Sprintf(`Customer Support Case for Processing:

Customer: %s
Organization: %s
Case Number: %s
Issue: %s
Duration: %s
Suspected Cause: %s

Please provide your analysis and recommendations for this case.`,
		orDefault(f.CustomerName, "Unknown"),
		orDefault(f.Organization, "N/A"),
		orDefault(f.CaseNumber, "N/A"),
		orDefault(f.IssueDescription, "No description"),
		orDefault(f.IssueDuration, "Unknown"),
		orDefault(f.RootCause, "Not specified"),
	)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
