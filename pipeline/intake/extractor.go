package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

const extractorInstructions = "You are a helpful assistant that extracts information and returns valid JSON."

const extractorPromptFormat = `Extract customer support information from this transcript and return ONLY valid JSON:

{
  "organization": "Company name",
  "case_number": "Case/ticket number if mentioned",
  "customer_name": "Customer's name",
  "issue_description": "Brief description of the problem",
  "issue_duration": "How long the issue has been occurring",
  "root_cause": "Suspected cause if mentioned"
}

Transcript:
%s`

// Extractor turns a free-form support transcript into structured case fields
// using a single JSON-mode completion.
type Extractor struct {
	runtime contractx.AgentRuntime
}

func NewExtractor(runtime contractx.AgentRuntime) (*Extractor, error) {
	if runtime == nil {
		return nil, fmt.Errorf("%w: agent runtime is required", contractx.ErrValidation)
	}
	return &Extractor{runtime: runtime}, nil
}

func (e *Extractor) Extract(ctx context.Context, transcript string) (contractx.CaseFields, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return contractx.CaseFields{}, fmt.Errorf("%w: transcript is empty", contractx.ErrValidation)
	}

	raw, err := e.runtime.Complete(ctx, extractorInstructions, fmt.Sprintf(extractorPromptFormat, transcript))
	if err != nil {
		return contractx.CaseFields{}, fmt.Errorf("%w: extract labels: %v", contractx.ErrAgentInvoke, err)
	}

	var fields contractx.CaseFields
	if err := json.Unmarshal([]byte(stripFences(raw)), &fields); err != nil {
		return contractx.CaseFields{}, fmt.Errorf("%w: decode extracted labels: %v", contractx.ErrValidation, err)
	}
	return fields, nil
}

// stripFences removes a markdown code fence some models wrap around JSON.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
