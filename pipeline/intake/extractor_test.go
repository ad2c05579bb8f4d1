package intake

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

type fakeRuntime struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeRuntime) Complete(ctx context.Context, instructions, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

const sampleExtraction = `{
  "organization": "Contoso",
  "case_number": "CS-100",
  "customer_name": "Jane Doe",
  "issue_description": "email delivery delay",
  "issue_duration": "3 days",
  "root_cause": "queue backlog"
}`

func TestExtractParsesPlainJSON(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{response: sampleExtraction}
	ex, err := NewExtractor(rt)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	fields, err := ex.Extract(context.Background(), "Agent: hello\nCustomer: my email is stuck")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if fields.Organization != "Contoso" || fields.CaseNumber != "CS-100" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
	if fields.IssueDescription != "email delivery delay" {
		t.Fatalf("IssueDescription = %q", fields.IssueDescription)
	}
}

func TestExtractParsesFencedJSON(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{response: "```json\n" + sampleExtraction + "\n```"}
	ex, err := NewExtractor(rt)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	fields, err := ex.Extract(context.Background(), "transcript")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if fields.CustomerName != "Jane Doe" {
		t.Fatalf("CustomerName = %q", fields.CustomerName)
	}
}

func TestExtractRejectsEmptyTranscript(t *testing.T) {
	t.Parallel()

	ex, err := NewExtractor(&fakeRuntime{response: sampleExtraction})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	if _, err := ex.Extract(context.Background(), "  \n "); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Extract err = %v, want ErrValidation", err)
	}
}

func TestExtractWrapsRuntimeFailure(t *testing.T) {
	t.Parallel()

	ex, err := NewExtractor(&fakeRuntime{err: errors.New("backend down")})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	if _, err := ex.Extract(context.Background(), "transcript"); !errors.Is(err, contractx.ErrAgentInvoke) {
		t.Fatalf("Extract err = %v, want ErrAgentInvoke", err)
	}
}

func TestExtractRejectsMalformedResponse(t *testing.T) {
	t.Parallel()

	ex, err := NewExtractor(&fakeRuntime{response: "sorry, I cannot help with that"})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	if _, err := ex.Extract(context.Background(), "transcript"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Extract err = %v, want ErrValidation", err)
	}
}
