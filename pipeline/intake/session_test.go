package intake

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

type fakeStore struct {
	created []contractx.CaseFields
	nextID  int
}

func (f *fakeStore) Create(ctx context.Context, fields contractx.CaseFields, now time.Time) (contractx.CaseID, error) {
	f.nextID++
	f.created = append(f.created, fields)
	return contractx.CaseID(fmt.Sprintf("case-%d", f.nextID)), nil
}

func (f *fakeStore) AppendLog(ctx context.Context, id contractx.CaseID, entry contractx.LogEntry) bool {
	return true
}

func (f *fakeStore) Complete(ctx context.Context, id contractx.CaseID, summary string, now time.Time) bool {
	return true
}

func (f *fakeStore) FetchResolution(ctx context.Context, id contractx.CaseID) (*contractx.CaseSnapshot, error) {
	return nil, contractx.ErrCaseNotFound
}

func validFields() contractx.CaseFields {
	return contractx.CaseFields{
		Organization:     "Contoso",
		CaseNumber:       "CS-100",
		CustomerName:     "Jane Doe",
		IssueDescription: "email delivery delay",
		IssueDuration:    "3 days",
		RootCause:        "queue backlog",
	}
}

func TestSessionSubmitAcceptsFreshCase(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	session, err := NewSession(store)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	id, err := session.Submit(context.Background(), validFields())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty case id")
	}
	if session.CurrentID() != id {
		t.Fatalf("CurrentID = %q, want %q", session.CurrentID(), id)
	}
	if got := session.Accepted(); len(got) != 1 || got[0] != id {
		t.Fatalf("Accepted = %v, want [%s]", got, id)
	}
}

func TestSessionSubmitRejectsImmediateDuplicate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	session, err := NewSession(store)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if _, err := session.Submit(context.Background(), validFields()); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	_, err = session.Submit(context.Background(), validFields())
	if !errors.Is(err, contractx.ErrDuplicateCase) {
		t.Fatalf("second Submit err = %v, want ErrDuplicateCase", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("store.created = %d, want 1 (duplicate must not be persisted)", len(store.created))
	}
}

func TestSessionSubmitAllowsDifferentCaseAfterDuplicate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	session, err := NewSession(store)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	first, err := session.Submit(context.Background(), validFields())
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	other := validFields()
	other.CaseNumber = "CS-101"
	second, err := session.Submit(context.Background(), other)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct case ids")
	}
	if got := session.Accepted(); len(got) != 2 {
		t.Fatalf("Accepted = %v, want two entries", got)
	}
}

func TestSessionSubmitRequiresIssueDescription(t *testing.T) {
	t.Parallel()

	session, err := NewSession(&fakeStore{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	fields := validFields()
	fields.IssueDescription = "   "
	if _, err := session.Submit(context.Background(), fields); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Submit err = %v, want ErrValidation", err)
	}
}

func TestNewSessionRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewSession(nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("NewSession(nil) err = %v, want ErrValidation", err)
	}
}
