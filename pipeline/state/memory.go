package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

// MemoryStore keeps case records in process memory. It backs tests and the
// demo wiring; production hosts use PostgresStore.
type MemoryStore struct {
	mu    sync.Mutex
	cases map[contractx.CaseID]*contractx.Case
}

var _ contractx.CaseStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cases: make(map[contractx.CaseID]*contractx.Case, 8),
	}
}

func (s *MemoryStore) Create(ctx context.Context, fields contractx.CaseFields, now time.Time) (contractx.CaseID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := contractx.CaseID(uuid.NewString())
	s.cases[id] = &contractx.Case{
		ID:        id,
		Fields:    fields,
		Status:    contractx.CaseStatusCreated,
		Log:       []contractx.LogEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

func (s *MemoryStore) AppendLog(ctx context.Context, id contractx.CaseID, entry contractx.LogEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return false
	}
	c.Log = append(c.Log, entry)
	c.UpdatedAt = entry.Timestamp
	if c.Status != contractx.CaseStatusCompleted &&
		(entry.Action == contractx.ActionStart || entry.Action == contractx.ActionAgentResponse || entry.Action == contractx.ActionAgentError) {
		c.Status = contractx.ProcessingStatus(entry.Agent)
	}
	return true
}

func (s *MemoryStore) Complete(ctx context.Context, id contractx.CaseID, summary string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return false
	}
	c.Status = contractx.CaseStatusCompleted
	c.ResolutionSummary = summary
	c.CompletedAt = now
	c.UpdatedAt = now
	return true
}

func (s *MemoryStore) FetchResolution(ctx context.Context, id contractx.CaseID) (*contractx.CaseSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, contractx.ErrCaseNotFound
	}
	return &contractx.CaseSnapshot{
		ID:                c.ID,
		CaseNumber:        c.Fields.CaseNumber,
		CustomerName:      c.Fields.CustomerName,
		ResolutionSummary: c.ResolutionSummary,
	}, nil
}

// Case returns a copy of the full record, for inspection by hosts and tests.
func (s *MemoryStore) Case(id contractx.CaseID) (contractx.Case, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return contractx.Case{}, false
	}
	out := *c
	out.Log = make([]contractx.LogEntry, len(c.Log))
	copy(out.Log, c.Log)
	return out, true
}
