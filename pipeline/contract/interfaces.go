package contract

import (
	"context"
	"time"
)

// CaseStore is the durable keyed storage for case records and their
// append-only processing logs. Implementations apply updates atomically per
// case id; the pipeline never issues concurrent writes to the same id.
type CaseStore interface {
	// Create persists a new case with status created, an empty log and an
	// empty resolution summary, and returns the assigned id.
	Create(ctx context.Context, fields CaseFields, now time.Time) (CaseID, error)

	// AppendLog appends one entry to the case's processing log. It reports
	// false for an unknown id and never raises into the pipeline.
	AppendLog(ctx context.Context, id CaseID, entry LogEntry) bool

	// Complete marks the case completed with the given resolution summary and
	// stamps the completion time. False for an unknown id.
	Complete(ctx context.Context, id CaseID, summary string, now time.Time) bool

	// FetchResolution returns the narrow resolution view of a case, or
	// ErrCaseNotFound.
	FetchResolution(ctx context.Context, id CaseID) (*CaseSnapshot, error)
}

// Retriever returns up to k prior-case excerpts semantically similar to the
// query, ordered by descending relevance. On any failure it returns an empty
// slice: the pipeline treats "nothing found" and "retrieval failed" the same
// and degrades to an unaugmented prompt.
type Retriever interface {
	SearchSimilar(ctx context.Context, query string, k int) []KnowledgeHit
}

// AgentRuntime is the stateless completion backend for one agent role.
type AgentRuntime interface {
	Complete(ctx context.Context, roleInstructions string, prompt string) (string, error)
}

// Registry resolves the runtime serving a given role, letting hosts run
// different models per role.
type Registry interface {
	Runtime(role Role) AgentRuntime
}

// Notifier delivers a best-effort resolution notification. Failure is
// reported through ok/detail and never reverses a completed case.
type Notifier interface {
	Send(ctx context.Context, fields CaseFields, summary string, recipient string, senderName string) (ok bool, detail string)
}

// BlobStore receives synthesis artifacts and issues time-bounded access
// tokens for secure retrieval.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, name string) (url string, err error)
	GrantTemporaryAccess(ctx context.Context, name string, ttl time.Duration) (token string, err error)
}
