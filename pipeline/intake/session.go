package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/supportops/caseflow/pipeline/contract"
	dedupx "github.com/supportops/caseflow/pipeline/dedup"
)

// Session holds the per-caller submission state: the cases accepted during
// this session, the current case id, and the fingerprint of the last accepted
// case. It replaces ambient session-scoped globals with an explicit value
// owned by the host. A Session serves one case at a time and is not safe for
// concurrent use.
type Session struct {
	store contractx.CaseStore

	lastFingerprint string
	currentID       contractx.CaseID
	accepted        []contractx.CaseID

	now func() time.Time
}

func NewSession(store contractx.CaseStore) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: case store is required", contractx.ErrValidation)
	}
	return &Session{
		store: store,
		now:   time.Now,
	}, nil
}

// Submit fingerprints the case and persists it unless it matches the
// immediately preceding submission, in which case ErrDuplicateCase is
// returned and nothing is written.
func (s *Session) Submit(ctx context.Context, fields contractx.CaseFields) (contractx.CaseID, error) {
	if strings.TrimSpace(fields.IssueDescription) == "" {
		return "", fmt.Errorf("%w: issue description is required", contractx.ErrValidation)
	}

	fingerprint := dedupx.Fingerprint(fields)
	if dedupx.IsDuplicate(fingerprint, s.lastFingerprint) {
		log.Warn().
			Str("case_number", fields.CaseNumber).
			Msg("duplicate case submission suppressed")
		return "", contractx.ErrDuplicateCase
	}

	id, err := s.store.Create(ctx, fields, s.now().UTC())
	if err != nil {
		return "", fmt.Errorf("create case: %w", err)
	}

	s.lastFingerprint = fingerprint
	s.currentID = id
	s.accepted = append(s.accepted, id)

	log.Info().
		Str("case_id", string(id)).
		Str("case_number", fields.CaseNumber).
		Msg("case accepted")
	return id, nil
}

// CurrentID returns the id of the most recently accepted case, or empty.
func (s *Session) CurrentID() contractx.CaseID {
	return s.currentID
}

// Accepted returns the ids accepted during this session, in order.
func (s *Session) Accepted() []contractx.CaseID {
	out := make([]contractx.CaseID, len(s.accepted))
	copy(out, s.accepted)
	return out
}
