package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

type caseRecord struct {
	bun.BaseModel `bun:"table:cases,alias:c"`

	ID                string                `bun:"id,pk"`
	Organization      string                `bun:"organization"`
	CaseNumber        string                `bun:"case_number"`
	CustomerName      string                `bun:"customer_name"`
	IssueDescription  string                `bun:"issue_description"`
	IssueDuration     string                `bun:"issue_duration"`
	RootCause         string                `bun:"root_cause"`
	Status            string                `bun:"status"`
	ResolutionSummary string                `bun:"resolution_summary"`
	Log               []contractx.LogEntry  `bun:"processing_log,type:jsonb"`
	CreatedAt         time.Time             `bun:"created_at"`
	UpdatedAt         time.Time             `bun:"updated_at"`
	CompletedAt       time.Time             `bun:"completed_at,nullzero"`
}

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresStore persists case records in Postgres via bun. The processing log
// is a jsonb column appended with a single concat update, so appends from one
// pipeline run stay in order without read-modify-write.
type PostgresStore struct {
	db *bun.DB
}

var _ contractx.CaseStore = (*PostgresStore)(nil)

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", contractx.ErrConfigIncomplete)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	return &PostgresStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// Init creates the cases table if missing.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*caseRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create cases table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, fields contractx.CaseFields, now time.Time) (contractx.CaseID, error) {
	rec := &caseRecord{
		ID:               uuid.NewString(),
		Organization:     fields.Organization,
		CaseNumber:       fields.CaseNumber,
		CustomerName:     fields.CustomerName,
		IssueDescription: fields.IssueDescription,
		IssueDuration:    fields.IssueDuration,
		RootCause:        fields.RootCause,
		Status:           string(contractx.CaseStatusCreated),
		Log:              []contractx.LogEntry{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := s.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return "", fmt.Errorf("insert case: %w", err)
	}
	return contractx.CaseID(rec.ID), nil
}

func (s *PostgresStore) AppendLog(ctx context.Context, id contractx.CaseID, entry contractx.LogEntry) bool {
	payload, err := json.Marshal([]contractx.LogEntry{entry})
	if err != nil {
		log.Warn().Err(err).Str("case_id", string(id)).Msg("marshal log entry")
		return false
	}

	q := s.db.NewUpdate().
		Model((*caseRecord)(nil)).
		Set("processing_log = processing_log || ?::jsonb", string(payload)).
		Set("updated_at = ?", entry.Timestamp).
		Where("id = ?", string(id))
	if entry.Action != contractx.ActionCompletion {
		q = q.Set("status = ?", string(contractx.ProcessingStatus(entry.Agent))).
			Where("status != ?", string(contractx.CaseStatusCompleted))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		log.Warn().Err(err).Str("case_id", string(id)).Msg("append processing log")
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false
	}
	return n > 0
}

func (s *PostgresStore) Complete(ctx context.Context, id contractx.CaseID, summary string, now time.Time) bool {
	res, err := s.db.NewUpdate().
		Model((*caseRecord)(nil)).
		Set("status = ?", string(contractx.CaseStatusCompleted)).
		Set("resolution_summary = ?", summary).
		Set("completed_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", string(id)).
		Exec(ctx)
	if err != nil {
		log.Warn().Err(err).Str("case_id", string(id)).Msg("complete case")
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false
	}
	return n > 0
}

func (s *PostgresStore) FetchResolution(ctx context.Context, id contractx.CaseID) (*contractx.CaseSnapshot, error) {
	rec := new(caseRecord)
	err := s.db.NewSelect().
		Model(rec).
		Column("id", "case_number", "customer_name", "resolution_summary").
		Where("id = ?", string(id)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contractx.ErrCaseNotFound
		}
		return nil, fmt.Errorf("fetch case resolution: %w", err)
	}

	return &contractx.CaseSnapshot{
		ID:                contractx.CaseID(rec.ID),
		CaseNumber:        rec.CaseNumber,
		CustomerName:      rec.CustomerName,
		ResolutionSummary: rec.ResolutionSummary,
	}, nil
}
