package resolution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/supportops/caseflow/pipeline/contract"
	nodex "github.com/supportops/caseflow/pipeline/nodes"
)

var (
	ErrInvalidCaseID = nodex.ErrInvalidCaseID
)

type Config struct {
	// NotifyRecipient enables the best-effort completion notification when
	// non-empty and a notifier is wired.
	NotifyRecipient string
	SenderName      string
}

// Service drives one case at a time through the fixed role chain. Each run is
// single threaded: role N's prompt depends on role N-1's transcript, so there
// is no fan-out across roles.
type Service struct {
	store     contractx.CaseStore
	models    contractx.Registry
	retriever contractx.Retriever
	notifier  contractx.Notifier

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	recipient  string
	senderName string

	now func() time.Time
}

func New(
	store contractx.CaseStore,
	models contractx.Registry,
	retriever contractx.Retriever,
	notifier contractx.Notifier,
	cfg Config,
) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: case store is required", contractx.ErrValidation)
	}
	if models == nil {
		return nil, fmt.Errorf("%w: model registry is required", contractx.ErrValidation)
	}
	if retriever == nil {
		retriever = noopRetriever{}
	}

	senderName := strings.TrimSpace(cfg.SenderName)
	if senderName == "" {
		senderName = "Support Manager"
	}

	s := &Service{
		store:      store,
		models:     models,
		retriever:  retriever,
		notifier:   notifier,
		recipient:  strings.TrimSpace(cfg.NotifyRecipient),
		senderName: senderName,
		now:        time.Now,
	}

	graphRunner, err := s.compileResolveGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// Resolve runs the full chain for one case and returns the resolution
// summary. The case always ends Completed with some summary; only the
// optional notification can fail, and its failure is reported in the log
// output without affecting the returned summary.
func (s *Service) Resolve(ctx context.Context, id contractx.CaseID, fields contractx.CaseFields) (string, error) {
	if strings.TrimSpace(string(id)) == "" {
		return "", ErrInvalidCaseID
	}

	out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{
		CaseID: id,
		Fields: fields,
	})
	if err != nil {
		return "", err
	}

	if s.notifier != nil && s.recipient != "" {
		ok, detail := s.notifier.Send(ctx, fields, out.Summary, s.recipient, s.senderName)
		if ok {
			log.Info().Str("case_id", string(id)).Str("recipient", s.recipient).Msg("completion notification sent")
		} else {
			log.Warn().Str("case_id", string(id)).Str("detail", detail).Msg("completion notification failed")
		}
	}

	return out.Summary, nil
}

type noopRetriever struct{}

func (noopRetriever) SearchSimilar(context.Context, string, int) []contractx.KnowledgeHit {
	return nil
}
