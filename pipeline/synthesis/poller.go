package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

// Status is the observed lifecycle state of a synthesis job.
type Status string

const (
	StatusRunning   Status = "Running"
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
	StatusTimedOut  Status = "TimedOut"
	StatusUnknown   Status = "Unknown"
)

// ParseStatus maps the wire status onto the known set. Anything unrecognized
// is Unknown, which the poller treats as "keep polling".
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "running", "notstarted":
		return StatusRunning
	case "succeeded":
		return StatusSucceeded
	case "failed":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// Outcome is the terminal result of one polling run.
type Outcome struct {
	Status    Status
	ResultURL string
	Attempts  int
}

// Poller watches a submitted job until it reaches a terminal state or the
// attempt budget runs out. The wait between attempts is a timer select, so a
// cancelled context aborts the loop immediately instead of sleeping through
// the remaining budget.
type Poller struct {
	fetcher  StatusFetcher
	attempts int
	interval time.Duration
}

func NewPoller(fetcher StatusFetcher, attempts int, interval time.Duration) (*Poller, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: status fetcher is required", contractx.ErrValidation)
	}
	if attempts <= 0 {
		attempts = 60
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		fetcher:  fetcher,
		attempts: attempts,
		interval: interval,
	}, nil
}

// Poll fetches the job status up to the attempt budget. Succeeded halts with
// the result locator; Failed halts with ErrSynthesisFailed and is never
// retried; transient fetch errors and non-terminal statuses consume an
// attempt and continue; an exhausted budget yields TimedOut, distinct from
// Failed.
func (p *Poller) Poll(ctx context.Context, jobID string) (Outcome, error) {
	for attempt := 1; attempt <= p.attempts; attempt++ {
		status, err := p.fetcher.JobStatus(ctx, jobID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return Outcome{Status: StatusUnknown, Attempts: attempt}, ctx.Err()
			}
			log.Warn().Err(err).Str("job_id", jobID).Int("attempt", attempt).
				Msg("synthesis status fetch failed, will retry")
		case status.Status == StatusSucceeded:
			return Outcome{
				Status:    StatusSucceeded,
				ResultURL: status.ResultURL,
				Attempts:  attempt,
			}, nil
		case status.Status == StatusFailed:
			return Outcome{Status: StatusFailed, Attempts: attempt},
				fmt.Errorf("%w: job %s reported failure", contractx.ErrSynthesisFailed, jobID)
		}

		if attempt < p.attempts {
			if err := p.wait(ctx); err != nil {
				return Outcome{Status: StatusUnknown, Attempts: attempt}, err
			}
		}
	}

	return Outcome{Status: StatusTimedOut, Attempts: p.attempts},
		fmt.Errorf("%w: job %s still pending after %d attempts", contractx.ErrSynthesisTimedOut, jobID, p.attempts)
}

func (p *Poller) wait(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
