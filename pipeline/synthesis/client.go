package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

const (
	maxResponseSizeBytes = 1 << 20
	maxArtifactSizeBytes = 256 << 20

	// accessTTL bounds how long a synthesized artifact stays retrievable
	// after the job finishes.
	accessTTL = 24 * time.Hour
)

type Config struct {
	Endpoint        string        `envconfig:"ENDPOINT" split_words:"true" required:"true"`
	APIKey          string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	APIVersion      string        `envconfig:"API_VERSION" split_words:"true" default:"2024-08-01"`
	Voice           string        `envconfig:"VOICE" split_words:"true" default:"en-US-AvaMultilingualNeural"`
	AvatarCharacter string        `envconfig:"AVATAR_CHARACTER" split_words:"true" default:"lisa"`
	AvatarStyle     string        `envconfig:"AVATAR_STYLE" split_words:"true" default:"graceful-sitting"`
	PollAttempts    int           `envconfig:"POLL_ATTEMPTS" split_words:"true" default:"60"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" split_words:"true" default:"5s"`
	Timeout         time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Personalization carries the per-customer pieces of the spoken script.
type Personalization struct {
	CustomerName string
	SenderName   string
}

// JobStatus is one observation of a submitted synthesis job.
type JobStatus struct {
	Status    Status
	ResultURL string
}

// StatusFetcher reports the current state of a synthesis job.
type StatusFetcher interface {
	JobStatus(ctx context.Context, jobID string) (JobStatus, error)
}

// Client drives the batch avatar-synthesis REST API: one PUT to submit a job,
// repeated GETs on the same resource to observe it.
type Client struct {
	endpoint        string
	apiKey          string
	apiVersion      string
	voice           string
	avatarCharacter string
	avatarStyle     string
	httpClient      *http.Client
}

var _ StatusFetcher = (*Client)(nil)

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: synthesis endpoint is required", contractx.ErrConfigIncomplete)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: invalid synthesis endpoint: %v", contractx.ErrConfigIncomplete, err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: synthesis api key is required", contractx.ErrConfigIncomplete)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		endpoint:        endpoint,
		apiKey:          strings.TrimSpace(cfg.APIKey),
		apiVersion:      strings.TrimSpace(cfg.APIVersion),
		voice:           strings.TrimSpace(cfg.Voice),
		avatarCharacter: strings.TrimSpace(cfg.AvatarCharacter),
		avatarStyle:     strings.TrimSpace(cfg.AvatarStyle),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type submitRequest struct {
	SynthesisConfig synthesisConfig `json:"synthesisConfig"`
	InputKind       string          `json:"inputKind"`
	Inputs          []synthesisText `json:"inputs"`
	AvatarConfig    avatarConfig    `json:"avatarConfig"`
}

type synthesisConfig struct {
	Voice string `json:"voice"`
}

type synthesisText struct {
	Content string `json:"content"`
}

type avatarConfig struct {
	TalkingAvatarCharacter string `json:"talkingAvatarCharacter"`
	TalkingAvatarStyle     string `json:"talkingAvatarStyle"`
}

type jobResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Outputs struct {
		Result string `json:"result"`
	} `json:"outputs"`
}

// Submit starts a synthesis job for the spoken resolution script and returns
// its job id. Submission failures are definitive; there is no retry here.
func (c *Client) Submit(ctx context.Context, summary string, p Personalization) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("%w: resolution summary is required", contractx.ErrValidation)
	}

	jobID := uuid.NewString()
	payload, err := json.Marshal(submitRequest{
		SynthesisConfig: synthesisConfig{Voice: c.voice},
		InputKind:       "PlainText",
		Inputs:          []synthesisText{{Content: Script(summary, p)}},
		AvatarConfig: avatarConfig{
			TalkingAvatarCharacter: c.avatarCharacter,
			TalkingAvatarStyle:     c.avatarStyle,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.jobURL(jobID), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit synthesis job: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("synthesis submit http status=%d body=%s", resp.StatusCode, string(raw))
	}
	return jobID, nil
}

// JobStatus fetches one status observation for a previously submitted job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jobURL(jobID), nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return JobStatus{}, fmt.Errorf("fetch job status: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return JobStatus{}, fmt.Errorf("read status response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return JobStatus{}, fmt.Errorf("status http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed jobResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return JobStatus{}, fmt.Errorf("decode status response: %w", err)
	}
	return JobStatus{
		Status:    ParseStatus(parsed.Status),
		ResultURL: parsed.Outputs.Result,
	}, nil
}

// Finish retrieves a succeeded job's artifact and hands it to durable
// storage: the artifact is downloaded, uploaded as a blob, and a 24h access
// token is minted. Both storage hops must succeed.
func (c *Client) Finish(ctx context.Context, resultURL string, name string, blobs contractx.BlobStore) (string, string, error) {
	if blobs == nil {
		return "", "", fmt.Errorf("%w: blob store is required", contractx.ErrValidation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build artifact request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("download artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", "", fmt.Errorf("artifact http status=%d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSizeBytes))
	if err != nil {
		return "", "", fmt.Errorf("read artifact: %w", err)
	}

	blobURL, err := blobs.Upload(ctx, data, name)
	if err != nil {
		return "", "", fmt.Errorf("store artifact: %w", err)
	}
	token, err := blobs.GrantTemporaryAccess(ctx, name, accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("grant artifact access: %w", err)
	}
	return blobURL, token, nil
}

func (c *Client) jobURL(jobID string) string {
	return fmt.Sprintf("%s/avatar/batchsyntheses/%s?api-version=%s", c.endpoint, jobID, c.apiVersion)
}

// Script renders the full spoken text around the resolution summary.
func Script(summary string, p Personalization) string {
	customer := strings.TrimSpace(p.CustomerName)
	if customer == "" {
		customer = "there"
	}
	sender := strings.TrimSpace(p.SenderName)
	if sender == "" {
		sender = "your support manager"
	}
	return fmt.Sprintf(`Hello %s, I'm %s from customer support.

Your support case has been resolved by our AI team.

%s

Thank you for your patience while we worked on this. If you have any further questions, please don't hesitate to reach out.`,
		customer, sender, summary)
}
