package notify

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

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	Endpoint      string        `envconfig:"ENDPOINT" split_words:"true" required:"true"`
	AccessKey     string        `envconfig:"ACCESS_KEY" split_words:"true" required:"true"`
	SenderAddress string        `envconfig:"SENDER_ADDRESS" split_words:"true" required:"true"`
	APIVersion    string        `envconfig:"API_VERSION" split_words:"true" default:"2023-03-31"`
	Timeout       time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Option func(*EmailClient)

func WithHTTPClient(client *http.Client) Option {
	return func(c *EmailClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// EmailClient sends case-completion notifications through an email REST
// endpoint. Delivery is strictly best-effort: failures are reported through
// the ok/detail pair and never surface as errors into the pipeline.
type EmailClient struct {
	endpoint      string
	accessKey     string
	senderAddress string
	apiVersion    string
	httpClient    *http.Client
}

var _ contractx.Notifier = (*EmailClient)(nil)

func NewEmailClient(cfg Config, opts ...Option) (*EmailClient, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: email endpoint is required", contractx.ErrConfigIncomplete)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: invalid email endpoint: %v", contractx.ErrConfigIncomplete, err)
	}
	if strings.TrimSpace(cfg.AccessKey) == "" {
		return nil, fmt.Errorf("%w: email access key is required", contractx.ErrConfigIncomplete)
	}
	if strings.TrimSpace(cfg.SenderAddress) == "" {
		return nil, fmt.Errorf("%w: email sender address is required", contractx.ErrConfigIncomplete)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &EmailClient{
		endpoint:      endpoint,
		accessKey:     strings.TrimSpace(cfg.AccessKey),
		senderAddress: strings.TrimSpace(cfg.SenderAddress),
		apiVersion:    strings.TrimSpace(cfg.APIVersion),
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

type sendRequest struct {
	SenderAddress string      `json:"senderAddress"`
	Recipients    recipients  `json:"recipients"`
	Content       mailContent `json:"content"`
}

type recipients struct {
	To []address `json:"to"`
}

type address struct {
	Address string `json:"address"`
}

type mailContent struct {
	Subject   string `json:"subject"`
	PlainText string `json:"plainText"`
}

type sendResponse struct {
	ID string `json:"id"`
}

func (c *EmailClient) Send(ctx context.Context, fields contractx.CaseFields, summary string, recipient string, senderName string) (bool, string) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return false, "recipient not configured"
	}

	payload, err := json.Marshal(sendRequest{
		SenderAddress: c.senderAddress,
		Recipients:    recipients{To: []address{{Address: recipient}}},
		Content: mailContent{
			Subject:   fmt.Sprintf("Case #%s Resolved - %s", fields.CaseNumber, fields.CustomerName),
			PlainText: plainTextBody(fields, summary, senderName),
		},
	})
	if err != nil {
		return false, fmt.Sprintf("marshal notification: %v", err)
	}

	sendURL := fmt.Sprintf("%s/emails:send?api-version=%s", c.endpoint, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Sprintf("build notification request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Sprintf("send notification: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return false, fmt.Sprintf("read notification response: %v", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return false, fmt.Sprintf("notification http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed sendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.ID == "" {
		return true, "email accepted"
	}
	return true, "email accepted, message id: " + parsed.ID
}

func plainTextBody(fields contractx.CaseFields, summary string, senderName string) string {
	return fmt.Sprintf(`Hello %s,

A customer support case has been successfully resolved by our agent system.

CASE DETAILS:
- Case Number: %s
- Customer: %s
- Organization: %s
- Issue: %s
- Duration: %s
- Root Cause: %s

RESOLUTION SUMMARY:
%s

This case was processed and resolved automatically by our multi-agent system with knowledge retrieval.

Best regards,
Customer Support Automation
`,
		senderName,
		fields.CaseNumber,
		fields.CustomerName,
		fields.Organization,
		fields.IssueDescription,
		fields.IssueDuration,
		fields.RootCause,
		summary,
	)
}
