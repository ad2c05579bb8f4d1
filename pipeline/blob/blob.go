package blob

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	Endpoint   string        `envconfig:"ENDPOINT" split_words:"true" required:"true"`
	Container  string        `envconfig:"CONTAINER" split_words:"true" default:"case-artifacts"`
	AccountKey string        `envconfig:"ACCOUNT_KEY" split_words:"true" required:"true"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client stores synthesized artifacts in an HTTP blob container and mints
// expiring access tokens for them. Tokens are HMAC-signed over the blob name
// and an absolute expiry so the storage side can verify them statelessly.
type Client struct {
	endpoint   string
	container  string
	accountKey []byte
	httpClient *http.Client
	now        func() time.Time
}

var _ contractx.BlobStore = (*Client)(nil)

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: blob endpoint is required", contractx.ErrConfigIncomplete)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: invalid blob endpoint: %v", contractx.ErrConfigIncomplete, err)
	}
	if strings.TrimSpace(cfg.AccountKey) == "" {
		return nil, fmt.Errorf("%w: blob account key is required", contractx.ErrConfigIncomplete)
	}
	container := strings.TrimSpace(cfg.Container)
	if container == "" {
		container = "case-artifacts"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		endpoint:   endpoint,
		container:  container,
		accountKey: []byte(strings.TrimSpace(cfg.AccountKey)),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Upload writes data to {endpoint}/{container}/{name} and returns the blob
// URL without any access token attached.
func (c *Client) Upload(ctx context.Context, data []byte, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: blob name is required", contractx.ErrValidation)
	}

	blobURL := c.blobURL(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, blobURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build blob upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload blob: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("blob upload http status=%d body=%s", resp.StatusCode, string(raw))
	}
	return blobURL, nil
}

// GrantTemporaryAccess signs an expiring read token for a previously uploaded
// blob. The token encodes the expiry so callers can append it to the blob URL
// as a query string.
func (c *Client) GrantTemporaryAccess(ctx context.Context, name string, ttl time.Duration) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: blob name is required", contractx.ErrValidation)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: access ttl must be positive", contractx.ErrValidation)
	}

	expiry := c.now().UTC().Add(ttl).Unix()
	sig := c.sign(name, expiry)

	values := url.Values{}
	values.Set("se", strconv.FormatInt(expiry, 10))
	values.Set("sig", sig)
	return values.Encode(), nil
}

// Verify reports whether token grants access to name at the current time.
func (c *Client) Verify(name string, token string) bool {
	values, err := url.ParseQuery(token)
	if err != nil {
		return false
	}
	expiry, err := strconv.ParseInt(values.Get("se"), 10, 64)
	if err != nil || c.now().UTC().Unix() > expiry {
		return false
	}
	expected := c.sign(strings.TrimSpace(name), expiry)
	return hmac.Equal([]byte(expected), []byte(values.Get("sig")))
}

func (c *Client) sign(name string, expiry int64) string {
	mac := hmac.New(sha256.New, c.accountKey)
	fmt.Fprintf(mac, "%s/%s\n%d", c.container, name, expiry)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) blobURL(name string) string {
	return fmt.Sprintf("%s/%s/%s", c.endpoint, c.container, url.PathEscape(name))
}
