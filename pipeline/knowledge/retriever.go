package knowledge

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

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

const maxResponseSizeBytes = 2 << 20

type Config struct {
	Endpoint       string        `envconfig:"ENDPOINT" split_words:"true" required:"true"`
	APIKey         string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Index          string        `envconfig:"INDEX" split_words:"true" default:"case-knowledge"`
	APIVersion     string        `envconfig:"API_VERSION" split_words:"true" default:"2024-07-01"`
	EmbeddingModel string        `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"text-embedding-ada-002"`
	Timeout        time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Option customizes the Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithEmbeddings wires the client used to vectorize queries. Without it the
// retriever falls back to plain text search.
func WithEmbeddings(client *openaisdk.Client) Option {
	return func(c *Client) {
		c.embeddings = client
	}
}

// Client retrieves semantically similar prior-case excerpts from a vector
// search index over REST. It never errors into the pipeline: any transport or
// embedding failure degrades to an empty result, which the pipeline treats
// the same as "nothing found".
type Client struct {
	endpoint       string
	apiKey         string
	index          string
	apiVersion     string
	embeddingModel string
	httpClient     *http.Client
	embeddings     *openaisdk.Client
}

var _ contractx.Retriever = (*Client)(nil)

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: search endpoint is required", contractx.ErrConfigIncomplete)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: invalid search endpoint: %v", contractx.ErrConfigIncomplete, err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: search api key is required", contractx.ErrConfigIncomplete)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		endpoint:       endpoint,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		index:          strings.TrimSpace(cfg.Index),
		apiVersion:     strings.TrimSpace(cfg.APIVersion),
		embeddingModel: strings.TrimSpace(cfg.EmbeddingModel),
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

type searchDocument struct {
	ChunkID string `json:"chunk_id"`
	Title   string `json:"title"`
	Chunk   string `json:"chunk"`
}

type searchResponse struct {
	Value []searchDocument `json:"value"`
}

func (c *Client) SearchSimilar(ctx context.Context, query string, k int) []contractx.KnowledgeHit {
	if k <= 0 {
		k = 3
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	body := map[string]any{
		"search": "",
		"select": "chunk_id,title,chunk",
		"top":    k,
	}
	if vector := c.embed(ctx, query); len(vector) > 0 {
		body["vectorQueries"] = []map[string]any{
			{
				"kind":   "vector",
				"vector": vector,
				"fields": "text_vector",
				"k":      k,
			},
		}
	} else {
		body["search"] = query
	}

	docs, err := c.search(ctx, body)
	if err != nil {
		log.Warn().Err(err).Msg("knowledge search failed, continuing without retrieval context")
		return nil
	}

	hits := make([]contractx.KnowledgeHit, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, contractx.KnowledgeHit{
			ID:      doc.ChunkID,
			Title:   doc.Title,
			Excerpt: doc.Chunk,
		})
	}
	return hits
}

func (c *Client) search(ctx context.Context, body map[string]any) ([]searchDocument, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	searchURL := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.index, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute search request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("search http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return parsed.Value, nil
}

func (c *Client) embed(ctx context.Context, text string) []float64 {
	if c.embeddings == nil {
		return nil
	}

	resp, err := c.embeddings.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: openaisdk.String(text),
		},
		Model: openaisdk.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		log.Warn().Err(err).Msg("query embedding failed, falling back to text search")
		return nil
	}
	if len(resp.Data) == 0 {
		return nil
	}
	return resp.Data[0].Embedding
}
