package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testRetriever(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Endpoint: server.URL,
		APIKey:   "test-key",
		Index:    "case-knowledge",
	}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestSearchSimilarParsesHits(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey string
	var gotBody map[string]any
	client := testRetriever(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]string{
				{"chunk_id": "k-1", "title": "SMTP queue backlog", "chunk": "drain the queue"},
				{"chunk_id": "k-2", "title": "DNS outage", "chunk": "flush resolver cache"},
			},
		})
	}))

	hits := client.SearchSimilar(context.Background(), "email delivery delay", 3)
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].ID != "k-1" || hits[0].Title != "SMTP queue backlog" || hits[0].Excerpt != "drain the queue" {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}

	if gotPath != "/indexes/case-knowledge/docs/search" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api-key = %q", gotKey)
	}
	if gotBody["top"] != float64(3) {
		t.Fatalf("top = %v, want 3", gotBody["top"])
	}
	// Without an embeddings client the retriever falls back to text search.
	if gotBody["search"] != "email delivery delay" {
		t.Fatalf("search = %v", gotBody["search"])
	}
}

func TestSearchSimilarDefaultsK(t *testing.T) {
	t.Parallel()

	var gotTop any
	client := testRetriever(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotTop = body["top"]
		json.NewEncoder(w).Encode(map[string]any{"value": []any{}})
	}))

	client.SearchSimilar(context.Background(), "query", 0)
	if gotTop != float64(3) {
		t.Fatalf("top = %v, want default 3", gotTop)
	}
}

func TestSearchSimilarDegradesOnHTTPFailure(t *testing.T) {
	t.Parallel()

	client := testRetriever(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index not found", http.StatusNotFound)
	}))

	if hits := client.SearchSimilar(context.Background(), "query", 3); hits != nil {
		t.Fatalf("hits = %v, want nil on failure", hits)
	}
}

func TestSearchSimilarSkipsEmptyQuery(t *testing.T) {
	t.Parallel()

	client := testRetriever(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty query")
	}))

	if hits := client.SearchSimilar(context.Background(), "   ", 3); hits != nil {
		t.Fatalf("hits = %v, want nil", hits)
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{APIKey: "k"}); err == nil {
		t.Fatal("expected error without endpoint")
	}
	if _, err := NewClient(Config{Endpoint: "https://search.example"}); err == nil {
		t.Fatal("expected error without api key")
	}
}
