package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testBlobClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Endpoint:   server.URL,
		Container:  "case-artifacts",
		AccountKey: "secret-key",
	}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestUploadPutsBlobAndReturnsURL(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	var gotBody []byte
	client := testBlobClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))

	url, err := client.Upload(context.Background(), []byte("video-bytes"), "case-1.mp4")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/case-artifacts/case-1.mp4" {
		t.Fatalf("path = %q", gotPath)
	}
	if string(gotBody) != "video-bytes" {
		t.Fatalf("body = %q", gotBody)
	}
	if !strings.HasSuffix(url, "/case-artifacts/case-1.mp4") {
		t.Fatalf("url = %q", url)
	}
}

func TestUploadSurfacesHTTPFailure(t *testing.T) {
	t.Parallel()

	client := testBlobClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	if _, err := client.Upload(context.Background(), []byte("x"), "case-1.mp4"); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestGrantTemporaryAccessTokensVerify(t *testing.T) {
	t.Parallel()

	client := testBlobClient(t, http.NotFoundHandler())

	token, err := client.GrantTemporaryAccess(context.Background(), "case-1.mp4", 24*time.Hour)
	if err != nil {
		t.Fatalf("GrantTemporaryAccess: %v", err)
	}
	if !client.Verify("case-1.mp4", token) {
		t.Fatal("freshly minted token must verify")
	}
	if client.Verify("other.mp4", token) {
		t.Fatal("token must be bound to the blob name")
	}
	if client.Verify("case-1.mp4", token+"x") {
		t.Fatal("tampered token must not verify")
	}
}

func TestGrantTemporaryAccessExpires(t *testing.T) {
	t.Parallel()

	client := testBlobClient(t, http.NotFoundHandler())
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return base }

	token, err := client.GrantTemporaryAccess(context.Background(), "case-1.mp4", time.Hour)
	if err != nil {
		t.Fatalf("GrantTemporaryAccess: %v", err)
	}
	if !client.Verify("case-1.mp4", token) {
		t.Fatal("token must verify before expiry")
	}

	client.now = func() time.Time { return base.Add(2 * time.Hour) }
	if client.Verify("case-1.mp4", token) {
		t.Fatal("token must stop verifying after expiry")
	}
}

func TestGrantTemporaryAccessRejectsBadInput(t *testing.T) {
	t.Parallel()

	client := testBlobClient(t, http.NotFoundHandler())
	if _, err := client.GrantTemporaryAccess(context.Background(), "", time.Hour); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := client.GrantTemporaryAccess(context.Background(), "a.mp4", 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}
