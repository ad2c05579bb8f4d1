package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Endpoint: server.URL,
		APIKey:   "test-key",
		Voice:    "en-US-AvaMultilingualNeural",
	}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, server
}

func TestSubmitSendsBatchPayload(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotKey string
	var gotBody submitRequest
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	jobID, err := client.Submit(context.Background(), "your case is resolved", Personalization{
		CustomerName: "Jane Doe",
		SenderName:   "Support Manager",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id")
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("method = %s, want PUT", gotMethod)
	}
	if !strings.HasPrefix(gotPath, "/avatar/batchsyntheses/") {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("subscription key = %q", gotKey)
	}
	if gotBody.InputKind != "PlainText" || len(gotBody.Inputs) != 1 {
		t.Fatalf("unexpected payload: %+v", gotBody)
	}
	if !strings.Contains(gotBody.Inputs[0].Content, "Hello Jane Doe") {
		t.Fatalf("script missing greeting:\n%s", gotBody.Inputs[0].Content)
	}
	if gotBody.SynthesisConfig.Voice != "en-US-AvaMultilingualNeural" {
		t.Fatalf("voice = %q", gotBody.SynthesisConfig.Voice)
	}
}

func TestSubmitRejectsEmptySummary(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	if _, err := client.Submit(context.Background(), "  ", Personalization{}); err == nil {
		t.Fatal("expected an error for empty summary")
	}
}

func TestSubmitReportsDefinitiveFailure(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	if _, err := client.Submit(context.Background(), "summary", Personalization{}); err == nil {
		t.Fatal("expected a submission error")
	}
}

func TestJobStatusParsesResponse(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "job-1",
			"status":  "Succeeded",
			"outputs": map[string]string{"result": "https://results.example/job-1.mp4"},
		})
	}))

	status, err := client.JobStatus(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if status.Status != StatusSucceeded {
		t.Fatalf("Status = %q", status.Status)
	}
	if status.ResultURL != "https://results.example/job-1.mp4" {
		t.Fatalf("ResultURL = %q", status.ResultURL)
	}
}

type fakeBlobs struct {
	uploaded map[string][]byte
	grantErr error
	upErr    error
}

func (b *fakeBlobs) Upload(ctx context.Context, data []byte, name string) (string, error) {
	if b.upErr != nil {
		return "", b.upErr
	}
	if b.uploaded == nil {
		b.uploaded = make(map[string][]byte)
	}
	b.uploaded[name] = data
	return "https://blobs.example/artifacts/" + name, nil
}

func (b *fakeBlobs) GrantTemporaryAccess(ctx context.Context, name string, ttl time.Duration) (string, error) {
	if b.grantErr != nil {
		return "", b.grantErr
	}
	return "se=123&sig=abc", nil
}

func TestFinishUploadsAndGrantsAccess(t *testing.T) {
	t.Parallel()

	artifacts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video-bytes"))
	}))
	t.Cleanup(artifacts.Close)

	client, _ := testClient(t, http.NotFoundHandler())
	blobs := &fakeBlobs{}

	blobURL, token, err := client.Finish(context.Background(), artifacts.URL, "case-1.mp4", blobs)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if blobURL != "https://blobs.example/artifacts/case-1.mp4" {
		t.Fatalf("blobURL = %q", blobURL)
	}
	if token == "" {
		t.Fatal("expected an access token")
	}
	if string(blobs.uploaded["case-1.mp4"]) != "video-bytes" {
		t.Fatal("artifact bytes were not handed to the blob store")
	}
}

func TestFinishFailsWhenEitherStorageHopFails(t *testing.T) {
	t.Parallel()

	artifacts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video-bytes"))
	}))
	t.Cleanup(artifacts.Close)

	client, _ := testClient(t, http.NotFoundHandler())

	if _, _, err := client.Finish(context.Background(), artifacts.URL, "a.mp4", &fakeBlobs{upErr: errors.New("storage down")}); err == nil {
		t.Fatal("expected upload failure to surface")
	}
	if _, _, err := client.Finish(context.Background(), artifacts.URL, "a.mp4", &fakeBlobs{grantErr: errors.New("signing down")}); err == nil {
		t.Fatal("expected access-grant failure to surface")
	}
}

func TestScriptFallbacks(t *testing.T) {
	t.Parallel()

	got := Script("summary text", Personalization{})
	if !strings.Contains(got, "Hello there") {
		t.Fatalf("script missing customer fallback:\n%s", got)
	}
	if !strings.Contains(got, "your support manager") {
		t.Fatalf("script missing sender fallback:\n%s", got)
	}
	if !strings.Contains(got, "summary text") {
		t.Fatal("script missing summary")
	}
}
