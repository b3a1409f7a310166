package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aiproto/aiproto/pkg/manifest"
)

func TestIssueAppliesBearerAuthAndRequestID(t *testing.T) {
	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(RequestIDHeader)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr := New(nil)
	result, err := tr.Issue(context.Background(), Request{
		Method:          http.MethodPost,
		URL:             srv.URL,
		Body:            []byte(`{}`),
		ClientRequestID: "req-123",
		Auth:            manifest.Auth{Kind: manifest.AuthBearer},
		Credential:      "sk-test",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected Authorization header: %q", gotAuth)
	}
	if gotReqID != "req-123" {
		t.Fatalf("unexpected request-id header: %q", gotReqID)
	}
	if string(result.Body) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", result.Body)
	}
}

func TestIssueAppliesQueryAuth(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("key")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tr := New(nil)
	_, err := tr.Issue(context.Background(), Request{
		Method:     http.MethodGet,
		URL:        srv.URL,
		Auth:       manifest.Auth{Kind: manifest.AuthQuery, QueryParam: "key"},
		Credential: "abc123",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if gotQuery != "abc123" {
		t.Fatalf("expected query auth applied, got %q", gotQuery)
	}
}

func TestIssueExtractsUpstreamRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("cf-ray", "ray-789")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tr := New(nil)
	result, err := tr.Issue(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if result.UpstreamRequestID != "ray-789" {
		t.Fatalf("unexpected upstream request id: %q", result.UpstreamRequestID)
	}
}

func TestIssueStreamLeavesBodyOpenForCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: 1\n\n"))
	}))
	defer srv.Close()

	tr := New(nil)
	result, err := tr.Issue(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Stream: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if result.Stream == nil {
		t.Fatal("expected an open stream handle")
	}
	defer result.Stream.Close()
	b, err := io.ReadAll(result.Stream)
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if string(b) != "data: 1\n\n" {
		t.Fatalf("unexpected stream content: %q", b)
	}
}

func TestIssueCancellationPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := New(nil)
	_, err := tr.Issue(ctx, Request{Method: http.MethodGet, URL: srv.URL})
	if err == nil {
		t.Fatal("expected Issue to fail for an already-canceled context")
	}
}
