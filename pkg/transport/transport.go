// Package transport performs the single HTTP request each attempt makes
// (spec §4.4): applies auth, stamps the client_request_id header, and
// returns either a fully-read body or a streaming handle, carrying
// cancellation either way.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aiproto/aiproto/pkg/manifest"
)

// RequestIDHeader is the application-generated header every outbound
// request carries, equal to the call's client_request_id (§6 "Outbound
// HTTP wire").
const RequestIDHeader = "x-ai-protocol-request-id"

// upstreamRequestIDHeaders is the best-effort extraction list (§4.4).
var upstreamRequestIDHeaders = []string{"x-request-id", "request-id", "x-amzn-requestid", "cf-ray"}

// DefaultAttemptTimeout is used when a client Config doesn't set one
// (§4.4 "per-attempt timeout ... default 60 s").
const DefaultAttemptTimeout = 60 * time.Second

// Transport issues HTTP requests against a shared *http.Client.
type Transport struct {
	HTTPClient *http.Client
}

// New builds a Transport. A nil httpClient gets a client with sane
// connection-pool defaults.
func New(httpClient *http.Client) *Transport {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Transport{HTTPClient: httpClient}
}

// Request is one outbound call's fully-resolved shape.
type Request struct {
	Method          string
	URL             string
	Body            []byte
	ClientRequestID string
	Auth            manifest.Auth
	Credential      string // opaque resolved secret (§6 "Auth")
	Stream          bool
}

// Result carries the non-streaming body or, when Stream is requested, a
// live io.ReadCloser the caller decodes incrementally.
type Result struct {
	StatusCode        int
	Headers           http.Header
	Body              []byte          // populated when req.Stream == false
	Stream            io.ReadCloser   // populated when req.Stream == true
	UpstreamRequestID string
}

// Issue performs one HTTP request. When req.Stream is true the response
// body is handed back open (the caller must Close it, which also drops
// the underlying connection on cancellation — §4.4).
func (t *Transport) Issue(ctx context.Context, req Request) (*Result, error) {
	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("transport: building request: %w", err)
	}

	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, req.ClientRequestID)
	applyAuth(httpReq, req.Auth, req.Credential)

	httpResp, err := t.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transport: request failed: %w", err)
	}

	upstreamID := extractUpstreamRequestID(httpResp.Header)

	if req.Stream {
		return &Result{
			StatusCode:        httpResp.StatusCode,
			Headers:           httpResp.Header,
			Stream:            httpResp.Body,
			UpstreamRequestID: upstreamID,
		}, nil
	}

	defer httpResp.Body.Close()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: reading response body: %w", err)
	}

	return &Result{
		StatusCode:        httpResp.StatusCode,
		Headers:           httpResp.Header,
		Body:              body,
		UpstreamRequestID: upstreamID,
	}, nil
}

func applyAuth(req *http.Request, auth manifest.Auth, credential string) {
	if credential != "" {
		switch auth.Kind {
		case manifest.AuthBearer:
			req.Header.Set("Authorization", "Bearer "+credential)
		case manifest.AuthHeader:
			name := auth.HeaderName
			if name == "" {
				name = "Authorization"
			}
			req.Header.Set(name, credential)
		case manifest.AuthQuery:
			q := req.URL.Query()
			q.Set(auth.QueryParam, credential)
			req.URL.RawQuery = q.Encode()
		}
	}
	for k, v := range auth.ExtraHeaders {
		req.Header.Set(k, v)
	}
}

func extractUpstreamRequestID(h http.Header) string {
	for _, name := range upstreamRequestIDHeaders {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	return ""
}
