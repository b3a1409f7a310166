package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"go.opentelemetry.io/otel/trace"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
	"github.com/aiproto/aiproto/pkg/jsonpath"
	"github.com/aiproto/aiproto/pkg/manifest"
	"github.com/aiproto/aiproto/pkg/policy"
	"github.com/aiproto/aiproto/pkg/request"
	"github.com/aiproto/aiproto/pkg/streaming"
	"github.com/aiproto/aiproto/pkg/telemetry"
	"github.com/aiproto/aiproto/pkg/transport"
)

// CredentialSource resolves the opaque credential string for a provider
// (§6 "Auth": "The core receives resolved credentials as an opaque
// string from an external secret provider").
type CredentialSource func(providerID string) (string, error)

// Client is the facade spec §4.6 describes.
type Client struct {
	resolver    manifest.Resolver
	transport   transport.Issuer
	credentials CredentialSource
	cfg         Config
	tracer      trace.Tracer

	mu    sync.Mutex
	gates map[string]*policy.Gate
}

// New builds a Client against the real HTTP transport. credentials may be
// nil when every manifest's auth is satisfied without a secret (rare, but
// not forbidden).
func New(cfg Config, resolver manifest.Resolver, credentials CredentialSource) *Client {
	return NewWithTransport(cfg, resolver, credentials, transport.New(nil))
}

// NewWithTransport builds a Client against a caller-supplied transport.Issuer,
// the seam internal/faketransport's fakes plug into for unit tests.
func NewWithTransport(cfg Config, resolver manifest.Resolver, credentials CredentialSource, issuer transport.Issuer) *Client {
	if credentials == nil {
		credentials = func(string) (string, error) { return "", nil }
	}
	return &Client{
		resolver:    resolver,
		transport:   issuer,
		credentials: credentials,
		cfg:         cfg,
		tracer:      telemetry.GetTracer(cfg.telemetry()),
		gates:       map[string]*policy.Gate{},
	}
}

func (c *Client) gateFor(providerID string) *policy.Gate {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.gates[providerID]
	if !ok {
		g = policy.NewGate(c.cfg.BreakerThreshold, c.cfg.BreakerCooldown, c.cfg.rps(), c.cfg.MaxInflight, c.cfg.MaxInflight)
		c.gates[providerID] = g
	}
	return g
}

// attemptContext is the state threaded through one model's retry loop
// within a single call (§4.6's pseudocode).
type attemptContext struct {
	clientRequestID string
	model           string
	providerID      string
	modelID         string
	manifest        *manifest.Manifest
	stats           *CallStats
}

// Chat executes req non-streaming and returns the unified response plus
// call stats.
func (c *Client) Chat(ctx context.Context, req *request.Unified) (*request.Response, *CallStats, error) {
	req.Stream = false
	result, stats, err := c.run(ctx, req, nil)
	if err != nil {
		return nil, stats, err
	}
	return result.(*request.Response), stats, nil
}

// ChatStream executes req in streaming mode and returns an Event channel
// plus call stats (populated once the attempt that succeeds is known;
// Attempts/FallbacksUsed are final once the channel closes).
func (c *Client) ChatStream(ctx context.Context, req *request.Unified) (<-chan streaming.Event, *CallStats, error) {
	req.Stream = true
	result, stats, err := c.run(ctx, req, nil)
	if err != nil {
		return nil, stats, err
	}
	return result.(<-chan streaming.Event), stats, nil
}

// run implements §4.6's attempt loop across models/attempts.
func (c *Client) run(ctx context.Context, req *request.Unified, _ interface{}) (interface{}, *CallStats, error) {
	clientRequestID := uuid.NewString()
	models := append([]string{req.Model}, c.cfg.Fallbacks...)

	primaryProvider, primaryModelID, _ := manifest.SplitModel(req.Model)
	ctx, span := c.tracer.Start(ctx, "aiproto.call",
		trace.WithAttributes(telemetry.CallAttributes(primaryProvider, primaryModelID, clientRequestID, c.cfg.telemetry())...))
	defer span.End()

	stats := &CallStats{ClientRequestID: clientRequestID, Model: req.Model}
	var lastErr *coreerrors.CoreError

	for modelIdx, model := range models {
		providerID, modelID, err := manifest.SplitModel(model)
		if err != nil {
			return nil, stats, err
		}
		m, err := c.resolver.Resolve(providerID)
		if err != nil {
			return nil, stats, err
		}

		ac := &attemptContext{
			clientRequestID: clientRequestID,
			model:           model,
			providerID:      providerID,
			modelID:         modelID,
			manifest:        m,
			stats:           stats,
		}
		if modelIdx > 0 {
			stats.FallbacksUsed++
		}

		result, retryOrFallback, attemptErr := c.runModel(ctx, ac, req)
		if attemptErr == nil {
			return result, stats, nil
		}
		lastErr = attemptErr
		if retryOrFallback != policy.DecisionFallback {
			break
		}
		// otherwise: fall through to the next model in models
	}

	if lastErr != nil {
		telemetry.RecordErrorOnSpan(span, lastErr)
	}
	return nil, stats, lastErr
}

// runModel drives the retry loop for one model. It returns the decision
// that ended the loop (DecisionFallback if the caller should try the next
// model, DecisionSurface otherwise) alongside the final error.
func (c *Client) runModel(ctx context.Context, ac *attemptContext, req *request.Unified) (interface{}, policy.Decision, *coreerrors.CoreError) {
	gate := c.gateFor(ac.providerID)
	breakerKey := ac.providerID + ":" + "chat"
	maxRetries := ac.manifest.RetryPolicy.MaxRetries

	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		ac.stats.Attempts++

		result, decision, ce, delay := c.attemptOnce(ctx, ac, req, gate, breakerKey, attempt)
		if ce == nil {
			return result, decision, nil
		}
		if decision == policy.DecisionRetry {
			sleep(ctx, delay)
			continue
		}
		return nil, decision, ce
	}

	return nil, policy.DecisionSurface, coreerrors.New(coreerrors.CodeServerError, "exhausted retries")
}

// attemptOnce runs exactly one attempt (compile, admit, issue, classify,
// decide) inside its own telemetry span, which is always ended before
// returning regardless of outcome.
func (c *Client) attemptOnce(ctx context.Context, ac *attemptContext, req *request.Unified, gate *policy.Gate, breakerKey string, attempt int) (interface{}, policy.Decision, *coreerrors.CoreError, time.Duration) {
	attemptCtx, attemptSpan := c.tracer.Start(ctx, "aiproto.attempt",
		trace.WithAttributes(telemetry.AttemptAttributes(attempt, "", 0)...))
	defer attemptSpan.End()

	fallbacksRemain := len(c.cfg.Fallbacks) > 0

	compiled, err := manifest.Compile(ac.manifest, req, "chat")
	if err != nil {
		ce, _ := coreerrors.As(err)
		if ce == nil {
			ce = coreerrors.New(coreerrors.CodeInvalidRequest, err.Error())
		}
		telemetry.RecordErrorOnSpan(attemptSpan, ce)
		return nil, decisionFor(ce, attempt, ac.manifest.RetryPolicy, false, fallbacksRemain), ce, 0
	}

	release, admitErr := gate.Admit(attemptCtx, breakerKey)
	if admitErr != nil {
		ce, _ := coreerrors.As(admitErr)
		if ce == nil {
			ce = coreerrors.New(coreerrors.CodeServerError, admitErr.Error())
		}
		telemetry.RecordErrorOnSpan(attemptSpan, ce)
		decision := decisionFor(ce, attempt, ac.manifest.RetryPolicy, false, fallbacksRemain)
		return nil, decision, ce, policy.Delay(ac.manifest.RetryPolicy, attempt, ce.RetryAfterSecs)
	}

	result, emitted, sig, ce := c.issue(attemptCtx, ac, compiled, req)
	outcome := policy.OutcomeSuccess
	if ce != nil {
		outcome = policy.ClassifyBreakerOutcome(coreerrors.MetaFor(ce.Code).Category)
	}
	release()
	gate.RecordOutcome(breakerKey, outcome, sig)

	if ce == nil {
		return result, policy.DecisionSurface, nil, 0
	}

	attemptSpan.SetAttributes(telemetry.AttemptAttributes(attempt, ac.stats.UpstreamRequestID, ce.HTTPStatus)...)
	telemetry.RecordErrorOnSpan(attemptSpan, ce)
	decision := decisionFor(ce, attempt, ac.manifest.RetryPolicy, emitted, fallbacksRemain)
	return nil, decision, ce, policy.Delay(ac.manifest.RetryPolicy, attempt, ce.RetryAfterSecs)
}

func decisionFor(ce *coreerrors.CoreError, attempt int, rp manifest.RetryPolicy, emitted bool, fallbacksRemain bool) policy.Decision {
	return policy.Decide(ce, attempt, rp, emitted, fallbacksRemain)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// issue performs the transport call for one attempt and returns either
// the non-stream Response or a streaming Event channel (boxed as
// interface{}), whether any event was emitted to the caller (forbidding a
// retry per §4.3), the rate-limit header signal observed on the response
// (zero value when none was read), and a classified error on failure.
func (c *Client) issue(ctx context.Context, ac *attemptContext, compiled *manifest.CompileResult, req *request.Unified) (interface{}, bool, policy.HeaderSignal, *coreerrors.CoreError) {
	body, err := json.Marshal(compiled.Payload)
	if err != nil {
		return nil, false, policy.HeaderSignal{}, coreerrors.New(coreerrors.CodeInvalidRequest, "marshaling compiled payload").WithCause(err)
	}

	credential, err := c.credentials(ac.providerID)
	if err != nil {
		return nil, false, policy.HeaderSignal{}, coreerrors.New(coreerrors.CodeAuthentication, "resolving credential").WithCause(err)
	}

	url := ac.manifest.BaseURL + compiled.Endpoint.Path
	if compiled.Endpoint.BaseURLOverride != "" {
		url = compiled.Endpoint.BaseURLOverride + compiled.Endpoint.Path
	}

	// The per-attempt timeout bounds establishing the request and, for a
	// non-streaming call, reading the full body. A streaming call's body
	// lives past this function returning, so it is watched against the
	// caller's own ctx instead (the goroutine at the end of this function),
	// never this one.
	attemptCtx := ctx
	var cancel context.CancelFunc
	if !req.Stream {
		attemptCtx, cancel = context.WithTimeout(ctx, c.cfg.attemptTimeout())
		defer cancel()
	}

	result, err := c.transport.Issue(attemptCtx, transport.Request{
		Method:          compiled.Endpoint.Method,
		URL:             url,
		Body:            body,
		ClientRequestID: ac.clientRequestID,
		Auth:            ac.manifest.Auth,
		Credential:      credential,
		Stream:          req.Stream,
	})
	if err != nil {
		cancelled := ctx.Err() != nil
		return nil, false, policy.HeaderSignal{}, classifyTransportFailure(compiled.Endpoint.Path, ac.model, cancelled, false, err)
	}
	ac.stats.UpstreamRequestID = result.UpstreamRequestID
	sig := policy.ExtractHeaderSignal(result.Headers, ac.manifest.RateLimitHeaders)

	if result.StatusCode >= 300 {
		var failBody []byte
		if result.Stream != nil {
			failBody, _ = io.ReadAll(result.Stream)
			result.Stream.Close()
		} else {
			failBody = result.Body
		}
		ce := classifyHTTPFailure(ac.manifest, compiled.Endpoint.Path, ac.model, result.StatusCode, failBody, sig.RetryAfterSecs)
		return nil, false, sig, ce
	}

	if !req.Stream {
		var parsed interface{}
		if err := json.Unmarshal(result.Body, &parsed); err != nil {
			return nil, false, sig, classifyTransportFailure(compiled.Endpoint.Path, ac.model, false, true, err)
		}
		resp, err := streaming.BuildNonStreamResponse(parsed, ac.manifest)
		if err != nil {
			return nil, false, sig, coreerrors.New(coreerrors.CodeServerError, "building non-stream response").WithCause(err)
		}
		return resp, false, sig, nil
	}

	pipeline, err := streaming.NewPipeline(ac.manifest.Streaming, ac.manifest.Tooling, ac.manifest.Termination)
	if err != nil {
		result.Stream.Close()
		return nil, false, sig, coreerrors.New(coreerrors.CodeServerError, "building streaming pipeline").WithCause(err)
	}
	events, err := pipeline.Run(ctx, result.Stream)
	if err != nil {
		result.Stream.Close()
		return nil, false, sig, coreerrors.New(coreerrors.CodeServerError, "starting streaming pipeline").WithCause(err)
	}

	go func() {
		<-ctx.Done()
		result.Stream.Close()
	}()
	return events, true, sig, nil
}

// CallService implements §4.6's service dispatch.
func (c *Client) CallService(ctx context.Context, providerID, serviceID string, params map[string]interface{}) (map[string]interface{}, error) {
	m, err := c.resolver.Resolve(providerID)
	if err != nil {
		return nil, err
	}
	svc, ok := m.Services[serviceID]
	if !ok {
		return nil, coreerrors.New(coreerrors.CodeNotFound, fmt.Sprintf("manifest %s has no service %q", providerID, serviceID))
	}

	var body []byte
	if len(params) > 0 {
		body, err = json.Marshal(params)
		if err != nil {
			return nil, coreerrors.New(coreerrors.CodeInvalidRequest, "marshaling service params").WithCause(err)
		}
	}

	credential, err := c.credentials(providerID)
	if err != nil {
		return nil, coreerrors.New(coreerrors.CodeAuthentication, "resolving credential").WithCause(err)
	}

	url := m.BaseURL + svc.Endpoint.Path
	if svc.Endpoint.BaseURLOverride != "" {
		url = svc.Endpoint.BaseURLOverride + svc.Endpoint.Path
	}

	clientRequestID := uuid.NewString()
	gate := c.gateFor(providerID)
	breakerKey := providerID + ":" + serviceID
	release, err := gate.Admit(ctx, breakerKey)
	if err != nil {
		return nil, err
	}
	defer release()

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.attemptTimeout())
	defer cancel()

	result, err := c.transport.Issue(attemptCtx, transport.Request{
		Method:          svc.Endpoint.Method,
		URL:             url,
		Body:            body,
		ClientRequestID: clientRequestID,
		Auth:            m.Auth,
		Credential:      credential,
	})
	if err != nil {
		gate.RecordOutcome(breakerKey, policy.OutcomeTrippableFailure, policy.HeaderSignal{})
		return nil, classifyTransportFailure(svc.Endpoint.Path, providerID, ctx.Err() != nil, false, err)
	}

	if result.StatusCode >= 300 {
		gate.RecordOutcome(breakerKey, policy.OutcomeTrippableFailure, policy.HeaderSignal{})
		return nil, classifyHTTPFailure(m, svc.Endpoint.Path, providerID, result.StatusCode, result.Body, nil)
	}
	gate.RecordOutcome(breakerKey, policy.OutcomeSuccess, policy.HeaderSignal{})

	var parsed interface{}
	if err := json.Unmarshal(result.Body, &parsed); err != nil {
		return nil, coreerrors.New(coreerrors.CodeUnknown, "parsing service response").WithCause(err)
	}

	out := make(map[string]interface{}, len(svc.ResponseBinding))
	for field, path := range svc.ResponseBinding {
		if v, ok := jsonpath.Get(parsed, path); ok {
			out[field] = v
		}
	}
	return out, nil
}
