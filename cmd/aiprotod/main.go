// Command aiprotod is a thin demo HTTP gateway over pkg/client: not core
// logic, just enough chi wiring to drive a chat/stream call end to end
// from a bundled manifest.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aiproto/aiproto/pkg/client"
	"github.com/aiproto/aiproto/pkg/manifest"
	"github.com/aiproto/aiproto/pkg/request"
	"github.com/aiproto/aiproto/pkg/streaming"
	"github.com/aiproto/aiproto/pkg/telemetry"
)

func main() {
	resolver, manifests, err := loadBundledManifests("manifests/dist/v1/providers")
	if err != nil {
		log.Fatalf("loading bundled manifests: %v", err)
	}

	var shutdownTelemetry func(context.Context) error
	settings := telemetry.DefaultSettings()
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		tp, err := telemetry.NewOTLPProvider(context.Background(), telemetry.ProviderConfig{
			ServiceName: "aiprotod",
			Endpoint:    endpoint,
			Insecure:    os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
		})
		if err != nil {
			log.Fatalf("starting OTLP exporter: %v", err)
		}
		settings = settings.WithEnabled(true)
		shutdownTelemetry = tp.Shutdown
	}

	c := client.New(client.Config{
		Fallbacks:      parseFallbacks(os.Getenv("AIPROTOD_FALLBACKS")),
		AttemptTimeout: 60 * time.Second,
		Telemetry:      settings,
	}, resolver, envCredentials(manifests))

	srv := &server{client: c}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/", srv.handleIndex)
	r.Post("/v1/chat", srv.handleChat)
	r.Post("/v1/chat/stream", srv.handleChatStream)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("aiprotod listening on :%s (%d providers loaded)", port, len(manifests))
	if shutdownTelemetry != nil {
		defer shutdownTelemetry(context.Background())
	}
	log.Fatal(http.ListenAndServe(":"+port, r))
}

func parseFallbacks(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// envCredentials resolves each provider's credential from the environment
// variable its manifest's auth.env_var names. This is the kind of external
// secret provider §6 keeps out of core scope.
func envCredentials(manifests map[string]*manifest.Manifest) client.CredentialSource {
	return func(providerID string) (string, error) {
		m, ok := manifests[providerID]
		if !ok || m.Auth.EnvVar == "" {
			return "", nil
		}
		return os.Getenv(m.Auth.EnvVar), nil
	}
}

type server struct {
	client *client.Client
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"service": "aiprotod",
		"version": "1.0.0",
	})
}

type chatRequest struct {
	Model    string            `json:"model"`
	Messages []chatMessageJSON `json:"messages"`
}

type chatMessageJSON struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (req chatRequest) toUnified() *request.Unified {
	msgs := make([]request.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = request.Message{Role: request.Role(m.Role), Text: m.Content}
	}
	return &request.Unified{Model: req.Model, Messages: msgs}
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, stats, err := s.client.Chat(r.Context(), req.toUnified())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"content":       resp.Content,
		"finish_reason": resp.FinishReason,
		"usage":         resp.Usage,
		"attempts":      stats.Attempts,
	})
}

func (s *server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, _, err := s.client.ChatStream(r.Context(), req.toUnified())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	enc := json.NewEncoder(w)
	for ev := range events {
		fmt.Fprintf(w, "event: %s\ndata: ", ev.Type)
		enc.Encode(streamEventJSON(ev))
		fmt.Fprint(w, "\n")
		flusher.Flush()
	}
}

func streamEventJSON(ev streaming.Event) map[string]interface{} {
	out := map[string]interface{}{"candidate_index": ev.CandidateIndex}
	switch ev.Type {
	case streaming.EventPartialContentDelta:
		out["content_delta"] = ev.ContentDelta
	case streaming.EventToolCallStarted:
		out["tool_call_id"] = ev.ToolCallID
		out["tool_call_name"] = ev.ToolCallName
	case streaming.EventPartialToolCall:
		out["tool_call_id"] = ev.ToolCallID
		out["arguments_delta"] = ev.ArgumentsDelta
	case streaming.EventMetadata:
		out["metadata"] = ev.Metadata
	case streaming.EventStreamEnd:
		out["finish_reason"] = ev.FinishReason
		out["usage"] = ev.Usage
	case streaming.EventStreamError:
		if ev.Err != nil {
			out["error"] = ev.Err.Error()
			out["code"] = ev.Err.Code
		}
	}
	return out
}
