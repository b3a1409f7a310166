package manifest

const openAICompatibleJSON = `{
  "provider_id": "openai-compatible",
  "protocol_version": "1.0",
  "base_url": "https://api.openai.com/v1",
  "auth": {"type": "bearer", "env_var": "OPENAI_API_KEY"},
  "endpoints": {
    "chat": {"path": "/chat/completions", "method": "POST"}
  },
  "capabilities": ["chat", "streaming", "tools"],
  "parameter_mappings": {
    "model": "model",
    "messages": "messages",
    "temperature": "temperature",
    "max_tokens": "max_tokens",
    "top_p": "top_p",
    "stream": "stream",
    "tools": "tools",
    "tool_choice": "tool_choice",
    "stop": "stop",
    "response_format": "response_format",
    "seed": "seed",
    "presence_penalty": "presence_penalty",
    "frequency_penalty": "frequency_penalty"
  },
  "streaming": {
    "decoder_format": "sse",
    "content_path": "choices.0.delta.content",
    "tool_call_path": "choices.0.delta.tool_calls.0",
    "usage_path": "usage",
    "event_map": [
      {"match": "exists($.choices.0.delta.content)", "kind": "content_delta"},
      {"match": "exists($.usage)", "kind": "usage"},
      {"match": "$.choices.0.finish_reason != null", "kind": "stream_end"}
    ],
    "stop_condition": "$.choices.0.finish_reason != null"
  },
  "tooling": {
    "tool_use": {
      "id_path": "id",
      "name_path": "function.name",
      "input_path": "function.arguments",
      "input_format": "json"
    }
  },
  "termination": {"finish_reason_path": "choices.0.finish_reason"},
  "error_classification": {
    "by_error_status": {"insufficient_quota": "E2002"},
    "by_http_status": {"429": "E2001"}
  },
  "retry_policy": {
    "strategy": "exponential", "max_retries": 2, "min_delay_ms": 500,
    "max_delay_ms": 30000, "jitter": "full", "retry_on_http_status": [429, 500, 503]
  },
  "rate_limit_headers": ["x-ratelimit-remaining-requests", "x-ratelimit-reset-requests"],
  "services": {
    "list_models": {"path": "/models", "method": "GET", "response_binding": {"ids": "data"}}
  }
}`
