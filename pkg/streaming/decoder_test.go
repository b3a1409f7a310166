package streaming

import (
	"io"
	"strings"
	"testing"
)

func TestNewDecoderUnknownFormat(t *testing.T) {
	if _, err := NewDecoder("carrier-pigeon", strings.NewReader(""), 0); err == nil {
		t.Fatal("expected error for unrecognized decoder_format")
	}
}

func TestSSEDecoderBasicFrames(t *testing.T) {
	body := "data: {\"a\":1}\n\ndata: {\"a\":2}\n\ndata: [DONE]\n\n"
	d, err := NewDecoder("sse", strings.NewReader(body), 0)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	f1, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if m, ok := f1.Value.(map[string]interface{}); !ok || m["a"].(float64) != 1 {
		t.Fatalf("unexpected frame 1: %#v", f1)
	}

	f2, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if m := f2.Value.(map[string]interface{}); m["a"].(float64) != 2 {
		t.Fatalf("unexpected frame 2: %#v", f2)
	}

	f3, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !f3.Sentinel {
		t.Fatal("expected DONE sentinel frame")
	}

	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after sentinel, got %v", err)
	}
}

func TestSSEDecoderAnthropicEventName(t *testing.T) {
	body := "event: content_block_delta\ndata: {\"x\":true}\n\n"
	d, err := NewDecoder("anthropic_sse", strings.NewReader(body), 0)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	f, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.EventName != "content_block_delta" {
		t.Fatalf("expected event name populated, got %q", f.EventName)
	}
}

func TestSSEDecoderUnterminatedStream(t *testing.T) {
	d, err := NewDecoder("sse", strings.NewReader("data: {\"a\":1}\n"), 0)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := d.Next(); err != ErrUnterminatedStream {
		t.Fatalf("expected ErrUnterminatedStream, got %v", err)
	}
}

func TestSSEDecoderFrameTooLarge(t *testing.T) {
	huge := "data: " + strings.Repeat("x", 100) + "\n\n"
	d, err := NewDecoder("sse", strings.NewReader(huge), 10)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := d.Next(); err != ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestNDJSONDecoderSkipsBlankLines(t *testing.T) {
	body := "{\"a\":1}\n\n{\"a\":2}\n"
	d, err := NewDecoder("ndjson", strings.NewReader(body), 0)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	f1, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f1.Value.(map[string]interface{})["a"].(float64) != 1 {
		t.Fatalf("unexpected frame: %#v", f1)
	}
	f2, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f2.Value.(map[string]interface{})["a"].(float64) != 2 {
		t.Fatalf("unexpected frame: %#v", f2)
	}
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestNDJSONDecoderFinalLineWithoutNewline(t *testing.T) {
	d, err := NewDecoder("ndjson", strings.NewReader(`{"a":3}`), 0)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	f, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Value.(map[string]interface{})["a"].(float64) != 3 {
		t.Fatalf("unexpected frame: %#v", f)
	}
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestJSONChunkDecoderConcatenatedValues(t *testing.T) {
	body := `{"a":1}{"a":2}`
	d, err := NewDecoder("gemini_json", strings.NewReader(body), 0)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	f1, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f1.Value.(map[string]interface{})["a"].(float64) != 1 {
		t.Fatalf("unexpected frame 1: %#v", f1)
	}
	f2, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f2.Value.(map[string]interface{})["a"].(float64) != 2 {
		t.Fatalf("unexpected frame 2: %#v", f2)
	}
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestJSONChunkDecoderHandlesEscapedBraceInString(t *testing.T) {
	body := `{"a":"has } inside"}`
	d, err := NewDecoder("json_chunk", strings.NewReader(body), 0)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	f, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Value.(map[string]interface{})["a"].(string) != "has } inside" {
		t.Fatalf("unexpected frame: %#v", f)
	}
}

func TestJSONChunkDecoderUnterminated(t *testing.T) {
	d, err := NewDecoder("json_chunk", strings.NewReader(`{"a":1`), 0)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := d.Next(); err != ErrUnterminatedStream {
		t.Fatalf("expected ErrUnterminatedStream, got %v", err)
	}
}
