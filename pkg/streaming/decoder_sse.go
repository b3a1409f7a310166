package streaming

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// sseDecoder implements the `sse` and `anthropic_sse` decoder_format values
// (§4.2). Framing is "double newline" (LF+LF or CRLF+CRLF); each frame is a
// set of `field: value` lines, data lines concatenated by "\n". In
// anthropic mode, `event:` pairs with `data:` and the frame's EventName is
// populated. A frame with data `[DONE]` emits a sentinel and ends the
// stream (sse mode only — anthropic signals end via its own event types,
// handled by the event mapper, not the decoder).
type sseDecoder struct {
	r             *bufio.Reader
	anthropic     bool
	maxFrameBytes int
	done          bool
}

func newSSEDecoder(r io.Reader, maxFrameBytes int, anthropic bool) *sseDecoder {
	return &sseDecoder{r: bufio.NewReader(r), anthropic: anthropic, maxFrameBytes: maxFrameBytes}
}

func (d *sseDecoder) Next() (Frame, error) {
	if d.done {
		return Frame{}, io.EOF
	}

	var dataLines []string
	var eventName string
	sawAnyField := false
	bufferedBytes := 0

	for {
		line, err := d.r.ReadString('\n')
		if len(line) > 0 {
			bufferedBytes += len(line)
			if bufferedBytes > d.maxFrameBytes {
				return Frame{}, ErrFrameTooLarge
			}
		}
		trimmed := strings.TrimRight(line, "\r\n")

		if err != nil {
			if err == io.EOF {
				if trimmed == "" && !sawAnyField {
					d.done = true
					return Frame{}, io.EOF
				}
				if !sawAnyField && len(dataLines) == 0 {
					d.done = true
					return Frame{}, io.EOF
				}
				// Frame content accumulated but stream ended before the
				// terminating blank line: no boundary was ever found.
				return Frame{}, ErrUnterminatedStream
			}
			return Frame{}, err
		}

		if trimmed == "" {
			if !sawAnyField && len(dataLines) == 0 {
				continue // blank line between frames, not a boundary yet
			}
			return d.finish(dataLines, eventName)
		}

		if strings.HasPrefix(trimmed, ":") {
			continue // comment line
		}

		field, value := splitField(trimmed)
		switch field {
		case "event":
			eventName = value
			sawAnyField = true
		case "data":
			dataLines = append(dataLines, value)
			sawAnyField = true
		case "id", "retry":
			sawAnyField = true
		}
	}
}

func (d *sseDecoder) finish(dataLines []string, eventName string) (Frame, error) {
	data := strings.Join(dataLines, "\n")

	if !d.anthropic && strings.TrimSpace(data) == "[DONE]" {
		d.done = true
		return Frame{Sentinel: true}, nil
	}

	if strings.TrimSpace(data) == "" {
		return Frame{EventName: eventName, Value: map[string]interface{}{}}, nil
	}

	var value interface{}
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		repaired := FixJSON(data)
		if repaired == "" {
			return Frame{}, err
		}
		if err2 := json.Unmarshal([]byte(repaired), &value); err2 != nil {
			return Frame{}, err
		}
	}

	return Frame{Value: value, EventName: eventName}, nil
}

func splitField(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return field, value
}
