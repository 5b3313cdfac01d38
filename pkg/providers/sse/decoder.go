// Package sse decodes server-sent-event streams the way completion
// providers emit them: a sequence of "data: {payload}" lines separated
// by blank lines, terminated by "data: [DONE]" or connection close.
//
// The decoder is deliberately dumb about payload contents. It hands raw
// frame payloads to the caller; JSON interpretation and the decision to
// skip malformed frames belong to the provider adapter.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// doneSentinel is the terminal frame payload used by OpenAI-style
// streams. Once seen, the decoder yields nothing further even if more
// bytes arrive.
const doneSentinel = "[DONE]"

const (
	initialBufferSize = 64 * 1024
	maxFrameSize      = 1024 * 1024
)

// Decoder reads one SSE stream. It is not safe for concurrent use; the
// owning stream serializes access.
type Decoder struct {
	scanner *bufio.Scanner
	done    bool
}

// NewDecoder wraps a response body. The decoder buffers partial lines
// internally, so short network reads never surface as broken frames.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialBufferSize), maxFrameSize)
	return &Decoder{scanner: sc}
}

// Next returns the payload of the next data frame. It skips blank
// separator lines, comment keep-alives, and non-data fields such as
// event types. At the terminal sentinel or connection close it returns
// io.EOF, and keeps returning io.EOF on every later call.
func (d *Decoder) Next() ([]byte, error) {
	if d.done {
		return nil, io.EOF
	}

	for d.scanner.Scan() {
		line := strings.TrimSuffix(d.scanner.Text(), "\r")

		// Blank lines separate frames.
		if line == "" {
			continue
		}

		// Lines starting with a colon are keep-alive comments.
		if strings.HasPrefix(line, ":") {
			continue
		}

		// Ignore event:, id:, retry: and any other non-data fields.
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
		if payload == doneSentinel {
			d.done = true
			return nil, io.EOF
		}
		return []byte(payload), nil
	}

	d.done = true
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Done reports whether the stream has reached its terminal state.
func (d *Decoder) Done() bool {
	return d.done
}
