package providers

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers/sse"
)

// FinishFunc receives a stream's final accounting exactly once, when the
// stream terminates for any reason: normal end, mid-stream failure, or
// an early Close. reported is true when the usage came from the provider
// rather than being empty or estimated.
type FinishFunc func(usage Usage, reported bool, err error)

// Stream is a lazy, finite sequence of text deltas from one streaming
// call. It is single-consumer and one-shot: after the terminal signal
// (io.EOF or an error) has been delivered, every further Recv fails
// with ErrStreamConsumed.
type Stream struct {
	provider string
	model    string
	next     func() (StreamChunk, error)
	stop     func() error

	mu       sync.Mutex
	consumed bool
	finished bool
	stopped  bool
	pending  bool
	err      *Error
	usage    Usage
	sawUsage bool
	deltas   int
	textLen  int
	onFinish FinishFunc
}

// NewStream builds a Stream over a chunk source. next returns the
// upcoming decoded chunk, io.EOF at normal end, or a failure; stop
// releases the underlying transport and may be nil.
func NewStream(provider, model string, next func() (StreamChunk, error), stop func() error) *Stream {
	return &Stream{provider: provider, model: model, next: next, stop: stop}
}

// Provider returns the adapter name that produced the stream.
func (s *Stream) Provider() string { return s.provider }

// Model returns the model the stream was requested with.
func (s *Stream) Model() string { return s.model }

// OnFinish registers the finish callback. It must be set before the
// first Recv. The callback runs after the stream has settled; it may
// read Usage and Stats but must not Recv.
func (s *Stream) OnFinish(fn FinishFunc) {
	s.mu.Lock()
	s.onFinish = fn
	s.mu.Unlock()
}

// Recv returns the next text delta. It blocks until a delta arrives,
// skipping frames that carry none. At normal end it returns io.EOF; a
// mid-stream failure returns the classified error. Once either terminal
// signal has been delivered, Recv returns ErrStreamConsumed.
func (s *Stream) Recv() (string, error) {
	s.mu.Lock()
	delta, err, notify := s.recvLocked()
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
	return delta, err
}

func (s *Stream) recvLocked() (string, error, func()) {
	if s.consumed {
		return "", ErrStreamConsumed, nil
	}
	if s.pending {
		s.consumed = true
		if s.err != nil {
			return "", s.err, nil
		}
		return "", io.EOF, nil
	}
	for {
		chunk, err := s.next()
		if err == io.EOF {
			s.consumed = true
			s.stopLocked()
			return "", io.EOF, s.finishLocked(nil)
		}
		if err != nil {
			perr := Classify(s.provider, err)
			s.err = perr
			s.consumed = true
			s.stopLocked()
			return "", perr, s.finishLocked(perr)
		}
		if chunk.Usage != nil {
			s.usage.Add(*chunk.Usage)
			s.sawUsage = true
		}
		if chunk.Delta != "" {
			s.deltas++
			s.textLen += len(chunk.Delta)
		}
		if chunk.Final {
			s.stopLocked()
			notify := s.finishLocked(nil)
			if chunk.Delta != "" {
				// Deliver the last delta now; the next Recv reports EOF.
				s.pending = true
				return chunk.Delta, nil, notify
			}
			s.consumed = true
			return "", io.EOF, notify
		}
		if chunk.Delta == "" {
			continue
		}
		return chunk.Delta, nil, nil
	}
}

// Close aborts the stream and releases the transport. It is idempotent.
// Recv after Close fails with ErrStreamConsumed.
func (s *Stream) Close() error {
	s.mu.Lock()
	err := s.stopLocked()
	s.consumed = true
	notify := s.finishLocked(s.err)
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
	return err
}

// Usage returns the accumulated token accounting and whether the
// provider reported any. Meaningful once the stream has terminated.
func (s *Stream) Usage() (Usage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage, s.sawUsage
}

// Stats returns the number of text deltas delivered and their combined
// byte length. Callers with no provider-reported usage estimate the
// completion's token count from the length.
func (s *Stream) Stats() (deltas, textLen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deltas, s.textLen
}

// Err returns the terminal failure, or nil after a clean end.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return nil
	}
	return s.err
}

// Text drains the stream and returns the concatenated completion. On a
// mid-stream failure it returns the text received so far together with
// the classified error.
func (s *Stream) Text() (string, error) {
	var b strings.Builder
	for {
		delta, err := s.Recv()
		b.WriteString(delta)
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
	}
}

func (s *Stream) stopLocked() error {
	if s.stopped {
		return nil
	}
	s.stopped = true
	if s.stop == nil {
		return nil
	}
	return s.stop()
}

func (s *Stream) finishLocked(err *Error) func() {
	if s.finished {
		return nil
	}
	s.finished = true
	fn := s.onFinish
	if fn == nil {
		return nil
	}
	usage, reported := s.usage, s.sawUsage
	var cause error
	if err != nil {
		cause = err
	}
	return func() { fn(usage, reported, cause) }
}

// StreamFromSSE builds a Stream over a server-sent-events body. decode
// turns one frame payload into a chunk; frames it rejects (malformed
// JSON, irrelevant event types) are skipped rather than failing the
// stream.
func StreamFromSSE(provider, model string, body io.ReadCloser, decode func([]byte) (StreamChunk, bool)) *Stream {
	dec := sse.NewDecoder(body)
	next := func() (StreamChunk, error) {
		for {
			payload, err := dec.Next()
			if err != nil {
				return StreamChunk{}, err
			}
			chunk, ok := decode(payload)
			if !ok {
				slog.Debug("skipping undecodable stream frame",
					"provider", provider,
					"bytes", len(payload))
				continue
			}
			chunk.Raw = payload
			return chunk, nil
		}
	}
	return NewStream(provider, model, next, body.Close)
}

// StreamFromLines builds a Stream over a newline-delimited JSON body
// (Cohere streams this framing instead of server-sent events). Blank
// lines and rejected payloads are skipped; the stream ends at
// connection close or when a decoded chunk is final.
func StreamFromLines(provider, model string, body io.ReadCloser, decode func([]byte) (StreamChunk, bool)) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	next := func() (StreamChunk, error) {
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			chunk, ok := decode([]byte(line))
			if !ok {
				slog.Debug("skipping undecodable stream line",
					"provider", provider,
					"bytes", len(line))
				continue
			}
			chunk.Raw = []byte(line)
			return chunk, nil
		}
		if err := scanner.Err(); err != nil {
			return StreamChunk{}, err
		}
		return StreamChunk{}, io.EOF
	}
	return NewStream(provider, model, next, body.Close)
}
