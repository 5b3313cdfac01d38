package providers

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkScript feeds a fixed chunk sequence to a Stream, then a terminal
// error (io.EOF for a clean end).
func chunkScript(chunks []StreamChunk, terminal error) func() (StreamChunk, error) {
	i := 0
	return func() (StreamChunk, error) {
		if i >= len(chunks) {
			return StreamChunk{}, terminal
		}
		c := chunks[i]
		i++
		return c, nil
	}
}

// TestStream_DeltaSequence verifies in-order delivery, skipping of
// frames without deltas, and the io.EOF terminal signal.
func TestStream_DeltaSequence(t *testing.T) {
	s := NewStream("openai", "gpt-4o-mini", chunkScript([]StreamChunk{
		{Delta: "Hel"},
		{}, // role-only frame, no delta
		{Delta: "lo"},
		{Delta: "!"},
	}, io.EOF), nil)

	var got []string
	for {
		delta, err := s.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, delta)
	}

	if strings.Join(got, "") != "Hello!" {
		t.Errorf("expected %q, got %q", "Hello!", strings.Join(got, ""))
	}
}

// TestStream_SecondConsumptionFailsFast verifies the one-shot property:
// after the terminal signal, Recv fails with ErrStreamConsumed instead
// of silently yielding nothing.
func TestStream_SecondConsumptionFailsFast(t *testing.T) {
	s := NewStream("openai", "gpt-4o-mini", chunkScript([]StreamChunk{
		{Delta: "once"},
	}, io.EOF), nil)

	if _, err := s.Recv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err := s.Recv()
		if !errors.Is(err, ErrStreamConsumed) {
			t.Fatalf("attempt %d: expected ErrStreamConsumed, got %v", i, err)
		}
	}
}

// TestStream_FinalFrameDelta verifies that a terminal frame carrying a
// delta delivers the delta first and io.EOF on the following call.
func TestStream_FinalFrameDelta(t *testing.T) {
	s := NewStream("cohere", "command-r", chunkScript([]StreamChunk{
		{Delta: "almost "},
		{Delta: "done", Final: true},
	}, io.EOF), nil)

	text, err := s.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "almost done" {
		t.Errorf("expected %q, got %q", "almost done", text)
	}

	if _, err := s.Recv(); !errors.Is(err, ErrStreamConsumed) {
		t.Errorf("expected ErrStreamConsumed after drain, got %v", err)
	}
}

// TestStream_MidStreamError verifies that an underlying failure is
// classified, surfaces once, and leaves the stream consumed.
func TestStream_MidStreamError(t *testing.T) {
	s := NewStream("anthropic", "claude-3-haiku", chunkScript([]StreamChunk{
		{Delta: "partial"},
	}, errors.New("unexpected EOF")), nil)

	text, err := s.Text()
	if err == nil {
		t.Fatal("expected a mid-stream error")
	}
	if text != "partial" {
		t.Errorf("expected the text received so far, got %q", text)
	}

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected a classified error, got %T", err)
	}
	if perr.Provider != "anthropic" {
		t.Errorf("expected provider anthropic, got %q", perr.Provider)
	}

	if _, err := s.Recv(); !errors.Is(err, ErrStreamConsumed) {
		t.Errorf("expected ErrStreamConsumed after failure, got %v", err)
	}
	if s.Err() == nil {
		t.Error("expected Err to report the terminal failure")
	}
}

// TestStream_UsageAndFinish verifies usage accumulation and that the
// finish hook fires exactly once with the provider-reported accounting.
func TestStream_UsageAndFinish(t *testing.T) {
	s := NewStream("openai", "gpt-4o-mini", chunkScript([]StreamChunk{
		{Delta: "Hello"},
		{Usage: &Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, Final: true},
	}, io.EOF), nil)

	var calls int
	var finishUsage Usage
	var finishReported bool
	s.OnFinish(func(u Usage, reported bool, err error) {
		calls++
		finishUsage = u
		finishReported = reported
		if err != nil {
			t.Errorf("unexpected finish error: %v", err)
		}
	})

	if _, err := s.Text(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Close()

	if calls != 1 {
		t.Fatalf("expected exactly one finish call, got %d", calls)
	}
	if !finishReported {
		t.Error("expected provider-reported usage")
	}
	if finishUsage.TotalTokens != 15 {
		t.Errorf("expected 15 total tokens, got %d", finishUsage.TotalTokens)
	}

	usage, reported := s.Usage()
	if !reported || usage.PromptTokens != 10 || usage.CompletionTokens != 5 {
		t.Errorf("unexpected accumulated usage: %+v reported=%v", usage, reported)
	}
}

// TestStream_CloseAborts verifies that Close stops the transport, marks
// the stream consumed, and fires the finish hook.
func TestStream_CloseAborts(t *testing.T) {
	stopped := false
	s := NewStream("openai", "gpt-4o-mini", chunkScript([]StreamChunk{
		{Delta: "never read"},
	}, io.EOF), func() error {
		stopped = true
		return nil
	})

	finishCalls := 0
	s.OnFinish(func(Usage, bool, error) { finishCalls++ })

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if !stopped {
		t.Error("expected the transport stop function to run")
	}
	if finishCalls != 1 {
		t.Errorf("expected one finish call, got %d", finishCalls)
	}

	if _, err := s.Recv(); !errors.Is(err, ErrStreamConsumed) {
		t.Errorf("expected ErrStreamConsumed after Close, got %v", err)
	}

	// Close again is a no-op.
	if err := s.Close(); err != nil {
		t.Errorf("unexpected error on double close: %v", err)
	}
}

// TestStreamFromSSE_MalformedFramesSkipped verifies that frames the
// adapter decoder rejects are skipped rather than failing the stream.
func TestStreamFromSSE_MalformedFramesSkipped(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"delta\":\"ok1\"}\n\n" +
			"data: {not json at all}\n\n" +
			"data: {\"delta\":\"ok2\"}\n\n" +
			"data: [DONE]\n\n"))

	type frame struct {
		Delta string `json:"delta"`
	}
	s := StreamFromSSE("custom", "any", body, func(payload []byte) (StreamChunk, bool) {
		var f frame
		if err := json.Unmarshal(payload, &f); err != nil {
			return StreamChunk{}, false
		}
		return StreamChunk{Delta: f.Delta}, true
	})

	text, err := s.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok1ok2" {
		t.Errorf("expected malformed frame skipped, got %q", text)
	}
}
