// Package providertest provides a scriptable provider API server for
// tests. It plays back configured responses, frames SSE streams the way
// the real provider APIs do, and captures requests for assertions.
package providertest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
)

// Response scripts one endpoint's reply.
type Response struct {
	// StatusCode defaults to 200.
	StatusCode int

	// Body is the response payload: a string or []byte is written
	// verbatim, anything else is JSON-encoded.
	Body any

	// Headers are set before the status is written.
	Headers map[string]string

	// Delay holds the response back, for timeout tests.
	Delay time.Duration

	// Frames, when set, switches the endpoint to SSE: each entry is
	// written verbatim followed by a blank line and a flush. Build
	// entries with the fixture helpers (ChatChunk, AnthropicEvent, ...).
	Frames []string

	// Lines, when set, switches the endpoint to a newline-delimited
	// JSON stream, the framing Cohere uses.
	Lines []string
}

// Request is one captured inbound request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Server is a scriptable stand-in for a provider API. Configure
// endpoints with Handle, point an adapter at URL(), and inspect what
// arrived with Requests.
type Server struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]Response
	requests  []Request
}

// NewServer starts a mock provider server. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		responses: make(map[string]Response),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Close()
}

// Handle scripts the response for a path.
func (s *Server) Handle(path string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = resp
}

// Config returns a provider configuration pointing at this server.
func (s *Server) Config() providers.Config {
	return providers.Config{
		Endpoint: s.server.URL,
		APIKey:   "sk-test",
		Model:    "test-model",
	}
}

// Requests returns every captured request, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, if any arrived.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Count returns how many requests arrived.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Reset drops captured requests, keeping the scripted responses.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	resp, ok := s.responses[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	if len(resp.Frames) > 0 || len(resp.Lines) > 0 {
		s.stream(w, resp)
		return
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	switch v := resp.Body.(type) {
	case nil:
	case string:
		_, _ = w.Write([]byte(v))
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

// stream plays the scripted frames or lines as an incremental response.
func (s *Server) stream(w http.ResponseWriter, resp Response) {
	if w.Header().Get("Content-Type") == "" {
		if len(resp.Lines) > 0 {
			w.Header().Set("Content-Type", "application/stream+json")
		} else {
			w.Header().Set("Content-Type", "text/event-stream")
		}
	}
	w.Header().Set("Cache-Control", "no-cache")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	for _, frame := range resp.Frames {
		fmt.Fprintf(w, "%s\n\n", frame)
		flusher.Flush()
	}
	for _, line := range resp.Lines {
		fmt.Fprintf(w, "%s\n", line)
		flusher.Flush()
	}
}
