package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/AstroAir/PromptBoost-sub001/pkg/limits/ratelimit"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers/openai"
	"github.com/AstroAir/PromptBoost-sub001/pkg/usage"
	"github.com/AstroAir/PromptBoost-sub001/pkg/usage/store"
)

const successBody = `{
	"id": "chatcmpl-1",
	"model": "gpt-4o-mini",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello there"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 5, "completion_tokens": 2, "total_tokens": 7}
}`

// testPolicy keeps retry semantics but shrinks the waits so tests run
// in milliseconds.
func testPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    50 * time.Millisecond,
		JitterFrac:  0.2,
	}
}

func testAdapter(t *testing.T, endpoint string) *openai.Adapter {
	t.Helper()
	a, err := openai.New(providers.Config{
		Endpoint: endpoint,
		APIKey:   "sk-test",
		Model:    "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("adapter construction failed: %v", err)
	}
	return a
}

func ledgerRecords(t *testing.T, led *store.Memory) []*usage.Record {
	t.Helper()
	records, err := led.Query(context.Background(), &usage.Query{})
	if err != nil {
		t.Fatalf("ledger query failed: %v", err)
	}
	return records
}

// TestGateway_RetriesRateLimited verifies a persistent 429 is retried
// on the backoff schedule and gives up after the attempt budget.
func TestGateway_RetriesRateLimited(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "rate limited"}}`)
	}))
	defer srv.Close()

	led := store.NewMemory(0)
	gw := New(Config{Policy: testPolicy(), Ledger: led})
	adapter := testAdapter(t, srv.URL)
	defer adapter.Close()

	start := time.Now()
	_, err := gw.Generate(context.Background(), adapter, ratelimit.KeyFor("openai", "sk-test"), "Hello", providers.Options{})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected the call to fail")
	}
	if !providers.IsCategory(err, providers.CategoryRateLimit) {
		t.Errorf("expected RATE_LIMIT, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, server saw %d", got)
	}
	// Two backoffs of roughly 10ms and 20ms, minus jitter.
	if elapsed < 20*time.Millisecond {
		t.Errorf("expected backoff between attempts, finished in %v", elapsed)
	}

	records := ledgerRecords(t, led)
	if len(records) != 1 {
		t.Fatalf("expected 1 ledger record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != "RATE_LIMIT" || rec.Attempts != 3 || rec.Operation != usage.OpGenerate {
		t.Errorf("unexpected ledger record: %+v", rec)
	}
}

// TestGateway_AuthFailureNoRetry verifies a 401 fails immediately with
// zero retries.
func TestGateway_AuthFailureNoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "bad key"}}`)
	}))
	defer srv.Close()

	led := store.NewMemory(0)
	gw := New(Config{Policy: testPolicy(), Ledger: led})
	adapter := testAdapter(t, srv.URL)
	defer adapter.Close()

	_, err := gw.Generate(context.Background(), adapter, ratelimit.KeyFor("openai", "sk-test"), "Hello", providers.Options{})
	if !providers.IsCategory(err, providers.CategoryAuthentication) {
		t.Fatalf("expected AUTHENTICATION, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 attempt, server saw %d", got)
	}

	records := ledgerRecords(t, led)
	if len(records) != 1 || records[0].Attempts != 1 || records[0].Status != "AUTHENTICATION" {
		t.Fatalf("unexpected ledger state: %+v", records)
	}
}

// TestGateway_RecoversAfterRetry verifies transient server failures are
// absorbed when a later attempt succeeds.
func TestGateway_RecoversAfterRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error": {"message": "overloaded"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, successBody)
	}))
	defer srv.Close()

	led := store.NewMemory(0)
	gw := New(Config{Policy: testPolicy(), Ledger: led})
	adapter := testAdapter(t, srv.URL)
	defer adapter.Close()

	res, err := gw.Generate(context.Background(), adapter, ratelimit.KeyFor("openai", "sk-test"), "Hello", providers.Options{})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if res.Text != "Hello there" {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.Usage.TotalTokens != 7 || res.Usage.Estimated {
		t.Errorf("expected reported usage of 7 tokens, got %+v", res.Usage)
	}
	if res.RequestID == "" {
		t.Error("expected a request id on the result")
	}

	records := ledgerRecords(t, led)
	if len(records) != 1 {
		t.Fatalf("expected 1 ledger record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != usage.StatusOK || rec.Attempts != 3 || rec.TotalTokens != 7 || rec.Estimated {
		t.Errorf("unexpected ledger record: %+v", rec)
	}
	if rec.ID != res.RequestID {
		t.Errorf("ledger id %q does not match result id %q", rec.ID, res.RequestID)
	}
}

// TestGateway_EstimatesWhenUnreported verifies the estimator fills in
// usage when the provider reports none, marked as estimated.
func TestGateway_EstimatesWhenUnreported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-2",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "A perfectly reasonable answer."}, "finish_reason": "stop"}]
		}`)
	}))
	defer srv.Close()

	led := store.NewMemory(0)
	gw := New(Config{Policy: testPolicy(), Ledger: led})
	adapter := testAdapter(t, srv.URL)
	defer adapter.Close()

	res, err := gw.Generate(context.Background(), adapter, ratelimit.KeyFor("openai", "sk-test"), "Say something reasonable.", providers.Options{})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !res.Usage.Estimated {
		t.Fatal("expected estimated usage")
	}
	if res.Usage.PromptTokens == 0 || res.Usage.CompletionTokens == 0 {
		t.Errorf("expected non-zero estimates, got %+v", res.Usage)
	}

	records := ledgerRecords(t, led)
	if len(records) != 1 || !records[0].Estimated {
		t.Fatalf("expected an estimated ledger record, got %+v", records)
	}
}

// TestGateway_StreamAccounting verifies the stream path records usage
// through the finish hook, both provider-reported and estimated.
func TestGateway_StreamAccounting(t *testing.T) {
	newStreamServer := func(withUsage bool) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" there\"}}]}\n\n")
			if withUsage {
				fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":5,\"completion_tokens\":2,\"total_tokens\":7}}\n\n")
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			flusher.Flush()
		}))
	}

	t.Run("reported usage", func(t *testing.T) {
		srv := newStreamServer(true)
		defer srv.Close()

		led := store.NewMemory(0)
		gw := New(Config{Policy: testPolicy(), Ledger: led})
		adapter := testAdapter(t, srv.URL)
		defer adapter.Close()

		st, err := gw.Stream(context.Background(), adapter, ratelimit.KeyFor("openai", "sk-test"), "Hello", providers.Options{})
		if err != nil {
			t.Fatalf("stream dial failed: %v", err)
		}
		text, err := st.Text()
		if err != nil {
			t.Fatalf("stream drain failed: %v", err)
		}
		if text != "Hi there" {
			t.Errorf("unexpected text %q", text)
		}

		records := ledgerRecords(t, led)
		if len(records) != 1 {
			t.Fatalf("expected 1 ledger record, got %d", len(records))
		}
		rec := records[0]
		if rec.Operation != usage.OpStream || rec.Status != usage.StatusOK {
			t.Errorf("unexpected record: %+v", rec)
		}
		if rec.TotalTokens != 7 || rec.Estimated {
			t.Errorf("expected reported usage of 7 tokens, got %+v", rec)
		}
	})

	t.Run("estimated usage", func(t *testing.T) {
		srv := newStreamServer(false)
		defer srv.Close()

		led := store.NewMemory(0)
		gw := New(Config{Policy: testPolicy(), Ledger: led})
		adapter := testAdapter(t, srv.URL)
		defer adapter.Close()

		st, err := gw.Stream(context.Background(), adapter, ratelimit.KeyFor("openai", "sk-test"), "Hello", providers.Options{})
		if err != nil {
			t.Fatalf("stream dial failed: %v", err)
		}
		if _, err := st.Text(); err != nil {
			t.Fatalf("stream drain failed: %v", err)
		}

		records := ledgerRecords(t, led)
		if len(records) != 1 {
			t.Fatalf("expected 1 ledger record, got %d", len(records))
		}
		rec := records[0]
		if !rec.Estimated || rec.CompletionTokens == 0 {
			t.Errorf("expected estimated completion tokens, got %+v", rec)
		}
	})
}

// TestGateway_StreamDialRetried verifies dial failures retry but an
// established stream is never re-dialed.
func TestGateway_StreamDialRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	led := store.NewMemory(0)
	gw := New(Config{Policy: testPolicy(), Ledger: led})
	adapter := testAdapter(t, srv.URL)
	defer adapter.Close()

	st, err := gw.Stream(context.Background(), adapter, ratelimit.KeyFor("openai", "sk-test"), "Hello", providers.Options{})
	if err != nil {
		t.Fatalf("expected the dial retry to succeed, got %v", err)
	}
	text, err := st.Text()
	if err != nil || text != "Hi" {
		t.Fatalf("unexpected drain result %q, %v", text, err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 dials, server saw %d", got)
	}

	records := ledgerRecords(t, led)
	if len(records) != 1 || records[0].Attempts != 2 {
		t.Fatalf("expected a single record with 2 attempts, got %+v", records)
	}
}

// TestGateway_RetryAfterHonored verifies a provider-requested wait
// stretches the backoff beyond the policy delay.
func TestGateway_RetryAfterHonored(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, successBody)
	}))
	defer srv.Close()

	gw := New(Config{Policy: testPolicy()})
	adapter := testAdapter(t, srv.URL)
	defer adapter.Close()

	start := time.Now()
	res, err := gw.Generate(context.Background(), adapter, ratelimit.KeyFor("openai", "sk-test"), "Hello", providers.Options{})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("expected success after the wait, got %v", err)
	}
	if res.Text != "Hello there" {
		t.Errorf("unexpected text %q", res.Text)
	}
	if elapsed < 900*time.Millisecond {
		t.Errorf("expected the 1s Retry-After honored, finished in %v", elapsed)
	}
}

// TestGateway_AdmissionBound verifies calls actually pass through the
// rate limiter before dialing.
func TestGateway_AdmissionBound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, successBody)
	}))
	defer srv.Close()

	limiter := ratelimit.NewLimiter(ratelimit.Config{Window: 300 * time.Millisecond, MaxRequests: 2})
	gw := New(Config{Policy: testPolicy(), Limiter: limiter})
	adapter := testAdapter(t, srv.URL)
	defer adapter.Close()

	key := ratelimit.KeyFor("openai", "sk-test")
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := gw.Generate(ctx, adapter, key, "Hello", providers.Options{MaxTokens: 1}); err != nil {
			t.Fatalf("generate %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("expected the third call suspended by the window, all done in %v", elapsed)
	}
}

// TestGateway_Metrics verifies the collectors see finished calls.
func TestGateway_Metrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, successBody)
	}))
	defer srv.Close()

	m := NewMetrics(prometheus.NewRegistry())
	gw := New(Config{Policy: testPolicy(), Metrics: m})
	adapter := testAdapter(t, srv.URL)
	defer adapter.Close()

	if _, err := gw.Generate(context.Background(), adapter, ratelimit.KeyFor("openai", "sk-test"), "Hello", providers.Options{}); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("openai", "generate", "ok")); got != 1 {
		t.Errorf("expected 1 recorded request, got %v", got)
	}
	if got := testutil.ToFloat64(m.tokens.WithLabelValues("openai", "prompt", "reported")); got != 5 {
		t.Errorf("expected 5 prompt tokens recorded, got %v", got)
	}
}
