package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AstroAir/PromptBoost-sub001/pkg/limits/ratelimit"
	"github.com/AstroAir/PromptBoost-sub001/pkg/processing/tokens"
	"github.com/AstroAir/PromptBoost-sub001/pkg/providers"
	"github.com/AstroAir/PromptBoost-sub001/pkg/telemetry/tracing"
	"github.com/AstroAir/PromptBoost-sub001/pkg/usage"
)

// Ledger receives one record per finished gateway call. usage.Store
// satisfies it. Implementations must be safe for concurrent use.
type Ledger interface {
	Append(ctx context.Context, rec *usage.Record) error
}

// Config carries the gateway's dependencies. Zero fields get working
// defaults: an unconfigured limiter, the built-in estimator, the
// default retry policy, no ledger, and no metrics.
type Config struct {
	// Policy is the retry policy for transient failures.
	Policy Policy

	// Limiter admits requests per (provider, key) window.
	Limiter *ratelimit.Limiter

	// Estimator supplies token counts when providers report none.
	Estimator *tokens.Estimator

	// Ledger records per-call usage. Nil disables recording.
	Ledger Ledger

	// Metrics instruments calls. Nil disables instrumentation.
	Metrics *Metrics

	// Tracer produces spans around calls. Nil disables tracing.
	Tracer *tracing.Tracer
}

// Gateway coordinates one call's journey: admission, dispatch,
// classification, retries, and accounting.
type Gateway struct {
	policy    Policy
	limiter   *ratelimit.Limiter
	estimator *tokens.Estimator
	ledger    Ledger
	metrics   *Metrics
	tracer    *tracing.Tracer
}

// New creates a gateway from the given configuration.
func New(config Config) *Gateway {
	if config.Limiter == nil {
		config.Limiter = ratelimit.NewLimiter(ratelimit.Config{})
	}
	if config.Estimator == nil {
		config.Estimator = tokens.NewEstimator(nil)
	}
	return &Gateway{
		policy:    config.Policy.withDefaults(),
		limiter:   config.Limiter,
		estimator: config.Estimator,
		ledger:    config.Ledger,
		metrics:   config.Metrics,
		tracer:    config.Tracer,
	}
}

// Limiter returns the gateway's rate limiter, for status inspection.
func (g *Gateway) Limiter() *ratelimit.Limiter { return g.limiter }

// Generate sends one prompt through the full pipeline and returns the
// normalized completion. Transient failures are retried per the policy;
// the returned error is always a classified *providers.Error.
func (g *Gateway) Generate(ctx context.Context, prov providers.Provider, key ratelimit.Key, prompt string, opts providers.Options) (*providers.Result, error) {
	requestID := uuid.NewString()
	ctx, span := g.tracer.Start(ctx, "generate")
	defer span.End()
	tracing.SetRequestAttributes(span, requestID, prov.Name(), opts.Model, usage.OpGenerate)

	log := slog.With(
		"request_id", requestID,
		"provider", prov.Name(),
		"operation", usage.OpGenerate,
	)
	start := time.Now()
	estimate := g.estimateRequest(prompt, opts)

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		attempts = attempt
		if attempt > 1 {
			if err := g.backoff(ctx, log, prov.Name(), attempt, lastErr); err != nil {
				lastErr = err
				break
			}
		}

		adm, err := g.admit(ctx, key, estimate)
		if err != nil {
			lastErr = err
			break
		}

		attemptCtx, attemptSpan := g.tracer.Start(ctx, "attempt")
		tracing.SetAttempt(attemptSpan, attempt)
		res, err := prov.Generate(attemptCtx, prompt, opts)
		tracing.SetError(attemptSpan, err)
		attemptSpan.End()
		if err != nil {
			lastErr = err
			g.feedRetryAfter(key, err)
			if !g.policy.Retryable(err) {
				log.Debug("failure is not retryable", "error", err)
				break
			}
			log.Warn("attempt failed, will retry",
				"attempt", attempt,
				"max_attempts", g.policy.MaxAttempts,
				"error", err,
			)
			continue
		}

		// Success: converge the limiter on server truth and settle the
		// token accounting.
		g.limiter.ObserveHeaders(key, res.Header)
		if res.Usage.TotalTokens == 0 {
			res.Usage = g.estimator.Usage(prompt, res.Text, res.Model)
		}
		adm.Commit(res.Usage.TotalTokens)
		res.RequestID = requestID
		tracing.SetTokenAttributes(span, res.Usage.PromptTokens, res.Usage.CompletionTokens, res.Usage.TotalTokens, res.Usage.Estimated)
		tracing.SetError(span, nil)

		elapsed := time.Since(start)
		g.record(ctx, requestID, prov.Name(), res.Model, key, usage.OpGenerate, res.Usage, usage.StatusOK, "", attempt, elapsed)
		log.Info("generation complete",
			"model", res.Model,
			"attempts", attempt,
			"total_tokens", res.Usage.TotalTokens,
			"estimated", res.Usage.Estimated,
			"duration", elapsed,
		)
		return res, nil
	}

	perr := providers.Classify(prov.Name(), lastErr)
	tracing.SetError(span, perr)
	elapsed := time.Since(start)
	g.record(ctx, requestID, prov.Name(), opts.Model, key, usage.OpGenerate, providers.Usage{}, string(perr.Category), perr.Code, attempts, elapsed)
	log.Warn("generation failed",
		"attempts", attempts,
		"category", perr.Category,
		"error", perr,
		"duration", elapsed,
	)
	return nil, perr
}

// Stream dials one streaming call and returns the live stream. Only the
// dial is retried: once bytes have flowed the provider would replay the
// completion from the start, so a mid-stream failure surfaces through
// Recv instead of a silent re-dial. Accounting settles when the stream
// finishes, through its finish hook.
func (g *Gateway) Stream(ctx context.Context, prov providers.Provider, key ratelimit.Key, prompt string, opts providers.Options) (*providers.Stream, error) {
	requestID := uuid.NewString()

	// The span outlives this call on success: it ends when the stream
	// finishes, so it covers the full streaming window.
	ctx, span := g.tracer.Start(ctx, "stream")
	tracing.SetRequestAttributes(span, requestID, prov.Name(), opts.Model, usage.OpStream)

	log := slog.With(
		"request_id", requestID,
		"provider", prov.Name(),
		"operation", usage.OpStream,
	)
	start := time.Now()
	estimate := g.estimateRequest(prompt, opts)

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		attempts = attempt
		if attempt > 1 {
			if err := g.backoff(ctx, log, prov.Name(), attempt, lastErr); err != nil {
				lastErr = err
				break
			}
		}

		adm, err := g.admit(ctx, key, estimate)
		if err != nil {
			lastErr = err
			break
		}

		attemptCtx, attemptSpan := g.tracer.Start(ctx, "attempt")
		tracing.SetAttempt(attemptSpan, attempt)
		st, err := prov.Stream(attemptCtx, prompt, opts)
		tracing.SetError(attemptSpan, err)
		attemptSpan.End()
		if err != nil {
			lastErr = err
			g.feedRetryAfter(key, err)
			if !g.policy.Retryable(err) {
				log.Debug("failure is not retryable", "error", err)
				break
			}
			log.Warn("stream dial failed, will retry",
				"attempt", attempt,
				"max_attempts", g.policy.MaxAttempts,
				"error", err,
			)
			continue
		}

		st.OnFinish(func(u providers.Usage, reported bool, streamErr error) {
			model := st.Model()
			deltas, textLen := st.Stats()
			if !reported {
				u = providers.Usage{
					PromptTokens:     g.estimator.Count(prompt, model),
					CompletionTokens: g.estimator.CountLen(textLen, model),
					Estimated:        true,
				}
				u.TotalTokens = u.PromptTokens + u.CompletionTokens
			}
			adm.Commit(u.TotalTokens)
			g.metrics.RecordStreamDeltas(prov.Name(), deltas)
			tracing.SetTokenAttributes(span, u.PromptTokens, u.CompletionTokens, u.TotalTokens, u.Estimated)
			tracing.SetStreamDeltas(span, deltas)
			tracing.SetError(span, streamErr)
			span.End()

			status, code := usage.StatusOK, ""
			if streamErr != nil {
				serr := providers.Classify(prov.Name(), streamErr)
				status, code = string(serr.Category), serr.Code
			}
			elapsed := time.Since(start)
			g.record(ctx, requestID, prov.Name(), model, key, usage.OpStream, u, status, code, attempt, elapsed)
			log.Info("stream finished",
				"model", model,
				"status", status,
				"total_tokens", u.TotalTokens,
				"estimated", u.Estimated,
				"duration", elapsed,
			)
		})
		log.Debug("stream established", "model", st.Model(), "attempts", attempt)
		return st, nil
	}

	perr := providers.Classify(prov.Name(), lastErr)
	tracing.SetError(span, perr)
	span.End()
	elapsed := time.Since(start)
	g.record(ctx, requestID, prov.Name(), opts.Model, key, usage.OpStream, providers.Usage{}, string(perr.Category), perr.Code, attempts, elapsed)
	log.Warn("stream failed",
		"attempts", attempts,
		"category", perr.Category,
		"error", perr,
		"duration", elapsed,
	)
	return nil, perr
}

// estimateRequest sizes an admission reservation: the prompt's estimated
// tokens plus the completion cap, when one is set. Commit corrects the
// reservation once real usage is known.
func (g *Gateway) estimateRequest(prompt string, opts providers.Options) int {
	return g.estimator.Count(prompt, opts.Model) + opts.MaxTokens
}

// admit blocks until the limiter grants a slot, recording the wait.
func (g *Gateway) admit(ctx context.Context, key ratelimit.Key, estimate int) (*ratelimit.Admission, error) {
	waitStart := time.Now()
	adm, err := g.limiter.Acquire(ctx, key, estimate)
	if err != nil {
		return nil, err
	}
	g.metrics.RecordAdmissionWait(key.Provider, time.Since(waitStart))
	return adm, nil
}

// backoff waits out the policy delay before a retry, honoring a longer
// provider-requested Retry-After and the context.
func (g *Gateway) backoff(ctx context.Context, log *slog.Logger, provider string, attempt int, lastErr error) error {
	delay := g.policy.Delay(attempt - 1)
	var perr *providers.Error
	if errors.As(lastErr, &perr) && perr.RetryAfter > delay {
		delay = perr.RetryAfter
	}

	g.metrics.RecordRetry(provider, providers.Classify(provider, lastErr).Category)
	log.Debug("retrying after backoff",
		"attempt", attempt,
		"max_attempts", g.policy.MaxAttempts,
		"backoff", delay,
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// feedRetryAfter turns a 429's Retry-After into a limiter observation,
// so the whole key suspends instead of just this call.
func (g *Gateway) feedRetryAfter(key ratelimit.Key, err error) {
	var perr *providers.Error
	if !errors.As(err, &perr) || perr.Category != providers.CategoryRateLimit || perr.RetryAfter <= 0 {
		return
	}
	hdr := http.Header{}
	hdr.Set("Retry-After", perr.RetryAfter.String())
	g.limiter.ObserveHeaders(key, hdr)
}

// record appends the call to the usage ledger and updates metrics. The
// append uses a detached context so a canceled call still gets its
// record.
func (g *Gateway) record(ctx context.Context, id, provider, model string, key ratelimit.Key, op string, u providers.Usage, status, code string, attempts int, elapsed time.Duration) {
	g.metrics.RecordRequest(provider, op, status, elapsed)
	g.metrics.RecordTokens(provider, u)

	if g.ledger == nil {
		return
	}
	rec := &usage.Record{
		ID:               id,
		Time:             time.Now(),
		Provider:         provider,
		Model:            model,
		KeyHash:          key.KeyHash,
		Operation:        op,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		Estimated:        u.Estimated,
		Status:           status,
		Code:             code,
		Attempts:         attempts,
		Duration:         elapsed,
	}
	if err := g.ledger.Append(context.WithoutCancel(ctx), rec); err != nil {
		slog.Warn("usage ledger append failed",
			"request_id", id,
			"provider", provider,
			"error", err,
		)
	}
}
