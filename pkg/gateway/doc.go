// Package gateway executes prompts against provider adapters with
// admission control, classified retries, and usage accounting.
//
// The gateway is the orchestration layer between callers and the
// provider adapters. For every call it:
//
//  1. Acquires an admission slot from the rate limiter, suspending
//     cooperatively when the window is full.
//  2. Invokes the adapter (Generate or Stream).
//  3. On failure, consults the retry policy: NETWORK, RATE_LIMIT, and
//     SERVER failures get another attempt after an exponential,
//     jittered backoff; everything else fails immediately.
//  4. On success, feeds the provider's rate-limit headers back into
//     the limiter, fills in estimated usage when the provider reported
//     none, commits the real token count against the admission, and
//     appends a record to the usage ledger.
//
// # Retries
//
// The backoff doubles from BaseDelay up to MaxDelay, with a ±JitterFrac
// spread so concurrent clients do not retry in lockstep. A 429 response
// carrying Retry-After extends the wait to at least what the provider
// asked for. Retries apply to whole requests; a stream that fails after
// bytes have flowed is not re-dialed, because the provider would replay
// the completion from the start.
//
// # Example
//
//	gw := gateway.New(gateway.Config{
//	    Limiter: limiter,
//	    Ledger:  ledgerStore,
//	})
//
//	res, err := gw.Generate(ctx, adapter, key, "Improve this sentence.", providers.Options{})
//	if err != nil {
//	    var perr *providers.Error
//	    if errors.As(err, &perr) {
//	        fmt.Println(perr.Message) // sanitized, key never included
//	    }
//	    return err
//	}
//	fmt.Println(res.Text)
package gateway
