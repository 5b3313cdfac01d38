// Package ratelimit admits outbound provider requests under sliding
// windows.
//
// # Algorithm
//
// Each (provider, key-hash) pair owns an ordered sequence of admission
// timestamps with token counts. On acquire, entries older than the
// window are discarded; if admitting would exceed the request bound,
// the caller suspends until the oldest remaining entry leaves the
// window, then rechecks. The wait is computed, not polled for.
//
// # Self-correction
//
// After every real response, quota headers the provider reports
// (x-ratelimit-remaining-requests and friends, Retry-After) are folded
// back in. A server report can tighten admission below the configured
// bound or relax an earlier report, but the configured bound always
// holds: local accounting converges on server truth instead of
// drifting.
//
// # Token dimension
//
// When a token bound is configured, admission also counts estimated
// tokens. Estimates are corrected to the provider-reported count after
// the response via Admission.Commit.
package ratelimit
