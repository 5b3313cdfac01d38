// Package usage defines the token-usage ledger: one record per gateway
// call, persisted for reporting and budget review.
//
// # Records
//
// Each record captures:
//   - Routing (provider, model, hashed API key, operation)
//   - Token accounting (prompt, completion, total, estimated flag)
//   - Outcome (status, error code, attempt count, duration)
//
// Providers that report exact token usage produce measured records;
// providers that report nothing produce records from the character
// estimator, marked Estimated so reports can separate the two.
//
// # Stores
//
// Two Store implementations live in the store subpackage:
//   - Memory: bounded in-process ring, for tests and ephemeral runs
//   - SQLite: embedded database in WAL mode, for persistent ledgers
//
// # Querying
//
//	q := &usage.Query{Provider: "openai", Limit: 100}
//	records, err := st.Query(ctx, q)
//	summary, err := st.Summarize(ctx, &usage.Query{})
//
// # Retention
//
// The retention subpackage prunes old records on a cron schedule so the
// ledger does not grow without bound.
package usage
