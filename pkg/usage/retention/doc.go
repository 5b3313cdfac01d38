// Package retention prunes old usage records so the ledger does not
// grow without bound.
//
// Pruning runs in two phases: records older than the retention period
// go first, then the oldest records past the count cap. Both phases
// are optional; a zero setting disables that phase.
//
// # Usage
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    Days:     90,
//	    Schedule: "0 3 * * *", // daily at 3 AM
//	})
//
//	// One-off:
//	deleted, err := pruner.Prune(ctx)
//
//	// Or scheduled:
//	if err := pruner.Start(ctx); err != nil { ... }
//	defer pruner.Stop()
package retention
