// Package subscription keeps a local subscription record consistent with
// the billing provider's state across the whole lifecycle: trials, price
// swaps, quantity changes, metered usage, cancellation and resumption.
//
// The package is built around three collaborators:
//
//   - Subscription/Item: the local record, with state derived from the
//     remote status plus the trial and grace timestamps rather than a
//     single stored enum.
//   - RemoteGateway: an opaque client for the provider's subscription
//     resource. A Chargebee implementation is included; tests use fakes.
//   - Reconciler: translates mutation intents into gateway calls and folds
//     the remote response back into the local record.
//
// # Failure semantics
//
// Validation problems (ambiguous price, duplicate price, removing the last
// price, past trial dates, resuming a non-paused subscription) are detected
// locally and returned as sentinel errors before any remote call. Remote
// errors propagate unmodified, and in both cases the local record is left
// exactly as it was: state is committed only after a successful remote
// response.
//
// # Concurrency
//
// Operations on one subscription are not safe under concurrent invocation:
// quantity changes and item removal are read-modify-write against the
// remote item list. The reconciler threads the observed resource version
// into the write so a gateway with conditional-update support can reject
// lost updates with ErrStaleSubscription; the Chargebee gateway has no such
// API and races last-writer-wins.
//
// # Usage
//
//	gateway, err := subscription.NewChargebeeGateway(cfg)
//	if err != nil { ... }
//	r := subscription.NewReconciler(gateway, store)
//
//	// Swap to a new price, prorating the difference.
//	err = r.WithProration(subscription.ProrateOn).
//		Swap(ctx, sub, subscription.PriceChange{PriceID: "pro-monthly"})
package subscription
