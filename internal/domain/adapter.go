package domain

import "context"

// Adapter is the contract every bulk-capable integration implements, one
// implementation per backing service. Adapters are stateless: they know how
// to prepare a context, count items, fetch a batch and execute the action,
// and nothing about conversation flow or confirmation.
//
// Pagination is offset-based and best-effort: if the matching item set
// mutates between batches, items may be skipped or seen twice. Adapters
// should use a stable ordering to keep this window small, but the contract
// does not hide it.
type Adapter interface {
	// Name returns the domain tag this adapter is registered under.
	Name() string

	// Prepare validates raw user-supplied parameters and resolves named
	// references (e.g. a project name to its ID) into an immutable context.
	// It must not fetch or mutate item data. Missing or unresolvable
	// parameters fail with ErrInvalidParams.
	Prepare(ctx context.Context, params map[string]string) (PreparedBulkContext, error)

	// TotalCount returns the number of items matching the prepared query,
	// using a count-only query where the backing service supports one.
	// Transport failures wrap ErrCountFailed.
	TotalCount(ctx context.Context, pctx PreparedBulkContext) (int, error)

	// NextBatch fetches up to batchSize items starting at offset, returning
	// an empty slice once the set is exhausted. It must not mutate anything.
	// Transport failures wrap ErrFetchFailed.
	NextBatch(ctx context.Context, pctx PreparedBulkContext, batchSize, offset int) ([]BulkItem, error)

	// ExecuteBatch performs the action on each item and returns one
	// BulkResult per item, in input order. A single item failing must never
	// surface as an error; it becomes a failed BulkResult. An error return
	// (wrapping ErrExecuteFailed) means the whole batch failed and the
	// caller must assume no items were processed.
	ExecuteBatch(ctx context.Context, items []BulkItem, pctx PreparedBulkContext) ([]BulkResult, error)
}
