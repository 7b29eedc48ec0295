package provider

import (
	"context"

	"learnloop/internal/domain/ports/adapter"
)

// PendingItem is an opaque handle to one unit of work not yet submitted.
// Providers resolve the id against their own backing store; the orchestrator
// only threads it through.
type PendingItem struct {
	ID    string
	Title string
}

// CompletionStats reports how one job's results were applied.
type CompletionStats struct {
	Completed int
	Failed    int
	// Errors carries per-item messages for the run summary.
	Errors map[string]string
}

// BatchProvider abstracts one data source's queue of generation requests and
// its result-application logic. Implementations own all state: the
// orchestrator never tracks items across calls.
//
// CreateRequestLine must return domain.ErrContentInsufficient (wrapped is
// fine) when no usable content can be produced for the item; the
// orchestrator skips that item and continues with its siblings.
type BatchProvider interface {
	Name() string
	FetchPendingItems(ctx context.Context) ([]PendingItem, error)
	CreateRequestLine(ctx context.Context, item PendingItem) (adapter.RequestLine, error)
	// MarkProcessing records that the items now belong to batchID and are in
	// flight. Must be a no-op for an empty item set.
	MarkProcessing(ctx context.Context, items []PendingItem, batchID string) error
	ActiveBatchIDs(ctx context.Context) ([]string, error)
	// HandleCompletion applies one completed job's output, item by item. A
	// single item's bad output marks that item failed and never skips the
	// rest.
	HandleCompletion(ctx context.Context, batchID string, results map[string]adapter.OutputLine) (CompletionStats, error)
}

// FailureHandler is the optional capability of reacting to a job that failed
// at the remote-service level (failed/expired/cancelled). The orchestrator
// checks for it with a type assertion.
type FailureHandler interface {
	HandleFailure(ctx context.Context, batchID, message string) error
}
