package repository

import (
	"context"

	"learnloop/internal/domain/model"
)

// BatchRequestRepository persists the internal generation queue backing the
// queue-based provider. Each status transition is a single atomic write keyed
// by row id; the table is the sole source of truth for item state.
type BatchRequestRepository interface {
	Create(ctx context.Context, tx Tx, r *model.BatchRequest) error
	FindPending(ctx context.Context) ([]*model.BatchRequest, error)
	// MarkProcessing assigns the rows to a batch job. No-op on empty ids.
	MarkProcessing(ctx context.Context, ids []string, batchID string) error
	// ActiveBatchIDs returns the distinct batch ids with rows still processing.
	ActiveBatchIDs(ctx context.Context) ([]string, error)
	FindProcessingByBatch(ctx context.Context, batchID string) ([]*model.BatchRequest, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, message string) error
	// MarkBatchFailed fails every row still processing under the batch.
	MarkBatchFailed(ctx context.Context, batchID, message string) error
}
