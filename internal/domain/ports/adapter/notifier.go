package adapter

import (
	"context"

	"learnloop/internal/domain/model"
)

// Notifier is the aggregate notification channel for orchestrator runs.
// Implementations must not fail the run: delivery errors are logged and
// swallowed by the caller.
type Notifier interface {
	NotifyRunSummary(ctx context.Context, summary model.RunSummary) error
	NotifyFatal(ctx context.Context, err error) error
}
