package notify

import (
	"context"

	"github.com/rs/zerolog"

	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*ConsoleNotifier)(nil)

// ConsoleNotifier is the fallback when no external channel is configured:
// alerts land in the log stream.
type ConsoleNotifier struct {
	log *zerolog.Logger
}

func NewConsoleNotifier(logger *zerolog.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{log: logger}
}

func (n *ConsoleNotifier) NotifyRunSummary(_ context.Context, summary model.RunSummary) error {
	n.log.Warn().Str("run_id", summary.RunID).Msg(formatRunSummary(summary))
	return nil
}

func (n *ConsoleNotifier) NotifyFatal(_ context.Context, cause error) error {
	n.log.Error().Err(cause).Msg("batch run aborted")
	return nil
}

// FanOut sends each notification to every channel, returning the first error.
type FanOut struct {
	channels []adapter.Notifier
}

func NewFanOut(channels ...adapter.Notifier) *FanOut {
	return &FanOut{channels: channels}
}

func (f *FanOut) NotifyRunSummary(ctx context.Context, summary model.RunSummary) error {
	var first error
	for _, c := range f.channels {
		if err := c.NotifyRunSummary(ctx, summary); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *FanOut) NotifyFatal(ctx context.Context, cause error) error {
	var first error
	for _, c := range f.channels {
		if err := c.NotifyFatal(ctx, cause); err != nil && first == nil {
			first = err
		}
	}
	return first
}
