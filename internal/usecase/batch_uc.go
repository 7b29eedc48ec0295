package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/adapter"
	"learnloop/internal/domain/ports/provider"
	"learnloop/internal/infra/logging"
	"learnloop/internal/infra/metrics"
)

// BatchOrchestrator drives the submit-now/poll-later pipeline against the
// async completion service. It holds no state across runs: items live in each
// provider's backing store, jobs live in the remote service, so a run killed
// mid-flight is simply resumed by the next one.
type BatchOrchestrator struct {
	client    adapter.BatchCompletionClient
	providers []provider.BatchProvider
	notifier  adapter.Notifier
	tokens    adapter.TokenCounter
	dryRun    bool
	log       *zerolog.Logger
}

func NewBatchOrchestrator(
	client adapter.BatchCompletionClient,
	providers []provider.BatchProvider,
	notifier adapter.Notifier,
	tokens adapter.TokenCounter,
	dryRun bool,
	logger *zerolog.Logger,
) *BatchOrchestrator {
	l := logger.With().Str("component", "BatchOrchestrator").Logger()
	return &BatchOrchestrator{
		client:    client,
		providers: providers,
		notifier:  notifier,
		tokens:    tokens,
		dryRun:    dryRun,
		log:       &l,
	}
}

// Run processes every provider sequentially: submission phase, then
// collection phase. One provider's failure never blocks another's; failures
// are recovered at the smallest scope that can contain them (item, then job,
// then provider).
func (o *BatchOrchestrator) Run(ctx context.Context) (model.RunSummary, error) {
	summary := model.RunSummary{RunID: ulid.Make().String(), DryRun: o.dryRun}
	ctx = logging.WithRunID(ctx, summary.RunID)
	log := logging.With(ctx, o.log)
	log.Info().Bool("dry_run", o.dryRun).Msg("batch run started")

	for _, p := range o.providers {
		o.runProvider(ctx, p, &summary)
	}

	log.Info().
		Int("submitted", summary.Submitted).
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Msg("batch run finished")

	metrics.IncBatchRun(summary.Failed > 0)
	if summary.Failed > 0 && !o.dryRun && o.notifier != nil {
		if err := o.notifier.NotifyRunSummary(ctx, summary); err != nil {
			o.log.Error().Err(err).Msg("run summary notification failed")
		}
	}
	return summary, nil
}

// runProvider contains one provider's whole run, errors and panics both: a
// misbehaving provider must never take the remaining ones down with it.
func (o *BatchOrchestrator) runProvider(ctx context.Context, p provider.BatchProvider, summary *model.RunSummary) {
	plog := logging.With(ctx, o.log).With().Str("provider", p.Name()).Logger()
	defer func() {
		if r := recover(); r != nil {
			plog.Error().Interface("panic", r).Msg("provider run panicked")
		}
	}()
	if err := o.processProvider(ctx, p, &plog, summary); err != nil {
		plog.Error().Err(err).Msg("provider run failed")
	}
}

func (o *BatchOrchestrator) processProvider(ctx context.Context, p provider.BatchProvider, log *zerolog.Logger, summary *model.RunSummary) error {
	if err := o.submitPending(ctx, p, log, summary); err != nil {
		// Collection still runs: jobs from previous runs are independent of
		// this run's submission outcome.
		log.Error().Err(err).Msg("submission phase failed")
	}
	return o.collectActive(ctx, p, log, summary)
}

// submitPending pulls pending items, builds one request line per item and
// submits everything that built successfully as a single batch job. An item
// whose line cannot be built is recorded as failed and skipped; partial
// success is the normal case, not an anomaly.
func (o *BatchOrchestrator) submitPending(ctx context.Context, p provider.BatchProvider, log *zerolog.Logger, summary *model.RunSummary) error {
	items, err := p.FetchPendingItems(ctx)
	if err != nil {
		return fmt.Errorf("fetch pending items: %w", err)
	}
	if len(items) == 0 {
		log.Debug().Msg("no pending items")
		return nil
	}
	log.Info().Int("count", len(items)).Msg("pending items found")

	var (
		lines []adapter.RequestLine
		built []provider.PendingItem
	)
	for _, item := range items {
		line, err := p.CreateRequestLine(ctx, item)
		if err != nil {
			log.Error().Err(err).Str("item_id", item.ID).Msg("request line build failed, skipping item")
			summary.AddError(p.Name(), item.ID, err.Error())
			continue
		}
		lines = append(lines, line)
		built = append(built, item)
	}
	if len(lines) == 0 {
		return nil
	}

	est := o.estimateTokens(lines)
	if o.dryRun {
		log.Info().Int("items", len(lines)).Int("est_tokens", est).Msg("dry-run: would upload and submit batch")
		summary.Submitted += len(lines)
		return nil
	}

	jsonl, err := encodeRequestLines(lines)
	if err != nil {
		return fmt.Errorf("encode request lines: %w", err)
	}
	fileID, err := o.client.UploadInputFile(ctx, jsonl)
	if err != nil {
		return fmt.Errorf("upload input file: %w", err)
	}
	batchID, err := o.client.SubmitBatch(ctx, fileID)
	if err != nil {
		return fmt.Errorf("submit batch: %w", err)
	}

	// The set handed over here must exactly match the items whose line was
	// built, so in-flight state and job content stay in correspondence.
	if err := p.MarkProcessing(ctx, built, batchID); err != nil {
		return fmt.Errorf("mark processing for batch %s: %w", batchID, err)
	}

	metrics.AddBatchItemsSubmitted(p.Name(), len(built))
	summary.Submitted += len(built)
	log.Info().Str("batch_id", batchID).Int("items", len(built)).Int("est_tokens", est).Msg("batch submitted")
	return nil
}

// collectActive polls every active job of the provider and dispatches on the
// remote status. Transport errors leave the job active for the next run.
func (o *BatchOrchestrator) collectActive(ctx context.Context, p provider.BatchProvider, log *zerolog.Logger, summary *model.RunSummary) error {
	batchIDs, err := p.ActiveBatchIDs(ctx)
	if err != nil {
		return fmt.Errorf("fetch active batch ids: %w", err)
	}
	if len(batchIDs) == 0 {
		log.Debug().Msg("no active batches")
		return nil
	}
	log.Info().Int("count", len(batchIDs)).Msg("checking active batches")

	for _, batchID := range batchIDs {
		if err := o.collectOne(ctx, p, batchID, log, summary); err != nil {
			log.Error().Err(err).Str("batch_id", batchID).Msg("batch collection failed, will retry next run")
		}
	}
	return nil
}

func (o *BatchOrchestrator) collectOne(ctx context.Context, p provider.BatchProvider, batchID string, log *zerolog.Logger, summary *model.RunSummary) error {
	check, err := o.client.CheckStatus(ctx, batchID)
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}
	metrics.IncBatchJobPolled(p.Name(), string(check.Status))

	switch {
	case check.Status == adapter.BatchStatusCompleted && check.OutputFileID != "":
		if o.dryRun {
			log.Info().Str("batch_id", batchID).Msg("dry-run: would download and apply results")
			return nil
		}
		outputLines, err := o.client.DownloadOutput(ctx, check.OutputFileID)
		if err != nil {
			return fmt.Errorf("download output: %w", err)
		}
		results := make(map[string]adapter.OutputLine, len(outputLines))
		for _, line := range outputLines {
			results[line.CustomID] = line
		}
		stats, err := p.HandleCompletion(ctx, batchID, results)
		summary.Completed += stats.Completed
		summary.Failed += stats.Failed
		for itemID, msg := range stats.Errors {
			summary.Errors = append(summary.Errors, model.ItemError{Provider: p.Name(), ItemID: itemID, Message: msg})
		}
		metrics.AddBatchItemsCompleted(p.Name(), stats.Completed, stats.Failed)
		if err != nil {
			return fmt.Errorf("handle completion: %w", err)
		}
		log.Info().Str("batch_id", batchID).Int("completed", stats.Completed).Int("failed", stats.Failed).Msg("batch results applied")

	case check.Status.Terminal():
		message := check.ErrorMessage
		if message == "" {
			message = fmt.Sprintf("batch ended with status: %s", check.Status)
		}
		log.Error().Str("batch_id", batchID).Str("status", string(check.Status)).Msg(message)
		summary.AddError(p.Name(), batchID, message)
		if o.dryRun {
			return nil
		}
		if fh, ok := p.(provider.FailureHandler); ok {
			if err := fh.HandleFailure(ctx, batchID, message); err != nil {
				return fmt.Errorf("handle failure: %w", err)
			}
		}

	default:
		// in_progress, validating, finalizing, cancelling: re-polled next run.
		log.Info().Str("batch_id", batchID).Str("status", string(check.Status)).Msg("batch still running")
	}
	return nil
}

func (o *BatchOrchestrator) estimateTokens(lines []adapter.RequestLine) int {
	if o.tokens == nil {
		return 0
	}
	total := 0
	for _, line := range lines {
		for _, msg := range line.Body.Messages {
			total += o.tokens.Count(line.Body.Model, msg.Content)
		}
	}
	return total
}

// encodeRequestLines serializes the lines as newline-delimited JSON, the
// input file format of the completion service.
func encodeRequestLines(lines []adapter.RequestLine) (string, error) {
	var b strings.Builder
	for i, line := range lines {
		raw, err := json.Marshal(line)
		if err != nil {
			return "", fmt.Errorf("marshal line %s: %w", line.CustomID, err)
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.Write(raw)
	}
	return b.String(), nil
}
