package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/adapter"
	"learnloop/internal/domain/ports/provider"
	"learnloop/internal/domain/ports/repository"
	"learnloop/internal/usecase"
)

var (
	_ provider.BatchProvider  = (*StudioProvider)(nil)
	_ provider.FailureHandler = (*StudioProvider)(nil)
)

// StudioProvider sources generation requests from the internal batch_requests
// queue. Content is stored verbatim on the row, so no fetching or scraping is
// involved; the row status carries all pipeline state.
type StudioProvider struct {
	requests repository.BatchRequestRepository
	quizzes  usecase.QuizUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger

	batchModel string
	minChars   int
	maxChars   int

	rows map[string]*model.BatchRequest
}

func NewStudioProvider(
	requests repository.BatchRequestRepository,
	quizzes usecase.QuizUseCase,
	tm repository.TransactionManager,
	batchModel string,
	minChars, maxChars int,
	logger *zerolog.Logger,
) *StudioProvider {
	l := logger.With().Str("component", "StudioProvider").Logger()
	return &StudioProvider{
		requests:   requests,
		quizzes:    quizzes,
		tm:         tm,
		log:        &l,
		batchModel: batchModel,
		minChars:   minChars,
		maxChars:   maxChars,
		rows:       make(map[string]*model.BatchRequest),
	}
}

func (p *StudioProvider) Name() string { return "studio_req" }

func (p *StudioProvider) customID(id string) string {
	return fmt.Sprintf("%s_%s", p.Name(), id)
}

func (p *StudioProvider) FetchPendingItems(ctx context.Context) ([]provider.PendingItem, error) {
	rows, err := p.requests.FindPending(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]provider.PendingItem, 0, len(rows))
	for _, row := range rows {
		p.rows[row.ID] = row
		items = append(items, provider.PendingItem{ID: row.ID, Title: row.SourceName})
	}
	return items, nil
}

func (p *StudioProvider) CreateRequestLine(ctx context.Context, item provider.PendingItem) (adapter.RequestLine, error) {
	row, ok := p.rows[item.ID]
	if !ok {
		return adapter.RequestLine{}, fmt.Errorf("request %s not fetched this run", item.ID)
	}
	content := strings.TrimSpace(row.SourceContent)
	if len(content) < p.minChars {
		return adapter.RequestLine{}, fmt.Errorf("%w: request %q has %d chars, need %d",
			domain.ErrContentInsufficient, item.Title, len(content), p.minChars)
	}
	if len(content) > p.maxChars {
		content = content[:p.maxChars]
	}

	return adapter.RequestLine{
		CustomID: p.customID(item.ID),
		Method:   "POST",
		URL:      "/v1/chat/completions",
		Body: adapter.ChatBody{
			Model:          p.batchModel,
			Messages:       adapter.QuizGenerationMessages(content),
			ResponseFormat: &adapter.ResponseFormat{Type: "json_object"},
		},
	}, nil
}

func (p *StudioProvider) MarkProcessing(ctx context.Context, items []provider.PendingItem, batchID string) error {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return p.requests.MarkProcessing(ctx, ids, batchID)
}

func (p *StudioProvider) ActiveBatchIDs(ctx context.Context) ([]string, error) {
	return p.requests.ActiveBatchIDs(ctx)
}

func (p *StudioProvider) HandleCompletion(ctx context.Context, batchID string, results map[string]adapter.OutputLine) (provider.CompletionStats, error) {
	stats := provider.CompletionStats{Errors: make(map[string]string)}

	rows, err := p.requests.FindProcessingByBatch(ctx, batchID)
	if err != nil {
		return stats, err
	}
	for _, row := range rows {
		if err := p.applyRowResult(ctx, row, results); err != nil {
			stats.Failed++
			stats.Errors[row.ID] = err.Error()
			if markErr := p.requests.MarkFailed(ctx, row.ID, err.Error()); markErr != nil {
				p.log.Error().Err(markErr).Str("request_id", row.ID).Msg("mark failed errored")
			}
			continue
		}
		stats.Completed++
	}
	return stats, nil
}

func (p *StudioProvider) applyRowResult(ctx context.Context, row *model.BatchRequest, results map[string]adapter.OutputLine) error {
	line, ok := results[p.customID(row.ID)]
	if !ok {
		return fmt.Errorf("custom_id %s not found in batch output", p.customID(row.ID))
	}
	if line.Error != nil {
		return fmt.Errorf("completion error %s: %s", line.Error.Code, line.Error.Message)
	}
	if line.Response.StatusCode != 200 {
		return fmt.Errorf("completion status %d", line.Response.StatusCode)
	}

	set, err := p.quizzes.ParseGenerated(line.Content())
	if err != nil {
		return err
	}
	err = p.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		_, err := p.quizzes.SaveGenerated(ctx, tx, row.UserID, set, model.SourceTypeImport, "")
		return err
	})
	if err != nil {
		return err
	}
	return p.requests.MarkCompleted(ctx, row.ID)
}

func (p *StudioProvider) HandleFailure(ctx context.Context, batchID, message string) error {
	return p.requests.MarkBatchFailed(ctx, batchID, message)
}
