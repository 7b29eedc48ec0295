package providers

import (
	"context"
	"errors"
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

// Compile-time assurance: full provider plus the failure capability
var (
	_ provider.BatchProvider  = (*NotionProvider)(nil)
	_ provider.FailureHandler = (*NotionProvider)(nil)
)

// NotionProvider sources generation requests from a Notion database. Page
// state (Status select, Batch ID property) is the sole source of truth; the
// maps below only carry page metadata between calls within one run.
type NotionProvider struct {
	notion  adapter.NotionAdapter
	scraper adapter.Scraper
	quizzes usecase.QuizUseCase
	tm      repository.TransactionManager
	log     *zerolog.Logger

	ownerUserID string
	batchModel  string
	pageLimit   int
	minChars    int
	maxChars    int

	pages      map[string]model.SubmissionPage
	inProgress map[string][]model.InProgressPage
}

func NewNotionProvider(
	notion adapter.NotionAdapter,
	scraper adapter.Scraper,
	quizzes usecase.QuizUseCase,
	tm repository.TransactionManager,
	ownerUserID, batchModel string,
	pageLimit, minChars, maxChars int,
	logger *zerolog.Logger,
) (*NotionProvider, error) {
	if ownerUserID == "" {
		return nil, errors.New("notion owner user id required")
	}
	l := logger.With().Str("component", "NotionProvider").Logger()
	return &NotionProvider{
		notion:      notion,
		scraper:     scraper,
		quizzes:     quizzes,
		tm:          tm,
		log:         &l,
		ownerUserID: ownerUserID,
		batchModel:  batchModel,
		pageLimit:   pageLimit,
		minChars:    minChars,
		maxChars:    maxChars,
		pages:       make(map[string]model.SubmissionPage),
		inProgress:  make(map[string][]model.InProgressPage),
	}, nil
}

func (p *NotionProvider) Name() string { return "notion_page" }

func (p *NotionProvider) customID(pageID string) string {
	return fmt.Sprintf("%s_%s", p.Name(), pageID)
}

func (p *NotionProvider) FetchPendingItems(ctx context.Context) ([]provider.PendingItem, error) {
	pages, err := p.notion.FetchSubmissionPages(ctx, p.pageLimit)
	if err != nil {
		return nil, err
	}
	items := make([]provider.PendingItem, 0, len(pages))
	for _, page := range pages {
		p.pages[page.PageID] = page
		items = append(items, provider.PendingItem{ID: page.PageID, Title: page.Title})
	}
	return items, nil
}

// CreateRequestLine resolves the page body, falling back to scraping the URL
// property when the body alone is too short.
func (p *NotionProvider) CreateRequestLine(ctx context.Context, item provider.PendingItem) (adapter.RequestLine, error) {
	content, err := p.notion.GetPageContent(ctx, item.ID)
	if err != nil {
		return adapter.RequestLine{}, fmt.Errorf("page content: %w", err)
	}
	content = strings.TrimSpace(content)

	page := p.pages[item.ID]
	if len(content) < p.minChars && page.SourceURL != "" && p.scraper != nil {
		scraped, err := p.scraper.ScrapeURL(ctx, page.SourceURL)
		if err != nil {
			p.log.Warn().Err(err).Str("page_id", item.ID).Str("url", page.SourceURL).Msg("scrape fallback failed")
		} else if len(strings.TrimSpace(scraped)) > len(content) {
			content = strings.TrimSpace(scraped)
		}
	}
	if len(content) < p.minChars {
		return adapter.RequestLine{}, fmt.Errorf("%w: page %q has %d chars, need %d",
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

// MarkProcessing stamps every page with the batch id. A page that cannot be
// stamped is reported but does not block its siblings; its status keeps it
// eligible for the next run.
func (p *NotionProvider) MarkProcessing(ctx context.Context, items []provider.PendingItem, batchID string) error {
	if len(items) == 0 {
		return nil
	}
	var errs []error
	for _, item := range items {
		if err := p.notion.SetBatchID(ctx, item.ID, batchID); err != nil {
			errs = append(errs, fmt.Errorf("set batch id on page %s: %w", item.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (p *NotionProvider) ActiveBatchIDs(ctx context.Context) ([]string, error) {
	pages, err := p.notion.FetchInProgressPages(ctx)
	if err != nil {
		return nil, err
	}
	p.inProgress = make(map[string][]model.InProgressPage)
	var ids []string
	for _, page := range pages {
		if _, seen := p.inProgress[page.BatchID]; !seen {
			ids = append(ids, page.BatchID)
		}
		p.inProgress[page.BatchID] = append(p.inProgress[page.BatchID], page)
	}
	return ids, nil
}

func (p *NotionProvider) HandleCompletion(ctx context.Context, batchID string, results map[string]adapter.OutputLine) (provider.CompletionStats, error) {
	stats := provider.CompletionStats{Errors: make(map[string]string)}

	for _, page := range p.inProgress[batchID] {
		if err := p.applyPageResult(ctx, page, results); err != nil {
			stats.Failed++
			stats.Errors[page.PageID] = err.Error()
			p.failPage(ctx, page.PageID, err.Error())
			continue
		}
		stats.Completed++
	}
	return stats, nil
}

func (p *NotionProvider) applyPageResult(ctx context.Context, page model.InProgressPage, results map[string]adapter.OutputLine) error {
	line, ok := results[p.customID(page.PageID)]
	if !ok {
		return fmt.Errorf("custom_id %s not found in batch output", p.customID(page.PageID))
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
		_, err := p.quizzes.SaveGenerated(ctx, tx, p.ownerUserID, set, model.SourceTypeNotion, page.SourceURL)
		return err
	})
	if err != nil {
		return err
	}

	if err := p.notion.UpdateStatus(ctx, page.PageID, adapter.NotionStatusCreated); err != nil {
		p.log.Error().Err(err).Str("page_id", page.PageID).Msg("status update failed after save")
	}
	if err := p.notion.ClearBatchID(ctx, page.PageID); err != nil {
		p.log.Error().Err(err).Str("page_id", page.PageID).Msg("batch id clear failed after save")
	}
	return nil
}

// HandleFailure moves every page of a dead batch back to Error so the next
// submission phase picks them up again.
func (p *NotionProvider) HandleFailure(ctx context.Context, batchID, message string) error {
	var errs []error
	for _, page := range p.inProgress[batchID] {
		p.failPage(ctx, page.PageID, message)
		if err := p.notion.ClearBatchID(ctx, page.PageID); err != nil {
			errs = append(errs, fmt.Errorf("clear batch id on page %s: %w", page.PageID, err))
		}
	}
	return errors.Join(errs...)
}

func (p *NotionProvider) failPage(ctx context.Context, pageID, message string) {
	if err := p.notion.UpdateStatus(ctx, pageID, adapter.NotionStatusError); err != nil {
		p.log.Error().Err(err).Str("page_id", pageID).Msg("error status update failed")
	}
	if err := p.notion.WriteErrorLog(ctx, pageID, message); err != nil {
		p.log.Error().Err(err).Str("page_id", pageID).Msg("error log write failed")
	}
}
