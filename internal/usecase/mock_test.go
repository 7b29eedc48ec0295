//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/adapter"
	"learnloop/internal/domain/ports/provider"
	"learnloop/internal/domain/ports/repository"
	"learnloop/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// =============================
// Transaction manager
// =============================

// MockTxManager runs the callback with a nil tx, which repos resolve to the
// pool-equivalent path.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, opt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, opt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, opt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Repositories
// =============================

type MockQuizRepo struct {
	Saved []*model.Quiz

	SaveAllFunc    func(ctx context.Context, tx repository.Tx, quizzes []*model.Quiz) error
	FindByIDFunc   func(ctx context.Context, tx repository.Tx, userID, id string) (*model.Quiz, error)
	ListFunc       func(ctx context.Context, userID string, offset, limit int) ([]*model.Quiz, error)
	CountFunc      func(ctx context.Context, userID string) (int, error)
	DeleteFunc     func(ctx context.Context, tx repository.Tx, userID, id string) error
	FindUnseenFunc func(ctx context.Context, userID string, limit int) ([]*model.Quiz, error)
}

var _ repository.QuizRepository = (*MockQuizRepo)(nil)

func (m *MockQuizRepo) SaveAll(ctx context.Context, tx repository.Tx, quizzes []*model.Quiz) error {
	if m.SaveAllFunc != nil {
		return m.SaveAllFunc(ctx, tx, quizzes)
	}
	m.Saved = append(m.Saved, quizzes...)
	return nil
}

func (m *MockQuizRepo) FindByID(ctx context.Context, tx repository.Tx, userID, id string) (*model.Quiz, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, userID, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockQuizRepo) List(ctx context.Context, userID string, offset, limit int) ([]*model.Quiz, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, offset, limit)
	}
	return nil, nil
}

func (m *MockQuizRepo) Count(ctx context.Context, userID string) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockQuizRepo) Delete(ctx context.Context, tx repository.Tx, userID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, userID, id)
	}
	return nil
}

func (m *MockQuizRepo) FindUnseen(ctx context.Context, userID string, limit int) ([]*model.Quiz, error) {
	if m.FindUnseenFunc != nil {
		return m.FindUnseenFunc(ctx, userID, limit)
	}
	return nil, nil
}

type MockProgressRepo struct {
	Store map[string]*model.QuizProgress // keyed by userID+"/"+quizID

	FindFunc           func(ctx context.Context, tx repository.Tx, userID, quizID string) (*model.QuizProgress, error)
	SaveFunc           func(ctx context.Context, tx repository.Tx, p *model.QuizProgress) error
	FindDueQuizzesFunc func(ctx context.Context, userID string, limit int, now time.Time) ([]*model.Quiz, error)
	ListByUserFunc     func(ctx context.Context, userID string) ([]*model.QuizProgress, error)
	SetHiddenFunc      func(ctx context.Context, tx repository.Tx, userID, quizID string, hidden bool) error
}

var _ repository.ProgressRepository = (*MockProgressRepo)(nil)

func NewMockProgressRepo() *MockProgressRepo {
	return &MockProgressRepo{Store: make(map[string]*model.QuizProgress)}
}

func (m *MockProgressRepo) Find(ctx context.Context, tx repository.Tx, userID, quizID string) (*model.QuizProgress, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, tx, userID, quizID)
	}
	if p, ok := m.Store[userID+"/"+quizID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockProgressRepo) Save(ctx context.Context, tx repository.Tx, p *model.QuizProgress) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	cp := *p
	m.Store[p.UserID+"/"+p.QuizID] = &cp
	return nil
}

func (m *MockProgressRepo) FindDueQuizzes(ctx context.Context, userID string, limit int, now time.Time) ([]*model.Quiz, error) {
	if m.FindDueQuizzesFunc != nil {
		return m.FindDueQuizzesFunc(ctx, userID, limit, now)
	}
	return nil, nil
}

func (m *MockProgressRepo) ListByUser(ctx context.Context, userID string) ([]*model.QuizProgress, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockProgressRepo) SetHidden(ctx context.Context, tx repository.Tx, userID, quizID string, hidden bool) error {
	if m.SetHiddenFunc != nil {
		return m.SetHiddenFunc(ctx, tx, userID, quizID, hidden)
	}
	p, ok := m.Store[userID+"/"+quizID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Hidden = hidden
	return nil
}

type MockBatchRequestRepo struct {
	CreateFunc                func(ctx context.Context, tx repository.Tx, r *model.BatchRequest) error
	FindPendingFunc           func(ctx context.Context) ([]*model.BatchRequest, error)
	MarkProcessingFunc        func(ctx context.Context, ids []string, batchID string) error
	ActiveBatchIDsFunc        func(ctx context.Context) ([]string, error)
	FindProcessingByBatchFunc func(ctx context.Context, batchID string) ([]*model.BatchRequest, error)
	MarkCompletedFunc         func(ctx context.Context, id string) error
	MarkFailedFunc            func(ctx context.Context, id, message string) error
	MarkBatchFailedFunc       func(ctx context.Context, batchID, message string) error
}

var _ repository.BatchRequestRepository = (*MockBatchRequestRepo)(nil)

func (m *MockBatchRequestRepo) Create(ctx context.Context, tx repository.Tx, r *model.BatchRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, r)
	}
	return nil
}

func (m *MockBatchRequestRepo) FindPending(ctx context.Context) ([]*model.BatchRequest, error) {
	if m.FindPendingFunc != nil {
		return m.FindPendingFunc(ctx)
	}
	return nil, nil
}

func (m *MockBatchRequestRepo) MarkProcessing(ctx context.Context, ids []string, batchID string) error {
	if m.MarkProcessingFunc != nil {
		return m.MarkProcessingFunc(ctx, ids, batchID)
	}
	return nil
}

func (m *MockBatchRequestRepo) ActiveBatchIDs(ctx context.Context) ([]string, error) {
	if m.ActiveBatchIDsFunc != nil {
		return m.ActiveBatchIDsFunc(ctx)
	}
	return nil, nil
}

func (m *MockBatchRequestRepo) FindProcessingByBatch(ctx context.Context, batchID string) ([]*model.BatchRequest, error) {
	if m.FindProcessingByBatchFunc != nil {
		return m.FindProcessingByBatchFunc(ctx, batchID)
	}
	return nil, nil
}

func (m *MockBatchRequestRepo) MarkCompleted(ctx context.Context, id string) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, id)
	}
	return nil
}

func (m *MockBatchRequestRepo) MarkFailed(ctx context.Context, id, message string) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id, message)
	}
	return nil
}

func (m *MockBatchRequestRepo) MarkBatchFailed(ctx context.Context, batchID, message string) error {
	if m.MarkBatchFailedFunc != nil {
		return m.MarkBatchFailedFunc(ctx, batchID, message)
	}
	return nil
}

// =============================
// Adapters
// =============================

type MockBatchClient struct {
	Uploaded  []string
	Submitted []string
	Checked   []string

	UploadInputFileFunc func(ctx context.Context, jsonl string) (string, error)
	SubmitBatchFunc     func(ctx context.Context, inputFileID string) (string, error)
	CheckStatusFunc     func(ctx context.Context, batchID string) (adapter.BatchCheck, error)
	DownloadOutputFunc  func(ctx context.Context, outputFileID string) ([]adapter.OutputLine, error)
}

var _ adapter.BatchCompletionClient = (*MockBatchClient)(nil)

func (m *MockBatchClient) UploadInputFile(ctx context.Context, jsonl string) (string, error) {
	m.Uploaded = append(m.Uploaded, jsonl)
	if m.UploadInputFileFunc != nil {
		return m.UploadInputFileFunc(ctx, jsonl)
	}
	return "file-1", nil
}

func (m *MockBatchClient) SubmitBatch(ctx context.Context, inputFileID string) (string, error) {
	m.Submitted = append(m.Submitted, inputFileID)
	if m.SubmitBatchFunc != nil {
		return m.SubmitBatchFunc(ctx, inputFileID)
	}
	return "batch-1", nil
}

func (m *MockBatchClient) CheckStatus(ctx context.Context, batchID string) (adapter.BatchCheck, error) {
	m.Checked = append(m.Checked, batchID)
	if m.CheckStatusFunc != nil {
		return m.CheckStatusFunc(ctx, batchID)
	}
	return adapter.BatchCheck{Status: adapter.BatchStatusInProgress}, nil
}

func (m *MockBatchClient) DownloadOutput(ctx context.Context, outputFileID string) ([]adapter.OutputLine, error) {
	if m.DownloadOutputFunc != nil {
		return m.DownloadOutputFunc(ctx, outputFileID)
	}
	return nil, nil
}

// MockProvider implements provider.BatchProvider with overridable hooks.
// MarkedItems and failure calls are captured for assertions.
type MockProvider struct {
	NameValue   string
	MarkedItems []provider.PendingItem
	MarkedBatch string
	Failures    []string

	FetchPendingItemsFunc func(ctx context.Context) ([]provider.PendingItem, error)
	CreateRequestLineFunc func(ctx context.Context, item provider.PendingItem) (adapter.RequestLine, error)
	MarkProcessingFunc    func(ctx context.Context, items []provider.PendingItem, batchID string) error
	ActiveBatchIDsFunc    func(ctx context.Context) ([]string, error)
	HandleCompletionFunc  func(ctx context.Context, batchID string, results map[string]adapter.OutputLine) (provider.CompletionStats, error)
	HandleFailureFunc     func(ctx context.Context, batchID, message string) error
}

var (
	_ provider.BatchProvider  = (*MockProvider)(nil)
	_ provider.FailureHandler = (*MockProvider)(nil)
)

func (m *MockProvider) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

func (m *MockProvider) FetchPendingItems(ctx context.Context) ([]provider.PendingItem, error) {
	if m.FetchPendingItemsFunc != nil {
		return m.FetchPendingItemsFunc(ctx)
	}
	return nil, nil
}

func (m *MockProvider) CreateRequestLine(ctx context.Context, item provider.PendingItem) (adapter.RequestLine, error) {
	if m.CreateRequestLineFunc != nil {
		return m.CreateRequestLineFunc(ctx, item)
	}
	return adapter.RequestLine{CustomID: m.Name() + "_" + item.ID, Method: "POST", URL: "/v1/chat/completions"}, nil
}

func (m *MockProvider) MarkProcessing(ctx context.Context, items []provider.PendingItem, batchID string) error {
	m.MarkedItems = append(m.MarkedItems, items...)
	m.MarkedBatch = batchID
	if m.MarkProcessingFunc != nil {
		return m.MarkProcessingFunc(ctx, items, batchID)
	}
	return nil
}

func (m *MockProvider) ActiveBatchIDs(ctx context.Context) ([]string, error) {
	if m.ActiveBatchIDsFunc != nil {
		return m.ActiveBatchIDsFunc(ctx)
	}
	return nil, nil
}

func (m *MockProvider) HandleCompletion(ctx context.Context, batchID string, results map[string]adapter.OutputLine) (provider.CompletionStats, error) {
	if m.HandleCompletionFunc != nil {
		return m.HandleCompletionFunc(ctx, batchID, results)
	}
	return provider.CompletionStats{}, nil
}

func (m *MockProvider) HandleFailure(ctx context.Context, batchID, message string) error {
	m.Failures = append(m.Failures, batchID+": "+message)
	if m.HandleFailureFunc != nil {
		return m.HandleFailureFunc(ctx, batchID, message)
	}
	return nil
}

type MockNotifier struct {
	Summaries []model.RunSummary
	Fatals    []error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) NotifyRunSummary(_ context.Context, summary model.RunSummary) error {
	m.Summaries = append(m.Summaries, summary)
	return nil
}

func (m *MockNotifier) NotifyFatal(_ context.Context, err error) error {
	m.Fatals = append(m.Fatals, err)
	return nil
}

type MockAIAdapter struct {
	ChatFunc func(ctx context.Context, model string, messages []adapter.Message) (string, error)
}

var _ adapter.AIServiceAdapter = (*MockAIAdapter)(nil)

func (m *MockAIAdapter) Chat(ctx context.Context, modelName string, messages []adapter.Message) (string, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, modelName, messages)
	}
	return "", nil
}

type MockScraper struct {
	ScrapeURLFunc func(ctx context.Context, url string) (string, error)
}

var _ adapter.Scraper = (*MockScraper)(nil)

func (m *MockScraper) ScrapeURL(ctx context.Context, url string) (string, error) {
	if m.ScrapeURLFunc != nil {
		return m.ScrapeURLFunc(ctx, url)
	}
	return "", nil
}

var _ usecase.StatsCache = (*MockStatsCache)(nil)

type MockStatsCache struct {
	Invalidated []string

	GetFunc func(ctx context.Context, userID string) (*model.UserStats, error)
	SetFunc func(ctx context.Context, userID string, stats *model.UserStats) error
}

func (m *MockStatsCache) Get(ctx context.Context, userID string) (*model.UserStats, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockStatsCache) Set(ctx context.Context, userID string, stats *model.UserStats) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, userID, stats)
	}
	return nil
}

func (m *MockStatsCache) Invalidate(_ context.Context, userID string) error {
	m.Invalidated = append(m.Invalidated, userID)
	return nil
}
