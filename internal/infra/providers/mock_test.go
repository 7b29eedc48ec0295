//go:build !integration

package providers_test

import (
	"context"
	"io"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/adapter"
	"learnloop/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type MockTxManager struct{}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// MockNotion records every page mutation so tests can assert the exact
// status trail a page went through.
type MockNotion struct {
	StatusUpdates map[string][]adapter.NotionPageStatus
	BatchIDs      map[string]string
	ErrorLogs     map[string]string
	Cleared       []string

	FetchSubmissionPagesFunc func(ctx context.Context, limit int) ([]model.SubmissionPage, error)
	FetchInProgressPagesFunc func(ctx context.Context) ([]model.InProgressPage, error)
	GetPageContentFunc       func(ctx context.Context, pageID string) (string, error)
	SetBatchIDFunc           func(ctx context.Context, pageID, batchID string) error
}

var _ adapter.NotionAdapter = (*MockNotion)(nil)

func NewMockNotion() *MockNotion {
	return &MockNotion{
		StatusUpdates: make(map[string][]adapter.NotionPageStatus),
		BatchIDs:      make(map[string]string),
		ErrorLogs:     make(map[string]string),
	}
}

func (m *MockNotion) FetchSubmissionPages(ctx context.Context, limit int) ([]model.SubmissionPage, error) {
	if m.FetchSubmissionPagesFunc != nil {
		return m.FetchSubmissionPagesFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockNotion) FetchInProgressPages(ctx context.Context) ([]model.InProgressPage, error) {
	if m.FetchInProgressPagesFunc != nil {
		return m.FetchInProgressPagesFunc(ctx)
	}
	return nil, nil
}

func (m *MockNotion) GetPageContent(ctx context.Context, pageID string) (string, error) {
	if m.GetPageContentFunc != nil {
		return m.GetPageContentFunc(ctx, pageID)
	}
	return "", nil
}

func (m *MockNotion) SetBatchID(ctx context.Context, pageID, batchID string) error {
	if m.SetBatchIDFunc != nil {
		return m.SetBatchIDFunc(ctx, pageID, batchID)
	}
	m.BatchIDs[pageID] = batchID
	return nil
}

func (m *MockNotion) ClearBatchID(ctx context.Context, pageID string) error {
	m.Cleared = append(m.Cleared, pageID)
	delete(m.BatchIDs, pageID)
	return nil
}

func (m *MockNotion) UpdateStatus(ctx context.Context, pageID string, status adapter.NotionPageStatus) error {
	m.StatusUpdates[pageID] = append(m.StatusUpdates[pageID], status)
	return nil
}

func (m *MockNotion) WriteErrorLog(ctx context.Context, pageID, message string) error {
	m.ErrorLogs[pageID] = message
	return nil
}

func (m *MockNotion) LastStatus(pageID string) adapter.NotionPageStatus {
	updates := m.StatusUpdates[pageID]
	if len(updates) == 0 {
		return ""
	}
	return updates[len(updates)-1]
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

type MockQuizRepo struct {
	Saved []*model.Quiz

	SaveAllFunc func(ctx context.Context, tx repository.Tx, quizzes []*model.Quiz) error
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
	return nil, domain.ErrNotFound
}

func (m *MockQuizRepo) List(ctx context.Context, userID string, offset, limit int) ([]*model.Quiz, error) {
	return nil, nil
}

func (m *MockQuizRepo) Count(ctx context.Context, userID string) (int, error) { return 0, nil }

func (m *MockQuizRepo) Delete(ctx context.Context, tx repository.Tx, userID, id string) error {
	return nil
}

func (m *MockQuizRepo) FindUnseen(ctx context.Context, userID string, limit int) ([]*model.Quiz, error) {
	return nil, nil
}

// MockBatchRequestRepo keeps rows in memory with real status transitions.
type MockBatchRequestRepo struct {
	Rows map[string]*model.BatchRequest
}

var _ repository.BatchRequestRepository = (*MockBatchRequestRepo)(nil)

func NewMockBatchRequestRepo(rows ...*model.BatchRequest) *MockBatchRequestRepo {
	m := &MockBatchRequestRepo{Rows: make(map[string]*model.BatchRequest)}
	for _, r := range rows {
		m.Rows[r.ID] = r
	}
	return m
}

func (m *MockBatchRequestRepo) Create(ctx context.Context, tx repository.Tx, r *model.BatchRequest) error {
	m.Rows[r.ID] = r
	return nil
}

func (m *MockBatchRequestRepo) FindPending(ctx context.Context) ([]*model.BatchRequest, error) {
	return m.byStatus(model.BatchRequestPending, ""), nil
}

func (m *MockBatchRequestRepo) MarkProcessing(ctx context.Context, ids []string, batchID string) error {
	for _, id := range ids {
		if r, ok := m.Rows[id]; ok {
			r.Status = model.BatchRequestProcessing
			r.BatchID = batchID
		}
	}
	return nil
}

func (m *MockBatchRequestRepo) ActiveBatchIDs(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	for _, r := range m.Rows {
		if r.Status == model.BatchRequestProcessing && r.BatchID != "" && !seen[r.BatchID] {
			seen[r.BatchID] = true
			ids = append(ids, r.BatchID)
		}
	}
	return ids, nil
}

func (m *MockBatchRequestRepo) FindProcessingByBatch(ctx context.Context, batchID string) ([]*model.BatchRequest, error) {
	return m.byStatus(model.BatchRequestProcessing, batchID), nil
}

func (m *MockBatchRequestRepo) MarkCompleted(ctx context.Context, id string) error {
	return m.setStatus(id, model.BatchRequestCompleted, "")
}

func (m *MockBatchRequestRepo) MarkFailed(ctx context.Context, id, message string) error {
	return m.setStatus(id, model.BatchRequestFailed, message)
}

func (m *MockBatchRequestRepo) MarkBatchFailed(ctx context.Context, batchID, message string) error {
	for _, r := range m.Rows {
		if r.Status == model.BatchRequestProcessing && r.BatchID == batchID {
			r.Status = model.BatchRequestFailed
			r.ErrorMessage = message
		}
	}
	return nil
}

func (m *MockBatchRequestRepo) byStatus(status model.BatchRequestStatus, batchID string) []*model.BatchRequest {
	var out []*model.BatchRequest
	for _, r := range m.Rows {
		if r.Status == status && (batchID == "" || r.BatchID == batchID) {
			out = append(out, r)
		}
	}
	return out
}

func (m *MockBatchRequestRepo) setStatus(id string, status model.BatchRequestStatus, message string) error {
	r, ok := m.Rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = status
	r.ErrorMessage = message
	r.UpdatedAt = time.Now()
	return nil
}
