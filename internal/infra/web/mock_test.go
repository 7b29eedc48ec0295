//go:build !integration

package web

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type mockStudyUC struct {
	ComposeSessionFunc func(ctx context.Context, userID string, totalLimit, reviewLimit int) ([]model.StudySessionItem, error)
	RecordAnswerFunc   func(ctx context.Context, userID, quizID string, isCorrect bool) (*model.QuizProgress, error)
	SetHiddenFunc      func(ctx context.Context, userID, quizID string, hidden bool) error
}

func (m *mockStudyUC) ComposeSession(ctx context.Context, userID string, totalLimit, reviewLimit int) ([]model.StudySessionItem, error) {
	if m.ComposeSessionFunc != nil {
		return m.ComposeSessionFunc(ctx, userID, totalLimit, reviewLimit)
	}
	return nil, nil
}

func (m *mockStudyUC) RecordAnswer(ctx context.Context, userID, quizID string, isCorrect bool) (*model.QuizProgress, error) {
	if m.RecordAnswerFunc != nil {
		return m.RecordAnswerFunc(ctx, userID, quizID, isCorrect)
	}
	return &model.QuizProgress{UserID: userID, QuizID: quizID}, nil
}

func (m *mockStudyUC) SetHidden(ctx context.Context, userID, quizID string, hidden bool) error {
	if m.SetHiddenFunc != nil {
		return m.SetHiddenFunc(ctx, userID, quizID, hidden)
	}
	return nil
}

type mockQuizUC struct {
	ListFunc                func(ctx context.Context, userID string, offset, limit int) ([]*model.Quiz, int, error)
	DeleteFunc              func(ctx context.Context, userID, quizID string) error
	EnqueueBatchRequestFunc func(ctx context.Context, userID, sourceName, sourceContent string) (*model.BatchRequest, error)
}

func (m *mockQuizUC) ParseGenerated(raw string) (*model.GeneratedQuizSet, error) {
	return nil, domain.ErrSchemaValidation
}

func (m *mockQuizUC) SaveGenerated(ctx context.Context, tx repository.Tx, userID string, set *model.GeneratedQuizSet, sourceType model.SourceType, sourceURL string) ([]*model.Quiz, error) {
	return nil, nil
}

func (m *mockQuizUC) List(ctx context.Context, userID string, offset, limit int) ([]*model.Quiz, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockQuizUC) Delete(ctx context.Context, userID, quizID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, quizID)
	}
	return nil
}

func (m *mockQuizUC) EnqueueBatchRequest(ctx context.Context, userID, sourceName, sourceContent string) (*model.BatchRequest, error) {
	if m.EnqueueBatchRequestFunc != nil {
		return m.EnqueueBatchRequestFunc(ctx, userID, sourceName, sourceContent)
	}
	return &model.BatchRequest{ID: "req-1", Status: model.BatchRequestPending}, nil
}

type mockStatsUC struct {
	GetUserStatsFunc func(ctx context.Context, userID string) (*model.UserStats, error)
}

func (m *mockStatsUC) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	if m.GetUserStatsFunc != nil {
		return m.GetUserStatsFunc(ctx, userID)
	}
	return &model.UserStats{}, nil
}

type mockGenerateUC struct {
	GenerateFromContentFunc func(ctx context.Context, userID, content, sourceURL string) ([]*model.Quiz, error)
}

func (m *mockGenerateUC) GenerateFromContent(ctx context.Context, userID, content, sourceURL string) ([]*model.Quiz, error) {
	if m.GenerateFromContentFunc != nil {
		return m.GenerateFromContentFunc(ctx, userID, content, sourceURL)
	}
	return nil, nil
}
