package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/repository"
	"learnloop/internal/infra/logging"
)

var _ QuizUseCase = (*quizUC)(nil)

type QuizUseCase interface {
	// ParseGenerated decodes and validates a raw model response.
	ParseGenerated(raw string) (*model.GeneratedQuizSet, error)
	// SaveGenerated persists one generated set as quiz aggregates.
	SaveGenerated(ctx context.Context, tx repository.Tx, userID string, set *model.GeneratedQuizSet, sourceType model.SourceType, sourceURL string) ([]*model.Quiz, error)
	List(ctx context.Context, userID string, offset, limit int) ([]*model.Quiz, int, error)
	Delete(ctx context.Context, userID, quizID string) error
	// EnqueueBatchRequest puts raw source material on the internal generation
	// queue for the next batch run.
	EnqueueBatchRequest(ctx context.Context, userID, sourceName, sourceContent string) (*model.BatchRequest, error)
}

type quizUC struct {
	quizzes  repository.QuizRepository
	requests repository.BatchRequestRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewQuizUseCase(
	quizzes repository.QuizRepository,
	requests repository.BatchRequestRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *quizUC {
	return &quizUC{quizzes: quizzes, requests: requests, tm: tm, log: logger}
}

// ParseGenerated tolerates the code fences some models wrap JSON in, then
// enforces the generation schema.
func (u *quizUC) ParseGenerated(raw string) (*model.GeneratedQuizSet, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var set model.GeneratedQuizSet
	if err := json.Unmarshal([]byte(cleaned), &set); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchemaValidation, err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

func (u *quizUC) SaveGenerated(ctx context.Context, tx repository.Tx, userID string, set *model.GeneratedQuizSet, sourceType model.SourceType, sourceURL string) ([]*model.Quiz, error) {
	defer logging.TraceDuration(u.log, "QuizUC.SaveGenerated")()
	category := set.EffectiveCategory()

	quizzes := make([]*model.Quiz, 0, len(set.Quizzes))
	for _, g := range set.Quizzes {
		options := make([]model.QuizOption, 0, len(g.Options))
		for _, text := range g.Options {
			options = append(options, model.QuizOption{
				ID:        uuid.NewString(),
				Text:      text,
				IsCorrect: contains(g.Answers, text),
			})
		}
		q, err := model.NewQuiz(uuid.NewString(), userID, g.Question, options, g.Explanation, category, sourceType, sourceURL)
		if err != nil {
			return nil, fmt.Errorf("build quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}

	if err := u.quizzes.SaveAll(ctx, tx, quizzes); err != nil {
		return nil, err
	}
	u.log.Info().Str("user_id", userID).Int("count", len(quizzes)).Str("category", category).Msg("quizzes saved")
	return quizzes, nil
}

func (u *quizUC) List(ctx context.Context, userID string, offset, limit int) ([]*model.Quiz, int, error) {
	defer logging.TraceDuration(u.log, "QuizUC.List")()
	if limit <= 0 {
		limit = 20
	}
	total, err := u.quizzes.Count(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	quizzes, err := u.quizzes.List(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

func (u *quizUC) Delete(ctx context.Context, userID, quizID string) error {
	defer logging.TraceDuration(u.log, "QuizUC.Delete")()
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.quizzes.FindByID(ctx, tx, userID, quizID); err != nil {
			return err
		}
		return u.quizzes.Delete(ctx, tx, userID, quizID)
	})
}

func (u *quizUC) EnqueueBatchRequest(ctx context.Context, userID, sourceName, sourceContent string) (*model.BatchRequest, error) {
	defer logging.TraceDuration(u.log, "QuizUC.EnqueueBatchRequest")()
	if userID == "" || strings.TrimSpace(sourceContent) == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	r := &model.BatchRequest{
		ID:            uuid.NewString(),
		UserID:        userID,
		Status:        model.BatchRequestPending,
		SourceName:    sourceName,
		SourceContent: sourceContent,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.requests.Create(ctx, repository.NoTX, r); err != nil {
		return nil, err
	}
	u.log.Info().Str("request_id", r.ID).Str("user_id", userID).Msg("batch request enqueued")
	return r, nil
}

func contains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
