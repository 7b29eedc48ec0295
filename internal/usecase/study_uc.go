package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/repository"
	"learnloop/internal/infra/logging"
	"learnloop/internal/infra/metrics"
)

// Compile-time check
var _ StudyUseCase = (*studyUC)(nil)

// StudyUseCase composes study sessions and records answers through the
// spaced-repetition scheduler.
type StudyUseCase interface {
	ComposeSession(ctx context.Context, userID string, totalLimit, reviewLimit int) ([]model.StudySessionItem, error)
	RecordAnswer(ctx context.Context, userID, quizID string, isCorrect bool) (*model.QuizProgress, error)
	SetHidden(ctx context.Context, userID, quizID string, hidden bool) error
}

type studyUC struct {
	quizzes  repository.QuizRepository
	progress repository.ProgressRepository
	tm       repository.TransactionManager
	cache    StatsCache
	now      func() time.Time
	log      *zerolog.Logger
}

func NewStudyUseCase(
	quizzes repository.QuizRepository,
	progress repository.ProgressRepository,
	tm repository.TransactionManager,
	cache StatsCache,
	logger *zerolog.Logger,
) *studyUC {
	return &studyUC{
		quizzes:  quizzes,
		progress: progress,
		tm:       tm,
		cache:    cache,
		now:      time.Now,
		log:      logger,
	}
}

// ComposeSession blends due reviews with unseen quizzes under totalLimit.
// Reviews come first (most overdue first); the remaining slots fill with the
// oldest unseen quizzes, so old imports are guaranteed to surface eventually.
func (u *studyUC) ComposeSession(ctx context.Context, userID string, totalLimit, reviewLimit int) ([]model.StudySessionItem, error) {
	defer logging.TraceDuration(u.log, "StudyUC.ComposeSession")()
	if totalLimit <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if reviewLimit > totalLimit {
		reviewLimit = totalLimit
	}

	session := make([]model.StudySessionItem, 0, totalLimit)
	if reviewLimit > 0 {
		due, err := u.progress.FindDueQuizzes(ctx, userID, reviewLimit, u.now())
		if err != nil {
			return nil, err
		}
		for _, q := range due {
			session = append(session, model.StudySessionItem{Quiz: q, Type: model.StudyItemReview})
		}
	}

	remaining := totalLimit - len(session)
	if remaining > 0 {
		unseen, err := u.quizzes.FindUnseen(ctx, userID, remaining)
		if err != nil {
			return nil, err
		}
		for _, q := range unseen {
			session = append(session, model.StudySessionItem{Quiz: q, Type: model.StudyItemNew})
		}
	}

	if len(session) > totalLimit {
		session = session[:totalLimit]
	}
	metrics.IncStudySessionComposed()
	return session, nil
}

// RecordAnswer runs one SM-2 step and persists the result. The read and the
// upsert share a transaction so concurrent answers for the same (user, quiz)
// pair cannot interleave.
func (u *studyUC) RecordAnswer(ctx context.Context, userID, quizID string, isCorrect bool) (*model.QuizProgress, error) {
	defer logging.TraceDuration(u.log, "StudyUC.RecordAnswer")()
	if userID == "" || quizID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var updated model.QuizProgress
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		current, err := u.progress.Find(ctx, tx, userID, quizID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			p := model.NewQuizProgress(userID, quizID)
			current = &p
		}
		updated = model.ComputeNextReview(isCorrect, *current, u.now())
		return u.progress.Save(ctx, tx, &updated)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncReviewRecorded(isCorrect)
	if u.cache != nil {
		if err := u.cache.Invalidate(ctx, userID); err != nil {
			u.log.Warn().Err(err).Str("user_id", userID).Msg("stats cache invalidation failed")
		}
	}
	return &updated, nil
}

func (u *studyUC) SetHidden(ctx context.Context, userID, quizID string, hidden bool) error {
	defer logging.TraceDuration(u.log, "StudyUC.SetHidden")()
	return u.progress.SetHidden(ctx, repository.NoTX, userID, quizID, hidden)
}
