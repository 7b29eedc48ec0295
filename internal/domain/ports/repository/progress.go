package repository

import (
	"context"
	"time"

	"learnloop/internal/domain/model"
)

// ProgressRepository persists per-user, per-quiz memory state.
type ProgressRepository interface {
	// Find returns domain.ErrNotFound before the first answer.
	Find(ctx context.Context, tx Tx, userID, quizID string) (*model.QuizProgress, error)
	// Save upserts the row keyed by (user_id, quiz_id).
	Save(ctx context.Context, tx Tx, p *model.QuizProgress) error
	// FindDueQuizzes returns non-hidden quizzes whose next_review_at is at or
	// before now, most overdue first. Ties break on quiz id so ordering is
	// stable between requests.
	FindDueQuizzes(ctx context.Context, userID string, limit int, now time.Time) ([]*model.Quiz, error)
	ListByUser(ctx context.Context, userID string) ([]*model.QuizProgress, error)
	// SetHidden flags an answered quiz. Returns domain.ErrNotFound when no
	// progress row exists: a never-answered quiz must stay visible to the
	// unseen query, so no row is created here.
	SetHidden(ctx context.Context, tx Tx, userID, quizID string, hidden bool) error
}
