package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/repository"
)

var _ repository.ProgressRepository = (*progressRepo)(nil)

type progressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *progressRepo {
	return &progressRepo{pool: pool}
}

const progressColumns = `user_id, quiz_id, attempt_count, interval_days, current_streak, ease_factor,
       is_correct, next_review_at, last_answered_at, hidden, created_at, updated_at`

func (r *progressRepo) Find(ctx context.Context, tx repository.Tx, userID, quizID string) (*model.QuizProgress, error) {
	const q = `
SELECT ` + progressColumns + `
  FROM quiz_progress WHERE user_id=$1 AND quiz_id=$2;`

	row, err := pickRow(ctx, r.pool, tx, q, userID, quizID)
	if err != nil {
		return nil, err
	}
	return scanProgress(row)
}

func (r *progressRepo) Save(ctx context.Context, tx repository.Tx, p *model.QuizProgress) error {
	p.UpdatedAt = time.Now()
	const q = `
INSERT INTO quiz_progress (` + progressColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (user_id, quiz_id) DO UPDATE SET
  attempt_count = EXCLUDED.attempt_count,
  interval_days = EXCLUDED.interval_days,
  current_streak = EXCLUDED.current_streak,
  ease_factor = EXCLUDED.ease_factor,
  is_correct = EXCLUDED.is_correct,
  next_review_at = EXCLUDED.next_review_at,
  last_answered_at = EXCLUDED.last_answered_at,
  hidden = EXCLUDED.hidden,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.UserID, p.QuizID, p.AttemptCount, p.IntervalDays, p.CurrentStreak, p.EaseFactor,
		p.IsCorrect, p.NextReviewAt, p.LastAnsweredAt, p.Hidden, p.CreatedAt, p.UpdatedAt)
	return err
}

// FindDueQuizzes orders most overdue first; the quiz id tie-break keeps the
// ordering stable between identical requests.
func (r *progressRepo) FindDueQuizzes(ctx context.Context, userID string, limit int, now time.Time) ([]*model.Quiz, error) {
	const q = `
SELECT q.id, q.user_id, q.question, q.options, q.explanation, q.category, q.source_type, q.source_url, q.created_at
  FROM quiz_progress p
  JOIN quizzes q ON q.id = p.quiz_id AND q.user_id = p.user_id
 WHERE p.user_id=$1 AND NOT p.hidden
   AND p.next_review_at IS NOT NULL AND p.next_review_at <= $2
 ORDER BY p.next_review_at ASC, p.quiz_id ASC
 LIMIT $3;`

	rows, err := queryRows(ctx, r.pool, nil, q, userID, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuizzes(rows)
}

func (r *progressRepo) ListByUser(ctx context.Context, userID string) ([]*model.QuizProgress, error) {
	const q = `
SELECT ` + progressColumns + `
  FROM quiz_progress WHERE user_id=$1;`

	rows, err := queryRows(ctx, r.pool, nil, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.QuizProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetHidden only updates an existing row. Inserting one here would make an
// unanswered quiz invisible to both the unseen query (row present) and the due
// query (no schedule yet), stranding it forever.
func (r *progressRepo) SetHidden(ctx context.Context, tx repository.Tx, userID, quizID string, hidden bool) error {
	const q = `
UPDATE quiz_progress
   SET hidden = $3, updated_at = NOW()
 WHERE user_id = $1 AND quiz_id = $2;`

	tag, err := execSQL(ctx, r.pool, tx, q, userID, quizID, hidden)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProgress(row pgx.Row) (*model.QuizProgress, error) {
	var p model.QuizProgress
	err := row.Scan(&p.UserID, &p.QuizID, &p.AttemptCount, &p.IntervalDays, &p.CurrentStreak, &p.EaseFactor,
		&p.IsCorrect, &p.NextReviewAt, &p.LastAnsweredAt, &p.Hidden, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}
