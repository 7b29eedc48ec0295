package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/repository"
)

var _ repository.QuizRepository = (*quizRepo)(nil)

type quizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *quizRepo {
	return &quizRepo{pool: pool}
}

func (r *quizRepo) SaveAll(ctx context.Context, tx repository.Tx, quizzes []*model.Quiz) error {
	const q = `
INSERT INTO quizzes (id, user_id, question, options, explanation, category, source_type, source_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	for _, quiz := range quizzes {
		options, err := json.Marshal(quiz.Options)
		if err != nil {
			return fmt.Errorf("marshal options for quiz %s: %w", quiz.ID, err)
		}
		if _, err := execSQL(ctx, r.pool, tx, q,
			quiz.ID, quiz.UserID, quiz.Question, options, quiz.Explanation,
			quiz.Category, quiz.SourceType, quiz.SourceURL, quiz.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *quizRepo) FindByID(ctx context.Context, tx repository.Tx, userID, id string) (*model.Quiz, error) {
	const q = `
SELECT id, user_id, question, options, explanation, category, source_type, source_url, created_at
  FROM quizzes WHERE user_id=$1 AND id=$2;`

	row, err := pickRow(ctx, r.pool, tx, q, userID, id)
	if err != nil {
		return nil, err
	}
	return scanQuiz(row)
}

func (r *quizRepo) List(ctx context.Context, userID string, offset, limit int) ([]*model.Quiz, error) {
	const q = `
SELECT id, user_id, question, options, explanation, category, source_type, source_url, created_at
  FROM quizzes WHERE user_id=$1
 ORDER BY created_at DESC, id
 OFFSET $2 LIMIT $3;`

	rows, err := queryRows(ctx, r.pool, nil, q, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuizzes(rows)
}

func (r *quizRepo) Count(ctx context.Context, userID string) (int, error) {
	row, err := pickRow(ctx, r.pool, nil, `SELECT COUNT(*) FROM quizzes WHERE user_id=$1;`, userID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count quizzes: %w", err)
	}
	return n, nil
}

func (r *quizRepo) Delete(ctx context.Context, tx repository.Tx, userID, id string) error {
	cmd, err := execSQL(ctx, r.pool, tx, `DELETE FROM quizzes WHERE user_id=$1 AND id=$2;`, userID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *quizRepo) FindUnseen(ctx context.Context, userID string, limit int) ([]*model.Quiz, error) {
	const q = `
SELECT q.id, q.user_id, q.question, q.options, q.explanation, q.category, q.source_type, q.source_url, q.created_at
  FROM quizzes q
  LEFT JOIN quiz_progress p ON p.quiz_id = q.id AND p.user_id = q.user_id
 WHERE q.user_id=$1 AND p.quiz_id IS NULL
 ORDER BY q.created_at ASC, q.id
 LIMIT $2;`

	rows, err := queryRows(ctx, r.pool, nil, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuizzes(rows)
}

func scanQuiz(row pgx.Row) (*model.Quiz, error) {
	var (
		quiz    model.Quiz
		options []byte
	)
	err := row.Scan(&quiz.ID, &quiz.UserID, &quiz.Question, &options, &quiz.Explanation,
		&quiz.Category, &quiz.SourceType, &quiz.SourceURL, &quiz.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(options, &quiz.Options); err != nil {
		return nil, fmt.Errorf("unmarshal options for quiz %s: %w", quiz.ID, err)
	}
	return &quiz, nil
}

func scanQuizzes(rows pgx.Rows) ([]*model.Quiz, error) {
	var out []*model.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
