package repository

import (
	"context"

	"learnloop/internal/domain/model"
)

// QuizRepository persists quiz aggregates.
type QuizRepository interface {
	// SaveAll inserts a set of quizzes atomically when given a tx handle.
	SaveAll(ctx context.Context, tx Tx, quizzes []*model.Quiz) error
	FindByID(ctx context.Context, tx Tx, userID, id string) (*model.Quiz, error)
	List(ctx context.Context, userID string, offset, limit int) ([]*model.Quiz, error)
	Count(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, tx Tx, userID, id string) error
	// FindUnseen returns quizzes the user has never answered (no progress
	// row), oldest first, up to limit.
	FindUnseen(ctx context.Context, userID string, limit int) ([]*model.Quiz, error)
}
