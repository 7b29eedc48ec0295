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

var _ repository.BatchRequestRepository = (*batchRequestRepo)(nil)

type batchRequestRepo struct {
	pool *pgxpool.Pool
}

func NewBatchRequestRepo(pool *pgxpool.Pool) *batchRequestRepo {
	return &batchRequestRepo{pool: pool}
}

const batchRequestColumns = `id, user_id, status, source_name, source_content, batch_id, error_message, created_at, updated_at`

func (r *batchRequestRepo) Create(ctx context.Context, tx repository.Tx, req *model.BatchRequest) error {
	const q = `
INSERT INTO batch_requests (` + batchRequestColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	_, err := execSQL(ctx, r.pool, tx, q,
		req.ID, req.UserID, req.Status, req.SourceName, req.SourceContent,
		req.BatchID, req.ErrorMessage, req.CreatedAt, req.UpdatedAt)
	return err
}

func (r *batchRequestRepo) FindPending(ctx context.Context) ([]*model.BatchRequest, error) {
	const q = `
SELECT ` + batchRequestColumns + `
  FROM batch_requests WHERE status=$1
 ORDER BY created_at ASC;`

	return r.query(ctx, q, model.BatchRequestPending)
}

func (r *batchRequestRepo) MarkProcessing(ctx context.Context, ids []string, batchID string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `
UPDATE batch_requests
   SET status=$1, batch_id=$2, updated_at=$3
 WHERE id = ANY($4);`

	_, err := execSQL(ctx, r.pool, nil, q, model.BatchRequestProcessing, batchID, time.Now(), ids)
	return err
}

func (r *batchRequestRepo) ActiveBatchIDs(ctx context.Context) ([]string, error) {
	const q = `
SELECT DISTINCT batch_id FROM batch_requests
 WHERE status=$1 AND batch_id <> '';`

	rows, err := queryRows(ctx, r.pool, nil, q, model.BatchRequestProcessing)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *batchRequestRepo) FindProcessingByBatch(ctx context.Context, batchID string) ([]*model.BatchRequest, error) {
	const q = `
SELECT ` + batchRequestColumns + `
  FROM batch_requests WHERE status=$1 AND batch_id=$2
 ORDER BY created_at ASC;`

	return r.query(ctx, q, model.BatchRequestProcessing, batchID)
}

func (r *batchRequestRepo) MarkCompleted(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, model.BatchRequestCompleted, "")
}

func (r *batchRequestRepo) MarkFailed(ctx context.Context, id, message string) error {
	return r.setStatus(ctx, id, model.BatchRequestFailed, message)
}

func (r *batchRequestRepo) MarkBatchFailed(ctx context.Context, batchID, message string) error {
	const q = `
UPDATE batch_requests
   SET status=$1, error_message=$2, updated_at=$3
 WHERE status=$4 AND batch_id=$5;`

	_, err := execSQL(ctx, r.pool, nil, q,
		model.BatchRequestFailed, message, time.Now(), model.BatchRequestProcessing, batchID)
	return err
}

func (r *batchRequestRepo) setStatus(ctx context.Context, id string, status model.BatchRequestStatus, message string) error {
	const q = `
UPDATE batch_requests
   SET status=$1, error_message=$2, updated_at=$3
 WHERE id=$4;`

	cmd, err := execSQL(ctx, r.pool, nil, q, status, message, time.Now(), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *batchRequestRepo) query(ctx context.Context, q string, args ...interface{}) ([]*model.BatchRequest, error) {
	rows, err := queryRows(ctx, r.pool, nil, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.BatchRequest
	for rows.Next() {
		req, err := scanBatchRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanBatchRequest(row pgx.Row) (*model.BatchRequest, error) {
	var req model.BatchRequest
	err := row.Scan(&req.ID, &req.UserID, &req.Status, &req.SourceName, &req.SourceContent,
		&req.BatchID, &req.ErrorMessage, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &req, nil
}
