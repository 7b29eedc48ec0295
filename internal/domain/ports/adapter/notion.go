package adapter

import (
	"context"

	"learnloop/internal/domain/model"
)

// NotionPageStatus values mirror the Status select property of the source
// database.
type NotionPageStatus string

const (
	NotionStatusInProgress NotionPageStatus = "InProgress"
	NotionStatusCreated    NotionPageStatus = "Created"
	NotionStatusError      NotionPageStatus = "Error"
)

// NotionAdapter wraps the Notion database holding generation requests: pages
// with a Status select, an optional URL property, a Batch ID text property
// and an Error Log text property.
type NotionAdapter interface {
	// FetchSubmissionPages returns pages in Request or Error status, up to limit.
	FetchSubmissionPages(ctx context.Context, limit int) ([]model.SubmissionPage, error)
	// FetchInProgressPages returns pages in InProgress status with a batch id set.
	FetchInProgressPages(ctx context.Context) ([]model.InProgressPage, error)
	// GetPageContent extracts the plain text of the page body.
	GetPageContent(ctx context.Context, pageID string) (string, error)
	SetBatchID(ctx context.Context, pageID, batchID string) error
	ClearBatchID(ctx context.Context, pageID string) error
	UpdateStatus(ctx context.Context, pageID string, status NotionPageStatus) error
	WriteErrorLog(ctx context.Context, pageID, message string) error
}
