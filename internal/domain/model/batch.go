package model

import "time"

type BatchRequestStatus string

const (
	BatchRequestPending    BatchRequestStatus = "pending"
	BatchRequestProcessing BatchRequestStatus = "processing"
	BatchRequestCompleted  BatchRequestStatus = "completed"
	BatchRequestFailed     BatchRequestStatus = "failed"
)

// BatchRequest is one row of the internal generation queue: raw source
// material waiting to be turned into quizzes through the async completion
// service. BatchID is set once the row has been submitted under a job.
type BatchRequest struct {
	ID            string
	UserID        string
	Status        BatchRequestStatus
	SourceName    string
	SourceContent string
	BatchID       string
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SubmissionPage is a Notion page waiting for quiz generation.
type SubmissionPage struct {
	PageID    string
	Title     string
	SourceURL string
}

// InProgressPage is a Notion page already submitted under a batch job.
type InProgressPage struct {
	PageID    string
	BatchID   string
	SourceURL string
}
