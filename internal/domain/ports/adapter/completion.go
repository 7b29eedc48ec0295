package adapter

import "context"

// BatchStatus is the remote job status enum of the async completion service.
// Only Completed (with an output file) and the three terminal failure states
// require any action from the orchestrator; everything else is re-polled on
// the next run.
type BatchStatus string

const (
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
	BatchStatusExpired    BatchStatus = "expired"
	BatchStatusCancelled  BatchStatus = "cancelled"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusValidating BatchStatus = "validating"
	BatchStatusFinalizing BatchStatus = "finalizing"
	BatchStatusCancelling BatchStatus = "cancelling"
)

// Terminal reports whether the status is one of the failure states that end
// a job without output.
func (s BatchStatus) Terminal() bool {
	switch s {
	case BatchStatusFailed, BatchStatusExpired, BatchStatusCancelled:
		return true
	}
	return false
}

// BatchCheck is the result of polling one job.
type BatchCheck struct {
	Status       BatchStatus
	OutputFileID string
	ErrorMessage string
}

// Message is a single chat turn in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the model for a specific output shape, e.g.
// {"type": "json_object"}.
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatBody is the request body embedded in one JSONL request line.
type ChatBody struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// RequestLine is one line of the uploaded JSONL input file. CustomID must be
// deterministically derived from the owning item's identity so the output can
// be correlated without a side table.
type RequestLine struct {
	CustomID string   `json:"custom_id"`
	Method   string   `json:"method"`
	URL      string   `json:"url"`
	Body     ChatBody `json:"body"`
}

// LineError is the per-line error object of the output file.
type LineError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OutputLine is one line of the downloaded JSONL output file, correlated to
// its RequestLine through CustomID.
type OutputLine struct {
	ID       string `json:"id"`
	CustomID string `json:"custom_id"`
	Response struct {
		StatusCode int `json:"status_code"`
		Body       struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"body"`
	} `json:"response"`
	Error *LineError `json:"error,omitempty"`
}

// Content returns the first non-empty choice content, or "".
func (l *OutputLine) Content() string {
	for _, c := range l.Response.Body.Choices {
		if c.Message.Content != "" {
			return c.Message.Content
		}
	}
	return ""
}

// BatchCompletionClient is the async, non-interactive completion service:
// upload a JSONL input file, submit it as a batch job, poll the job, download
// the output file once the job completes.
type BatchCompletionClient interface {
	UploadInputFile(ctx context.Context, jsonl string) (fileID string, err error)
	SubmitBatch(ctx context.Context, inputFileID string) (batchID string, err error)
	CheckStatus(ctx context.Context, batchID string) (BatchCheck, error)
	DownloadOutput(ctx context.Context, outputFileID string) ([]OutputLine, error)
}
