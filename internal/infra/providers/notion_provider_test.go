//go:build !integration

package providers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/adapter"
	"learnloop/internal/domain/ports/provider"
	"learnloop/internal/infra/providers"
	"learnloop/internal/usecase"
)

const validPayload = `{
  "topic": "Go",
  "quizzes": [
    {
      "question": "What closes a channel?",
      "options": ["close(ch)", "ch.Close()"],
      "answers": ["close(ch)"]
    }
  ]
}`

func successLine(t *testing.T, customID, content string) adapter.OutputLine {
	t.Helper()
	var l adapter.OutputLine
	l.CustomID = customID
	l.Response.StatusCode = 200
	raw := fmt.Sprintf(`{"choices":[{"message":{"content":%s}}]}`, mustQuote(t, content))
	if err := json.Unmarshal([]byte(raw), &l.Response.Body); err != nil {
		t.Fatalf("building output line: %v", err)
	}
	return l
}

func mustQuote(t *testing.T, s string) string {
	t.Helper()
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("quoting content: %v", err)
	}
	return string(b)
}

func newNotionProvider(t *testing.T, notion *MockNotion, scraper *MockScraper) (*providers.NotionProvider, *MockQuizRepo) {
	t.Helper()
	repo := &MockQuizRepo{}
	quizUC := usecase.NewQuizUseCase(repo, NewMockBatchRequestRepo(), &MockTxManager{}, newTestLogger())
	p, err := providers.NewNotionProvider(notion, scraper, quizUC, &MockTxManager{},
		"owner-1", "gpt-4o-mini", 10, 50, 200, newTestLogger())
	if err != nil {
		t.Fatalf("NewNotionProvider returned an error: %v", err)
	}
	return p, repo
}

func TestNotionProviderSubmission(t *testing.T) {
	ctx := context.Background()
	longContent := strings.Repeat("Interfaces and embedding. ", 10)

	t.Run("request line is built from the page body", func(t *testing.T) {
		notion := NewMockNotion()
		notion.FetchSubmissionPagesFunc = func(ctx context.Context, limit int) ([]model.SubmissionPage, error) {
			return []model.SubmissionPage{{PageID: "p1", Title: "Ch 1"}}, nil
		}
		notion.GetPageContentFunc = func(ctx context.Context, pageID string) (string, error) {
			return longContent, nil
		}
		p, _ := newNotionProvider(t, notion, &MockScraper{})

		items, err := p.FetchPendingItems(ctx)
		if err != nil || len(items) != 1 {
			t.Fatalf("pending items: %v, err %v", items, err)
		}
		line, err := p.CreateRequestLine(ctx, items[0])
		if err != nil {
			t.Fatalf("CreateRequestLine returned an error: %v", err)
		}
		if line.CustomID != "notion_page_p1" {
			t.Errorf("custom id: got %s, want notion_page_p1", line.CustomID)
		}
		if line.Body.Model != "gpt-4o-mini" || len(line.Body.Messages) != 2 {
			t.Errorf("body: %+v", line.Body)
		}
	})

	t.Run("short body falls back to the page url", func(t *testing.T) {
		notion := NewMockNotion()
		notion.FetchSubmissionPagesFunc = func(ctx context.Context, limit int) ([]model.SubmissionPage, error) {
			return []model.SubmissionPage{{PageID: "p1", SourceURL: "https://example.com"}}, nil
		}
		notion.GetPageContentFunc = func(ctx context.Context, pageID string) (string, error) {
			return "stub", nil
		}
		scraper := &MockScraper{
			ScrapeURLFunc: func(ctx context.Context, url string) (string, error) {
				return longContent, nil
			},
		}
		p, _ := newNotionProvider(t, notion, scraper)

		items, _ := p.FetchPendingItems(ctx)
		line, err := p.CreateRequestLine(ctx, items[0])
		if err != nil {
			t.Fatalf("CreateRequestLine returned an error: %v", err)
		}
		if !strings.Contains(line.Body.Messages[1].Content, "Interfaces and embedding") {
			t.Error("scraped content not used for the request")
		}
	})

	t.Run("insufficient content is reported per item", func(t *testing.T) {
		notion := NewMockNotion()
		notion.FetchSubmissionPagesFunc = func(ctx context.Context, limit int) ([]model.SubmissionPage, error) {
			return []model.SubmissionPage{{PageID: "p1", Title: "Empty"}}, nil
		}
		p, _ := newNotionProvider(t, notion, &MockScraper{})

		items, _ := p.FetchPendingItems(ctx)
		if _, err := p.CreateRequestLine(ctx, items[0]); !errors.Is(err, domain.ErrContentInsufficient) {
			t.Errorf("got %v, want ErrContentInsufficient", err)
		}
	})

	t.Run("mark processing failures do not block siblings", func(t *testing.T) {
		notion := NewMockNotion()
		notion.SetBatchIDFunc = func(ctx context.Context, pageID, batchID string) error {
			if pageID == "p2" {
				return errors.New("notion http 502")
			}
			notion.BatchIDs[pageID] = batchID
			return nil
		}
		p, _ := newNotionProvider(t, notion, &MockScraper{})

		items := []provider.PendingItem{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
		err := p.MarkProcessing(ctx, items, "batch-1")
		if err == nil {
			t.Fatal("expected an error for the failed page")
		}
		if notion.BatchIDs["p1"] != "batch-1" || notion.BatchIDs["p3"] != "batch-1" {
			t.Errorf("sibling pages not stamped: %v", notion.BatchIDs)
		}
	})
}

func TestNotionProviderCompletion(t *testing.T) {
	ctx := context.Background()

	inProgress := func(notion *MockNotion, pages ...model.InProgressPage) {
		notion.FetchInProgressPagesFunc = func(ctx context.Context) ([]model.InProgressPage, error) {
			return pages, nil
		}
	}

	t.Run("missing custom_id fails one page, siblings complete", func(t *testing.T) {
		notion := NewMockNotion()
		inProgress(notion,
			model.InProgressPage{PageID: "p1", BatchID: "batch-1", SourceURL: "https://example.com/a"},
			model.InProgressPage{PageID: "p2", BatchID: "batch-1"},
			model.InProgressPage{PageID: "p3", BatchID: "batch-1"},
		)
		p, repo := newNotionProvider(t, notion, &MockScraper{})

		ids, err := p.ActiveBatchIDs(ctx)
		if err != nil || len(ids) != 1 || ids[0] != "batch-1" {
			t.Fatalf("active batch ids: %v, err %v", ids, err)
		}

		results := map[string]adapter.OutputLine{
			"notion_page_p1": successLine(t, "notion_page_p1", validPayload),
			"notion_page_p3": successLine(t, "notion_page_p3", validPayload),
		}
		stats, err := p.HandleCompletion(ctx, "batch-1", results)
		if err != nil {
			t.Fatalf("HandleCompletion returned an error: %v", err)
		}
		if stats.Completed != 2 || stats.Failed != 1 {
			t.Fatalf("stats: %+v, want 2 completed 1 failed", stats)
		}
		if msg := stats.Errors["p2"]; !strings.Contains(msg, "not found in batch output") {
			t.Errorf("p2 error: %q", msg)
		}

		if notion.LastStatus("p1") != adapter.NotionStatusCreated || notion.LastStatus("p3") != adapter.NotionStatusCreated {
			t.Errorf("completed pages not marked Created: %v", notion.StatusUpdates)
		}
		if len(notion.Cleared) != 2 {
			t.Errorf("cleared batch ids: %v, want p1 and p3", notion.Cleared)
		}
		if notion.LastStatus("p2") != adapter.NotionStatusError {
			t.Errorf("failed page status: %v", notion.StatusUpdates["p2"])
		}
		if notion.ErrorLogs["p2"] == "" {
			t.Error("failed page has no error log")
		}

		if len(repo.Saved) != 2 {
			t.Fatalf("saved quizzes: got %d, want 2", len(repo.Saved))
		}
		for _, q := range repo.Saved {
			if q.UserID != "owner-1" || q.SourceType != model.SourceTypeNotion {
				t.Errorf("saved quiz metadata: %+v", q)
			}
		}
	})

	t.Run("non-200 line fails the page", func(t *testing.T) {
		notion := NewMockNotion()
		inProgress(notion, model.InProgressPage{PageID: "p1", BatchID: "batch-1"})
		p, repo := newNotionProvider(t, notion, &MockScraper{})
		if _, err := p.ActiveBatchIDs(ctx); err != nil {
			t.Fatalf("ActiveBatchIDs: %v", err)
		}

		var line adapter.OutputLine
		line.CustomID = "notion_page_p1"
		line.Response.StatusCode = 429
		stats, err := p.HandleCompletion(ctx, "batch-1", map[string]adapter.OutputLine{"notion_page_p1": line})
		if err != nil {
			t.Fatalf("HandleCompletion returned an error: %v", err)
		}
		if stats.Failed != 1 || len(repo.Saved) != 0 {
			t.Errorf("stats %+v saved %d, want a single failure", stats, len(repo.Saved))
		}
	})

	t.Run("failed batch resets every page", func(t *testing.T) {
		notion := NewMockNotion()
		inProgress(notion,
			model.InProgressPage{PageID: "p1", BatchID: "batch-1"},
			model.InProgressPage{PageID: "p2", BatchID: "batch-1"},
		)
		p, _ := newNotionProvider(t, notion, &MockScraper{})
		if _, err := p.ActiveBatchIDs(ctx); err != nil {
			t.Fatalf("ActiveBatchIDs: %v", err)
		}

		if err := p.HandleFailure(ctx, "batch-1", "batch window elapsed"); err != nil {
			t.Fatalf("HandleFailure returned an error: %v", err)
		}
		for _, pageID := range []string{"p1", "p2"} {
			if notion.LastStatus(pageID) != adapter.NotionStatusError {
				t.Errorf("page %s status: %v", pageID, notion.StatusUpdates[pageID])
			}
			if notion.ErrorLogs[pageID] != "batch window elapsed" {
				t.Errorf("page %s error log: %q", pageID, notion.ErrorLogs[pageID])
			}
		}
		if len(notion.Cleared) != 2 {
			t.Errorf("cleared batch ids: %v, want both pages", notion.Cleared)
		}
	})
}
