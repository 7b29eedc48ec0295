package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.NotionAdapter = (*Adapter)(nil)

const (
	apiBase    = "https://api.notion.com/v1"
	apiVersion = "2022-06-28"

	// Error Log is a rich_text property; Notion caps one text item at 2000 chars.
	maxErrorLogChars = 2000
)

// Adapter wraps one Notion database whose pages are generation requests.
// Expected properties: a title, a Status select (Request/InProgress/Created/Error),
// a URL url property, a Batch ID rich_text and an Error Log rich_text.
type Adapter struct {
	token      string
	databaseID string
	client     *http.Client
}

func NewAdapter(token, databaseID string) (*Adapter, error) {
	if token == "" || databaseID == "" {
		return nil, errors.New("notion token and database id required")
	}
	return &Adapter{
		token:      token,
		databaseID: databaseID,
		client:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type queryResponse struct {
	Results []pageObject `json:"results"`
}

type pageObject struct {
	ID         string                     `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

func (a *Adapter) FetchSubmissionPages(ctx context.Context, limit int) ([]model.SubmissionPage, error) {
	body := map[string]interface{}{
		"page_size": limit,
		"filter": map[string]interface{}{
			"or": []interface{}{
				map[string]interface{}{"property": "Status", "select": map[string]string{"equals": "Request"}},
				map[string]interface{}{"property": "Status", "select": map[string]string{"equals": "Error"}},
			},
		},
	}
	var resp queryResponse
	if err := a.do(ctx, http.MethodPost, "/databases/"+a.databaseID+"/query", body, &resp); err != nil {
		return nil, fmt.Errorf("query submission pages: %w", err)
	}

	pages := make([]model.SubmissionPage, 0, len(resp.Results))
	for _, p := range resp.Results {
		pages = append(pages, model.SubmissionPage{
			PageID:    p.ID,
			Title:     titleOf(p),
			SourceURL: urlOf(p),
		})
	}
	return pages, nil
}

func (a *Adapter) FetchInProgressPages(ctx context.Context) ([]model.InProgressPage, error) {
	body := map[string]interface{}{
		"filter": map[string]interface{}{
			"and": []interface{}{
				map[string]interface{}{"property": "Status", "select": map[string]string{"equals": "InProgress"}},
				map[string]interface{}{"property": "Batch ID", "rich_text": map[string]bool{"is_not_empty": true}},
			},
		},
	}
	var resp queryResponse
	if err := a.do(ctx, http.MethodPost, "/databases/"+a.databaseID+"/query", body, &resp); err != nil {
		return nil, fmt.Errorf("query in-progress pages: %w", err)
	}

	pages := make([]model.InProgressPage, 0, len(resp.Results))
	for _, p := range resp.Results {
		pages = append(pages, model.InProgressPage{
			PageID:    p.ID,
			BatchID:   richTextOf(p, "Batch ID"),
			SourceURL: urlOf(p),
		})
	}
	return pages, nil
}

// GetPageContent walks the page blocks and joins their plain text.
func (a *Adapter) GetPageContent(ctx context.Context, pageID string) (string, error) {
	var sb strings.Builder
	cursor := ""
	for {
		path := "/blocks/" + pageID + "/children?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}
		var resp struct {
			Results    []json.RawMessage `json:"results"`
			HasMore    bool              `json:"has_more"`
			NextCursor string            `json:"next_cursor"`
		}
		if err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return "", fmt.Errorf("fetch page blocks: %w", err)
		}
		for _, raw := range resp.Results {
			if text := blockPlainText(raw); text != "" {
				sb.WriteString(text)
				sb.WriteByte('\n')
			}
		}
		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return strings.TrimSpace(sb.String()), nil
}

func (a *Adapter) SetBatchID(ctx context.Context, pageID, batchID string) error {
	return a.patchProperties(ctx, pageID, map[string]interface{}{
		"Status":   selectProp("InProgress"),
		"Batch ID": richTextProp(batchID),
	})
}

func (a *Adapter) ClearBatchID(ctx context.Context, pageID string) error {
	return a.patchProperties(ctx, pageID, map[string]interface{}{
		"Batch ID": map[string]interface{}{"rich_text": []interface{}{}},
	})
}

func (a *Adapter) UpdateStatus(ctx context.Context, pageID string, status adapter.NotionPageStatus) error {
	return a.patchProperties(ctx, pageID, map[string]interface{}{
		"Status": selectProp(string(status)),
	})
}

func (a *Adapter) WriteErrorLog(ctx context.Context, pageID, message string) error {
	if len(message) > maxErrorLogChars {
		message = message[:maxErrorLogChars]
	}
	return a.patchProperties(ctx, pageID, map[string]interface{}{
		"Error Log": richTextProp(message),
	})
}

func (a *Adapter) patchProperties(ctx context.Context, pageID string, props map[string]interface{}) error {
	body := map[string]interface{}{"properties": props}
	if err := a.do(ctx, http.MethodPatch, "/pages/"+pageID, body, nil); err != nil {
		return fmt.Errorf("update page %s: %w", pageID, err)
	}
	return nil
}

func (a *Adapter) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notion http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func selectProp(name string) map[string]interface{} {
	return map[string]interface{}{"select": map[string]string{"name": name}}
}

func richTextProp(content string) map[string]interface{} {
	return map[string]interface{}{
		"rich_text": []interface{}{
			map[string]interface{}{"text": map[string]string{"content": content}},
		},
	}
}

type richText struct {
	PlainText string `json:"plain_text"`
}

func joinRichText(rt []richText) string {
	var sb strings.Builder
	for _, t := range rt {
		sb.WriteString(t.PlainText)
	}
	return sb.String()
}

// titleOf finds the title property regardless of its name.
func titleOf(p pageObject) string {
	for _, raw := range p.Properties {
		var prop struct {
			Type  string     `json:"type"`
			Title []richText `json:"title"`
		}
		if err := json.Unmarshal(raw, &prop); err != nil {
			continue
		}
		if prop.Type == "title" {
			return joinRichText(prop.Title)
		}
	}
	return ""
}

func urlOf(p pageObject) string {
	raw, ok := p.Properties["URL"]
	if !ok {
		return ""
	}
	var prop struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &prop); err != nil {
		return ""
	}
	return prop.URL
}

func richTextOf(p pageObject, name string) string {
	raw, ok := p.Properties[name]
	if !ok {
		return ""
	}
	var prop struct {
		RichText []richText `json:"rich_text"`
	}
	if err := json.Unmarshal(raw, &prop); err != nil {
		return ""
	}
	return joinRichText(prop.RichText)
}

// blockPlainText pulls the rich_text of the common block types.
func blockPlainText(raw json.RawMessage) string {
	var block map[string]json.RawMessage
	if err := json.Unmarshal(raw, &block); err != nil {
		return ""
	}
	var blockType string
	if err := json.Unmarshal(block["type"], &blockType); err != nil {
		return ""
	}
	payload, ok := block[blockType]
	if !ok {
		return ""
	}
	var content struct {
		RichText []richText `json:"rich_text"`
	}
	if err := json.Unmarshal(payload, &content); err != nil {
		return ""
	}
	return joinRichText(content.RichText)
}
