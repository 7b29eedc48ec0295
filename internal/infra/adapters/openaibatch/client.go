package openaibatch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"learnloop/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.BatchCompletionClient = (*Client)(nil)

// Client implements the async completion port against the OpenAI Batch API:
// Files for JSONL input/output, Batches for job lifecycle.
type Client struct {
	api              openai.Client
	completionWindow openai.BatchNewParamsCompletionWindow
}

func NewClient(apiKey, completionWindow string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	window := openai.BatchNewParamsCompletionWindow24h
	if completionWindow != "" && completionWindow != "24h" {
		window = openai.BatchNewParamsCompletionWindow(completionWindow)
	}
	return &Client{
		api:              openai.NewClient(option.WithAPIKey(apiKey)),
		completionWindow: window,
	}, nil
}

func (c *Client) UploadInputFile(ctx context.Context, jsonl string) (string, error) {
	file, err := c.api.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(strings.NewReader(jsonl), "batch_input.jsonl", "application/jsonl"),
		Purpose: openai.FilePurposeBatch,
	})
	if err != nil {
		return "", fmt.Errorf("upload batch input: %w", err)
	}
	return file.ID, nil
}

func (c *Client) SubmitBatch(ctx context.Context, inputFileID string) (string, error) {
	batch, err := c.api.Batches.New(ctx, openai.BatchNewParams{
		InputFileID:      inputFileID,
		Endpoint:         openai.BatchNewParamsEndpointV1ChatCompletions,
		CompletionWindow: c.completionWindow,
	})
	if err != nil {
		return "", fmt.Errorf("create batch: %w", err)
	}
	return batch.ID, nil
}

func (c *Client) CheckStatus(ctx context.Context, batchID string) (adapter.BatchCheck, error) {
	batch, err := c.api.Batches.Get(ctx, batchID)
	if err != nil {
		return adapter.BatchCheck{}, fmt.Errorf("get batch %s: %w", batchID, err)
	}
	check := adapter.BatchCheck{
		Status:       adapter.BatchStatus(batch.Status),
		OutputFileID: batch.OutputFileID,
	}
	if len(batch.Errors.Data) > 0 {
		msgs := make([]string, 0, len(batch.Errors.Data))
		for _, e := range batch.Errors.Data {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Code, e.Message))
		}
		check.ErrorMessage = strings.Join(msgs, "; ")
	}
	return check, nil
}

func (c *Client) DownloadOutput(ctx context.Context, outputFileID string) ([]adapter.OutputLine, error) {
	resp, err := c.api.Files.Content(ctx, outputFileID)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", outputFileID, err)
	}
	defer resp.Body.Close()

	var lines []adapter.OutputLine
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var line adapter.OutputLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, fmt.Errorf("parse output line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read output file: %w", err)
	}
	return lines, nil
}
