package adapter

import "context"

// AIServiceAdapter is the synchronous completion path used by the
// interactive generation flow (as opposed to the batch pipeline).
type AIServiceAdapter interface {
	Chat(ctx context.Context, model string, messages []Message) (string, error)
}

// TokenCounter estimates the token footprint of a prompt. Used to log and
// meter the size of batch submissions; estimates only, never enforcement.
type TokenCounter interface {
	Count(model, text string) int
}
