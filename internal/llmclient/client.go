// Package llmclient wraps the external LLM provider boundary
// (github.com/vinayprograms/agentkit/llm) with the retry policy the
// rest of the engine depends on: TransportError failures are
// retried with exponential backoff up to a small bound before being
// surfaced as fatal.
package llmclient

import (
	"context"
	"math/rand"
	"time"

	"github.com/vinayprograms/agentkit/llm"

	"github.com/vinayprograms/conclave/internal/conversation"
	taskerrors "github.com/vinayprograms/conclave/internal/errors"
)

// MaxRetries bounds how many times a transport failure is retried
// before becoming fatal, per spec §5's closed TransportError policy.
const MaxRetries = 3

// Client adapts a conversation.Conversation into the provider's
// llm.ChatRequest shape and retries transient failures.
type Client struct {
	provider llm.Provider
	backoff  func(attempt int) time.Duration
	timeout  time.Duration
}

// New wraps provider with the default exponential backoff (250ms,
// 500ms, 1s, each jittered by up to 20% to avoid synchronized
// retries against the same provider from concurrent tasks) and the
// given per-attempt timeout. A non-positive timeout disables the
// per-call deadline.
func New(provider llm.Provider, timeout time.Duration) *Client {
	return &Client{provider: provider, backoff: defaultBackoff, timeout: timeout}
}

func defaultBackoff(attempt int) time.Duration {
	base := 250 * time.Millisecond * time.Duration(1<<uint(attempt))
	jitter := time.Duration(rand.Int63n(int64(base) / 5))
	return base + jitter
}

// Send converts conv's messages to a chat request and returns the
// assistant's reply text. Transport failures are retried up to
// MaxRetries times; a failure on the final attempt is wrapped in
// errors.TransportError.
func (c *Client) Send(ctx context.Context, conv *conversation.Conversation) (string, error) {
	messages := toLLMMessages(conv.Messages())

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
		}

		content, err := c.chat(ctx, messages)
		if err == nil {
			return content, nil
		}
		lastErr = err
	}
	return "", &taskerrors.TransportError{Cause: lastErr}
}

// chat performs one attempt, bounded by the client's per-call
// timeout when configured.
func (c *Client) chat(ctx context.Context, messages []llm.Message) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.provider.Chat(ctx, llm.ChatRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func toLLMMessages(msgs []conversation.Message) []llm.Message {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
