package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrKind classifies upstream failures so callers can pick a degrade path.
type ErrKind string

const (
	ErrQuota    ErrKind = "quota"
	ErrTimeout  ErrKind = "timeout"
	ErrUpstream ErrKind = "upstream"
	ErrInvalid  ErrKind = "invalid"
)

type APIError struct {
	Kind    ErrKind
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("groq %s: %s", e.Kind, e.Message)
}

// KindOf returns the classification of err, or "" for non-API errors.
func KindOf(err error) ErrKind {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ""
}

type Client struct {
	apiKey string
	model  string
	base   string
	http   *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		base:   "https://api.groq.com/openai/v1",
		http:   &http.Client{},
	}
}

type ChatOpts struct {
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

type ChatResult struct {
	Content  string
	Provider string
	Degraded bool
}

type chatRequest struct {
	Model       string              `json:"model"`
	Messages    []map[string]string `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float32             `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Chat runs one chat-completion call under opts.Timeout. Transient 5xx
// responses are retried twice before surfacing an upstream error; quota and
// timeout failures surface immediately so callers can degrade.
func (c *Client) Chat(ctx context.Context, messages []map[string]string, opts ChatOpts) (*ChatResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var result *ChatResult
	err := retry.Do(
		func() error {
			r, err := c.doChat(ctx, messages, opts)
			if err != nil {
				return err
			}
			result = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var ae *APIError
			return errors.As(err, &ae) && ae.Kind == ErrUpstream
		}),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &APIError{Kind: ErrTimeout, Message: "deadline exceeded"}
		}
		return nil, err
	}
	return result, nil
}

func (c *Client) doChat(ctx context.Context, messages []map[string]string, opts ChatOpts) (*ChatResult, error) {
	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, "POST", c.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &APIError{Kind: ErrTimeout, Message: "deadline exceeded"}
		}
		return nil, &APIError{Kind: ErrUpstream, Message: err.Error()}
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &APIError{Kind: ErrQuota, Message: string(bodyBytes)}
	case resp.StatusCode >= 500:
		return nil, &APIError{Kind: ErrUpstream, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return nil, &APIError{Kind: ErrInvalid, Message: string(bodyBytes)}
	}

	var ch chatResponse
	if err := json.Unmarshal(bodyBytes, &ch); err != nil {
		return nil, &APIError{Kind: ErrInvalid, Message: fmt.Sprintf("decode: %v", err)}
	}
	if ch.Error != nil {
		return nil, &APIError{Kind: ErrUpstream, Message: ch.Error.Message}
	}
	if len(ch.Choices) == 0 {
		return nil, &APIError{Kind: ErrInvalid, Message: "no choices returned"}
	}
	return &ChatResult{Content: ch.Choices[0].Message.Content, Provider: "groq"}, nil
}
