package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type PhrasedFeedback struct {
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

// PhraseFeedback rewrites rule-derived feedback bullets into natural phrasing.
// Scores are never passed in: phrasing cannot change the evaluation.
func (c *Client) PhraseFeedback(ctx context.Context, question, answer string, strengths, weaknesses []string, timeout time.Duration) (*PhrasedFeedback, error) {
	systemMsg := `You are an interview coach. Rewrite the given feedback bullets as short, specific, encouraging phrases. Output ONLY a JSON object with keys "strengths", "weaknesses", "suggestions", each an array of strings. Keep each phrase under 15 words. Do not add new claims about the answer.`

	payload, _ := json.Marshal(map[string]interface{}{
		"question":   question,
		"answer":     truncate(answer, 2000),
		"strengths":  strengths,
		"weaknesses": weaknesses,
	})

	res, err := c.Chat(ctx, []map[string]string{
		{"role": "system", "content": systemMsg},
		{"role": "user", "content": string(payload)},
	}, ChatOpts{MaxTokens: 400, Temperature: 0.4, Timeout: timeout})
	if err != nil {
		return nil, err
	}

	var out PhrasedFeedback
	if err := json.Unmarshal([]byte(res.Content), &out); err != nil {
		return nil, &APIError{Kind: ErrInvalid, Message: fmt.Sprintf("parse feedback: %v", err)}
	}
	return &out, nil
}

// PhraseText generates a one-line description for roadmap fields. The caller
// logs the prompt hash into provenance; the output never drives decisions.
func (c *Client) PhraseText(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	res, err := c.Chat(ctx, []map[string]string{
		{"role": "system", "content": "Write one concise sentence. No preamble, no quotes."},
		{"role": "user", "content": truncate(prompt, 1500)},
	}, ChatOpts{MaxTokens: 120, Temperature: 0.6, Timeout: timeout})
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// Hint phrases a hint for the current question, falling back to the pool hint
// at the call site when the model is unavailable.
func (c *Client) Hint(ctx context.Context, question, topic string, timeout time.Duration) (string, error) {
	prompt := fmt.Sprintf("Give a one-sentence hint for this %s interview question without revealing the answer:\n%s", topic, question)
	return c.PhraseText(ctx, prompt, timeout)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
