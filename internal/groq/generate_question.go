package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type GeneratedQuestion struct {
	Question         string   `json:"question"`
	ExpectedConcepts []string `json:"expected_concepts"`
	Hint             string   `json:"hint"`
}

// GenerateQuestion asks the model for one interview question when the pool
// has nothing left for the topic. Output must be a single JSON object.
func (c *Client) GenerateQuestion(ctx context.Context, topic, skill, difficulty, interviewType, resumeExcerpt string, timeout time.Duration) (*GeneratedQuestion, error) {
	systemMsg := `You are an interview question writer. Output ONLY a valid JSON object, no markdown, no backticks, with:
- "question": one clear interview question
- "expected_concepts": array of 3-6 short concept names a good answer should mention
- "hint": one sentence nudging a stuck candidate without giving the answer

Rules:
- The question must match the requested topic, skill and difficulty.
- Never reference the candidate's resume verbatim; use it only for context.
- Output must be valid JSON with exactly those three keys.`

	userPrompt := fmt.Sprintf("Topic: %s\nSkill: %s\nDifficulty: %s\nInterview type: %s\nCandidate background:\n%s",
		topic, skill, difficulty, interviewType, resumeExcerpt)
	if len(userPrompt) > 6000 {
		userPrompt = userPrompt[:6000]
	}

	res, err := c.Chat(ctx, []map[string]string{
		{"role": "system", "content": systemMsg},
		{"role": "user", "content": userPrompt},
	}, ChatOpts{MaxTokens: 600, Temperature: 0.7, Timeout: timeout})
	if err != nil {
		return nil, err
	}

	var out GeneratedQuestion
	if err := json.Unmarshal([]byte(res.Content), &out); err != nil {
		return nil, &APIError{Kind: ErrInvalid, Message: fmt.Sprintf("parse generated question: %v", err)}
	}
	if out.Question == "" {
		return nil, &APIError{Kind: ErrInvalid, Message: "empty question in response"}
	}
	return &out, nil
}
