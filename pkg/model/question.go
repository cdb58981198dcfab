package model

import "time"

// PoolQuestion is a row in the candidate question pool. The pool is
// read-only to the interview core; the importer writes it.
type PoolQuestion struct {
	QID              int64         `json:"q_id" db:"q_id"`
	Topic            string        `json:"topic" db:"topic"`
	Skill            string        `json:"skill" db:"skill"`
	Difficulty       Difficulty    `json:"difficulty" db:"difficulty"`
	InterviewType    InterviewType `json:"interview_type" db:"interview_type"`
	Text             string        `json:"text" db:"text"`
	ExpectedConcepts []string      `json:"expected_concepts" db:"expected_concepts"`
	Hint             string        `json:"hint,omitempty" db:"hint"`
	Source           string        `json:"source,omitempty" db:"source"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}

// PoolFilter narrows a pool query.
type PoolFilter struct {
	Topic         string
	Difficulty    Difficulty
	InterviewType InterviewType
	Limit         int
}
