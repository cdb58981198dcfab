package model

import "time"

type InterviewType string

const (
	InterviewTechnical  InterviewType = "technical"
	InterviewBehavioral InterviewType = "behavioral"
	InterviewCoding     InterviewType = "coding"
	InterviewMixed      InterviewType = "mixed"
)

type SessionStatus string

const (
	StatusActive     SessionStatus = "active"
	StatusPaused     SessionStatus = "paused"
	StatusCompleted  SessionStatus = "completed"
	StatusTerminated SessionStatus = "terminated"
	StatusAbandoned  SessionStatus = "abandoned"
)

// Terminal reports whether no further transitions are allowed from s.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusTerminated || s == StatusAbandoned
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// StepUp returns the next harder level, capped at hard.
func (d Difficulty) StepUp() Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyHard
	}
	return DifficultyHard
}

// StepDown returns the next easier level, floored at easy.
func (d Difficulty) StepDown() Difficulty {
	switch d {
	case DifficultyHard:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyEasy
	}
	return DifficultyEasy
}

type TurnDecision string

const (
	DecisionNewTopic  TurnDecision = "continue-new-topic"
	DecisionFollowUp  TurnDecision = "continue-follow-up"
	DecisionTerminate TurnDecision = "terminate"
)

// Question is one posed interview question. For follow-ups ParentTurnNumber
// points at the turn whose answer triggered the follow-up.
type Question struct {
	Text             string     `json:"text"`
	Topic            string     `json:"topic"`
	SkillProbed      string     `json:"skill_probed"`
	Difficulty       Difficulty `json:"difficulty"`
	ExpectedConcepts []string   `json:"expected_concepts,omitempty"`
	IsFollowUp       bool       `json:"is_follow_up"`
	ParentTurnNumber int        `json:"parent_turn_number,omitempty"`
	Generated        bool       `json:"generated,omitempty"`
	Degraded         bool       `json:"degraded,omitempty"`
	Hint             string     `json:"hint,omitempty"`
}

type Answer struct {
	Text         string  `json:"text"`
	TimeSpentSec int     `json:"time_spent_sec"`
	MediaRef     *string `json:"media_ref,omitempty"`
}

// Turn is immutable once appended to a session.
type Turn struct {
	TurnNumber int          `json:"turn_number"`
	Question   Question     `json:"question"`
	Answer     Answer       `json:"answer"`
	Evaluation Evaluation   `json:"evaluation"`
	Decision   TurnDecision `json:"decision"`
	HintsUsed  int          `json:"hints_used,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

type GapType string

const (
	GapKnowledge     GapType = "knowledge"
	GapApplication   GapType = "application"
	GapCommunication GapType = "communication"
	GapDepth         GapType = "depth"
)

type GapSeverity string

const (
	SeverityLow      GapSeverity = "low"
	SeverityMedium   GapSeverity = "medium"
	SeverityHigh     GapSeverity = "high"
	SeverityCritical GapSeverity = "critical"
)

// Rank orders severities so accumulation can enforce non-decreasing severity.
func (s GapSeverity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

type Gap struct {
	Skill         string      `json:"skill"`
	Type          GapType     `json:"type"`
	Severity      GapSeverity `json:"severity"`
	FirstSeenTurn int         `json:"first_seen_turn"`
	EvidenceTurns []int       `json:"evidence_turns"`
}

// SessionConfig holds per-session knobs resolved at start time.
type SessionConfig struct {
	PlannedQuestionCount int        `json:"planned_question_count"`
	InitialDifficulty    Difficulty `json:"initial_difficulty"`
	MaxFollowUpsPerTopic int        `json:"max_follow_ups_per_topic"`
}

// Session is the durable per-interview state. Mutated only by the
// orchestrator; persisted with an optimistic version.
type Session struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	TargetRole    string        `json:"target_role"`
	InterviewType InterviewType `json:"interview_type"`
	Status        SessionStatus `json:"status"`

	Turns         []Turn             `json:"turns"`
	RollingScores map[string]float64 `json:"rolling_scores"`
	Difficulty    Difficulty         `json:"difficulty"`

	PlanSkills      []string        `json:"plan_skills"`
	TopicsCovered   map[string]bool `json:"topics_covered"`
	SkillsProbed    map[string]bool `json:"skills_probed"`
	StrongAreas     map[string]bool `json:"strong_areas"`
	StrugglingAreas map[string]bool `json:"struggling_areas"`
	TopicsRevisited map[string]bool `json:"topics_revisited,omitempty"`
	IdentifiedGaps  []Gap           `json:"identified_gaps"`

	// CurrentQuestion is the posed-but-unanswered question, if any.
	// CurrentHints counts hints served against it.
	CurrentQuestion *Question `json:"current_question,omitempty"`
	CurrentHints    int       `json:"current_hints,omitempty"`

	// ResumeExcerpt seeds LLM question generation prompts.
	ResumeExcerpt string `json:"resume_excerpt,omitempty"`

	Config SessionConfig `json:"config"`

	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// LastTurn returns the most recent turn, or nil for a fresh session.
func (s *Session) LastTurn() *Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}

// FollowUpsOn counts follow-up turns already posed on topic.
func (s *Session) FollowUpsOn(topic string) int {
	n := 0
	for _, t := range s.Turns {
		if t.Question.IsFollowUp && t.Question.Topic == topic {
			n++
		}
	}
	return n
}

// AskedTexts returns the set of question texts already posed.
func (s *Session) AskedTexts() map[string]bool {
	out := make(map[string]bool, len(s.Turns))
	for _, t := range s.Turns {
		out[t.Question.Text] = true
	}
	return out
}
