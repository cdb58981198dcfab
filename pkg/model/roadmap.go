package model

import "time"

type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
	ExperienceExpert       ExperienceLevel = "expert"
)

// RoadmapRequest is the planner input. TargetDate and WeeklyHours bound the
// schedule; FocusAreas are ontology-normalized before planning.
type RoadmapRequest struct {
	UserID          string          `json:"user_id"`
	TargetRole      string          `json:"target_role"`
	JDText          string          `json:"jd_text,omitempty"`
	TargetDate      time.Time       `json:"target_date"`
	WeeklyHours     int             `json:"weekly_hours"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	FocusAreas      []string        `json:"focus_areas"`
	Reproducible    bool            `json:"reproducible,omitempty"`
}

type Milestone struct {
	ID           string `json:"id"`
	Skill        string `json:"skill"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	DurationDays int    `json:"duration_days"`
	Order        int    `json:"order"`
}

type Phase struct {
	Name         string      `json:"name"`
	Slug         string      `json:"slug"`
	Order        int         `json:"order"`
	DurationDays int         `json:"duration_days"`
	Milestones   []Milestone `json:"milestones"`
}

type FeasibilityReason struct {
	Rule      string  `json:"rule"`
	Threshold float64 `json:"threshold"`
	Value     float64 `json:"value"`
	Passed    bool    `json:"passed"`
}

type Feasibility struct {
	Score   int                 `json:"score"`
	Reasons []FeasibilityReason `json:"reasons"`
}

type RuleTrigger struct {
	RuleName       string `json:"rule_name"`
	OutputSnippet  string `json:"output_snippet"`
	TriggeredValue string `json:"triggered_value"`
}

type PhrasingCall struct {
	Field      string    `json:"field"`
	PromptHash string    `json:"prompt_hash"`
	Timestamp  time.Time `json:"timestamp"`
}

// Provenance records every input and rule trigger behind a roadmap so the
// deterministic core can be audited and replayed.
type Provenance struct {
	RuleSetVersion   string         `json:"rule_set_version"`
	GeneratedAt      time.Time      `json:"generated_at"`
	Inputs           RoadmapRequest `json:"inputs"`
	GeneratorParams  map[string]string `json:"generator_params"`
	DeterministicLog []RuleTrigger  `json:"deterministic_log"`
	AIPhrasingLog    []PhrasingCall `json:"ai_phrasing_log"`
}

type Roadmap struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	TargetRole       string      `json:"target_role"`
	Phases           []Phase     `json:"phases"`
	Milestones       []Milestone `json:"milestones"`
	FeasibilityScore Feasibility `json:"feasibility_score"`
	Provenance       Provenance  `json:"provenance"`
	CreatedAt        time.Time   `json:"created_at"`
}
