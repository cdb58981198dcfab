package model

type Verdict string

const (
	VerdictStrong     Verdict = "strong"
	VerdictAdequate   Verdict = "adequate"
	VerdictBorderline Verdict = "borderline"
	VerdictWeak       Verdict = "weak"
)

// Evaluation flags. llm-unavailable marks a turn where the enrichment or
// generation call degraded to the rule-only path.
const (
	FlagOffTopic       = "off-topic"
	FlagTooBrief       = "too-brief"
	FlagHallucinated   = "hallucinated"
	FlagNoComplexity   = "no-complexity-analysis"
	FlagNoExamples     = "no-examples"
	FlagLLMUnavailable = "llm-unavailable"
)

// Metric names. These are exactly the keys of Session.RollingScores.
const (
	MetricRelevance   = "relevance"
	MetricDepth       = "depth"
	MetricCorrectness = "correctness"
	MetricClarity     = "clarity"
	MetricStructure   = "structure"
)

// MetricNames in weighting order.
var MetricNames = []string{MetricRelevance, MetricDepth, MetricCorrectness, MetricClarity, MetricStructure}

type Feedback struct {
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

type Evaluation struct {
	Score           int            `json:"score"`
	Metrics         map[string]int `json:"metrics"`
	Verdict         Verdict        `json:"verdict"`
	Feedback        Feedback       `json:"feedback"`
	MatchedConcepts []string       `json:"matched_concepts"`
	MissingConcepts []string       `json:"missing_concepts"`
	Flags           []string       `json:"flags"`
}

// HasFlag reports whether f is set on the evaluation.
func (e *Evaluation) HasFlag(f string) bool {
	for _, x := range e.Flags {
		if x == f {
			return true
		}
	}
	return false
}
