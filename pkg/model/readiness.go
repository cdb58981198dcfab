package model

import "time"

type ReadinessLevel string

const (
	ReadinessNotReady        ReadinessLevel = "not-ready"
	ReadinessNeedsWork       ReadinessLevel = "needs-improvement"
	ReadinessInterviewReady  ReadinessLevel = "interview-ready"
	ReadinessHighlyConfident ReadinessLevel = "highly-confident"
)

// Readiness is the terminal assessment of a session.
type Readiness struct {
	SessionID       string         `json:"session_id"`
	UserID          string         `json:"user_id"`
	OverallScore    int            `json:"overall_score"`
	ReadinessLevel  ReadinessLevel `json:"readiness_level"`
	CategoryScores  map[string]int `json:"category_scores"`
	IdentifiedGaps  []Gap          `json:"identified_gaps"`
	Recommendations []string       `json:"recommendations"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// UserAnalytics aggregates a user's completed sessions.
type UserAnalytics struct {
	UserID            string             `json:"user_id"`
	CompletedSessions int                `json:"completed_sessions"`
	AverageScore      float64            `json:"average_score"`
	LatestLevel       ReadinessLevel     `json:"latest_level,omitempty"`
	ScoreTrend        []int              `json:"score_trend"`
	ScoreGrowthPct    int                `json:"score_growth_pct"`
	FrequentGapSkills []string           `json:"frequent_gap_skills"`
	CategoryAverages  map[string]float64 `json:"category_averages"`
}
