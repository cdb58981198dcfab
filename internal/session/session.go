// Package session owns the per-interview state machine: status transitions,
// turn appends, rolling scores, area recomputation and gap accumulation.
// Only the orchestrator calls into it.
package session

import (
	"fmt"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
	"github.com/google/uuid"
)

// Rolling-score smoothing. The newest observation carries the heavy side of
// the split so difficulty tracking reacts within a couple of turns.
const ewmaAlpha = 0.3

const (
	DefaultPlannedQuestions = 10
	MinPlannedQuestions     = 5
	MaxPlannedQuestions     = 20
	DefaultMaxFollowUps     = 2
)

// New creates an active session with an empty transcript.
func New(userID, targetRole string, itype model.InterviewType, planSkills []string, cfg model.SessionConfig, now time.Time) *model.Session {
	if cfg.PlannedQuestionCount == 0 {
		cfg.PlannedQuestionCount = DefaultPlannedQuestions
	}
	if cfg.PlannedQuestionCount < MinPlannedQuestions {
		cfg.PlannedQuestionCount = MinPlannedQuestions
	}
	if cfg.PlannedQuestionCount > MaxPlannedQuestions {
		cfg.PlannedQuestionCount = MaxPlannedQuestions
	}
	if cfg.InitialDifficulty == "" {
		cfg.InitialDifficulty = model.DifficultyMedium
	}
	if cfg.MaxFollowUpsPerTopic == 0 {
		cfg.MaxFollowUpsPerTopic = DefaultMaxFollowUps
	}

	return &model.Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		TargetRole:      targetRole,
		InterviewType:   itype,
		Status:          model.StatusActive,
		Turns:           []model.Turn{},
		RollingScores:   map[string]float64{},
		Difficulty:      cfg.InitialDifficulty,
		PlanSkills:      planSkills,
		TopicsCovered:   map[string]bool{},
		SkillsProbed:    map[string]bool{},
		StrongAreas:     map[string]bool{},
		StrugglingAreas: map[string]bool{},
		TopicsRevisited: map[string]bool{},
		IdentifiedGaps:  []model.Gap{},
		Config:          cfg,
		Version:         0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Pause moves active -> paused.
func Pause(s *model.Session, now time.Time) error {
	if err := requireStatus(s, model.StatusActive); err != nil {
		return err
	}
	s.Status = model.StatusPaused
	s.UpdatedAt = now
	return nil
}

// Resume moves paused -> active.
func Resume(s *model.Session, now time.Time) error {
	if s.Status.Terminal() {
		return apperr.Newf(apperr.KindGone, "session %s is %s", s.ID, s.Status)
	}
	if s.Status != model.StatusPaused {
		return apperr.Newf(apperr.KindPrecondition, "session %s is %s, not paused", s.ID, s.Status)
	}
	s.Status = model.StatusActive
	s.UpdatedAt = now
	return nil
}

// Terminate ends the session by user request from active or paused.
func Terminate(s *model.Session, now time.Time) error {
	if s.Status.Terminal() {
		return apperr.Newf(apperr.KindGone, "session %s is %s", s.ID, s.Status)
	}
	finish(s, model.StatusTerminated, now)
	return nil
}

// Complete marks normal termination decided by the selector.
func Complete(s *model.Session, now time.Time) error {
	if err := requireStatus(s, model.StatusActive); err != nil {
		return err
	}
	finish(s, model.StatusCompleted, now)
	return nil
}

// Abandon is the idle-timeout transition; valid from active or paused.
func Abandon(s *model.Session, now time.Time) error {
	if s.Status.Terminal() {
		return apperr.Newf(apperr.KindGone, "session %s is %s", s.ID, s.Status)
	}
	finish(s, model.StatusAbandoned, now)
	return nil
}

func finish(s *model.Session, status model.SessionStatus, now time.Time) {
	s.Status = status
	s.CompletedAt = &now
	s.UpdatedAt = now
	s.CurrentQuestion = nil
}

func requireStatus(s *model.Session, want model.SessionStatus) error {
	if s.Status.Terminal() {
		return apperr.Newf(apperr.KindGone, "session %s is %s", s.ID, s.Status)
	}
	if s.Status != want {
		return apperr.Newf(apperr.KindPrecondition, "session %s is %s, want %s", s.ID, s.Status, want)
	}
	return nil
}

// MarkPosed records q as the pending question. Topic coverage counts from
// pose time, not answer time.
func MarkPosed(s *model.Session, q model.Question, now time.Time) error {
	if err := requireStatus(s, model.StatusActive); err != nil {
		return err
	}
	s.CurrentQuestion = &q
	s.TopicsCovered[q.Topic] = true
	s.SkillsProbed[q.SkillProbed] = true
	if s.TopicsRevisited != nil && topicAskedBefore(s, q.Topic) && !q.IsFollowUp {
		s.TopicsRevisited[q.Topic] = true
	}
	s.UpdatedAt = now
	return nil
}

func topicAskedBefore(s *model.Session, topic string) bool {
	for _, t := range s.Turns {
		if t.Question.Topic == topic {
			return true
		}
	}
	return false
}

// AppendTurn appends the answered turn and folds its evaluation into the
// rolling state. Turns are immutable once appended.
func AppendTurn(s *model.Session, answer model.Answer, eval model.Evaluation, decision model.TurnDecision, gaps []model.Gap, now time.Time) (*model.Turn, error) {
	if err := requireStatus(s, model.StatusActive); err != nil {
		return nil, err
	}
	if s.CurrentQuestion == nil {
		return nil, apperr.Newf(apperr.KindPrecondition, "session %s has no pending question", s.ID)
	}

	turnNumber := len(s.Turns) + 1
	if last := s.LastTurn(); last != nil && turnNumber <= last.TurnNumber {
		return nil, apperr.Newf(apperr.KindInternal, "turn number regression: %d after %d", turnNumber, last.TurnNumber)
	}

	q := *s.CurrentQuestion
	if q.Degraded && !eval.HasFlag(model.FlagLLMUnavailable) {
		eval.Flags = append(eval.Flags, model.FlagLLMUnavailable)
	}

	turn := model.Turn{
		TurnNumber: turnNumber,
		Question:   q,
		Answer:     answer,
		Evaluation: eval,
		Decision:   decision,
		HintsUsed:  s.CurrentHints,
		Timestamp:  now,
	}
	s.Turns = append(s.Turns, turn)
	s.CurrentQuestion = nil
	s.CurrentHints = 0

	updateRollingScores(s, eval)
	recomputeAreas(s)
	accumulateGaps(s, gaps, turnNumber)
	maybeDepthGap(s, &turn)

	s.UpdatedAt = now
	return &s.Turns[len(s.Turns)-1], nil
}

func updateRollingScores(s *model.Session, eval model.Evaluation) {
	for _, m := range model.MetricNames {
		v := float64(eval.Metrics[m])
		if old, ok := s.RollingScores[m]; ok {
			s.RollingScores[m] = ewmaAlpha*old + (1-ewmaAlpha)*v
		} else {
			s.RollingScores[m] = v
		}
	}
}

// recomputeAreas rebuilds strong/struggling sets from each topic's most
// recent non-follow-up score.
func recomputeAreas(s *model.Session) {
	latest := map[string]int{}
	for _, t := range s.Turns {
		latest[t.Question.Topic] = t.Evaluation.Score
	}
	s.StrongAreas = map[string]bool{}
	s.StrugglingAreas = map[string]bool{}
	for topic, score := range latest {
		switch {
		case score >= 75:
			s.StrongAreas[topic] = true
		case score < 60:
			s.StrugglingAreas[topic] = true
		}
	}
}

// accumulateGaps merges new gaps into the inventory. Gaps are deduplicated by
// skill; severity never decreases; evidence turns accumulate.
func accumulateGaps(s *model.Session, gaps []model.Gap, turnNumber int) {
	for _, g := range gaps {
		merged := false
		for i := range s.IdentifiedGaps {
			if s.IdentifiedGaps[i].Skill == g.Skill {
				if g.Severity.Rank() > s.IdentifiedGaps[i].Severity.Rank() {
					s.IdentifiedGaps[i].Severity = g.Severity
				}
				s.IdentifiedGaps[i].EvidenceTurns = append(s.IdentifiedGaps[i].EvidenceTurns, turnNumber)
				merged = true
				break
			}
		}
		if !merged {
			g.FirstSeenTurn = turnNumber
			g.EvidenceTurns = []int{turnNumber}
			s.IdentifiedGaps = append(s.IdentifiedGaps, g)
		}
	}
}

// maybeDepthGap records a depth gap when a previously-strong topic slips to
// borderline.
func maybeDepthGap(s *model.Session, turn *model.Turn) {
	if turn.Evaluation.Verdict != model.VerdictBorderline {
		return
	}
	topic := turn.Question.Topic
	for _, t := range s.Turns[:len(s.Turns)-1] {
		if t.Question.Topic == topic && t.Evaluation.Score >= 75 {
			accumulateGaps(s, []model.Gap{{
				Skill:    turn.Question.SkillProbed,
				Type:     model.GapDepth,
				Severity: model.SeverityMedium,
			}}, turn.TurnNumber)
			return
		}
	}
}

// Validate checks the structural invariants; violations are internal errors.
func Validate(s *model.Session) error {
	for i, t := range s.Turns {
		if t.TurnNumber != i+1 {
			return apperr.Newf(apperr.KindInternal, "turn %d carries number %d", i+1, t.TurnNumber)
		}
		if i > 0 && t.Timestamp.Before(s.Turns[i-1].Timestamp) {
			return apperr.Newf(apperr.KindInternal, "turn %d timestamp precedes turn %d", i+1, i)
		}
	}
	if s.Status.Terminal() && s.CompletedAt == nil {
		return apperr.New(apperr.KindInternal, fmt.Sprintf("terminal session %s without completed_at", s.ID))
	}
	return nil
}
