package session

import (
	"errors"
	"testing"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newActive(t *testing.T) *model.Session {
	t.Helper()
	return New("user-1", "backend engineer", model.InterviewTechnical,
		[]string{"data structures", "system design", "postgresql"},
		model.SessionConfig{PlannedQuestionCount: 5, InitialDifficulty: model.DifficultyMedium, MaxFollowUpsPerTopic: 2}, t0)
}

func evalWithScore(score int) model.Evaluation {
	metrics := map[string]int{}
	for _, m := range model.MetricNames {
		metrics[m] = score
	}
	v := model.VerdictWeak
	switch {
	case score >= 80:
		v = model.VerdictStrong
	case score >= 65:
		v = model.VerdictAdequate
	case score >= 45:
		v = model.VerdictBorderline
	}
	return model.Evaluation{Score: score, Metrics: metrics, Verdict: v}
}

func pose(t *testing.T, s *model.Session, topic string, at time.Time) {
	t.Helper()
	q := model.Question{Text: "q on " + topic + " " + at.String(), Topic: topic, SkillProbed: topic, Difficulty: s.Difficulty}
	if err := MarkPosed(s, q, at); err != nil {
		t.Fatalf("MarkPosed: %v", err)
	}
}

func TestConfigBounds(t *testing.T) {
	s := New("u", "r", model.InterviewCoding, nil, model.SessionConfig{PlannedQuestionCount: 50}, t0)
	if s.Config.PlannedQuestionCount != MaxPlannedQuestions {
		t.Errorf("planned = %d, want clamped to %d", s.Config.PlannedQuestionCount, MaxPlannedQuestions)
	}
	s = New("u", "r", model.InterviewCoding, nil, model.SessionConfig{PlannedQuestionCount: 2}, t0)
	if s.Config.PlannedQuestionCount != MinPlannedQuestions {
		t.Errorf("planned = %d, want clamped to %d", s.Config.PlannedQuestionCount, MinPlannedQuestions)
	}
	s = New("u", "r", model.InterviewCoding, nil, model.SessionConfig{}, t0)
	if s.Config.PlannedQuestionCount != DefaultPlannedQuestions || s.Config.MaxFollowUpsPerTopic != DefaultMaxFollowUps {
		t.Errorf("defaults not applied: %+v", s.Config)
	}
	if s.Difficulty != model.DifficultyMedium {
		t.Errorf("default difficulty = %s, want medium", s.Difficulty)
	}
}

func TestTurnNumbersAndTimestamps(t *testing.T) {
	s := newActive(t)
	for i := 0; i < 3; i++ {
		at := t0.Add(time.Duration(i+1) * time.Minute)
		pose(t, s, s.PlanSkills[i], at)
		if _, err := AppendTurn(s, model.Answer{Text: "answer"}, evalWithScore(70), model.DecisionNewTopic, nil, at); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}
	if err := Validate(s); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for i, turn := range s.Turns {
		if turn.TurnNumber != i+1 {
			t.Errorf("turn %d has number %d", i, turn.TurnNumber)
		}
	}
}

func TestAppendWithoutPendingQuestion(t *testing.T) {
	s := newActive(t)
	_, err := AppendTurn(s, model.Answer{Text: "x"}, evalWithScore(50), model.DecisionNewTopic, nil, t0)
	if apperr.KindOf(err) != apperr.KindPrecondition {
		t.Errorf("err = %v, want precondition-failed", err)
	}
}

func TestTerminalRejectsMutation(t *testing.T) {
	s := newActive(t)
	if err := Terminate(s, t0.Add(time.Hour)); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if s.CompletedAt == nil {
		t.Fatalf("CompletedAt not set on terminal transition")
	}
	before := len(s.Turns)

	err := MarkPosed(s, model.Question{Text: "q", Topic: "x"}, t0.Add(2*time.Hour))
	if apperr.KindOf(err) != apperr.KindGone {
		t.Errorf("MarkPosed on terminal = %v, want gone", err)
	}
	_, err = AppendTurn(s, model.Answer{Text: "x"}, evalWithScore(50), model.DecisionNewTopic, nil, t0)
	if apperr.KindOf(err) != apperr.KindGone {
		t.Errorf("AppendTurn on terminal = %v, want gone", err)
	}
	if len(s.Turns) != before {
		t.Errorf("session mutated after terminal transition")
	}

	if err := Resume(s, t0); apperr.KindOf(err) != apperr.KindGone {
		t.Errorf("Resume on terminal = %v, want gone", err)
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	s := newActive(t)
	pose(t, s, "data structures", t0)
	if _, err := AppendTurn(s, model.Answer{Text: "a decent answer about arrays"}, evalWithScore(70), model.DecisionNewTopic, nil, t0.Add(time.Minute)); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}
	turnsBefore := len(s.Turns)
	scoresBefore := map[string]float64{}
	for k, v := range s.RollingScores {
		scoresBefore[k] = v
	}

	if err := Pause(s, t0.Add(2*time.Minute)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if s.Status != model.StatusPaused {
		t.Errorf("status = %s, want paused", s.Status)
	}
	if err := Resume(s, t0.Add(3*time.Minute)); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if s.Status != model.StatusActive {
		t.Errorf("status = %s, want active", s.Status)
	}
	if len(s.Turns) != turnsBefore {
		t.Errorf("turns changed across pause/resume")
	}
	for k, v := range scoresBefore {
		if s.RollingScores[k] != v {
			t.Errorf("rolling score %s changed across pause/resume", k)
		}
	}
}

func TestPauseRequiresActive(t *testing.T) {
	s := newActive(t)
	if err := Pause(s, t0); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := Pause(s, t0); apperr.KindOf(err) != apperr.KindPrecondition {
		t.Errorf("double pause = %v, want precondition-failed", err)
	}
}

func TestRollingScoresWeightRecent(t *testing.T) {
	s := newActive(t)
	pose(t, s, "data structures", t0)
	if _, err := AppendTurn(s, model.Answer{Text: "a"}, evalWithScore(40), model.DecisionNewTopic, nil, t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	pose(t, s, "system design", t0.Add(2*time.Minute))
	if _, err := AppendTurn(s, model.Answer{Text: "b"}, evalWithScore(90), model.DecisionNewTopic, nil, t0.Add(3*time.Minute)); err != nil {
		t.Fatal(err)
	}
	// 0.3*40 + 0.7*90 = 75
	got := s.RollingScores[model.MetricDepth]
	if got < 74.9 || got > 75.1 {
		t.Errorf("rolling depth = %v, want 75", got)
	}
}

func TestGapSeverityNonDecreasing(t *testing.T) {
	s := newActive(t)
	pose(t, s, "data structures", t0)
	if _, err := AppendTurn(s, model.Answer{Text: "a"}, evalWithScore(40), model.DecisionNewTopic,
		[]model.Gap{{Skill: "chaining", Type: model.GapKnowledge, Severity: model.SeverityHigh}}, t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	pose(t, s, "system design", t0.Add(2*time.Minute))
	if _, err := AppendTurn(s, model.Answer{Text: "b"}, evalWithScore(40), model.DecisionNewTopic,
		[]model.Gap{{Skill: "chaining", Type: model.GapKnowledge, Severity: model.SeverityLow}}, t0.Add(3*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if len(s.IdentifiedGaps) != 1 {
		t.Fatalf("gaps = %d, want deduplicated to 1", len(s.IdentifiedGaps))
	}
	g := s.IdentifiedGaps[0]
	if g.Severity != model.SeverityHigh {
		t.Errorf("severity = %s, want high (never downgraded)", g.Severity)
	}
	if g.FirstSeenTurn != 1 || len(g.EvidenceTurns) != 2 {
		t.Errorf("gap bookkeeping wrong: %+v", g)
	}
}

func TestDepthGapOnStrongTopicSlip(t *testing.T) {
	s := newActive(t)
	pose(t, s, "data structures", t0)
	if _, err := AppendTurn(s, model.Answer{Text: "a"}, evalWithScore(85), model.DecisionFollowUp, nil, t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	q := model.Question{Text: "follow-up", Topic: "data structures", SkillProbed: "data structures", IsFollowUp: true, ParentTurnNumber: 1}
	if err := MarkPosed(s, q, t0.Add(2*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, err := AppendTurn(s, model.Answer{Text: "b"}, evalWithScore(50), model.DecisionNewTopic, nil, t0.Add(3*time.Minute)); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, g := range s.IdentifiedGaps {
		if g.Type == model.GapDepth {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a depth gap after borderline on previously-strong topic, gaps=%+v", s.IdentifiedGaps)
	}
}

func TestDegradedQuestionFlagsTurn(t *testing.T) {
	s := newActive(t)
	q := model.Question{Text: "canned", Topic: "data structures", SkillProbed: "data structures", Degraded: true}
	if err := MarkPosed(s, q, t0); err != nil {
		t.Fatal(err)
	}
	turn, err := AppendTurn(s, model.Answer{Text: "a"}, evalWithScore(70), model.DecisionNewTopic, nil, t0.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if !turn.Evaluation.HasFlag(model.FlagLLMUnavailable) {
		t.Errorf("degraded question should flag the turn evaluation: %v", turn.Evaluation.Flags)
	}
}

func TestGoneErrorMatchesKind(t *testing.T) {
	s := newActive(t)
	_ = Terminate(s, t0)
	err := Pause(s, t0)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindGone {
		t.Errorf("err = %v, want apperr gone", err)
	}
}
