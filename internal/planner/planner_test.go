package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/internal/ontology"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestPlanner(phraser Phraser) *Planner {
	return New(ontology.New(), phraser, time.Second, nil).WithClock(fixedClock)
}

func validRequest() model.RoadmapRequest {
	return model.RoadmapRequest{
		UserID:          "u1",
		TargetRole:      "backend engineer",
		TargetDate:      fixedNow.AddDate(0, 2, 0),
		WeeklyHours:     10,
		ExperienceLevel: model.ExperienceIntermediate,
		FocusAreas:      []string{"k8s", "Postgres", "system design"},
		Reproducible:    true,
	}
}

func TestReproducibleRunsAreIdentical(t *testing.T) {
	p := newTestPlanner(nil)
	req := validRequest()

	a, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if a.ID != b.ID {
		t.Errorf("roadmap IDs differ: %s vs %s", a.ID, b.ID)
	}
	if len(a.Milestones) != len(b.Milestones) {
		t.Fatalf("milestone counts differ: %d vs %d", len(a.Milestones), len(b.Milestones))
	}
	for i := range a.Milestones {
		ma, mb := a.Milestones[i], b.Milestones[i]
		if ma.ID != mb.ID || ma.Order != mb.Order || ma.DurationDays != mb.DurationDays || ma.Title != mb.Title {
			t.Errorf("milestone %d differs: %+v vs %+v", i, ma, mb)
		}
	}
	if a.FeasibilityScore.Score != b.FeasibilityScore.Score {
		t.Errorf("feasibility differs: %d vs %d", a.FeasibilityScore.Score, b.FeasibilityScore.Score)
	}
	if len(a.Provenance.AIPhrasingLog) != 0 {
		t.Errorf("reproducible run must not call the phraser: %d calls", len(a.Provenance.AIPhrasingLog))
	}
}

func TestFocusAreasNormalized(t *testing.T) {
	p := newTestPlanner(nil)
	rm, err := p.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if rm.Phases[0].Milestones[0].Skill != "kubernetes" {
		t.Errorf("skill = %s, want k8s folded to kubernetes", rm.Phases[0].Milestones[0].Skill)
	}
}

func TestPhaseStructure(t *testing.T) {
	p := newTestPlanner(nil)
	rm, err := p.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if len(rm.Phases) != 3 {
		t.Fatalf("phases = %d, want 3", len(rm.Phases))
	}
	// 3 focus skills: 3 learn + 3 drill + 2 polish
	if len(rm.Milestones) != 8 {
		t.Errorf("milestones = %d, want 8", len(rm.Milestones))
	}
	for i, m := range rm.Milestones {
		if m.Order != i+1 {
			t.Errorf("milestone %d order = %d", i, m.Order)
		}
		if m.DurationDays < 1 {
			t.Errorf("milestone %s duration = %d", m.ID, m.DurationDays)
		}
	}
	for _, ph := range rm.Phases {
		sum := 0
		for _, m := range ph.Milestones {
			sum += m.DurationDays
		}
		if ph.DurationDays != sum {
			t.Errorf("phase %s duration %d != milestone sum %d", ph.Name, ph.DurationDays, sum)
		}
	}
}

func TestFeasibilityRules(t *testing.T) {
	p := newTestPlanner(nil)

	good, err := p.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if good.FeasibilityScore.Score != 100 {
		t.Errorf("score = %d, want 100 for a comfortable plan: %+v", good.FeasibilityScore.Score, good.FeasibilityScore.Reasons)
	}

	rushed := validRequest()
	rushed.TargetDate = fixedNow.AddDate(0, 0, 7)
	rushed.TargetRole = "senior backend engineer"
	rushed.ExperienceLevel = model.ExperienceBeginner
	rm, err := p.Generate(context.Background(), rushed)
	if err != nil {
		t.Fatal(err)
	}
	if rm.FeasibilityScore.Score >= good.FeasibilityScore.Score {
		t.Errorf("rushed senior plan should score below comfortable plan: %d", rm.FeasibilityScore.Score)
	}
	var sawTimeline, sawExperience bool
	for _, r := range rm.FeasibilityScore.Reasons {
		if r.Rule == "timeline-length-days" {
			sawTimeline = true
			if r.Passed {
				t.Errorf("7-day timeline should fail: %+v", r)
			}
		}
		if r.Rule == "experience-vs-target-seniority" {
			sawExperience = true
			if r.Passed {
				t.Errorf("beginner vs senior should fail: %+v", r)
			}
		}
	}
	if !sawTimeline || !sawExperience {
		t.Errorf("reasons missing rules: %+v", rm.FeasibilityScore.Reasons)
	}
}

func TestProvenanceRecordsRules(t *testing.T) {
	p := newTestPlanner(nil)
	rm, err := p.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if rm.Provenance.RuleSetVersion != RuleSetVersion {
		t.Errorf("rule set version = %s", rm.Provenance.RuleSetVersion)
	}
	if len(rm.Provenance.DeterministicLog) == 0 {
		t.Fatalf("deterministic log empty")
	}
	if rm.Provenance.GeneratorParams["start_date"] != "2025-06-01" {
		t.Errorf("start_date = %s", rm.Provenance.GeneratorParams["start_date"])
	}
}

type scriptedPhraser struct {
	fail  bool
	calls int
}

func (s *scriptedPhraser) PhraseText(context.Context, string, time.Duration) (string, error) {
	s.calls++
	if s.fail {
		return "", errors.New("upstream down")
	}
	return "A nicely phrased milestone description.", nil
}

func TestPhrasingLoggedButNeverDecides(t *testing.T) {
	ph := &scriptedPhraser{}
	p := newTestPlanner(ph)
	req := validRequest()
	req.Reproducible = false

	rm, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if ph.calls != len(rm.Milestones) {
		t.Errorf("phraser calls = %d, want one per milestone (%d)", ph.calls, len(rm.Milestones))
	}
	if len(rm.Provenance.AIPhrasingLog) != ph.calls {
		t.Errorf("phrasing log = %d entries, want %d", len(rm.Provenance.AIPhrasingLog), ph.calls)
	}

	// the deterministic core must match a reproducible run
	req2 := validRequest()
	base, err := p.Generate(context.Background(), req2)
	if err != nil {
		t.Fatal(err)
	}
	if len(base.Milestones) != len(rm.Milestones) {
		t.Fatalf("milestone counts differ with phrasing on")
	}
	for i := range base.Milestones {
		if base.Milestones[i].ID != rm.Milestones[i].ID ||
			base.Milestones[i].DurationDays != rm.Milestones[i].DurationDays ||
			base.Milestones[i].Order != rm.Milestones[i].Order {
			t.Errorf("phrasing changed the deterministic core at %d", i)
		}
	}
}

func TestPhrasingFailureDegrades(t *testing.T) {
	ph := &scriptedPhraser{fail: true}
	p := newTestPlanner(ph)
	req := validRequest()
	req.Reproducible = false

	rm, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("phrasing failure must not fail planning: %v", err)
	}
	for _, m := range rm.Milestones {
		if m.Description == "" {
			t.Errorf("milestone %s lost its deterministic description", m.ID)
		}
	}
}

func TestValidation(t *testing.T) {
	p := newTestPlanner(nil)
	bad := validRequest()
	bad.WeeklyHours = 0
	if _, err := p.Generate(context.Background(), bad); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Errorf("err = %v, want invalid-input", err)
	}
	past := validRequest()
	past.TargetDate = fixedNow.AddDate(0, 0, -1)
	if _, err := p.Generate(context.Background(), past); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Errorf("err = %v, want invalid-input for past date", err)
	}
}
