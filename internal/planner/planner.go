// Package planner generates study roadmaps. Every milestone, duration and
// ordering decision comes from the rule table; the LLM only rewrites
// description text and is skipped entirely under reproducible mode.
package planner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/internal/ontology"
	"github.com/Sathvik2005/Prepforge-sub003/pkg"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RuleSetVersion = "rules-v3"

// Phraser is the phrasing-only LLM boundary.
type Phraser interface {
	PhraseText(ctx context.Context, prompt string, timeout time.Duration) (string, error)
}

type Planner struct {
	ont     *ontology.Ontology
	phraser Phraser
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func New(ont *ontology.Ontology, phraser Phraser, phraseTimeout time.Duration, log *zap.Logger) *Planner {
	return &Planner{ont: ont, phraser: phraser, timeout: phraseTimeout, now: time.Now, log: log}
}

// WithClock fixes the planner clock; tests use it to pin start dates.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

// milestone effort in hours by experience level; the rule table source of
// milestone durations.
var effortHours = map[model.ExperienceLevel]int{
	model.ExperienceBeginner:     14,
	model.ExperienceIntermediate: 10,
	model.ExperienceAdvanced:     7,
	model.ExperienceExpert:       5,
}

// Generate builds the roadmap for req. Milestone IDs are content-derived so
// identical inputs yield identical IDs.
func (p *Planner) Generate(ctx context.Context, req model.RoadmapRequest) (*model.Roadmap, error) {
	if req.UserID == "" || req.TargetRole == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "user_id and target_role are required")
	}
	if req.WeeklyHours <= 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "weekly_hours must be positive")
	}
	if req.ExperienceLevel == "" {
		req.ExperienceLevel = model.ExperienceIntermediate
	}

	start := p.now().UTC().Truncate(24 * time.Hour)
	totalDays := int(req.TargetDate.Sub(start).Hours() / 24)
	if totalDays < 1 {
		return nil, apperr.New(apperr.KindInvalidInput, "target_date must be in the future")
	}

	focus := p.focusSkills(req)
	if len(focus) == 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "no focus areas given or derivable from the job description")
	}

	prov := model.Provenance{
		RuleSetVersion: RuleSetVersion,
		GeneratedAt:    p.now().UTC(),
		Inputs:         req,
		GeneratorParams: map[string]string{
			"start_date":       start.Format("2006-01-02"),
			"ontology_version": p.ont.Ver(),
		},
	}

	feasibility := p.feasibility(req, totalDays, focus, &prov)
	phases := p.buildPhases(req, focus, &prov)

	var all []model.Milestone
	for _, ph := range phases {
		all = append(all, ph.Milestones...)
	}

	rm := &model.Roadmap{
		ID:               roadmapID(req, start),
		UserID:           req.UserID,
		TargetRole:       req.TargetRole,
		Phases:           phases,
		Milestones:       all,
		FeasibilityScore: feasibility,
		Provenance:       prov,
		CreatedAt:        p.now().UTC(),
	}

	p.phrase(ctx, req, rm)
	return rm, nil
}

func (p *Planner) focusSkills(req model.RoadmapRequest) []string {
	seen := map[string]bool{}
	var out []string
	add := func(raw string) {
		canon := p.ont.Normalize(raw)
		if canon != "" && !seen[canon] {
			seen[canon] = true
			out = append(out, canon)
		}
	}
	for _, f := range req.FocusAreas {
		add(f)
	}
	if len(out) == 0 && req.JDText != "" {
		lower := strings.ToLower(req.JDText)
		for _, term := range p.ont.KnownTerms() {
			if strings.Contains(lower, term) {
				add(term)
			}
		}
	}
	if len(out) > 8 {
		out = out[:8]
	}
	return out
}

type feasibilityRule struct {
	name      string
	threshold float64
	weight    int
	value     func(req model.RoadmapRequest, totalDays int, focus []string) float64
	passed    func(value, threshold float64) bool
}

var feasibilityRules = []feasibilityRule{
	{
		name: "timeline-length-days", threshold: 14, weight: 30,
		value:  func(_ model.RoadmapRequest, totalDays int, _ []string) float64 { return float64(totalDays) },
		passed: func(v, t float64) bool { return v >= t },
	},
	{
		name: "weekly-hours-realism", threshold: 40, weight: 25,
		value:  func(req model.RoadmapRequest, _ int, _ []string) float64 { return float64(req.WeeklyHours) },
		passed: func(v, t float64) bool { return v >= 4 && v <= t },
	},
	{
		name: "focus-area-breadth", threshold: 5, weight: 20,
		value:  func(_ model.RoadmapRequest, _ int, focus []string) float64 { return float64(len(focus)) },
		passed: func(v, t float64) bool { return v <= t },
	},
	{
		name: "experience-vs-target-seniority", threshold: 3, weight: 25,
		value: func(req model.RoadmapRequest, _ int, _ []string) float64 {
			rank := map[model.ExperienceLevel]float64{
				model.ExperienceBeginner: 1, model.ExperienceIntermediate: 2,
				model.ExperienceAdvanced: 3, model.ExperienceExpert: 4,
			}[req.ExperienceLevel]
			return rank
		},
		passed: func(v, t float64) bool { return v >= t },
	},
}

func seniorRole(role string) bool {
	lower := strings.ToLower(role)
	return strings.Contains(lower, "senior") || strings.Contains(lower, "staff") || strings.Contains(lower, "principal")
}

func (p *Planner) feasibility(req model.RoadmapRequest, totalDays int, focus []string, prov *model.Provenance) model.Feasibility {
	out := model.Feasibility{}
	for _, rule := range feasibilityRules {
		if rule.name == "experience-vs-target-seniority" && !seniorRole(req.TargetRole) {
			// non-senior targets pass the experience gate outright
			out.Score += rule.weight
			out.Reasons = append(out.Reasons, model.FeasibilityReason{
				Rule: rule.name, Threshold: 0, Value: 0, Passed: true,
			})
			prov.DeterministicLog = append(prov.DeterministicLog, model.RuleTrigger{
				RuleName: rule.name, OutputSnippet: "non-senior target, gate waived", TriggeredValue: req.TargetRole,
			})
			continue
		}
		v := rule.value(req, totalDays, focus)
		ok := rule.passed(v, rule.threshold)
		if ok {
			out.Score += rule.weight
		}
		out.Reasons = append(out.Reasons, model.FeasibilityReason{
			Rule: rule.name, Threshold: rule.threshold, Value: v, Passed: ok,
		})
		prov.DeterministicLog = append(prov.DeterministicLog, model.RuleTrigger{
			RuleName:       rule.name,
			OutputSnippet:  fmt.Sprintf("passed=%t", ok),
			TriggeredValue: fmt.Sprintf("%g", v),
		})
	}
	return out
}

func (p *Planner) buildPhases(req model.RoadmapRequest, focus []string, prov *model.Provenance) []model.Phase {
	hours := effortHours[req.ExperienceLevel]
	durationDays := func(effort int) int {
		d := (effort*7 + req.WeeklyHours - 1) / req.WeeklyHours
		if d < 1 {
			d = 1
		}
		return d
	}

	order := 0
	mk := func(skill, kind, title string, effort int) model.Milestone {
		order++
		m := model.Milestone{
			ID:           milestoneID(req, skill, kind),
			Skill:        skill,
			Title:        title,
			Description:  fmt.Sprintf("%s for %s", title, req.TargetRole),
			DurationDays: durationDays(effort),
			Order:        order,
		}
		prov.DeterministicLog = append(prov.DeterministicLog, model.RuleTrigger{
			RuleName:       "milestone-" + kind,
			OutputSnippet:  m.Title,
			TriggeredValue: skill,
		})
		return m
	}

	var learn, drill []model.Milestone
	for _, skill := range focus {
		learn = append(learn, mk(skill, "learn", fmt.Sprintf("Build working depth in %s", skill), hours))
		drill = append(drill, mk(skill, "drill", fmt.Sprintf("Timed practice drills on %s", skill), hours/2+1))
	}
	polish := []model.Milestone{
		mk("communication", "mock", "Full-length mock interviews", hours),
		mk("communication", "review", "Review recordings and close remaining gaps", hours/2+1),
	}

	phases := []model.Phase{
		{Name: "foundations", Order: 1, Milestones: learn},
		{Name: "applied practice", Order: 2, Milestones: drill},
		{Name: "interview polish", Order: 3, Milestones: polish},
	}
	for i := range phases {
		phases[i].Slug = pkg.GenerateSlug(phases[i].Name)
		total := 0
		for _, m := range phases[i].Milestones {
			total += m.DurationDays
		}
		phases[i].DurationDays = total
	}
	return phases
}

// phrase rewrites milestone descriptions via the LLM unless reproducible mode
// is on. Failures keep the deterministic text; every call lands in the
// phrasing log either way.
func (p *Planner) phrase(ctx context.Context, req model.RoadmapRequest, rm *model.Roadmap) {
	if req.Reproducible || p.phraser == nil {
		return
	}
	for pi := range rm.Phases {
		for mi := range rm.Phases[pi].Milestones {
			m := &rm.Phases[pi].Milestones[mi]
			prompt := fmt.Sprintf("Describe a study milestone titled %q for someone preparing for a %s role.", m.Title, req.TargetRole)
			text, err := p.phraser.PhraseText(ctx, prompt, p.timeout)
			rm.Provenance.AIPhrasingLog = append(rm.Provenance.AIPhrasingLog, model.PhrasingCall{
				Field:      fmt.Sprintf("phases[%d].milestones[%d].description", pi, mi),
				PromptHash: hashPrompt(prompt),
				Timestamp:  p.now().UTC(),
			})
			if err != nil {
				if p.log != nil {
					p.log.Sugar().Warnw("milestone phrasing degraded", "milestone", m.ID, "err", err)
				}
				continue
			}
			m.Description = strings.TrimSpace(text)
		}
	}
	// flat list mirrors the phase contents
	rm.Milestones = rm.Milestones[:0]
	for _, ph := range rm.Phases {
		rm.Milestones = append(rm.Milestones, ph.Milestones...)
	}
}

func hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:8])
}

func milestoneID(req model.RoadmapRequest, skill, kind string) string {
	seed := fmt.Sprintf("%s|%s|%s|%s|%s", RuleSetVersion, req.UserID, req.TargetRole, skill, kind)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func roadmapID(req model.RoadmapRequest, start time.Time) string {
	seed := fmt.Sprintf("%s|%s|%s|%s", RuleSetVersion, req.UserID, req.TargetRole, start.Format("2006-01-02"))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}
