package orchestrator

import (
	"fmt"
	"math"
	"sort"

	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

const maxRecommendations = 5

// computeReadiness derives the terminal assessment from session state alone.
// No LLM call is made here, so the summary is available even when phrasing
// is down.
func (o *Orchestrator) computeReadiness(s *model.Session) *model.Readiness {
	r := &model.Readiness{
		SessionID:      s.ID,
		UserID:         s.UserID,
		CategoryScores: map[string]int{},
		IdentifiedGaps: s.IdentifiedGaps,
		GeneratedAt:    o.now(),
	}

	var sum float64
	var n int
	for metric, score := range s.RollingScores {
		r.CategoryScores[metric] = int(math.Round(score))
		sum += score
		n++
	}

	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	}

	critical := 0
	for _, g := range s.IdentifiedGaps {
		if g.Severity == model.SeverityCritical {
			critical++
		}
	}
	penalty := math.Min(float64(critical)*10, 30)

	overall := mean - penalty + improvementBonus(s.Turns)
	r.OverallScore = clampScore(int(math.Round(overall)))

	switch {
	case r.OverallScore >= 80:
		r.ReadinessLevel = model.ReadinessHighlyConfident
	case r.OverallScore >= 65:
		r.ReadinessLevel = model.ReadinessInterviewReady
	case r.OverallScore >= 40:
		r.ReadinessLevel = model.ReadinessNeedsWork
	default:
		r.ReadinessLevel = model.ReadinessNotReady
	}

	r.Recommendations = o.recommendations(s)
	return r
}

// improvementBonus rewards a trajectory that ends stronger than it started:
// half the difference between the mean of the last third of turns and the
// mean of the first third, floored at zero.
func improvementBonus(turns []model.Turn) float64 {
	if len(turns) < 3 {
		return 0
	}
	third := len(turns) / 3
	first := meanScore(turns[:third])
	last := meanScore(turns[len(turns)-third:])
	if last <= first {
		return 0
	}
	return (last - first) / 2
}

func meanScore(turns []model.Turn) float64 {
	var sum float64
	for _, t := range turns {
		sum += float64(t.Evaluation.Score)
	}
	return sum / float64(len(turns))
}

// recommendations turns the worst gaps into study pointers, highest severity
// first, ties broken by first appearance so output is stable.
func (o *Orchestrator) recommendations(s *model.Session) []string {
	gaps := make([]model.Gap, len(s.IdentifiedGaps))
	copy(gaps, s.IdentifiedGaps)
	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Severity != gaps[j].Severity {
			return gaps[i].Severity.Rank() > gaps[j].Severity.Rank()
		}
		return gaps[i].FirstSeenTurn < gaps[j].FirstSeenTurn
	})

	var recs []string
	for _, g := range gaps {
		if len(recs) == maxRecommendations {
			break
		}
		cat := o.ont.CategoryOf(g.Skill)
		switch g.Type {
		case model.GapKnowledge:
			if cat != "" {
				recs = append(recs, fmt.Sprintf("Review %s fundamentals, starting with %s.", cat, g.Skill))
			} else {
				recs = append(recs, fmt.Sprintf("Review the fundamentals of %s.", g.Skill))
			}
		case model.GapDepth:
			recs = append(recs, fmt.Sprintf("Practice explaining %s beyond the surface: trade-offs, failure modes, and a concrete example.", g.Skill))
		default:
			recs = append(recs, fmt.Sprintf("Drill %s with timed practice questions.", g.Skill))
		}
	}
	if len(recs) == 0 && len(s.StrugglingAreas) > 0 {
		topics := make([]string, 0, len(s.StrugglingAreas))
		for t := range s.StrugglingAreas {
			topics = append(topics, t)
		}
		sort.Strings(topics)
		recs = append(recs, fmt.Sprintf("Revisit %s where answers scored below the bar.", topics[0]))
	}
	return recs
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
