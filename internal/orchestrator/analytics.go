package orchestrator

import (
	"context"
	"math"
	"sort"

	"github.com/Sathvik2005/Prepforge-sub003/pkg"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

const analyticsWindow = 20

// GetAnalytics aggregates a user's stored readiness summaries into trend
// data. Reads only, no session mutation.
func (o *Orchestrator) GetAnalytics(ctx context.Context, userID string) (*model.UserAnalytics, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "user_id is required")
	}
	summaries, err := o.sessions.ReadinessByUser(ctx, userID, analyticsWindow)
	if err != nil {
		return nil, err
	}

	a := &model.UserAnalytics{
		UserID:            userID,
		CompletedSessions: len(summaries),
		ScoreTrend:        []int{},
		FrequentGapSkills: []string{},
		CategoryAverages:  map[string]float64{},
	}
	if len(summaries) == 0 {
		return a, nil
	}

	// ReadinessByUser returns newest first; the trend reads oldest to newest.
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].GeneratedAt.Before(summaries[j].GeneratedAt)
	})

	gapCounts := map[string]int{}
	catSums := map[string]float64{}
	catCounts := map[string]int{}
	var total float64
	for _, s := range summaries {
		a.ScoreTrend = append(a.ScoreTrend, s.OverallScore)
		total += float64(s.OverallScore)
		for _, g := range s.IdentifiedGaps {
			gapCounts[g.Skill]++
		}
		for cat, score := range s.CategoryScores {
			catSums[cat] += float64(score)
			catCounts[cat]++
		}
	}
	a.AverageScore = math.Round(total/float64(len(summaries))*10) / 10
	a.LatestLevel = summaries[len(summaries)-1].ReadinessLevel
	a.ScoreGrowthPct = pkg.CalculateGrowth(a.ScoreTrend[len(a.ScoreTrend)-1], a.ScoreTrend[0])
	for cat, sum := range catSums {
		a.CategoryAverages[cat] = math.Round(sum/float64(catCounts[cat])*10) / 10
	}

	type gc struct {
		skill string
		count int
	}
	gaps := make([]gc, 0, len(gapCounts))
	for skill, count := range gapCounts {
		if count >= 2 {
			gaps = append(gaps, gc{skill, count})
		}
	}
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].count != gaps[j].count {
			return gaps[i].count > gaps[j].count
		}
		return gaps[i].skill < gaps[j].skill
	})
	for _, g := range gaps {
		a.FrequentGapSkills = append(a.FrequentGapSkills, g.skill)
	}
	return a, nil
}
