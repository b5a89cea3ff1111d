package scoring

import (
	"sort"
	"time"

	"decihire/internal/model"
)

// Summarize aggregates a profile's results. Results of other profiles are skipped.
func Summarize(profile string, results []*model.Result, computedAt time.Time) *model.ProfileStats {
	stats := &model.ProfileStats{
		Profile:         profile,
		AvgSubscores:    make(map[model.Category]float64),
		Classifications: make(map[model.Classification]int),
		ComputedAt:      computedAt,
	}

	var scores []float64
	var scoreSum, latencySum float64
	var timed int
	subSum := make(map[model.Category]float64)
	subCount := make(map[model.Category]int)

	for _, r := range results {
		if r.Profile != profile {
			continue
		}
		stats.Candidates++
		if r.Passed {
			stats.Passed++
		}
		scores = append(scores, r.TotalScore)
		scoreSum += r.TotalScore
		stats.Classifications[r.Classification]++
		for cat, sub := range r.Subscores {
			subSum[cat] += sub.Percent
			subCount[cat]++
		}
		if r.AvgLatencyMs > 0 {
			latencySum += r.AvgLatencyMs
			timed++
		}
	}
	if stats.Candidates == 0 {
		return stats
	}

	n := float64(stats.Candidates)
	stats.PassRate = round2(float64(stats.Passed) / n)
	stats.AvgScore = round2(scoreSum / n)

	sort.Float64s(scores)
	stats.BestScore = scores[len(scores)-1]
	mid := len(scores) / 2
	if len(scores)%2 == 1 {
		stats.MedianScore = scores[mid]
	} else {
		stats.MedianScore = round2((scores[mid-1] + scores[mid]) / 2)
	}

	for cat, sum := range subSum {
		stats.AvgSubscores[cat] = round2(sum / float64(subCount[cat]))
	}
	if timed > 0 {
		stats.AvgLatencyMs = round2(latencySum / float64(timed))
	}
	return stats
}
