package scoring

import (
	"sort"

	"decihire/internal/model"
)

// Less orders results for the dashboard: score desc, then earliest
// submission, then session id so the order is total.
func Less(a, b *model.Result) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.SessionID < b.SessionID
}

// Rank sorts results in place and returns them
func Rank(results []*model.Result) []*model.Result {
	sort.SliceStable(results, func(i, j int) bool {
		return Less(results[i], results[j])
	})
	return results
}
