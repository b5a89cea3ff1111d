package model

import "time"

// ProfileStats aggregates the results of one profile for the dashboard
type ProfileStats struct {
	Profile         string                 `json:"profile"`
	Candidates      int                    `json:"candidates"`
	Passed          int                    `json:"passed"`
	PassRate        float64                `json:"passRate"` // 0-1
	AvgScore        float64                `json:"avgScore"`
	MedianScore     float64                `json:"medianScore"`
	BestScore       float64                `json:"bestScore"`
	AvgSubscores    map[Category]float64   `json:"avgSubscores"` // Over results that have the category
	Classifications map[Classification]int `json:"classifications"`
	AvgLatencyMs    float64                `json:"avgLatencyMs"`
	ComputedAt      time.Time              `json:"computedAt"`
}
