package model

import "time"

// Classification is the heuristic label derived from response latency
type Classification string

const (
	ClassUndetermined Classification = "undetermined"
	ClassImpulsive    Classification = "impulsive"
	ClassDeliberate   Classification = "deliberate"
	ClassHesitant     Classification = "hesitant"
)

// Pace buckets a single answer's latency
type Pace string

const (
	PaceFast    Pace = "fast"
	PaceSteady  Pace = "steady" // Between too-fast and optimal
	PaceOptimal Pace = "optimal"
	PaceSlow    Pace = "slow"
)

// CategoryScore is the subscore of one category
type CategoryScore struct {
	Earned   float64 `json:"earned" bson:"earned"`
	Possible float64 `json:"possible" bson:"possible"`
	Percent  float64 `json:"percent" bson:"percent"` // 0-100
}

// BehaviorSummary counts answers per pace bucket
type BehaviorSummary struct {
	FastResponses    int   `json:"fastResponses" bson:"fastResponses"`
	SteadyResponses  int   `json:"steadyResponses" bson:"steadyResponses"`
	OptimalResponses int   `json:"optimalResponses" bson:"optimalResponses"`
	SlowResponses    int   `json:"slowResponses" bson:"slowResponses"`
	TotalTimeMs      int64 `json:"totalTimeMs" bson:"totalTimeMs"`
}

// QuestionScore is the per-question line of a result
type QuestionScore struct {
	QuestionID string   `json:"questionId" bson:"questionId"`
	Category   Category `json:"category" bson:"category"`
	Weight     float64  `json:"weight" bson:"weight"`
	Answered   bool     `json:"answered" bson:"answered"`
	Choice     string   `json:"choice,omitempty" bson:"choice,omitempty"`
	Credit     float64  `json:"credit" bson:"credit"` // 0-1
	Points     float64  `json:"points" bson:"points"`
	ElapsedMs  int64    `json:"elapsedMs" bson:"elapsedMs"`
	Pace       Pace     `json:"pace,omitempty" bson:"pace,omitempty"`
}

// Result is the scored outcome of a sealed session
type Result struct {
	SessionID      string                     `json:"sessionId" bson:"_id"`
	CandidateID    string                     `json:"candidateId" bson:"candidateId"`
	CandidateName  string                     `json:"candidateName" bson:"candidateName"`
	Profile        string                     `json:"profile" bson:"profile"`
	TotalScore     float64                    `json:"totalScore" bson:"totalScore"` // 0-100
	Subscores      map[Category]CategoryScore `json:"subscores" bson:"subscores"`
	SkillScores    map[string]CategoryScore   `json:"skillScores,omitempty" bson:"skillScores,omitempty"` // Keyed by trait
	AvgLatencyMs   float64                    `json:"avgLatencyMs" bson:"avgLatencyMs"`
	Classification Classification             `json:"classification" bson:"classification"`
	Behavior       BehaviorSummary            `json:"behavior" bson:"behavior"`
	Breakdown      []QuestionScore            `json:"breakdown" bson:"breakdown"`
	Passed         bool                       `json:"passed" bson:"passed"`
	SubmittedAt    time.Time                  `json:"submittedAt" bson:"submittedAt"`
	ComputedAt     time.Time                  `json:"computedAt" bson:"computedAt"`
}

// ResultFilter narrows dashboard queries; zero values mean "any"
type ResultFilter struct {
	MinScore *float64  `json:"minScore,omitempty"`
	Category Category  `json:"category,omitempty"` // Result must have a subscore for it
	From     time.Time `json:"from,omitempty"`     // Inclusive
	To       time.Time `json:"to,omitempty"`       // Exclusive
	Profile  string    `json:"profile,omitempty"`
	Limit    int       `json:"limit,omitempty"`
}

// Matches applies the filter to a single result
func (f ResultFilter) Matches(r *Result) bool {
	if f.MinScore != nil && r.TotalScore < *f.MinScore {
		return false
	}
	if f.Category != "" {
		if _, ok := r.Subscores[f.Category]; !ok {
			return false
		}
	}
	if !f.From.IsZero() && r.SubmittedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.SubmittedAt.Before(f.To) {
		return false
	}
	if f.Profile != "" && r.Profile != f.Profile {
		return false
	}
	return true
}

// LeaderboardEntry is one row of the live ranking
type LeaderboardEntry struct {
	SessionID string  `json:"sessionId"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}
