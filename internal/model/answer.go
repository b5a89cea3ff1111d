package model

import "time"

// AnswerKind tags which response variant an answer carries
type AnswerKind string

const (
	AnswerTechnical AnswerKind = "technical"
	AnswerEthical   AnswerKind = "ethical"
)

// Rubric maps an ethical grade to a credit fraction in [0, 1]
type Rubric map[Grade]float64

// Fraction returns the credit for g; unknown grades earn nothing
func (r Rubric) Fraction(g Grade) float64 {
	v, ok := r[g]
	if !ok || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Scorable is anything that can be credited against a question
type Scorable interface {
	// Credit returns the earned fraction of the question's weight
	Credit(q *Question, rubric Rubric) float64
}

// TechnicalResponse is an exact-match answer
type TechnicalResponse struct {
	Choice string
}

func (r TechnicalResponse) Credit(q *Question, _ Rubric) float64 {
	if q.CorrectChoice != "" && r.Choice == q.CorrectChoice {
		return 1
	}
	return 0
}

// EthicalResponse is graded on the configured rubric
type EthicalResponse struct {
	Choice string
}

func (r EthicalResponse) Credit(q *Question, rubric Rubric) float64 {
	grade, ok := q.Grades[r.Choice]
	if !ok {
		grade = GradePoor
	}
	return rubric.Fraction(grade)
}

// Answer is one recorded response inside a session
type Answer struct {
	QuestionID string     `json:"questionId" bson:"questionId"`
	Kind       AnswerKind `json:"kind" bson:"kind"`
	Choice     string     `json:"choice" bson:"choice"`
	ElapsedMs  int64      `json:"elapsedMs" bson:"elapsedMs"`
	AnsweredAt time.Time  `json:"answeredAt" bson:"answeredAt"`
}

// NewAnswer builds the answer variant matching the question's category
func NewAnswer(q *Question, choice string, elapsedMs int64, at time.Time) Answer {
	kind := AnswerTechnical
	if q.Category == CategoryEthical {
		kind = AnswerEthical
	}
	return Answer{
		QuestionID: q.ID,
		Kind:       kind,
		Choice:     choice,
		ElapsedMs:  elapsedMs,
		AnsweredAt: at,
	}
}

// Scorable resolves the tagged variant
func (a Answer) Scorable() Scorable {
	switch a.Kind {
	case AnswerEthical:
		return EthicalResponse{Choice: a.Choice}
	default:
		return TechnicalResponse{Choice: a.Choice}
	}
}
