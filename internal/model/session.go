package model

import "time"

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionSealed SessionStatus = "sealed"
)

// Session is one candidate's timed attempt at a profile's bank
type Session struct {
	ID            string        `json:"id" bson:"_id"`
	CandidateID   string        `json:"candidateId" bson:"candidateId"`
	CandidateName string        `json:"candidateName" bson:"candidateName"`
	Profile       string        `json:"profile" bson:"profile"`
	QuestionIDs   []string      `json:"questionIds" bson:"questionIds"` // Bank order at start
	Status        SessionStatus `json:"status" bson:"status"`
	StartedAt     time.Time     `json:"startedAt" bson:"startedAt"`
	SubmittedAt   *time.Time    `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
	Answers       []Answer      `json:"answers" bson:"answers"`
}

// IsSealed reports whether the session no longer accepts answers
func (s *Session) IsSealed() bool {
	return s.Status == SessionSealed
}

// HasQuestion reports whether id was part of the bank snapshot
func (s *Session) HasQuestion(id string) bool {
	for _, q := range s.QuestionIDs {
		if q == id {
			return true
		}
	}
	return false
}

// AnswerFor returns the recorded answer for a question, or nil
func (s *Session) AnswerFor(questionID string) *Answer {
	for i := range s.Answers {
		if s.Answers[i].QuestionID == questionID {
			return &s.Answers[i]
		}
	}
	return nil
}

// MissingRequired lists required bank questions with no answer, in bank order
func (s *Session) MissingRequired(bank *Bank) []string {
	var missing []string
	for _, q := range bank.Questions {
		if !q.Required || !s.HasQuestion(q.ID) {
			continue
		}
		if s.AnswerFor(q.ID) == nil {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Progress is the candidate-facing view of an open session
type Progress struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
	Answered  int           `json:"answered"`
	Total     int           `json:"total"`
	Next      *QuestionView `json:"next,omitempty"`
	Deadline  *time.Time    `json:"deadline,omitempty"`
}

// CompletionPolicy decides whether unanswered required questions block submit
type CompletionPolicy string

const (
	PolicyAllowPartial    CompletionPolicy = "allow-partial"
	PolicyRequireComplete CompletionPolicy = "require-complete"
)

// Valid reports whether p is a known policy
func (p CompletionPolicy) Valid() bool {
	return p == PolicyAllowPartial || p == PolicyRequireComplete
}
