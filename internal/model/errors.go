package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinels for errors.Is; the typed errors below unwrap to them
var (
	ErrDuplicateSession  = errors.New("candidate already has an open session")
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrDuplicateAnswer   = errors.New("question already answered")
	ErrSessionClosed     = errors.New("session is sealed")
	ErrIncompleteSession = errors.New("session is incomplete")
	ErrStoreUnavailable  = errors.New("store unavailable")

	ErrSessionNotFound    = errors.New("session not found")
	ErrResultNotFound     = errors.New("result not found")
	ErrSessionOpen        = errors.New("session has not been submitted")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrInvalidAnswer      = errors.New("invalid answer")
	ErrInvalidQuestion    = errors.New("invalid question")
	ErrQuestionPublished  = errors.New("question is published and immutable")
	ErrUnknownProfile     = errors.New("profile has no published questions")
	ErrInvitationNotFound = errors.New("invitation not found or expired")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrTimeLimitExceeded  = errors.New("session time limit exceeded")
)

type DuplicateSessionError struct {
	CandidateID string
	SessionID   string // The session that is still open, when known
}

func (e *DuplicateSessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("candidate %s: %v", e.CandidateID, ErrDuplicateSession)
	}
	return fmt.Sprintf("candidate %s: %v (%s)", e.CandidateID, ErrDuplicateSession, e.SessionID)
}

func (e *DuplicateSessionError) Unwrap() error { return ErrDuplicateSession }

type UnknownQuestionError struct {
	SessionID  string
	QuestionID string
}

func (e *UnknownQuestionError) Error() string {
	return fmt.Sprintf("session %s: %v %s", e.SessionID, ErrUnknownQuestion, e.QuestionID)
}

func (e *UnknownQuestionError) Unwrap() error { return ErrUnknownQuestion }

type DuplicateAnswerError struct {
	SessionID  string
	QuestionID string
}

func (e *DuplicateAnswerError) Error() string {
	return fmt.Sprintf("session %s: %s: %v", e.SessionID, e.QuestionID, ErrDuplicateAnswer)
}

func (e *DuplicateAnswerError) Unwrap() error { return ErrDuplicateAnswer }

type SessionClosedError struct {
	SessionID string
}

func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("session %s: %v", e.SessionID, ErrSessionClosed)
}

func (e *SessionClosedError) Unwrap() error { return ErrSessionClosed }

type IncompleteSessionError struct {
	SessionID string
	Missing   []string
}

func (e *IncompleteSessionError) Error() string {
	return fmt.Sprintf("session %s: %v: missing %s", e.SessionID, ErrIncompleteSession, strings.Join(e.Missing, ", "))
}

func (e *IncompleteSessionError) Unwrap() error { return ErrIncompleteSession }

// StoreUnavailableError wraps a transient persistence failure
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStoreUnavailable, e.Err)
}

// Is lets both the sentinel and the cause match
func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// InvalidAnswerError reports a malformed answer payload
type InvalidAnswerError struct {
	SessionID  string
	QuestionID string
	Reason     string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("session %s: %s: %v: %s", e.SessionID, e.QuestionID, ErrInvalidAnswer, e.Reason)
}

func (e *InvalidAnswerError) Unwrap() error { return ErrInvalidAnswer }

// InvalidQuestionError reports a question that cannot be scored as written
type InvalidQuestionError struct {
	QuestionID string
	Reason     string
}

func (e *InvalidQuestionError) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("%v: %s", ErrInvalidQuestion, e.Reason)
	}
	return fmt.Sprintf("question %s: %v: %s", e.QuestionID, ErrInvalidQuestion, e.Reason)
}

func (e *InvalidQuestionError) Unwrap() error { return ErrInvalidQuestion }

// TimeLimitError rejects an answer that arrives after the session deadline
type TimeLimitError struct {
	SessionID string
	Deadline  time.Time
}

func (e *TimeLimitError) Error() string {
	return fmt.Sprintf("session %s: %v at %s", e.SessionID, ErrTimeLimitExceeded, e.Deadline.Format(time.RFC3339))
}

func (e *TimeLimitError) Unwrap() error { return ErrTimeLimitExceeded }
