package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"decihire/internal/cache"
	"decihire/internal/model"
	"decihire/internal/repository"
	"decihire/internal/scoring"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RecorderService captures candidate sessions from start to submit
type RecorderService struct {
	sessions repository.SessionRepo
	banks    BankSource
	reports  *ReportService
	tx       repository.TxRunner
	lock     cache.SessionLock
	scoring  scoring.Config
	policy   model.CompletionPolicy
	retry    RetryPolicy
	limit    time.Duration
	now      func() time.Time
	newID    func() string
}

// NewRecorderService creates a new recorder service
func NewRecorderService(
	sessions repository.SessionRepo,
	banks BankSource,
	reports *ReportService,
	tx repository.TxRunner,
	lock cache.SessionLock,
	scoringCfg scoring.Config,
	policy model.CompletionPolicy,
	retry RetryPolicy,
) *RecorderService {
	return &RecorderService{
		sessions: sessions,
		banks:    banks,
		reports:  reports,
		tx:       tx,
		lock:     lock,
		scoring:  scoringCfg,
		policy:   policy,
		retry:    retry,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:    func() string { return uuid.New().String() },
	}
}

// SetTimeLimit bounds how long after start a session accepts answers; zero disables it
func (s *RecorderService) SetTimeLimit(d time.Duration) {
	s.limit = d
}

// deadline returns when the session stops accepting answers, nil without a limit
func (s *RecorderService) deadline(session *model.Session) *time.Time {
	if s.limit <= 0 {
		return nil
	}
	d := session.StartedAt.Add(s.limit)
	return &d
}

func (s *RecorderService) expired(session *model.Session, now time.Time) bool {
	d := s.deadline(session)
	return d != nil && now.After(*d)
}

// StartSession opens a session on a snapshot of the profile's bank
func (s *RecorderService) StartSession(ctx context.Context, candidateID, candidateName, profile string) (*model.Session, error) {
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" || profile == "" {
		return nil, fmt.Errorf("%w: candidate id and profile are required", model.ErrInvalidRequest)
	}

	existing, err := s.findOpen(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &model.DuplicateSessionError{CandidateID: candidateID, SessionID: existing.ID}
	}

	bank, err := s.banks.Bank(ctx, profile)
	if err != nil {
		return nil, err
	}
	if bank.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownProfile, profile)
	}

	session := &model.Session{
		ID:            s.newID(),
		CandidateID:   candidateID,
		CandidateName: strings.TrimSpace(candidateName),
		Profile:       profile,
		QuestionIDs:   bank.IDs(),
		Status:        model.SessionOpen,
		StartedAt:     s.now(),
		Answers:       []model.Answer{},
	}

	err = s.retry.Do(ctx, "create session", func(ctx context.Context) error {
		return s.sessions.Create(ctx, session)
	})
	var dup *model.DuplicateSessionError
	if errors.As(err, &dup) {
		// Lost race with another start, or a retried insert that had already landed
		open, findErr := s.findOpen(ctx, candidateID)
		if findErr == nil && open != nil {
			if open.ID == session.ID {
				return open, nil
			}
			dup.SessionID = open.ID
		}
		return nil, dup
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"session":   session.ID,
		"candidate": candidateID,
		"profile":   profile,
		"questions": len(session.QuestionIDs),
	}).Info("[Recorder] session started")
	return session, nil
}

// RecordAnswer appends one answer to an open session
func (s *RecorderService) RecordAnswer(ctx context.Context, sessionID, questionID, choice string, elapsedMs int64) (*model.Progress, error) {
	if elapsedMs < 0 {
		return nil, &model.InvalidAnswerError{SessionID: sessionID, QuestionID: questionID, Reason: "elapsed time cannot be negative"}
	}

	unlock, err := s.lock.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.expired(session, s.now()) {
		return nil, &model.TimeLimitError{SessionID: sessionID, Deadline: *s.deadline(session)}
	}
	if !session.HasQuestion(questionID) {
		return nil, &model.UnknownQuestionError{SessionID: sessionID, QuestionID: questionID}
	}
	if session.AnswerFor(questionID) != nil {
		return nil, &model.DuplicateAnswerError{SessionID: sessionID, QuestionID: questionID}
	}

	bank, err := s.banks.Bank(ctx, session.Profile)
	if err != nil {
		return nil, err
	}
	q := bank.Lookup(questionID)
	if q == nil {
		return nil, &model.UnknownQuestionError{SessionID: sessionID, QuestionID: questionID}
	}
	if !q.HasChoice(choice) {
		return nil, &model.InvalidAnswerError{SessionID: sessionID, QuestionID: questionID, Reason: fmt.Sprintf("unknown choice %q", choice)}
	}

	answer := model.NewAnswer(q, choice, elapsedMs, s.now())
	err = s.retry.Do(ctx, "append answer", func(ctx context.Context) error {
		return s.sessions.AppendAnswer(ctx, sessionID, answer)
	})
	if errors.Is(err, model.ErrDuplicateAnswer) && s.landed(ctx, sessionID, answer) {
		err = nil
	}
	if err != nil {
		return nil, err
	}

	session.Answers = append(session.Answers, answer)
	log.WithFields(log.Fields{
		"session":  sessionID,
		"question": questionID,
		"elapsed":  elapsedMs,
	}).Debug("[Recorder] answer recorded")
	return s.progressOf(session, bank), nil
}

// Submit seals the session and stores its result in one transaction.
// On any failure the session stays open and submit can be retried.
func (s *RecorderService) Submit(ctx context.Context, sessionID string) (*model.Session, *model.Result, error) {
	unlock, err := s.lock.Lock(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	session, err := s.openSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	bank, err := s.banks.Bank(ctx, session.Profile)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()

	// Past the deadline the session seals with what was answered
	if s.policy == model.PolicyRequireComplete && !s.expired(session, now) {
		if missing := session.MissingRequired(bank); len(missing) > 0 {
			return nil, nil, &model.IncompleteSessionError{SessionID: sessionID, Missing: missing}
		}
	}

	sealed := *session
	sealed.Status = model.SessionSealed
	sealed.SubmittedAt = &now

	result := scoring.Score(&sealed, bank, s.scoring)
	result.ComputedAt = now

	err = s.retry.Do(ctx, "submit session", func(ctx context.Context) error {
		return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.sessions.Seal(ctx, sessionID, now); err != nil {
				return err
			}
			return s.reports.persist(ctx, result)
		})
	})
	if errors.Is(err, model.ErrSessionClosed) && s.committed(ctx, result) {
		err = nil
	}
	if err != nil {
		log.WithField("session", sessionID).Warnf("[Recorder] submit failed, session left open: %v", err)
		return nil, nil, err
	}

	s.reports.announce(ctx, result)
	log.WithFields(log.Fields{
		"session":        sessionID,
		"score":          result.TotalScore,
		"classification": result.Classification,
		"passed":         result.Passed,
	}).Info("[Recorder] session submitted")
	return &sealed, result, nil
}

// Session returns a session by id
func (s *RecorderService) Session(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := retryValue(ctx, s.retry, "get session", func(ctx context.Context) (*model.Session, error) {
		return s.sessions.GetByID(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrSessionNotFound)
	}
	return session, nil
}

// Progress returns the candidate-facing view of a session
func (s *RecorderService) Progress(ctx context.Context, sessionID string) (*model.Progress, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	bank, err := s.banks.Bank(ctx, session.Profile)
	if err != nil {
		return nil, err
	}
	return s.progressOf(session, bank), nil
}

func (s *RecorderService) openSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsSealed() {
		return nil, &model.SessionClosedError{SessionID: sessionID}
	}
	return session, nil
}

func (s *RecorderService) findOpen(ctx context.Context, candidateID string) (*model.Session, error) {
	return retryValue(ctx, s.retry, "find open session", func(ctx context.Context) (*model.Session, error) {
		return s.sessions.FindOpenByCandidate(ctx, candidateID)
	})
}

// landed reports whether a retried append had in fact been stored by an earlier attempt
func (s *RecorderService) landed(ctx context.Context, sessionID string, answer model.Answer) bool {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil || session == nil {
		return false
	}
	stored := session.AnswerFor(answer.QuestionID)
	return stored != nil && stored.AnsweredAt.Equal(answer.AnsweredAt) && stored.Choice == answer.Choice
}

// committed reports whether a retried submit had in fact committed on an earlier attempt
func (s *RecorderService) committed(ctx context.Context, result *model.Result) bool {
	stored, err := s.reports.results.Get(ctx, result.SessionID)
	if err != nil || stored == nil {
		return false
	}
	return stored.SubmittedAt.Equal(result.SubmittedAt)
}

func (s *RecorderService) progressOf(session *model.Session, bank *model.Bank) *model.Progress {
	p := &model.Progress{
		SessionID: session.ID,
		Status:    session.Status,
		Total:     len(session.QuestionIDs),
	}
	if !session.IsSealed() {
		p.Deadline = s.deadline(session)
	}
	for _, id := range session.QuestionIDs {
		if session.AnswerFor(id) != nil {
			p.Answered++
			continue
		}
		if p.Next == nil && !session.IsSealed() {
			if q := bank.Lookup(id); q != nil {
				p.Next = q.View()
			}
		}
	}
	return p
}
