package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"decihire/internal/cache"
	"decihire/internal/model"
	"decihire/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// BankSource yields the published bank snapshot of a profile
type BankSource interface {
	Bank(ctx context.Context, profile string) (*model.Bank, error)
}

// BankService manages question authoring and the published banks
type BankService struct {
	questions repository.QuestionRepo
	bankCache cache.BankCache
	retry     RetryPolicy
	now       func() time.Time
	newID     func() string
}

// NewBankService creates a new bank service
func NewBankService(questions repository.QuestionRepo, bankCache cache.BankCache, retry RetryPolicy) *BankService {
	return &BankService{
		questions: questions,
		bankCache: bankCache,
		retry:     retry,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:     func() string { return uuid.New().String() },
	}
}

// CreateQuestion validates and stores a new draft
func (s *BankService) CreateQuestion(ctx context.Context, q *model.Question) (*model.Question, error) {
	if q.ID == "" {
		q.ID = s.newID()
	}
	if err := validateQuestion(q); err != nil {
		return nil, err
	}
	q.Status = model.QuestionDraft
	q.CreatedAt = s.now()
	q.PublishedAt = nil

	err := s.retry.Do(ctx, "create question", func(ctx context.Context) error {
		return s.questions.Create(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"question": q.ID, "profile": q.Profile}).Info("[Bank] draft created")
	return q, nil
}

// UpdateQuestion replaces a draft; published questions are immutable
func (s *BankService) UpdateQuestion(ctx context.Context, q *model.Question) (*model.Question, error) {
	existing, err := s.GetQuestion(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if existing.IsPublished() {
		return nil, fmt.Errorf("question %s: %w", q.ID, model.ErrQuestionPublished)
	}
	if err := validateQuestion(q); err != nil {
		return nil, err
	}
	q.Status = model.QuestionDraft
	q.CreatedAt = existing.CreatedAt
	q.PublishedAt = nil

	err = s.retry.Do(ctx, "update question", func(ctx context.Context) error {
		return s.questions.Update(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// PublishQuestion freezes a draft and adds it to its profile's bank.
// Publishing an already published question is a no-op.
func (s *BankService) PublishQuestion(ctx context.Context, id string) (*model.Question, error) {
	existing, err := s.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsPublished() {
		return existing, nil
	}

	published, err := retryValue(ctx, s.retry, "publish question", func(ctx context.Context) (*model.Question, error) {
		return s.questions.Publish(ctx, id, s.now())
	})
	if err != nil {
		return nil, err
	}

	if err := s.bankCache.Invalidate(ctx, published.Profile); err != nil {
		log.Printf("[Bank] Warning: failed to invalidate bank cache for %s: %v", published.Profile, err)
	}
	log.WithFields(log.Fields{"question": id, "profile": published.Profile}).Info("[Bank] question published")
	return published, nil
}

// GetQuestion returns a question or ErrQuestionNotFound
func (s *BankService) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	q, err := retryValue(ctx, s.retry, "get question", func(ctx context.Context) (*model.Question, error) {
		return s.questions.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("question %s: %w", id, model.ErrQuestionNotFound)
	}
	return q, nil
}

// ListQuestions returns questions for authoring; empty arguments mean any
func (s *BankService) ListQuestions(ctx context.Context, profile string, status model.QuestionStatus) ([]*model.Question, error) {
	return retryValue(ctx, s.retry, "list questions", func(ctx context.Context) ([]*model.Question, error) {
		return s.questions.List(ctx, profile, status)
	})
}

// Bank returns the published snapshot of a profile, read through the cache
func (s *BankService) Bank(ctx context.Context, profile string) (*model.Bank, error) {
	cached, err := s.bankCache.Get(ctx, profile)
	if err != nil {
		log.Printf("[Bank] Warning: bank cache read failed for %s: %v", profile, err)
	}
	if cached != nil {
		return cached, nil
	}

	questions, err := retryValue(ctx, s.retry, "load bank", func(ctx context.Context) ([]model.Question, error) {
		return s.questions.ListPublished(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	bank := model.NewBank(profile, questions)
	if err := s.bankCache.Set(ctx, bank); err != nil {
		log.Printf("[Bank] Warning: bank cache write failed for %s: %v", profile, err)
	}
	return bank, nil
}

// Profiles lists profiles with at least one published question
func (s *BankService) Profiles(ctx context.Context) ([]string, error) {
	return retryValue(ctx, s.retry, "list profiles", func(ctx context.Context) ([]string, error) {
		return s.questions.Profiles(ctx)
	})
}

func validateQuestion(q *model.Question) error {
	invalid := func(reason string) error {
		return &model.InvalidQuestionError{QuestionID: q.ID, Reason: reason}
	}

	if strings.TrimSpace(q.Profile) == "" {
		return invalid("profile is required")
	}
	if !q.Category.Valid() {
		return invalid(fmt.Sprintf("unknown category %q", q.Category))
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return invalid("prompt is required")
	}
	if q.Weight <= 0 {
		return invalid("weight must be positive")
	}
	if len(q.Choices) < 2 {
		return invalid("at least two choices are required")
	}
	seen := make(map[string]bool, len(q.Choices))
	for _, c := range q.Choices {
		if c.Key == "" {
			return invalid("choice key is required")
		}
		if seen[c.Key] {
			return invalid(fmt.Sprintf("duplicate choice key %q", c.Key))
		}
		seen[c.Key] = true
		for trait, v := range c.Traits {
			if strings.TrimSpace(trait) == "" || v < 0 {
				return invalid(fmt.Sprintf("choice %q: traits need a name and a non-negative value", c.Key))
			}
		}
	}

	switch q.Category {
	case model.CategoryTechnical:
		if !seen[q.CorrectChoice] {
			return invalid("correctChoice must be one of the choices")
		}
		q.Grades = nil
	case model.CategoryEthical:
		hasBest := false
		for key, grade := range q.Grades {
			if !seen[key] {
				return invalid(fmt.Sprintf("grade for unknown choice %q", key))
			}
			switch grade {
			case model.GradeBest:
				hasBest = true
			case model.GradeAcceptable, model.GradePoor:
			default:
				return invalid(fmt.Sprintf("unknown grade %q", grade))
			}
		}
		if !hasBest {
			return invalid("at least one choice must be graded best")
		}
		q.CorrectChoice = ""
	}
	return nil
}
