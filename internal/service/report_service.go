package service

import (
	"context"
	"fmt"
	"time"

	"decihire/internal/cache"
	"decihire/internal/model"
	"decihire/internal/repository"
	"decihire/internal/scoring"

	log "github.com/sirupsen/logrus"
)

// ReportService is the report store: scored results, queries and the live leaderboard
type ReportService struct {
	results     repository.ResultRepo
	sessions    repository.SessionRepo
	banks       BankSource
	leaderboard cache.LeaderboardCache
	analytics   cache.AnalyticsCache
	scoring     scoring.Config
	retry       RetryPolicy
	broadcaster Broadcaster
	now         func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	results repository.ResultRepo,
	sessions repository.SessionRepo,
	banks BankSource,
	leaderboard cache.LeaderboardCache,
	scoringCfg scoring.Config,
	retry RetryPolicy,
) *ReportService {
	return &ReportService{
		results:     results,
		sessions:    sessions,
		banks:       banks,
		leaderboard: leaderboard,
		scoring:     scoringCfg,
		retry:       retry,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// SetBroadcaster sets the broadcaster for dashboard events
func (s *ReportService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetAnalyticsCache enables caching of per-profile stats
func (s *ReportService) SetAnalyticsCache(c cache.AnalyticsCache) {
	s.analytics = c
}

// Save stores a result, overwriting any earlier one for the same session
func (s *ReportService) Save(ctx context.Context, result *model.Result) error {
	if err := s.retry.Do(ctx, "save result", func(ctx context.Context) error {
		return s.persist(ctx, result)
	}); err != nil {
		return err
	}
	s.announce(ctx, result)
	return nil
}

// persist writes without retrying so it can join a caller's transaction
func (s *ReportService) persist(ctx context.Context, result *model.Result) error {
	return s.results.Upsert(ctx, result)
}

// announce updates the leaderboard and notifies dashboards; failures are only logged
func (s *ReportService) announce(ctx context.Context, result *model.Result) {
	var rank int64
	if err := s.leaderboard.UpdateScore(ctx, result.Profile, result.SessionID, result.TotalScore, result.SubmittedAt); err != nil {
		log.Printf("[Report] Warning: leaderboard update failed for %s: %v", result.SessionID, err)
	} else if rank, err = s.leaderboard.GetRank(ctx, result.Profile, result.SessionID); err != nil {
		log.Printf("[Report] Warning: leaderboard rank failed for %s: %v", result.SessionID, err)
	}
	if s.analytics != nil {
		if err := s.analytics.Invalidate(ctx, result.Profile); err != nil {
			log.Printf("[Report] Warning: stats invalidation failed for %s: %v", result.Profile, err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToDashboard(result.Profile, EventResultReady, map[string]interface{}{
			"sessionId":      result.SessionID,
			"candidateId":    result.CandidateID,
			"candidateName":  result.CandidateName,
			"profile":        result.Profile,
			"totalScore":     result.TotalScore,
			"passed":         result.Passed,
			"classification": result.Classification,
			"submittedAt":    result.SubmittedAt,
			"rank":           rank,
		})
	}
}

// Get returns the result of a session
func (s *ReportService) Get(ctx context.Context, sessionID string) (*model.Result, error) {
	result, err := retryValue(ctx, s.retry, "get result", func(ctx context.Context) (*model.Result, error) {
		return s.results.Get(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrResultNotFound)
	}
	return result, nil
}

// Query returns results matching filter, best first
func (s *ReportService) Query(ctx context.Context, filter model.ResultFilter) ([]*model.Result, error) {
	return retryValue(ctx, s.retry, "query results", func(ctx context.Context) ([]*model.Result, error) {
		return s.results.Query(ctx, filter)
	})
}

// Rescore recomputes a sealed session against the current bank and rubric
func (s *ReportService) Rescore(ctx context.Context, sessionID string) (*model.Result, error) {
	session, err := retryValue(ctx, s.retry, "get session", func(ctx context.Context) (*model.Session, error) {
		return s.sessions.GetByID(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrSessionNotFound)
	}
	if !session.IsSealed() {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrSessionOpen)
	}

	bank, err := s.banks.Bank(ctx, session.Profile)
	if err != nil {
		return nil, err
	}

	result := scoring.Rescore(session, bank, s.scoring, s.now())
	if err := s.Save(ctx, result); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"session": sessionID, "score": result.TotalScore}).Info("[Report] rescored")
	return result, nil
}

// Leaderboard returns the live top of a profile
func (s *ReportService) Leaderboard(ctx context.Context, profile string, top int) ([]model.LeaderboardEntry, error) {
	if top <= 0 {
		top = 10
	}
	return s.leaderboard.GetTop(ctx, profile, top)
}

// Stats aggregates every result of a profile, served from cache until the next save
func (s *ReportService) Stats(ctx context.Context, profile string) (*model.ProfileStats, error) {
	if s.analytics != nil {
		cached, err := s.analytics.GetProfileStats(ctx, profile)
		if err != nil {
			log.Printf("[Report] Warning: stats cache read failed for %s: %v", profile, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	results, err := s.Query(ctx, model.ResultFilter{Profile: profile})
	if err != nil {
		return nil, err
	}
	stats := scoring.Summarize(profile, results, s.now())

	if s.analytics != nil {
		if err := s.analytics.SetProfileStats(ctx, stats); err != nil {
			log.Printf("[Report] Warning: stats cache write failed for %s: %v", profile, err)
		}
	}
	return stats, nil
}
