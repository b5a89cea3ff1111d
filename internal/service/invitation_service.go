package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"decihire/internal/cache"
	"decihire/internal/model"

	log "github.com/sirupsen/logrus"
)

// InvitationService hands out test codes and turns them into candidate sessions
type InvitationService struct {
	invitations cache.InvitationCache
	banks       BankSource
	recorder    *RecorderService
	authSvc     *AuthService
	ttl         time.Duration
	now         func() time.Time
	randRead    func([]byte) (int, error)
}

// NewInvitationService creates a new invitation service
func NewInvitationService(
	invitations cache.InvitationCache,
	banks BankSource,
	recorder *RecorderService,
	authSvc *AuthService,
	ttl time.Duration,
) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		banks:       banks,
		recorder:    recorder,
		authSvc:     authSvc,
		ttl:         ttl,
		now:         time.Now,
		randRead:    rand.Read,
	}
}

// CreateInvitation issues a code for a profile that has a published bank
func (s *InvitationService) CreateInvitation(ctx context.Context, recruiterID, profile string) (*model.Invitation, error) {
	bank, err := s.banks.Bank(ctx, profile)
	if err != nil {
		return nil, err
	}
	if bank.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownProfile, profile)
	}

	now := s.now().UTC()
	for attempts := 0; attempts < 10; attempts++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invitation code: %w", err)
		}
		inv := &model.Invitation{
			Code:      code,
			Profile:   profile,
			CreatedBy: recruiterID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}
		created, err := s.invitations.Create(ctx, inv)
		if err != nil {
			return nil, err
		}
		if created {
			log.WithFields(log.Fields{"code": code, "profile": profile, "by": recruiterID}).Info("[Invite] created")
			return inv, nil
		}
	}
	return nil, fmt.Errorf("failed to generate unique invitation code")
}

// Redeem starts the candidate's session for the invited profile and issues its token.
// A candidate with an open session gets a DuplicateSessionError and no token.
func (s *InvitationService) Redeem(ctx context.Context, code, candidateID, candidateName string) (*model.RedeemResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	inv, err := s.invitations.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrInvitationNotFound, code)
	}

	candidateID = strings.ToLower(strings.TrimSpace(candidateID))
	session, err := s.recorder.StartSession(ctx, candidateID, candidateName, inv.Profile)

	var dup *model.DuplicateSessionError
	if errors.As(err, &dup) {
		// The open session stays with whoever holds its token; redeeming
		// again never re-issues one and does not reveal the session id
		log.WithFields(log.Fields{"candidate": candidateID, "profile": inv.Profile}).Warn("[Invite] redeem refused, session already open")
		return nil, &model.DuplicateSessionError{CandidateID: candidateID}
	}
	if err != nil {
		return nil, err
	}

	token, err := s.authSvc.GenerateCandidateToken(session.ID, candidateID)
	if err != nil {
		return nil, err
	}
	progress, err := s.recorder.Progress(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return &model.RedeemResponse{
		SessionID:   session.ID,
		CandidateID: candidateID,
		Token:       token,
		Progress:    progress,
	}, nil
}

// Revoke deletes an invitation before it expires
func (s *InvitationService) Revoke(ctx context.Context, code string) error {
	return s.invitations.Delete(ctx, strings.ToUpper(code))
}

// generateCode creates a 6-char alphanumeric code
func (s *InvitationService) generateCode() (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	b := make([]byte, codeLen)
	if _, err := s.randRead(b); err != nil {
		return "", err
	}
	code := make([]byte, codeLen)
	for i := range code {
		code[i] = chars[int(b[i])%len(chars)]
	}
	return string(code), nil
}
