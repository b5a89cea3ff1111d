package service

import (
	"crypto/subtle"
	"errors"
	"time"

	"decihire/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles recruiter and candidate authentication
type AuthService struct {
	recruiterUsername string
	passwordHash      []byte
	jwtSecret         []byte
	candidateTTL      time.Duration
	now               func() time.Time
}

// NewAuthService creates a new auth service. An empty password hash disables recruiter login.
func NewAuthService(username, passwordHash, secret string, candidateTTL time.Duration) *AuthService {
	return &AuthService{
		recruiterUsername: username,
		passwordHash:      []byte(passwordHash),
		jwtSecret:         []byte(secret),
		candidateTTL:      candidateTTL,
		now:               time.Now,
	}
}

// HashPassword produces the value expected in RECRUITER_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login validates recruiter credentials and returns a signed token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if len(s.passwordHash) == 0 {
		return nil, ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.recruiterUsername)) == 1
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil || !userOK {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	claims := &model.RecruiterClaims{
		RecruiterID: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(12 * time.Hour)),
		},
	}

	token, err := s.sign(claims)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{
		Token:       token,
		RecruiterID: username,
	}, nil
}

// ValidateRecruiterToken validates a recruiter JWT and returns claims
func (s *AuthService) ValidateRecruiterToken(tokenString string) (*model.RecruiterClaims, error) {
	claims := &model.RecruiterClaims{}
	if err := s.parse(tokenString, claims); err != nil || claims.RecruiterID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateCandidateToken creates a session-scoped token for a candidate
func (s *AuthService) GenerateCandidateToken(sessionID, candidateID string) (string, error) {
	now := s.now()
	claims := &model.CandidateClaims{
		SessionID:   sessionID,
		CandidateID: candidateID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   candidateID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.candidateTTL)),
		},
	}
	return s.sign(claims)
}

// ValidateCandidateToken validates a candidate JWT and returns claims
func (s *AuthService) ValidateCandidateToken(tokenString string) (*model.CandidateClaims, error) {
	claims := &model.CandidateClaims{}
	if err := s.parse(tokenString, claims); err != nil || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
