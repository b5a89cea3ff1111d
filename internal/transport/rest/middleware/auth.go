package middleware

import (
	"context"
	"net/http"
	"strings"

	"decihire/internal/model"
)

type contextKey string

const (
	RecruiterIDKey contextKey = "recruiterId"
	CandidateIDKey contextKey = "candidateId"
	SessionIDKey   contextKey = "sessionId"
)

// TokenValidator is implemented by service.AuthService
type TokenValidator interface {
	ValidateRecruiterToken(token string) (*model.RecruiterClaims, error)
	ValidateCandidateToken(token string) (*model.CandidateClaims, error)
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireRecruiter validates recruiter JWT from Authorization header or query param
func (m *AuthMiddleware) RequireRecruiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateRecruiterToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), RecruiterIDKey, claims.RecruiterID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCandidate validates a session-scoped candidate JWT
func (m *AuthMiddleware) RequireCandidate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateCandidateToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, CandidateIDKey, claims.CandidateID)
		ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRecruiterID extracts recruiter ID from context
func GetRecruiterID(ctx context.Context) string {
	if v, ok := ctx.Value(RecruiterIDKey).(string); ok {
		return v
	}
	return ""
}

// GetCandidateID extracts candidate ID from context
func GetCandidateID(ctx context.Context) string {
	if v, ok := ctx.Value(CandidateIDKey).(string); ok {
		return v
	}
	return ""
}

// GetSessionID extracts the candidate's session ID from context
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(SessionIDKey).(string); ok {
		return v
	}
	return ""
}

// Bearer header first, then ?token= for WebSocket upgrades
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
