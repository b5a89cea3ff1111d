package model

import "github.com/golang-jwt/jwt/v5"

// RecruiterClaims are JWT claims for dashboard users
type RecruiterClaims struct {
	RecruiterID string `json:"recruiterId"`
	jwt.RegisteredClaims
}

// CandidateClaims are JWT claims scoped to a single session
type CandidateClaims struct {
	SessionID   string `json:"sessionId"`
	CandidateID string `json:"candidateId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for recruiter login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token       string `json:"token"`
	RecruiterID string `json:"recruiterId"`
}
