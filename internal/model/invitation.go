package model

import "time"

// Invitation is a short code a recruiter hands to a candidate for one profile
type Invitation struct {
	Code      string    `json:"code"`
	Profile   string    `json:"profile"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RedeemResponse is returned when a candidate starts a test from an invitation
type RedeemResponse struct {
	SessionID   string    `json:"sessionId"`
	CandidateID string    `json:"candidateId"`
	Token       string    `json:"token"`
	Progress    *Progress `json:"progress"`
}
