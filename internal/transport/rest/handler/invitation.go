package handler

import (
	"net/http"

	"decihire/internal/service"
	"decihire/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// InvitationHandler handles invitation endpoints
type InvitationHandler struct {
	inviteSvc *service.InvitationService
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(inviteSvc *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{inviteSvc: inviteSvc}
}

// CreateInvitationRequest is the request body for creating an invitation
type CreateInvitationRequest struct {
	Profile string `json:"profile" validate:"required,max=64"`
}

// RedeemRequest is the request body a candidate sends with an invitation code
type RedeemRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=100"`
}

// Create handles POST /v1/invitations
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	recruiterID := middleware.GetRecruiterID(r.Context())
	if recruiterID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateInvitationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	inv, err := h.inviteSvc.CreateInvitation(r.Context(), recruiterID, req.Profile)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// Redeem handles POST /v1/invitations/{code}/redeem
func (h *InvitationHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.inviteSvc.Redeem(r.Context(), mux.Vars(r)["code"], req.Email, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Revoke handles DELETE /v1/invitations/{code}
func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.inviteSvc.Revoke(r.Context(), mux.Vars(r)["code"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
