package handler

import (
	"net/http"

	"decihire/internal/service"
	"decihire/internal/transport/rest/middleware"
)

// SessionHandler handles the candidate's own session
type SessionHandler struct {
	recorder *service.RecorderService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(recorder *service.RecorderService) *SessionHandler {
	return &SessionHandler{recorder: recorder}
}

// AnswerRequest is the request body for recording an answer
type AnswerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Choice     string `json:"choice" validate:"required"`
	ElapsedMs  int64  `json:"elapsedMs" validate:"gte=0"`
}

// Current handles GET /v1/sessions/current
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	progress, err := h.recorder.Progress(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// Answer handles POST /v1/sessions/current/answers
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sessionID := middleware.GetSessionID(r.Context())
	progress, err := h.recorder.RecordAnswer(r.Context(), sessionID, req.QuestionID, req.Choice, req.ElapsedMs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, progress)
}

// Submit handles POST /v1/sessions/current/submit.
// Candidates only learn that the session is sealed; scores go to recruiters.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session, _, err := h.recorder.Submit(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId":   session.ID,
		"status":      session.Status,
		"submittedAt": session.SubmittedAt,
		"answered":    len(session.Answers),
	})
}
