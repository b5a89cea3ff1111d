package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"decihire/internal/model"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeAndValidate reads a JSON body into dst; on failure it writes 400 and returns false
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
		}
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

type errorBody struct {
	Error      string   `json:"error"`
	Code       string   `json:"code"`
	SessionID  string   `json:"sessionId,omitempty"`
	QuestionID string   `json:"questionId,omitempty"`
	Missing    []string `json:"missing,omitempty"`
}

// writeServiceError maps domain errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	if status >= 500 {
		log.WithField("status", status).Errorf("[HTTP] %v", err)
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}

	var (
		dupSession *model.DuplicateSessionError
		unknownQ   *model.UnknownQuestionError
		dupAnswer  *model.DuplicateAnswerError
		closed     *model.SessionClosedError
		incomplete *model.IncompleteSessionError
		expired    *model.TimeLimitError
	)
	switch {
	case errors.As(err, &dupSession):
		body.Code, body.SessionID = "duplicate_session", dupSession.SessionID
		return http.StatusConflict, body
	case errors.As(err, &unknownQ):
		body.Code, body.SessionID, body.QuestionID = "unknown_question", unknownQ.SessionID, unknownQ.QuestionID
		return http.StatusNotFound, body
	case errors.As(err, &dupAnswer):
		body.Code, body.SessionID, body.QuestionID = "duplicate_answer", dupAnswer.SessionID, dupAnswer.QuestionID
		return http.StatusConflict, body
	case errors.As(err, &closed):
		body.Code, body.SessionID = "session_closed", closed.SessionID
		return http.StatusConflict, body
	case errors.As(err, &incomplete):
		body.Code, body.SessionID, body.Missing = "incomplete_session", incomplete.SessionID, incomplete.Missing
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &expired):
		body.Code, body.SessionID = "time_limit_exceeded", expired.SessionID
		return http.StatusConflict, body
	case errors.Is(err, model.ErrStoreUnavailable):
		body.Code = "store_unavailable"
		return http.StatusServiceUnavailable, body
	case errors.Is(err, model.ErrInvalidAnswer):
		body.Code = "invalid_answer"
		return http.StatusBadRequest, body
	case errors.Is(err, model.ErrInvalidRequest):
		body.Code = "invalid_request"
		return http.StatusBadRequest, body
	case errors.Is(err, model.ErrInvalidQuestion):
		body.Code = "invalid_question"
		return http.StatusBadRequest, body
	case errors.Is(err, model.ErrQuestionPublished):
		body.Code = "question_published"
		return http.StatusConflict, body
	case errors.Is(err, model.ErrSessionOpen):
		body.Code = "session_open"
		return http.StatusConflict, body
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, model.ErrResultNotFound),
		errors.Is(err, model.ErrQuestionNotFound),
		errors.Is(err, model.ErrUnknownProfile),
		errors.Is(err, model.ErrInvitationNotFound):
		body.Code = "not_found"
		return http.StatusNotFound, body
	}

	body.Code = "internal"
	body.Error = "internal server error"
	return http.StatusInternalServerError, body
}
