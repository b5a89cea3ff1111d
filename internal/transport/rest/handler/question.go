package handler

import (
	"net/http"

	"decihire/internal/model"
	"decihire/internal/service"

	"github.com/gorilla/mux"
)

// QuestionHandler handles question authoring and bank endpoints
type QuestionHandler struct {
	bankSvc *service.BankService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(bankSvc *service.BankService) *QuestionHandler {
	return &QuestionHandler{bankSvc: bankSvc}
}

// ChoiceRequest is one option in a question request
type ChoiceRequest struct {
	Key    string             `json:"key" validate:"required,max=16"`
	Text   string             `json:"text" validate:"required"`
	Traits map[string]float64 `json:"traits,omitempty" validate:"omitempty,dive,keys,required,max=16,endkeys,gte=0"`
}

// QuestionRequest is the request body for creating or updating a question
type QuestionRequest struct {
	Profile       string                 `json:"profile" validate:"required,max=64"`
	Category      model.Category         `json:"category" validate:"required,oneof=ethical technical"`
	Prompt        string                 `json:"prompt" validate:"required"`
	Choices       []ChoiceRequest        `json:"choices" validate:"required,min=2,dive"`
	CorrectChoice string                 `json:"correctChoice,omitempty"`
	Grades        map[string]model.Grade `json:"grades,omitempty" validate:"omitempty,dive,keys,required,endkeys,oneof=best acceptable poor"`
	Weight        float64                `json:"weight" validate:"gt=0"`
	Required      *bool                  `json:"required,omitempty"` // Defaults to true
	Order         int                    `json:"order" validate:"gte=0"`
}

func (req *QuestionRequest) toModel(id string) *model.Question {
	choices := make([]model.Choice, len(req.Choices))
	for i, c := range req.Choices {
		choices[i] = model.Choice{Key: c.Key, Text: c.Text, Traits: c.Traits}
	}
	required := true
	if req.Required != nil {
		required = *req.Required
	}
	return &model.Question{
		ID:            id,
		Profile:       req.Profile,
		Category:      req.Category,
		Prompt:        req.Prompt,
		Choices:       choices,
		CorrectChoice: req.CorrectChoice,
		Grades:        req.Grades,
		Weight:        req.Weight,
		Required:      required,
		Order:         req.Order,
	}
}

// Create handles POST /v1/questions
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.bankSvc.CreateQuestion(r.Context(), req.toModel(""))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// List handles GET /v1/questions?profile=&status=
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	profile := r.URL.Query().Get("profile")
	status := model.QuestionStatus(r.URL.Query().Get("status"))
	if status != "" && status != model.QuestionDraft && status != model.QuestionPublished {
		writeError(w, http.StatusBadRequest, "status must be draft or published")
		return
	}

	questions, err := h.bankSvc.ListQuestions(r.Context(), profile, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if questions == nil {
		questions = []*model.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

// Update handles PUT /v1/questions/{id}
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.bankSvc.UpdateQuestion(r.Context(), req.toModel(mux.Vars(r)["id"]))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Publish handles POST /v1/questions/{id}/publish
func (h *QuestionHandler) Publish(w http.ResponseWriter, r *http.Request) {
	q, err := h.bankSvc.PublishQuestion(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Profiles handles GET /v1/profiles
func (h *QuestionHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.bankSvc.Profiles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if profiles == nil {
		profiles = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

// Bank handles GET /v1/profiles/{profile}/bank
func (h *QuestionHandler) Bank(w http.ResponseWriter, r *http.Request) {
	bank, err := h.bankSvc.Bank(r.Context(), mux.Vars(r)["profile"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile":        bank.Profile,
		"questions":      bank.Questions,
		"totalWeight":    bank.TotalWeight(),
		"skillsRequired": bank.SkillsRequired(),
	})
}
