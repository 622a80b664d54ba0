package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/foia-tracker/internal/application/appeals"
	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
)

// AppealHandler serves appeal rounds.
type AppealHandler struct {
	gen    appeals.Generator
	logger logging.Logger
}

func NewAppealHandler(gen appeals.Generator, logger logging.Logger) *AppealHandler {
	return &AppealHandler{gen: gen, logger: logger}
}

// GenerateAppealBody optionally carries grounds appended after the computed
// ones.  An empty body is accepted.
type GenerateAppealBody struct {
	Grounds []appeal.Ground `json:"grounds"`
}

// Generate handles POST /requests/{id}/appeals.
func (h *AppealHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var body GenerateAppealBody
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			writeAppError(w, h.logger, err)
			return
		}
	}
	a, err := h.gen.Generate(r.Context(), chi.URLParam(r, "id"), body.Grounds)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// List handles GET /requests/{id}/appeals.
func (h *AppealHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.gen.ListAppeals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []*appeal.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": list})
}

// Get handles GET /appeals/{appealID}.
func (h *AppealHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.gen.GetAppeal(r.Context(), chi.URLParam(r, "appealID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type appealStatusBody struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// UpdateStatus handles POST /appeals/{appealID}/status.
func (h *AppealHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body appealStatusBody
	if err := decodeJSON(r, &body); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	a, err := h.gen.UpdateAppealStatus(r.Context(), chi.URLParam(r, "appealID"), body.Status, body.Note)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

//Personal.AI order the ending
