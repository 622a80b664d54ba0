package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/foia-tracker/internal/application/tracking"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// RequestHandler serves the tracked-request resource.
type RequestHandler struct {
	svc    tracking.Service
	clock  common.Clock
	logger logging.Logger
}

// NewRequestHandler creates a RequestHandler.  A nil clock uses the system
// clock.
func NewRequestHandler(svc tracking.Service, clock common.Clock, logger logging.Logger) *RequestHandler {
	if clock == nil {
		clock = common.SystemClock{}
	}
	return &RequestHandler{svc: svc, clock: clock, logger: logger}
}

// RequestView is a record plus the values derived from it at read time.
type RequestView struct {
	Request         *request.Record `json:"request"`
	EffectiveStatus request.Status  `json:"effective_status"`
	DaysRemaining   int             `json:"days_remaining"`
	Overdue         bool            `json:"overdue"`
	OverdueAt       time.Time       `json:"overdue_at"`
}

func (h *RequestHandler) view(rec *request.Record, now time.Time) RequestView {
	return RequestView{
		Request:         rec,
		EffectiveStatus: rec.EffectiveStatus(now),
		DaysRemaining:   rec.DaysRemaining(now),
		Overdue:         rec.IsOverdue(now),
		OverdueAt:       rec.OverdueAt(),
	}
}

func (h *RequestHandler) views(list []*request.Record) []RequestView {
	now := h.clock.Now()
	out := make([]RequestView, 0, len(list))
	for _, rec := range list {
		out = append(out, h.view(rec, now))
	}
	return out
}

func (h *RequestHandler) respond(w http.ResponseWriter, status int, rec *request.Record, err error) {
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, status, h.view(rec, h.clock.Now()))
}

// CreateRequestBody is the POST /requests payload.  DateFiled accepts
// YYYY-MM-DD or RFC 3339.
type CreateRequestBody struct {
	ReferenceID        string   `json:"reference_id"`
	Agency             string   `json:"agency"`
	Jurisdiction       string   `json:"jurisdiction"`
	Topic              string   `json:"topic"`
	TemplateID         string   `json:"template_id"`
	RenderedText       string   `json:"rendered_text"`
	DateFiled          string   `json:"date_filed"`
	Flags              []string `json:"flags"`
	FeeWaiverRequested bool     `json:"fee_waiver_requested"`
}

// Create handles POST /requests.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	filed, err := parseDate("date_filed", body.DateFiled)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	rec, err := h.svc.Create(r.Context(), &tracking.CreateInput{
		ReferenceID:        body.ReferenceID,
		Agency:             body.Agency,
		Jurisdiction:       body.Jurisdiction,
		Topic:              body.Topic,
		TemplateID:         body.TemplateID,
		RenderedText:       body.RenderedText,
		DateFiled:          filed,
		Flags:              body.Flags,
		FeeWaiverRequested: body.FeeWaiverRequested,
	})
	h.respond(w, http.StatusCreated, rec, err)
}

// Get handles GET /requests/{id}.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, http.StatusOK, rec, err)
}

// ListResponse is one page of request views.
type ListResponse struct {
	Items  []RequestView `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// List handles GET /requests.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	page, err := h.svc.List(r.Context(), &tracking.ListInput{
		Jurisdiction: q.Get("jurisdiction"),
		Status:       q.Get("status"),
		Agency:       q.Get("agency"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{
		Items:  h.views(page.Items),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

type statusBody struct {
	Status          string `json:"status"`
	Note            string `json:"note"`
	ExpectedVersion int    `json:"expected_version"`
}

// UpdateStatus handles POST /requests/{id}/status.
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if err := decodeJSON(r, &body); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	rec, err := h.svc.UpdateStatus(r.Context(), &tracking.UpdateStatusInput{
		ID:              chi.URLParam(r, "id"),
		Status:          body.Status,
		Note:            body.Note,
		ExpectedVersion: body.ExpectedVersion,
	})
	h.respond(w, http.StatusOK, rec, err)
}

// RecordResponse handles POST /requests/{id}/response with an analyzer
// event.  The path id wins over any request_id in the body.
func (h *RequestHandler) RecordResponse(w http.ResponseWriter, r *http.Request) {
	var ev request.ResponseEvent
	if err := decodeJSON(r, &ev); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	ev.RequestID = chi.URLParam(r, "id")
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = h.clock.Now()
	}
	rec, err := h.svc.RecordResponse(r.Context(), ev)
	h.respond(w, http.StatusOK, rec, err)
}

type confirmBody struct {
	FiledAt string `json:"filed_at"`
	Failed  bool   `json:"failed"`
	Error   string `json:"error"`
}

// ConfirmFiling handles POST /requests/{id}/confirm.
func (h *RequestHandler) ConfirmFiling(w http.ResponseWriter, r *http.Request) {
	var body confirmBody
	if err := decodeJSON(r, &body); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	conf := request.FilingConfirmation{
		RequestID: chi.URLParam(r, "id"),
		Failed:    body.Failed,
		Error:     body.Error,
	}
	if body.FiledAt != "" {
		t, err := parseDate("filed_at", body.FiledAt)
		if err != nil {
			writeAppError(w, h.logger, err)
			return
		}
		conf.FiledAt = t
	}
	rec, err := h.svc.ConfirmFiling(r.Context(), conf)
	h.respond(w, http.StatusOK, rec, err)
}

type extensionBody struct {
	Reason string `json:"reason"`
}

// ApplyExtension handles POST /requests/{id}/extension.
func (h *RequestHandler) ApplyExtension(w http.ResponseWriter, r *http.Request) {
	var body extensionBody
	if err := decodeJSON(r, &body); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	rec, err := h.svc.ApplyExtension(r.Context(), chi.URLParam(r, "id"), body.Reason)
	h.respond(w, http.StatusOK, rec, err)
}

type noteBody struct {
	Text string `json:"text"`
}

// AddNote handles POST /requests/{id}/notes.
func (h *RequestHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var body noteBody
	if err := decodeJSON(r, &body); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	rec, err := h.svc.AddNote(r.Context(), chi.URLParam(r, "id"), body.Text)
	h.respond(w, http.StatusOK, rec, err)
}

// OverdueResponse lists overdue requests at AsOf.
type OverdueResponse struct {
	AsOf  time.Time     `json:"as_of"`
	Items []RequestView `json:"items"`
}

// Overdue handles GET /requests/overdue?as_of=YYYY-MM-DD.
func (h *RequestHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDate(r, "as_of", h.clock.Now())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	list, err := h.svc.GetOverdue(r.Context(), asOf)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OverdueResponse{AsOf: asOf, Items: h.views(list)})
}

// Stats handles GET /requests/stats.
func (h *RequestHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Document handles GET /requests/{id}/document and returns the rendered
// request text as plain text.
func (h *RequestHandler) Document(w http.ResponseWriter, r *http.Request) {
	body, err := h.svc.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

//Personal.AI order the ending
