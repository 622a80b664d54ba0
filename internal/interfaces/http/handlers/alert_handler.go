package handlers

import (
	"net/http"
	"time"

	"github.com/turtacn/foia-tracker/internal/application/alerting"
	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// AlertHandler exposes deadline scans and the alert log.
type AlertHandler struct {
	engine   alerting.Engine
	registry jurisdiction.Registry
	logger   logging.Logger
}

func NewAlertHandler(engine alerting.Engine, registry jurisdiction.Registry, logger logging.Logger) *AlertHandler {
	return &AlertHandler{engine: engine, registry: registry, logger: logger}
}

// Scan handles POST /alerts/scan?as_of=YYYY-MM-DD.  Without as_of the engine
// scans at its own clock.
func (h *AlertHandler) Scan(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDate(r, "as_of", time.Time{})
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	res, err := h.engine.Scan(r.Context(), asOf)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AlertListResponse is one page of alerts.
type AlertListResponse struct {
	Items []*alert.Alert `json:"items"`
	Total int64          `json:"total"`
}

// List handles GET /alerts?request_id=&kind=&since=&limit=&offset=.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	since, err := queryDate(r, "since", time.Time{})
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	kind := alert.Kind(r.URL.Query().Get("kind"))
	if kind != "" && kind != alert.KindUpcoming && kind != alert.KindOverdue {
		writeAppError(w, h.logger, errors.InvalidParam("invalid kind").WithDetail("kind="+string(kind)))
		return
	}

	list, total, err := h.engine.List(r.Context(), alert.ListOptions{
		RequestID: r.URL.Query().Get("request_id"),
		Kind:      kind,
		Since:     since,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []*alert.Alert{}
	}
	writeJSON(w, http.StatusOK, AlertListResponse{Items: list, Total: total})
}

// ThresholdsResponse lists the thresholds a scan applies to Jurisdiction.
type ThresholdsResponse struct {
	Jurisdiction jurisdiction.Code `json:"jurisdiction,omitempty"`
	Thresholds   []alert.Threshold `json:"thresholds"`
}

// Thresholds handles GET /alerts/thresholds?jurisdiction=.  Without a
// jurisdiction it returns the defaults.
func (h *AlertHandler) Thresholds(w http.ResponseWriter, r *http.Request) {
	var code jurisdiction.Code
	if raw := r.URL.Query().Get("jurisdiction"); raw != "" {
		c, err := h.registry.Normalize(raw)
		if err != nil {
			writeAppError(w, h.logger, err)
			return
		}
		code = c
	}
	writeJSON(w, http.StatusOK, ThresholdsResponse{
		Jurisdiction: code,
		Thresholds:   h.engine.Thresholds().For(code),
	})
}

//Personal.AI order the ending
