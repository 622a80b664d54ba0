package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// CalendarHandler answers deadline and business-day questions without
// touching the request store.
type CalendarHandler struct {
	calc   *jurisdiction.Calculator
	clock  common.Clock
	logger logging.Logger
}

func NewCalendarHandler(calc *jurisdiction.Calculator, clock common.Clock, logger logging.Logger) *CalendarHandler {
	if clock == nil {
		clock = common.SystemClock{}
	}
	return &CalendarHandler{calc: calc, clock: clock, logger: logger}
}

// Jurisdictions handles GET /jurisdictions.
func (h *CalendarHandler) Jurisdictions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": h.calc.Registry().List()})
}

// DeadlineResponse is the computed response deadline for a filing date.
type DeadlineResponse struct {
	Jurisdiction jurisdiction.Code        `json:"jurisdiction"`
	DateFiled    time.Time                `json:"date_filed"`
	Flags        []jurisdiction.Condition `json:"flags,omitempty"`
	Extended     bool                     `json:"extended"`
	Deadline     time.Time                `json:"deadline"`
}

// Deadline handles
// GET /calendar/deadline?jurisdiction=&filed=&flags=a,b&extended=true.
func (h *CalendarHandler) Deadline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, err := h.calc.Registry().Normalize(q.Get("jurisdiction"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	filed, err := queryDate(r, "filed", common.DateOf(h.clock.Now()))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	flags, err := jurisdiction.ParseConditions(splitList(q.Get("flags")))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	extended := false
	if v := q.Get("extended"); v != "" {
		if extended, err = strconv.ParseBool(v); err != nil {
			writeAppError(w, h.logger, errors.InvalidParam("invalid extended").WithDetail(strconv.Quote(v)))
			return
		}
	}

	var deadline time.Time
	if extended {
		deadline, err = h.calc.ApplyExtension(string(code), filed, flags...)
	} else {
		deadline, err = h.calc.Calculate(string(code), filed, flags...)
	}
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DeadlineResponse{
		Jurisdiction: code,
		DateFiled:    filed,
		Flags:        flags,
		Extended:     extended,
		Deadline:     deadline,
	})
}

// AppealDeadline handles GET /calendar/appeal-deadline?jurisdiction=&anchor=.
func (h *CalendarHandler) AppealDeadline(w http.ResponseWriter, r *http.Request) {
	code, err := h.calc.Registry().Normalize(r.URL.Query().Get("jurisdiction"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	anchor, err := queryDate(r, "anchor", common.DateOf(h.clock.Now()))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	deadline, err := h.calc.CalculateAppeal(string(code), anchor)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jurisdiction":    code,
		"anchor_date":     anchor,
		"appeal_deadline": deadline,
	})
}

// BusinessDayResponse reports whether Date is a business day.
type BusinessDayResponse struct {
	Jurisdiction string    `json:"jurisdiction"`
	Date         time.Time `json:"date"`
	BusinessDay  bool      `json:"business_day"`
	Next         time.Time `json:"next_business_day"`
}

// BusinessDay handles GET /calendar/business-day?jurisdiction=&date=.
func (h *CalendarHandler) BusinessDay(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("jurisdiction")
	date, err := queryDate(r, "date", common.DateOf(h.clock.Now()))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	cal := h.calc.Calendar()
	ok, err := cal.IsBusinessDay(code, date)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	next, err := cal.AddBusinessDays(code, date, 1)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, BusinessDayResponse{Jurisdiction: code, Date: date, BusinessDay: ok, Next: next})
}

// Holidays handles GET /calendar/holidays?jurisdiction=&year=.
func (h *CalendarHandler) Holidays(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("jurisdiction")
	year, err := queryInt(r, "year", h.clock.Now().Year())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	list, err := h.calc.Calendar().Holidays(code, year)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jurisdiction": code,
		"year":         year,
		"items":        list,
	})
}

//Personal.AI order the ending
