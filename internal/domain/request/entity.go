package request

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// DeadlineCalculator is the subset of jurisdiction.Calculator a record needs
// to (re)derive its deadline.
type DeadlineCalculator interface {
	Calculate(code string, filingDate time.Time, flags ...jurisdiction.Condition) (time.Time, error)
	ApplyExtension(code string, filingDate time.Time, flags ...jurisdiction.Condition) (time.Time, error)
	DeadlineUnit(code string, flags ...jurisdiction.Condition) (jurisdiction.Unit, error)
}

// HistoryEntry is one append-only audit line.  The last entry's Status is the
// record's current status.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Actor     string    `json:"actor,omitempty"`
}

// Note is a free-text annotation.  Notes may be added in any state.
type Note struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Actor     string    `json:"actor,omitempty"`
}

// Extension records a granted statutory extension.
type Extension struct {
	Applied   bool       `json:"applied"`
	GrantedAt *time.Time `json:"granted_at,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// Response holds what the analyzer extracted from the agency reply.
type Response struct {
	ReceivedAt         *time.Time `json:"received_at,omitempty"`
	PagesReceived      int        `json:"pages_received"`
	PagesWithheld      int        `json:"pages_withheld"`
	Exemptions         []string   `json:"exemptions_cited"`
	RedactionSuspected bool       `json:"redaction_suspected"`
	Summary            string     `json:"summary,omitempty"`
}

// Fee tracks assessed fees and waiver requests.
type Fee struct {
	Assessed        *float64 `json:"fee_assessed,omitempty"`
	WaiverRequested bool     `json:"fee_waiver_requested"`
	WaiverGranted   *bool    `json:"fee_waiver_granted,omitempty"`
}

// Record is the aggregate root for a tracked public-records request.
//
// Deadline and DeadlineUnit are only ever written by the calculator through
// NewRecord, ApplyExtension and ConfirmFiling.  Status has no field of its own: it is
// read from the last history entry.
type Record struct {
	ID           string                   `json:"id"`
	ReferenceID  string                   `json:"reference_id,omitempty"`
	Agency       string                   `json:"agency"`
	Jurisdiction jurisdiction.Code        `json:"jurisdiction"`
	Topic        string                   `json:"topic"`
	TemplateID   string                   `json:"template_id,omitempty"`
	DocumentKey  string                   `json:"document_key,omitempty"`
	Flags        []jurisdiction.Condition `json:"flags,omitempty"`
	DateFiled    time.Time                `json:"date_filed"`
	Deadline     time.Time                `json:"deadline"`
	DeadlineUnit jurisdiction.Unit        `json:"deadline_unit,omitempty"`
	History      []HistoryEntry           `json:"history"`
	Notes        []Note                   `json:"notes"`
	Extension    Extension                `json:"extension"`
	Response     Response                 `json:"response"`
	Fee          Fee                      `json:"fee"`
	Version      int                      `json:"version"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// NewRecordInput carries the generator payload plus tracking metadata.
type NewRecordInput struct {
	ReferenceID        string
	Agency             string
	Jurisdiction       jurisdiction.Code
	Topic              string
	TemplateID         string
	DateFiled          time.Time
	Flags              []jurisdiction.Condition
	FeeWaiverRequested bool
}

// NewRecord creates a Filed record and derives its initial deadline.
func NewRecord(in NewRecordInput, calc DeadlineCalculator, now time.Time) (*Record, error) {
	if strings.TrimSpace(in.Agency) == "" {
		return nil, errors.Validation("agency is required")
	}
	if strings.TrimSpace(in.Topic) == "" {
		return nil, errors.Validation("topic is required")
	}
	if in.Jurisdiction == "" {
		return nil, errors.Validation("jurisdiction is required")
	}
	if err := checkFilingDate(in.DateFiled, now); err != nil {
		return nil, err
	}

	deadline, err := calc.Calculate(string(in.Jurisdiction), in.DateFiled, in.Flags...)
	if err != nil {
		return nil, err
	}
	unit, err := calc.DeadlineUnit(string(in.Jurisdiction), in.Flags...)
	if err != nil {
		return nil, err
	}

	r := &Record{
		ID:           uuid.New().String(),
		ReferenceID:  strings.TrimSpace(in.ReferenceID),
		Agency:       strings.TrimSpace(in.Agency),
		Jurisdiction: in.Jurisdiction,
		Topic:        strings.TrimSpace(in.Topic),
		TemplateID:   in.TemplateID,
		Flags:        dedupeFlags(in.Flags),
		DateFiled:    in.DateFiled,
		Deadline:     deadline,
		DeadlineUnit: unit,
		Notes:        []Note{},
		Fee:          Fee{WaiverRequested: in.FeeWaiverRequested},
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.Response.Exemptions = []string{}
	r.History = []HistoryEntry{{
		Timestamp: now,
		Status:    StatusFiled,
		Note:      fmt.Sprintf("filed with %s, due %s", r.Agency, r.Deadline.Format(common.DateLayout)),
	}}
	return r, nil
}

func checkFilingDate(filed, now time.Time) error {
	if filed.IsZero() {
		return errors.InvalidFilingDate("filing date is required")
	}
	if common.DateOf(filed).After(common.DateOf(now)) {
		return errors.InvalidFilingDate(fmt.Sprintf("filing date %s is after today %s",
			filed.Format(common.DateLayout), now.Format(common.DateLayout)))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Projections
// ─────────────────────────────────────────────────────────────────────────────

// Status returns the status of the last history entry.
func (r *Record) Status() Status {
	if len(r.History) == 0 {
		return ""
	}
	return r.History[len(r.History)-1].Status
}

// OverdueAt is the first instant at which the record counts as overdue.  A
// day-granular deadline is met by any time on that day; an hour-granular one
// lapses at the instant itself, midnight included.
func (r *Record) OverdueAt() time.Time {
	switch r.DeadlineUnit {
	case jurisdiction.UnitHours:
		return r.Deadline
	case "":
		// Rows written before the unit was stored: only day deadlines sit on midnight.
		if !r.Deadline.Equal(common.DateOf(r.Deadline)) {
			return r.Deadline
		}
	}
	return common.DateOf(r.Deadline).AddDate(0, 0, 1)
}

// IsOverdue reports whether the deadline has passed at now.
func (r *Record) IsOverdue(now time.Time) bool {
	return !now.Before(r.OverdueAt())
}

// EffectiveStatus is the status as of now: a Filed or Acknowledged record
// whose deadline has passed is a constructive denial whether or not a scan
// has persisted that yet.
func (r *Record) EffectiveStatus(now time.Time) Status {
	s := r.Status()
	if s.IsPending() && r.IsOverdue(now) {
		return StatusConstructiveDenial
	}
	return s
}

// DaysRemaining is the number of calendar days from now to the deadline.
func (r *Record) DaysRemaining(now time.Time) int {
	return common.DaysBetween(now, r.Deadline)
}

// EnteredStatusAt returns when the record entered its current status.
// Audit entries that repeat the status do not reset it.
func (r *Record) EnteredStatusAt() time.Time {
	if len(r.History) == 0 {
		return time.Time{}
	}
	cur := r.Status()
	i := len(r.History) - 1
	for i > 0 && r.History[i-1].Status == cur {
		i--
	}
	return r.History[i].Timestamp
}

// DecisionStatus is the status an appeal answers.  For an Appealed record it
// is the status held before the appeal was lodged; otherwise the effective
// status.
func (r *Record) DecisionStatus(now time.Time) Status {
	if r.Status() != StatusAppealed {
		return r.EffectiveStatus(now)
	}
	if i := r.decisionIndex(); i >= 0 {
		return r.History[i].Status
	}
	return StatusAppealed
}

// decisionIndex returns the last history entry before the trailing run of
// Appealed entries, or -1 when there is none.
func (r *Record) decisionIndex() int {
	i := len(r.History) - 1
	for i >= 0 && r.History[i].Status == StatusAppealed {
		i--
	}
	return i
}

// enteredAt returns when the status at History[i] was entered.
func (r *Record) enteredAt(i int) time.Time {
	if i < 0 {
		return time.Time{}
	}
	s := r.History[i].Status
	for i > 0 && r.History[i-1].Status == s {
		i--
	}
	return r.History[i].Timestamp
}

// DenialDate anchors the appeal clock.  A constructive denial dates from the
// missed deadline; a response dates from its receipt.  An Appealed record is
// anchored on the decision it appeals.
func (r *Record) DenialDate(now time.Time) time.Time {
	switch r.DecisionStatus(now) {
	case StatusConstructiveDenial:
		return r.Deadline
	case StatusPartialResponse, StatusFullResponse:
		if r.Response.ReceivedAt != nil {
			return *r.Response.ReceivedAt
		}
	}
	if r.Status() == StatusAppealed {
		if i := r.decisionIndex(); i >= 0 {
			return r.enteredAt(i)
		}
	}
	return r.EnteredStatusAt()
}

// HasAdverseDetermination reports whether the response withheld anything.
func (r *Record) HasAdverseDetermination() bool {
	return len(r.Response.Exemptions) > 0 || r.Response.PagesWithheld > 0
}

// HasFlag reports whether a special-case condition is set.
func (r *Record) HasFlag(c jurisdiction.Condition) bool {
	for _, f := range r.Flags {
		if f == c {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────────────────

func (r *Record) appendHistory(s Status, note, actor string, at time.Time) {
	r.History = append(r.History, HistoryEntry{Timestamp: at, Status: s, Note: note, Actor: actor})
	r.UpdatedAt = at
}

func (r *Record) ensureOpen() error {
	if s := r.Status(); s.IsTerminal() {
		return errors.RecordClosed(r.ID, string(s))
	}
	return nil
}

// Transition moves the record to a new status.  ConstructiveDenial cannot be
// set this way; see MarkConstructiveDenial.
func (r *Record) Transition(to Status, note, actor string, at time.Time) error {
	if err := r.ensureOpen(); err != nil {
		return err
	}
	from := r.Status()
	if to == StatusConstructiveDenial || !CanTransition(from, to) {
		return errors.InvalidTransition(string(from), string(to))
	}
	if from == StatusFullResponse && to == StatusAppealed && !r.HasAdverseDetermination() {
		return errors.InvalidTransition(string(from), string(to)).
			WithDetail(fmt.Sprintf("current=%s attempted=%s: response withheld nothing", from, to))
	}
	r.appendHistory(to, note, actor, at)
	return nil
}

// MarkConstructiveDenial persists the derived denial once the deadline has
// passed without an answer.
func (r *Record) MarkConstructiveDenial(now time.Time, actor string) error {
	if err := r.ensureOpen(); err != nil {
		return err
	}
	from := r.Status()
	if !from.IsPending() {
		return errors.InvalidTransition(string(from), string(StatusConstructiveDenial))
	}
	if !r.IsOverdue(now) {
		return errors.InvalidTransition(string(from), string(StatusConstructiveDenial)).
			WithDetail("deadline " + r.Deadline.Format(common.DateLayout) + " has not passed")
	}
	note := fmt.Sprintf("no response by %s", r.Deadline.Format(common.DateLayout))
	r.appendHistory(StatusConstructiveDenial, note, actor, now)
	return nil
}

// ApplyExtension grants the jurisdiction's extension.  The deadline is
// recomputed from the filing date; a second extension is refused.
func (r *Record) ApplyExtension(calc DeadlineCalculator, reason, actor string, at time.Time) error {
	if err := r.ensureOpen(); err != nil {
		return err
	}
	s := r.Status()
	if r.Extension.Applied || !s.IsPending() {
		return errors.InvalidTransition(string(s), "extended")
	}
	deadline, err := calc.ApplyExtension(string(r.Jurisdiction), r.DateFiled, r.Flags...)
	if err != nil {
		return err
	}
	unit, err := calc.DeadlineUnit(string(r.Jurisdiction), r.Flags...)
	if err != nil {
		return err
	}
	granted := at
	r.Extension = Extension{Applied: true, GrantedAt: &granted, Reason: strings.TrimSpace(reason)}
	r.Deadline = deadline
	r.DeadlineUnit = unit
	note := "deadline extended to " + deadline.Format(common.DateLayout)
	if r.Extension.Reason != "" {
		note += ": " + r.Extension.Reason
	}
	r.appendHistory(s, note, actor, at)
	return nil
}

// ConfirmFiling re-anchors the filing date to the transport's confirmation
// and recomputes the deadline.
func (r *Record) ConfirmFiling(calc DeadlineCalculator, filedAt, now time.Time, actor string) error {
	if err := r.ensureOpen(); err != nil {
		return err
	}
	if s := r.Status(); s != StatusFiled {
		return errors.InvalidTransition(string(s), "filing-confirmed")
	}
	if err := checkFilingDate(filedAt, now); err != nil {
		return err
	}
	var (
		deadline time.Time
		err      error
	)
	if r.Extension.Applied {
		deadline, err = calc.ApplyExtension(string(r.Jurisdiction), filedAt, r.Flags...)
	} else {
		deadline, err = calc.Calculate(string(r.Jurisdiction), filedAt, r.Flags...)
	}
	if err != nil {
		return err
	}
	unit, err := calc.DeadlineUnit(string(r.Jurisdiction), r.Flags...)
	if err != nil {
		return err
	}
	r.DateFiled = filedAt
	r.Deadline = deadline
	r.DeadlineUnit = unit
	r.appendHistory(StatusFiled, fmt.Sprintf("filing confirmed at %s, due %s",
		filedAt.Format(time.RFC3339), deadline.Format(common.DateLayout)), actor, now)
	return nil
}

// RecordResponse applies an analyzer event.  Anything withheld makes the
// response partial.
func (r *Record) RecordResponse(ev ResponseEvent, actor string, at time.Time) error {
	if err := r.ensureOpen(); err != nil {
		return err
	}
	target := ev.Classify()
	from := r.Status()
	if !CanTransition(from, target) {
		return errors.InvalidTransition(string(from), string(target))
	}

	received := ev.ReceivedAt
	if received.IsZero() {
		received = at
	}
	r.Response = Response{
		ReceivedAt:         &received,
		PagesReceived:      ev.PagesReceived,
		PagesWithheld:      ev.PagesWithheld,
		Exemptions:         normalizeExemptions(r.Jurisdiction, ev.Exemptions),
		RedactionSuspected: ev.RedactionSuspected,
		Summary:            strings.TrimSpace(ev.Summary),
	}
	if ev.FeeAssessed != nil {
		fee := *ev.FeeAssessed
		r.Fee.Assessed = &fee
	}
	if ev.FeeWaiverGranted != nil {
		granted := *ev.FeeWaiverGranted
		r.Fee.WaiverGranted = &granted
	}

	note := fmt.Sprintf("response received: %d pages, %d withheld", ev.PagesReceived, ev.PagesWithheld)
	if len(r.Response.Exemptions) > 0 {
		note += ", exemptions " + strings.Join(r.Response.Exemptions, ",")
	}
	r.appendHistory(target, note, actor, at)
	return nil
}

// AddNote appends a note.  It is legal in every state, terminal included.
func (r *Record) AddNote(text, actor string, at time.Time) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.Validation("note text is required")
	}
	r.Notes = append(r.Notes, Note{Timestamp: at, Text: text, Actor: actor})
	r.UpdatedAt = at
	return nil
}

// Validate checks the structural invariants of a (possibly rehydrated) record.
func (r *Record) Validate() error {
	if r.ID == "" {
		return errors.Validation("record id is empty")
	}
	if r.Agency == "" || r.Jurisdiction == "" {
		return errors.Validation("record is missing agency or jurisdiction").WithDetail("id=" + r.ID)
	}
	if r.Deadline.IsZero() {
		return errors.Validation("record has no deadline").WithDetail("id=" + r.ID)
	}
	if len(r.History) == 0 {
		return errors.Validation("record has no history").WithDetail("id=" + r.ID)
	}
	if r.History[0].Status != StatusFiled {
		return errors.Validation("history does not start at filed").WithDetail("id=" + r.ID)
	}
	for i, h := range r.History {
		if !h.Status.IsValid() {
			return errors.Validation("history holds an unknown status").
				WithDetail(fmt.Sprintf("id=%s index=%d status=%s", r.ID, i, h.Status))
		}
		if i > 0 && h.Timestamp.Before(r.History[i-1].Timestamp) {
			return errors.Validation("history is not in time order").
				WithDetail(fmt.Sprintf("id=%s index=%d", r.ID, i))
		}
	}
	return nil
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.Flags = append([]jurisdiction.Condition(nil), r.Flags...)
	c.History = append([]HistoryEntry(nil), r.History...)
	c.Notes = append([]Note{}, r.Notes...)
	c.Response.Exemptions = append([]string{}, r.Response.Exemptions...)
	if r.Response.ReceivedAt != nil {
		t := *r.Response.ReceivedAt
		c.Response.ReceivedAt = &t
	}
	if r.Extension.GrantedAt != nil {
		t := *r.Extension.GrantedAt
		c.Extension.GrantedAt = &t
	}
	if r.Fee.Assessed != nil {
		v := *r.Fee.Assessed
		c.Fee.Assessed = &v
	}
	if r.Fee.WaiverGranted != nil {
		v := *r.Fee.WaiverGranted
		c.Fee.WaiverGranted = &v
	}
	return &c
}

// MarshalJSON adds the projected status to the wire form.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		Status Status `json:"status"`
	}{plain(r), r.Status()})
}

func normalizeExemptions(code jurisdiction.Code, raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		n := jurisdiction.NormalizeExemption(code, e)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func dedupeFlags(flags []jurisdiction.Condition) []jurisdiction.Condition {
	seen := make(map[jurisdiction.Condition]struct{}, len(flags))
	var out []jurisdiction.Condition
	for _, f := range flags {
		if _, dup := seen[f]; dup || f == "" {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

//Personal.AI order the ending
