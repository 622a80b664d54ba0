package appeal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// Type is the kind of adverse determination being challenged.
type Type string

const (
	TypeConstructiveDenial Type = "constructive_denial"
	TypePartialDenial      Type = "partial_denial"
	TypeFullDenial         Type = "full_denial"
)

// Status is the appeal's own lifecycle state.
type Status string

const (
	StatusDrafted          Status = "drafted"
	StatusFiled            Status = "filed"
	StatusAcknowledged     Status = "acknowledged"
	StatusGranted          Status = "granted"
	StatusPartiallyGranted Status = "partially_granted"
	StatusDenied           Status = "denied"
	StatusWithdrawn        Status = "withdrawn"
)

var allStatuses = []Status{
	StatusDrafted, StatusFiled, StatusAcknowledged,
	StatusGranted, StatusPartiallyGranted, StatusDenied, StatusWithdrawn,
}

// Withdrawn is reachable from every non-terminal state and is not listed.
var validTransitions = map[Status][]Status{
	StatusDrafted:      {StatusFiled},
	StatusFiled:        {StatusAcknowledged, StatusGranted, StatusPartiallyGranted, StatusDenied},
	StatusAcknowledged: {StatusGranted, StatusPartiallyGranted, StatusDenied},
}

// IsTerminal reports whether the round has concluded.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusGranted, StatusPartiallyGranted, StatusDenied, StatusWithdrawn:
		return true
	}
	return false
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, v := range allStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether to is reachable from from.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() || !to.IsValid() {
		return false
	}
	if to == StatusWithdrawn {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus accepts canonical, CamelCase and hyphenated spellings.
func ParseStatus(s string) (Status, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range allStatuses {
		if strings.ReplaceAll(string(v), "_", "") == key {
			return v, nil
		}
	}
	return "", errors.Validation("unknown appeal status").WithDetail("status=" + s)
}

// Ground is one citation and the argument built on it.
type Ground struct {
	Citation  string `json:"citation"`
	Argument  string `json:"argument"`
	Exemption string `json:"exemption,omitempty"`
}

// HistoryEntry is one append-only audit line of an appeal round.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Note      string    `json:"note,omitempty"`
}

// Record is one appeal round.  It refers to its request by id only.
type Record struct {
	ID            string            `json:"id"`
	RequestID     string            `json:"request_id"`
	Round         int               `json:"round"`
	Jurisdiction  jurisdiction.Code `json:"jurisdiction"`
	Type          Type              `json:"appeal_type"`
	Body          string            `json:"appeal_body"`
	Grounds       []Ground          `json:"grounds"`
	AnchorDate    time.Time         `json:"anchor_date"`
	FiledDeadline time.Time         `json:"filed_deadline"`
	DocumentKey   string            `json:"document_key,omitempty"`
	History       []HistoryEntry    `json:"history"`
	Version       int               `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewRecordInput carries the decided content of a new round.
type NewRecordInput struct {
	RequestID     string
	Round         int
	Jurisdiction  jurisdiction.Code
	Type          Type
	Grounds       []Ground
	AnchorDate    time.Time
	FiledDeadline time.Time
}

// NewRecord creates a Drafted appeal round.
func NewRecord(in NewRecordInput, now time.Time) (*Record, error) {
	if in.RequestID == "" {
		return nil, errors.Validation("appeal needs a request id")
	}
	if in.Round < 1 {
		return nil, errors.Validation("appeal round starts at 1").WithDetail(fmt.Sprintf("round=%d", in.Round))
	}
	if len(in.Grounds) == 0 {
		return nil, errors.Validation("appeal needs at least one ground").WithDetail("request_id=" + in.RequestID)
	}
	return &Record{
		ID:            uuid.New().String(),
		RequestID:     in.RequestID,
		Round:         in.Round,
		Jurisdiction:  in.Jurisdiction,
		Type:          in.Type,
		Body:          BodyFor(in.Jurisdiction, in.Round),
		Grounds:       in.Grounds,
		AnchorDate:    in.AnchorDate,
		FiledDeadline: in.FiledDeadline,
		History:       []HistoryEntry{{Timestamp: now, Status: StatusDrafted, Note: fmt.Sprintf("round %d drafted", in.Round)}},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Status returns the status of the last history entry.
func (a *Record) Status() Status {
	if len(a.History) == 0 {
		return ""
	}
	return a.History[len(a.History)-1].Status
}

// DecidedAt returns when the round reached its current status.
func (a *Record) DecidedAt() time.Time {
	if len(a.History) == 0 {
		return time.Time{}
	}
	return a.History[len(a.History)-1].Timestamp
}

// Transition runs the appeal's own state machine.
func (a *Record) Transition(to Status, note string, at time.Time) error {
	from := a.Status()
	if !CanTransition(from, to) {
		return errors.New(errors.ErrCodeAppealInvalidTransition, "invalid appeal status transition").
			WithDetail(fmt.Sprintf("id=%s current=%s attempted=%s", a.ID, from, to))
	}
	a.History = append(a.History, HistoryEntry{Timestamp: at, Status: to, Note: note})
	a.UpdatedAt = at
	return nil
}

// Clone returns a deep copy.
func (a *Record) Clone() *Record {
	c := *a
	c.Grounds = append([]Ground(nil), a.Grounds...)
	c.History = append([]HistoryEntry(nil), a.History...)
	return &c
}

// MarshalJSON adds the projected status to the wire form.
func (a Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		Status Status `json:"status"`
	}{plain(a), a.Status()})
}

//Personal.AI order the ending
