package alert

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// Kind separates early warnings from missed deadlines.
type Kind string

const (
	KindUpcoming Kind = "upcoming"
	KindOverdue  Kind = "overdue"
)

// Level orders alerts by urgency.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelUrgent  Level = "urgent"
	LevelOverdue Level = "overdue"
)

// Rank sorts levels most urgent first.
func (l Level) Rank() int {
	switch l {
	case LevelOverdue:
		return 0
	case LevelUrgent:
		return 1
	case LevelWarning:
		return 2
	default:
		return 3
	}
}

// Threshold is a named crossing point relative to a deadline.
type Threshold struct {
	ID         string `json:"id" mapstructure:"id"`
	Kind       Kind   `json:"kind" mapstructure:"kind"`
	OffsetDays int    `json:"offset_days" mapstructure:"offset_days"`
	Level      Level  `json:"level" mapstructure:"level"`
}

// Validate checks a threshold definition.
func (t Threshold) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.Validation("threshold id is required")
	}
	switch t.Kind {
	case KindUpcoming:
		if t.OffsetDays <= 0 {
			return errors.Validation("upcoming threshold needs a positive offset").WithDetail("threshold=" + t.ID)
		}
	case KindOverdue:
	default:
		return errors.Validation("unknown threshold kind").WithDetail(fmt.Sprintf("threshold=%s kind=%s", t.ID, t.Kind))
	}
	return nil
}

// CrossingPoint is the instant at which the threshold fires for a record
// with the given deadline.  overdueAt is the record's first overdue instant.
func (t Threshold) CrossingPoint(deadline, overdueAt time.Time) time.Time {
	if t.Kind == KindOverdue {
		return overdueAt
	}
	return common.DateOf(deadline).AddDate(0, 0, -t.OffsetDays)
}

// Crossed reports whether asOf is at or past the crossing point.
func (t Threshold) Crossed(deadline, overdueAt, asOf time.Time) bool {
	return !asOf.Before(t.CrossingPoint(deadline, overdueAt))
}

// DefaultThresholds are T-10, T-5, T-2 and overdue.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{ID: "T-10", Kind: KindUpcoming, OffsetDays: 10, Level: LevelInfo},
		{ID: "T-5", Kind: KindUpcoming, OffsetDays: 5, Level: LevelWarning},
		{ID: "T-2", Kind: KindUpcoming, OffsetDays: 2, Level: LevelUrgent},
		{ID: "overdue", Kind: KindOverdue, Level: LevelOverdue},
	}
}

// ThresholdSet resolves the thresholds for a jurisdiction: an exact code
// override wins, then its family override, then the defaults.
type ThresholdSet struct {
	defaults  []Threshold
	overrides map[jurisdiction.Code][]Threshold
}

// NewThresholdSet validates and indexes the given thresholds.
func NewThresholdSet(defaults []Threshold, overrides map[jurisdiction.Code][]Threshold) (*ThresholdSet, error) {
	if len(defaults) == 0 {
		defaults = DefaultThresholds()
	}
	s := &ThresholdSet{overrides: make(map[jurisdiction.Code][]Threshold, len(overrides))}
	var err error
	if s.defaults, err = checkThresholds(defaults); err != nil {
		return nil, err
	}
	for code, list := range overrides {
		checked, err := checkThresholds(list)
		if err != nil {
			return nil, err
		}
		s.overrides[code] = checked
	}
	return s, nil
}

// DefaultThresholdSet uses DefaultThresholds for every jurisdiction.
func DefaultThresholdSet() *ThresholdSet {
	s, _ := NewThresholdSet(DefaultThresholds(), nil)
	return s
}

// For returns the thresholds applicable to code.
func (s *ThresholdSet) For(code jurisdiction.Code) []Threshold {
	if list, ok := s.overrides[code]; ok {
		return list
	}
	if list, ok := s.overrides[code.Family()]; ok {
		return list
	}
	return s.defaults
}

func checkThresholds(list []Threshold) ([]Threshold, error) {
	seen := make(map[string]struct{}, len(list))
	out := make([]Threshold, 0, len(list))
	for _, t := range list {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[t.ID]; dup {
			return nil, errors.Validation("duplicate threshold id").WithDetail("threshold=" + t.ID)
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	// Furthest crossing first, overdue last.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == KindUpcoming
		}
		return out[i].OffsetDays > out[j].OffsetDays
	})
	return out, nil
}

// Alert is emitted at most once per (RequestID, ThresholdID).
type Alert struct {
	ID           string            `json:"id"`
	RequestID    string            `json:"request_id"`
	Agency       string            `json:"agency"`
	Jurisdiction jurisdiction.Code `json:"jurisdiction"`
	Kind         Kind              `json:"kind"`
	ThresholdID  string            `json:"threshold_id"`
	Level        Level             `json:"level"`
	DueDate      time.Time         `json:"due_date"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Message      string            `json:"message"`
	GuidanceText string            `json:"guidance_text"`
}

// Key is the idempotency key.
func (a *Alert) Key() string { return Key(a.RequestID, a.ThresholdID) }

// Key joins the idempotency key parts.
func Key(requestID, thresholdID string) string { return requestID + "|" + thresholdID }

// Subject is what an alert is raised about.
type Subject struct {
	RequestID    string
	Agency       string
	Jurisdiction jurisdiction.Code
	Deadline     time.Time
}

// New builds the alert for a crossed threshold.
func New(sub Subject, t Threshold, now time.Time) *Alert {
	days := common.DaysBetween(now, sub.Deadline)
	due := sub.Deadline.Format(common.DateLayout)

	var msg string
	if t.Kind == KindOverdue {
		msg = fmt.Sprintf("Response is %d day(s) overdue. Deadline was %s.", max(-days, 0), due)
	} else {
		msg = fmt.Sprintf("Deadline in %d day(s) (%s).", days, due)
	}
	return &Alert{
		ID:           uuid.New().String(),
		RequestID:    sub.RequestID,
		Agency:       sub.Agency,
		Jurisdiction: sub.Jurisdiction,
		Kind:         t.Kind,
		ThresholdID:  t.ID,
		Level:        t.Level,
		DueDate:      sub.Deadline,
		GeneratedAt:  now,
		Message:      msg,
		GuidanceText: Guidance(sub.Jurisdiction, t.Kind, days),
	}
}

// SortByUrgency orders alerts most urgent first, then by due date.
func SortByUrgency(list []*Alert) {
	sort.SliceStable(list, func(i, j int) bool {
		if ri, rj := list[i].Level.Rank(), list[j].Level.Rank(); ri != rj {
			return ri < rj
		}
		return list[i].DueDate.Before(list[j].DueDate)
	})
}

//Personal.AI order the ending
