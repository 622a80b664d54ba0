package request

import (
	"strings"

	"github.com/turtacn/foia-tracker/pkg/errors"
)

// Status is the lifecycle state of a tracked request.
type Status string

const (
	StatusFiled              Status = "filed"
	StatusAcknowledged       Status = "acknowledged"
	StatusPartialResponse    Status = "partial_response"
	StatusFullResponse       Status = "full_response"
	StatusConstructiveDenial Status = "constructive_denial"
	StatusAppealed           Status = "appealed"
	StatusResolved           Status = "resolved"
	StatusClosed             Status = "closed"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusFiled,
	StatusAcknowledged,
	StatusPartialResponse,
	StatusFullResponse,
	StatusConstructiveDenial,
	StatusAppealed,
	StatusResolved,
	StatusClosed,
}

// validTransitions is the lifecycle table.  Closed (withdrawal) is reachable
// from every non-terminal state and is added by CanTransition.
var validTransitions = map[Status][]Status{
	StatusFiled:              {StatusAcknowledged, StatusPartialResponse, StatusFullResponse, StatusConstructiveDenial},
	StatusAcknowledged:       {StatusPartialResponse, StatusFullResponse, StatusConstructiveDenial},
	StatusPartialResponse:    {StatusAppealed, StatusResolved},
	StatusFullResponse:       {StatusAppealed, StatusResolved},
	StatusConstructiveDenial: {StatusPartialResponse, StatusFullResponse, StatusAppealed, StatusResolved},
	StatusAppealed:           {StatusResolved},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status or deadline change is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// IsPending reports whether the agency has not yet answered.
func (s Status) IsPending() bool {
	return s == StatusFiled || s == StatusAcknowledged
}

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// CanTransition reports whether to is reachable from s in one step.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() || !to.IsValid() {
		return false
	}
	if to == StatusClosed {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func NextStatuses(s Status) []Status {
	if s.IsTerminal() {
		return nil
	}
	next := append([]Status(nil), validTransitions[s]...)
	return append(next, StatusClosed)
}

// ParseStatus accepts the canonical value as well as CamelCase, spaced and
// hyphenated spellings ("PartialResponse", "partial-response").
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	for _, v := range AllStatuses {
		if strings.ReplaceAll(string(v), "_", "") == key {
			return v, nil
		}
	}
	return "", errors.Validation("unknown request status").WithDetail("status=" + s)
}

//Personal.AI order the ending
