package request

import (
	"strings"
	"time"

	"github.com/turtacn/foia-tracker/pkg/errors"
)

// ResponseEvent is the structured result of analyzing an agency reply.
type ResponseEvent struct {
	RequestID          string    `json:"request_id"`
	ReceivedAt         time.Time `json:"received_at"`
	PagesReceived      int       `json:"page_count"`
	PagesWithheld      int       `json:"pages_withheld"`
	Exemptions         []string  `json:"exemptions_cited"`
	FeeAssessed        *float64  `json:"fee_assessed,omitempty"`
	FeeWaiverGranted   *bool     `json:"fee_waiver_granted,omitempty"`
	RedactionSuspected bool      `json:"redaction_suspicion_flag"`
	Summary            string    `json:"summary,omitempty"`
}

// Validate rejects events the tracker cannot apply.
func (e ResponseEvent) Validate() error {
	if strings.TrimSpace(e.RequestID) == "" {
		return errors.Validation("response event has no request_id")
	}
	if e.PagesReceived < 0 || e.PagesWithheld < 0 {
		return errors.Validation("page counts must not be negative").WithDetail("request_id=" + e.RequestID)
	}
	if e.FeeAssessed != nil && *e.FeeAssessed < 0 {
		return errors.Validation("fee must not be negative").WithDetail("request_id=" + e.RequestID)
	}
	return nil
}

// Classify maps the event to the response status it produces.  A release
// that withholds anything is partial.  A reply that releases nothing is a
// complete determination, i.e. a full grant of nothing or a full denial.
func (e ResponseEvent) Classify() Status {
	if e.PagesReceived > 0 && (e.PagesWithheld > 0 || len(e.Exemptions) > 0) {
		return StatusPartialResponse
	}
	return StatusFullResponse
}

// FilingConfirmation is the transport's report for one dispatched request.
// A failed filing carries the transport error and leaves the record alone.
type FilingConfirmation struct {
	RequestID string    `json:"request_id"`
	FiledAt   time.Time `json:"filed_at"`
	Failed    bool      `json:"failed,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Validate rejects confirmations without a target or timestamp.
func (c FilingConfirmation) Validate() error {
	if strings.TrimSpace(c.RequestID) == "" {
		return errors.Validation("filing confirmation has no request_id")
	}
	if !c.Failed && c.FiledAt.IsZero() {
		return errors.InvalidFilingDate("filing confirmation has no filed_at").WithDetail("request_id=" + c.RequestID)
	}
	return nil
}

//Personal.AI order the ending
