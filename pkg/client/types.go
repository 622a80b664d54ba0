package client

import "time"

// Request statuses as sent on the wire.
const (
	StatusFiled              = "filed"
	StatusAcknowledged       = "acknowledged"
	StatusPartialResponse    = "partial_response"
	StatusFullResponse       = "full_response"
	StatusConstructiveDenial = "constructive_denial"
	StatusAppealed           = "appealed"
	StatusResolved           = "resolved"
	StatusClosed             = "closed"
)

// HistoryEntry is one line of a request's or appeal's audit trail.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Actor     string    `json:"actor,omitempty"`
}

// Note is a free-text annotation on a request.
type Note struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Actor     string    `json:"actor,omitempty"`
}

// Extension is a granted statutory extension.
type Extension struct {
	Applied   bool       `json:"applied"`
	GrantedAt *time.Time `json:"granted_at,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// ResponseSummary is what the analyzer extracted from the agency reply.
type ResponseSummary struct {
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

// Request is a tracked public-records request.
type Request struct {
	ID           string          `json:"id"`
	ReferenceID  string          `json:"reference_id,omitempty"`
	Agency       string          `json:"agency"`
	Jurisdiction string          `json:"jurisdiction"`
	Topic        string          `json:"topic"`
	TemplateID   string          `json:"template_id,omitempty"`
	DocumentKey  string          `json:"document_key,omitempty"`
	Flags        []string        `json:"flags,omitempty"`
	DateFiled    time.Time       `json:"date_filed"`
	Deadline     time.Time       `json:"deadline"`
	Status       string          `json:"status"`
	History      []HistoryEntry  `json:"history"`
	Notes        []Note          `json:"notes"`
	Extension    Extension       `json:"extension"`
	Response     ResponseSummary `json:"response"`
	Fee          Fee             `json:"fee"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RequestView is a request plus the values the server derived at read time.
type RequestView struct {
	Request         Request   `json:"request"`
	EffectiveStatus string    `json:"effective_status"`
	DaysRemaining   int       `json:"days_remaining"`
	Overdue         bool      `json:"overdue"`
	OverdueAt       time.Time `json:"overdue_at"`
}

// Stats summarizes the store.
type Stats struct {
	Total          int64            `json:"total"`
	Overdue        int64            `json:"overdue"`
	ByStatus       map[string]int64 `json:"by_status"`
	ByJurisdiction map[string]int64 `json:"by_jurisdiction"`
}

// Ground is one citation and the argument built on it.
type Ground struct {
	Citation  string `json:"citation"`
	Argument  string `json:"argument"`
	Exemption string `json:"exemption,omitempty"`
}

// Appeal is one appeal round.
type Appeal struct {
	ID            string         `json:"id"`
	RequestID     string         `json:"request_id"`
	Round         int            `json:"round"`
	Jurisdiction  string         `json:"jurisdiction"`
	Type          string         `json:"appeal_type"`
	Body          string         `json:"appeal_body"`
	Grounds       []Ground       `json:"grounds"`
	AnchorDate    time.Time      `json:"anchor_date"`
	FiledDeadline time.Time      `json:"filed_deadline"`
	DocumentKey   string         `json:"document_key,omitempty"`
	Status        string         `json:"status"`
	History       []HistoryEntry `json:"history"`
	Version       int            `json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Alert is a raised deadline alert.
type Alert struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id"`
	Agency       string    `json:"agency"`
	Jurisdiction string    `json:"jurisdiction"`
	Kind         string    `json:"kind"`
	ThresholdID  string    `json:"threshold_id"`
	Level        string    `json:"level"`
	DueDate      time.Time `json:"due_date"`
	GeneratedAt  time.Time `json:"generated_at"`
	Message      string    `json:"message"`
	GuidanceText string    `json:"guidance_text"`
}

// ScanWarning describes a record a scan could not fully process.
type ScanWarning struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
}

// ScanResult is the outcome of one alert scan.
type ScanResult struct {
	AsOf         time.Time     `json:"as_of"`
	Alerts       []Alert       `json:"alerts"`
	Transitioned []string      `json:"transitioned"`
	Warnings     []ScanWarning `json:"warnings"`
	Scanned      int           `json:"scanned"`
}

// Threshold is an alert crossing point relative to a deadline.
type Threshold struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	OffsetDays int    `json:"offset_days"`
	Level      string `json:"level"`
}

// Jurisdiction describes a supported jurisdiction.
type Jurisdiction struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Statute string `json:"statute"`
}

// Holiday is a resolved holiday date.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

//Personal.AI order the ending
