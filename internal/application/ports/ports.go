// Package ports declares the outbound dependencies of the tracker's
// application services.  Infrastructure packages provide the adapters.
package ports

import (
	"context"
	"time"

	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// RequestFiledEvent tells the transport to file DocumentKey with Agency.
type RequestFiledEvent struct {
	RequestID    string    `json:"request_id"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	Agency       string    `json:"agency"`
	Jurisdiction string    `json:"jurisdiction"`
	TemplateID   string    `json:"template_id,omitempty"`
	DocumentKey  string    `json:"document_key,omitempty"`
	DateFiled    time.Time `json:"date_filed"`
	Deadline     time.Time `json:"deadline"`
}

// EventPublisher emits tracker events to collaborators.
type EventPublisher interface {
	RequestFiled(ctx context.Context, ev RequestFiledEvent) error
	AlertRaised(ctx context.Context, a *alert.Alert) error
	AppealGenerated(ctx context.Context, a *appeal.Record) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) RequestFiled(context.Context, RequestFiledEvent) error { return nil }
func (NopPublisher) AlertRaised(context.Context, *alert.Alert) error       { return nil }
func (NopPublisher) AppealGenerated(context.Context, *appeal.Record) error { return nil }

// ---------------------------------------------------------------------------
// Documents and cache
// ---------------------------------------------------------------------------

// DocumentStore keeps rendered request text and appeal packets.
type DocumentStore interface {
	PutDocument(ctx context.Context, key, contentType string, body []byte) error
	GetDocument(ctx context.Context, key string) ([]byte, error)
}

// RecordCache fronts request reads.  Load is called on a miss.
type RecordCache interface {
	Get(ctx context.Context, id string, load func(context.Context) (*request.Record, error)) (*request.Record, error)
	Invalidate(ctx context.Context, id string) error
}

// ScanLocker serializes alert scans across processes.  TryLock reports
// acquired=false when another holder has the lock.
type ScanLocker interface {
	TryLock(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

// Metrics receives tracker counters; prometheus-backed in production.
type Metrics interface {
	RequestCreated(jurisdiction string)
	StatusChanged(from, to string)
	AlertEmitted(kind, thresholdID string)
	ScanCompleted(d time.Duration, scanned, warnings int)
	AppealGenerated(appealType string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RequestCreated(string)                 {}
func (NopMetrics) StatusChanged(string, string)          {}
func (NopMetrics) AlertEmitted(string, string)           {}
func (NopMetrics) ScanCompleted(time.Duration, int, int) {}
func (NopMetrics) AppealGenerated(string)                {}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// ActorFrom returns the actor stored in ctx, or fallback.
func ActorFrom(ctx context.Context, fallback string) string {
	if v, ok := ctx.Value(common.ContextKeyActor).(string); ok && v != "" {
		return v
	}
	return fallback
}

//Personal.AI order the ending
