package kafka

import (
	"context"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// DefaultSource names this service in event envelopes.
const DefaultSource = "foia-tracker"

// AppealGeneratedPayload is the appeal record plus its derived status.
type AppealGeneratedPayload struct {
	*appeal.Record
	Status appeal.Status `json:"status"`
}

// EventPublisher puts tracker events on their topics, keyed by request ID.
type EventPublisher struct {
	producer MessagePublisher
	source   string
}

var _ ports.EventPublisher = (*EventPublisher)(nil)

func NewEventPublisher(producer MessagePublisher, source string) *EventPublisher {
	if source == "" {
		source = DefaultSource
	}
	return &EventPublisher{producer: producer, source: source}
}

func (p *EventPublisher) RequestFiled(ctx context.Context, ev ports.RequestFiledEvent) error {
	return p.publish(ctx, TopicRequestFiled, EventRequestFiled, ev.RequestID, ev)
}

func (p *EventPublisher) AlertRaised(ctx context.Context, a *alert.Alert) error {
	return p.publish(ctx, TopicAlertRaised, EventAlertRaised, a.RequestID, a)
}

func (p *EventPublisher) AppealGenerated(ctx context.Context, a *appeal.Record) error {
	payload := AppealGeneratedPayload{Record: a, Status: a.Status()}
	return p.publish(ctx, TopicAppealGenerated, EventAppealGenerated, a.RequestID, payload)
}

func (p *EventPublisher) publish(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	env, err := NewEventEnvelope(eventType, p.source, payload)
	if err != nil {
		return err
	}
	if id, ok := ctx.Value(common.ContextKeyRequestID).(string); ok {
		env.TraceID = id
	}
	msg, err := env.ToMessage(topic, key)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

//Personal.AI order the ending
