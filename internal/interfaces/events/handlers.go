// Package events turns messages from the analyzer and the filing transport
// into tracking operations.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// Actors recorded in history for event-driven changes.
const (
	ActorAnalyzer  = "analyzer"
	ActorTransport = "transport"
)

// Tracker is the slice of tracking.Service the handlers drive.
type Tracker interface {
	RecordResponse(ctx context.Context, ev request.ResponseEvent) (*request.Record, error)
	ConfirmFiling(ctx context.Context, conf request.FilingConfirmation) (*request.Record, error)
}

// Subscriber is satisfied by *kafka.Consumer.
type Subscriber interface {
	Subscribe(topic string, handler common.MessageHandler)
}

// Observer sees the outcome of every handled message.
type Observer func(topic string, err error, d time.Duration)

type Option func(*Handlers)

func WithObserver(o Observer) Option {
	return func(h *Handlers) { h.observe = o }
}

// Handlers holds the inbound message handlers.
type Handlers struct {
	tracker Tracker
	logger  logging.Logger
	observe Observer
}

func NewHandlers(tracker Tracker, logger logging.Logger, opts ...Option) *Handlers {
	h := &Handlers{tracker: tracker, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register subscribes every handler on its topic.
func (h *Handlers) Register(s Subscriber) {
	s.Subscribe(kafka.TopicResponseAnalyzed, h.observed(kafka.TopicResponseAnalyzed, h.HandleResponseAnalyzed))
	s.Subscribe(kafka.TopicFilingConfirmed, h.observed(kafka.TopicFilingConfirmed, h.HandleFilingConfirmed))
}

func (h *Handlers) observed(topic string, next common.MessageHandler) common.MessageHandler {
	if h.observe == nil {
		return next
	}
	return func(ctx context.Context, msg *common.Message) error {
		start := time.Now()
		err := next(ctx, msg)
		h.observe(topic, err, time.Since(start))
		return err
	}
}

// HandleResponseAnalyzed applies an analyzer result.
func (h *Handlers) HandleResponseAnalyzed(ctx context.Context, msg *common.Message) error {
	var ev request.ResponseEvent
	if err := decode(msg, &ev); err != nil {
		return h.settle(msg, "", err)
	}
	ctx = context.WithValue(ctx, common.ContextKeyActor, ActorAnalyzer)
	rec, err := h.tracker.RecordResponse(ctx, ev)
	if err != nil {
		return h.settle(msg, ev.RequestID, err)
	}
	h.logger.Info("Response recorded",
		logging.RequestID(rec.ID),
		logging.String("status", string(rec.Status())),
		logging.Int("pages_received", ev.PagesReceived))
	return nil
}

// HandleFilingConfirmed applies a transport confirmation.
func (h *Handlers) HandleFilingConfirmed(ctx context.Context, msg *common.Message) error {
	var conf request.FilingConfirmation
	if err := decode(msg, &conf); err != nil {
		return h.settle(msg, "", err)
	}
	ctx = context.WithValue(ctx, common.ContextKeyActor, ActorTransport)
	rec, err := h.tracker.ConfirmFiling(ctx, conf)
	if err != nil {
		return h.settle(msg, conf.RequestID, err)
	}
	h.logger.Info("Filing confirmed",
		logging.RequestID(rec.ID),
		logging.String("deadline", rec.Deadline.Format(common.DateLayout)))
	return nil
}

// settle decides whether a failure is worth another attempt.  Retryable
// errors go back to the consumer; everything else is logged and dropped.
func (h *Handlers) settle(msg *common.Message, requestID string, err error) error {
	if retryable(err) {
		return err
	}
	h.logger.Warn("Dropping event",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.RequestID(requestID),
		logging.String("code", string(errors.GetCode(err))),
		logging.Err(err))
	return nil
}

func retryable(err error) bool {
	return errors.IsTransient(err) ||
		errors.IsCode(err, errors.ErrCodeDatabaseError) ||
		errors.IsCode(err, errors.ErrCodeTimeout) ||
		errors.IsCode(err, errors.ErrCodeServiceUnavailable)
}

// decode accepts an event envelope or a bare JSON payload.
func decode(msg *common.Message, target interface{}) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != "" || len(env.Payload) > 0 {
		return env.DecodePayload(target)
	}
	if err := json.Unmarshal(msg.Value, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event")
	}
	return nil
}

//Personal.AI order the ending
