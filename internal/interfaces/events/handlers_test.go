package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) RecordResponse(ctx context.Context, ev request.ResponseEvent) (*request.Record, error) {
	args := m.Called(ctx, ev)
	rec, _ := args.Get(0).(*request.Record)
	return rec, args.Error(1)
}

func (m *mockTracker) ConfirmFiling(ctx context.Context, conf request.FilingConfirmation) (*request.Record, error) {
	args := m.Called(ctx, conf)
	rec, _ := args.Get(0).(*request.Record)
	return rec, args.Error(1)
}

type subscriberFunc func(topic string, handler common.MessageHandler)

func (f subscriberFunc) Subscribe(topic string, handler common.MessageHandler) { f(topic, handler) }

func envelopeMessage(t *testing.T, topic, eventType string, payload interface{}) *common.Message {
	t.Helper()
	env, err := kafka.NewEventEnvelope(eventType, "test", payload)
	require.NoError(t, err)
	pm, err := env.ToMessage(topic, "req-1")
	require.NoError(t, err)
	return &common.Message{Topic: pm.Topic, Key: pm.Key, Value: pm.Value, Headers: pm.Headers}
}

func actorIs(actor string) interface{} {
	return mock.MatchedBy(func(ctx context.Context) bool {
		v, _ := ctx.Value(common.ContextKeyActor).(string)
		return v == actor
	})
}

func TestRegister_SubscribesBothTopics(t *testing.T) {
	h := NewHandlers(&mockTracker{}, logging.NewNopLogger())
	var topics []string
	h.Register(subscriberFunc(func(topic string, _ common.MessageHandler) { topics = append(topics, topic) }))
	assert.ElementsMatch(t, []string{kafka.TopicResponseAnalyzed, kafka.TopicFilingConfirmed}, topics)
}

func TestRegister_ObserverSeesOutcome(t *testing.T) {
	tr := &mockTracker{}
	var observed []string
	h := NewHandlers(tr, logging.NewNopLogger(), WithObserver(func(topic string, err error, _ time.Duration) {
		if err != nil {
			topic += ":error"
		}
		observed = append(observed, topic)
	}))

	handlers := map[string]common.MessageHandler{}
	h.Register(subscriberFunc(func(topic string, fn common.MessageHandler) { handlers[topic] = fn }))

	conf := request.FilingConfirmation{RequestID: "req-1", FiledAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	tr.On("ConfirmFiling", mock.Anything, conf).Return(nil, errors.New(errors.ErrCodeDatabaseError, "down"))

	err := handlers[kafka.TopicFilingConfirmed](context.Background(), envelopeMessage(t, kafka.TopicFilingConfirmed, kafka.EventFilingConfirmed, conf))
	assert.Error(t, err)
	assert.Equal(t, []string{kafka.TopicFilingConfirmed + ":error"}, observed)
}

func TestHandleResponseAnalyzed_Envelope(t *testing.T) {
	tr := &mockTracker{}
	h := NewHandlers(tr, logging.NewNopLogger())

	ev := request.ResponseEvent{
		RequestID:     "req-1",
		ReceivedAt:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		PagesReceived: 10,
		PagesWithheld: 2,
		Exemptions:    []string{"b(6)"},
	}
	tr.On("RecordResponse", actorIs(ActorAnalyzer), ev).Return(&request.Record{ID: "req-1"}, nil)

	err := h.HandleResponseAnalyzed(context.Background(), envelopeMessage(t, kafka.TopicResponseAnalyzed, kafka.EventResponseAnalyzed, ev))
	require.NoError(t, err)
	tr.AssertExpectations(t)
}

func TestHandleResponseAnalyzed_BarePayload(t *testing.T) {
	tr := &mockTracker{}
	h := NewHandlers(tr, logging.NewNopLogger())

	body, err := json.Marshal(map[string]interface{}{
		"request_id":       "req-1",
		"received_at":      "2024-02-01T00:00:00Z",
		"page_count":       3,
		"exemptions_cited": []string{},
	})
	require.NoError(t, err)

	tr.On("RecordResponse", mock.Anything, mock.MatchedBy(func(ev request.ResponseEvent) bool {
		return ev.RequestID == "req-1" && ev.PagesReceived == 3
	})).Return(&request.Record{ID: "req-1"}, nil)

	require.NoError(t, h.HandleResponseAnalyzed(context.Background(), &common.Message{Topic: kafka.TopicResponseAnalyzed, Value: body}))
	tr.AssertExpectations(t)
}

func TestHandleResponseAnalyzed_PermanentErrorsAreDropped(t *testing.T) {
	tr := &mockTracker{}
	h := NewHandlers(tr, logging.NewNopLogger())

	tr.On("RecordResponse", mock.Anything, mock.Anything).Return(nil, errors.InvalidTransition("resolved", "full_response"))

	err := h.HandleResponseAnalyzed(context.Background(),
		envelopeMessage(t, kafka.TopicResponseAnalyzed, kafka.EventResponseAnalyzed, request.ResponseEvent{RequestID: "req-1"}))
	assert.NoError(t, err)

	// Undecodable messages are dropped without reaching the tracker.
	assert.NoError(t, h.HandleResponseAnalyzed(context.Background(), &common.Message{Topic: kafka.TopicResponseAnalyzed, Value: []byte("{")}))
	tr.AssertNumberOfCalls(t, "RecordResponse", 1)
}

func TestHandleResponseAnalyzed_TransientErrorsRetry(t *testing.T) {
	tr := &mockTracker{}
	h := NewHandlers(tr, logging.NewNopLogger())

	tr.On("RecordResponse", mock.Anything, mock.Anything).Return(nil, errors.ConcurrentModification("req-1", 2)).Once()

	err := h.HandleResponseAnalyzed(context.Background(),
		envelopeMessage(t, kafka.TopicResponseAnalyzed, kafka.EventResponseAnalyzed, request.ResponseEvent{RequestID: "req-1"}))
	assert.True(t, errors.IsCode(err, errors.ErrCodeConcurrentModification))
}

func TestHandleFilingConfirmed(t *testing.T) {
	tr := &mockTracker{}
	h := NewHandlers(tr, logging.NewNopLogger())

	conf := request.FilingConfirmation{RequestID: "req-1", FiledAt: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)}
	rec := &request.Record{ID: "req-1", Deadline: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
	tr.On("ConfirmFiling", actorIs(ActorTransport), conf).Return(rec, nil)

	require.NoError(t, h.HandleFilingConfirmed(context.Background(), envelopeMessage(t, kafka.TopicFilingConfirmed, kafka.EventFilingConfirmed, conf)))
	tr.AssertExpectations(t)
}

func TestHandleFilingConfirmed_DatabaseErrorRetries(t *testing.T) {
	tr := &mockTracker{}
	h := NewHandlers(tr, logging.NewNopLogger())

	tr.On("ConfirmFiling", mock.Anything, mock.Anything).Return(nil, errors.New(errors.ErrCodeDatabaseError, "connection reset"))

	err := h.HandleFilingConfirmed(context.Background(),
		envelopeMessage(t, kafka.TopicFilingConfirmed, kafka.EventFilingConfirmed, request.FilingConfirmation{RequestID: "req-1", FiledAt: time.Now()}))
	assert.Error(t, err)
}

func TestHandleFilingConfirmed_TransportFailureDropped(t *testing.T) {
	tr := &mockTracker{}
	h := NewHandlers(tr, logging.NewNopLogger())

	conf := request.FilingConfirmation{RequestID: "req-1", Failed: true, Error: "smtp 550"}
	tr.On("ConfirmFiling", mock.Anything, conf).Return(nil, errors.New(errors.ErrCodeFilingFailed, "filing failed"))

	assert.NoError(t, h.HandleFilingConfirmed(context.Background(), envelopeMessage(t, kafka.TopicFilingConfirmed, kafka.EventFilingConfirmed, conf)))
}

//Personal.AI order the ending
