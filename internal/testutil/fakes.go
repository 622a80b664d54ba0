package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// ManualClock is a settable common.Clock.
type ManualClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewManualClock starts the clock at t.
func NewManualClock(t time.Time) *ManualClock { return &ManualClock{t: t} }

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// MockPublisher is a testify mock of ports.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) RequestFiled(ctx context.Context, ev ports.RequestFiledEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockPublisher) AlertRaised(ctx context.Context, a *alert.Alert) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockPublisher) AppealGenerated(ctx context.Context, a *appeal.Record) error {
	return m.Called(ctx, a).Error(0)
}

// RecordingPublisher keeps every event it is handed.
type RecordingPublisher struct {
	mu      sync.Mutex
	Filed   []ports.RequestFiledEvent
	Alerts  []*alert.Alert
	Appeals []*appeal.Record
}

func (p *RecordingPublisher) RequestFiled(_ context.Context, ev ports.RequestFiledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Filed = append(p.Filed, ev)
	return nil
}

func (p *RecordingPublisher) AlertRaised(_ context.Context, a *alert.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Alerts = append(p.Alerts, a)
	return nil
}

func (p *RecordingPublisher) AppealGenerated(_ context.Context, a *appeal.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Appeals = append(p.Appeals, a)
	return nil
}

// MemoryDocuments is a map-backed ports.DocumentStore.
type MemoryDocuments struct {
	mu   sync.Mutex
	docs map[string][]byte
	// Err, when set, is returned by PutDocument.
	Err error
}

// NewMemoryDocuments returns an empty document store.
func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{docs: make(map[string][]byte)}
}

func (d *MemoryDocuments) PutDocument(_ context.Context, key, _ string, body []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.docs[key] = append([]byte(nil), body...)
	return nil
}

func (d *MemoryDocuments) GetDocument(_ context.Context, key string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.docs[key]
	if !ok {
		return nil, errors.NotFound("document").WithDetail("key=" + key)
	}
	return b, nil
}

var (
	_ ports.EventPublisher = (*MockPublisher)(nil)
	_ ports.EventPublisher = (*RecordingPublisher)(nil)
	_ ports.DocumentStore  = (*MemoryDocuments)(nil)
)

//Personal.AI order the ending
