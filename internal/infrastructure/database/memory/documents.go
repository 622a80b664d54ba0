package memory

import (
	"context"
	"sync"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// DocumentStore keeps documents in process memory.  It stands in for object
// storage when no MinIO endpoint is configured.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

var _ ports.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore returns an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string][]byte)}
}

func (s *DocumentStore) PutDocument(_ context.Context, key, _ string, body []byte) error {
	if key == "" {
		return errors.InvalidParam("document key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), body...)
	return nil
}

func (s *DocumentStore) GetDocument(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.docs[key]
	if !ok {
		return nil, errors.NotFound("document").WithDetail("key=" + key)
	}
	return append([]byte(nil), b...), nil
}

//Personal.AI order the ending
