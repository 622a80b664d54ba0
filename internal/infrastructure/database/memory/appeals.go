package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// AppealStore implements appeal.Repository.
type AppealStore struct {
	mu      sync.RWMutex
	byID    map[string]*appeal.Record
	byRound map[string]string // request_id|round -> id
}

// NewAppealStore returns an empty store.
func NewAppealStore() *AppealStore {
	return &AppealStore{
		byID:    make(map[string]*appeal.Record),
		byRound: make(map[string]string),
	}
}

func roundKey(requestID string, round int) string {
	return fmt.Sprintf("%s|%d", requestID, round)
}

func (s *AppealStore) Create(_ context.Context, a *appeal.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roundKey(a.RequestID, a.Round)
	if _, ok := s.byRound[key]; ok {
		return errors.Conflict("appeal round already exists").
			WithDetail(fmt.Sprintf("request_id=%s round=%d", a.RequestID, a.Round))
	}
	s.byID[a.ID] = a.Clone()
	s.byRound[key] = a.ID
	return nil
}

func (s *AppealStore) Get(_ context.Context, id string) (*appeal.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, errors.AppealNotFound(id)
	}
	return a.Clone(), nil
}

func (s *AppealStore) Update(_ context.Context, a *appeal.Record, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[a.ID]
	if !ok {
		return errors.AppealNotFound(a.ID)
	}
	if cur.Version != expectedVersion {
		return errors.ConcurrentModification(a.ID, expectedVersion)
	}
	a.Version = expectedVersion + 1
	s.byID[a.ID] = a.Clone()
	return nil
}

func (s *AppealStore) ListByRequest(_ context.Context, requestID string) ([]*appeal.Record, error) {
	s.mu.RLock()
	out := make([]*appeal.Record, 0)
	for _, a := range s.byID {
		if a.RequestID == requestID {
			out = append(out, a.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out, nil
}

var _ appeal.Repository = (*AppealStore)(nil)

//Personal.AI order the ending
