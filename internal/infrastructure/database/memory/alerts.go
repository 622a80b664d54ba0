package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// AlertStore implements alert.Repository.  The map key is the alert's
// idempotency key, so Insert is check-and-set under one lock.
type AlertStore struct {
	mu    sync.RWMutex
	byKey map[string]*alert.Alert
}

// NewAlertStore returns an empty store.
func NewAlertStore() *AlertStore {
	return &AlertStore{byKey: make(map[string]*alert.Alert)}
}

func (s *AlertStore) Insert(_ context.Context, a *alert.Alert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[a.Key()]; ok {
		return false, nil
	}
	cp := *a
	s.byKey[a.Key()] = &cp
	return true, nil
}

func (s *AlertStore) Exists(_ context.Context, requestID, thresholdID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byKey[alert.Key(requestID, thresholdID)]
	return ok, nil
}

func (s *AlertStore) ListByRequest(ctx context.Context, requestID string) ([]*alert.Alert, error) {
	out, _, err := s.List(ctx, alert.ListOptions{RequestID: requestID, Limit: common.MaxPageLimit})
	return out, err
}

func (s *AlertStore) List(_ context.Context, opts alert.ListOptions) ([]*alert.Alert, int64, error) {
	p := common.Page{Limit: opts.Limit, Offset: opts.Offset}.Normalize()

	s.mu.RLock()
	matched := make([]*alert.Alert, 0)
	for _, a := range s.byKey {
		if opts.RequestID != "" && a.RequestID != opts.RequestID {
			continue
		}
		if opts.Kind != "" && a.Kind != opts.Kind {
			continue
		}
		if !opts.Since.IsZero() && a.GeneratedAt.Before(opts.Since) {
			continue
		}
		cp := *a
		matched = append(matched, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].GeneratedAt.Equal(matched[j].GeneratedAt) {
			return matched[i].GeneratedAt.After(matched[j].GeneratedAt)
		}
		return matched[i].Key() < matched[j].Key()
	})
	total := int64(len(matched))
	if p.Offset >= len(matched) {
		return []*alert.Alert{}, total, nil
	}
	end := p.Offset + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[p.Offset:end], total, nil
}

var _ alert.Repository = (*AlertStore)(nil)

//Personal.AI order the ending
