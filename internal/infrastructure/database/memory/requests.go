// Package memory provides mutex-guarded in-process stores.  They back the
// CLI when no database is configured and the application-layer tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// RequestStore implements request.Repository.
type RequestStore struct {
	mu   sync.RWMutex
	data map[string]*request.Record
}

// NewRequestStore returns an empty store.
func NewRequestStore() *RequestStore {
	return &RequestStore{data: make(map[string]*request.Record)}
}

func (s *RequestStore) Create(_ context.Context, r *request.Record) error {
	if r == nil || r.ID == "" {
		return errors.InvalidParam("record with id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[r.ID]; ok {
		return errors.Conflict("request already exists").WithDetail("id=" + r.ID)
	}
	s.data[r.ID] = r.Clone()
	return nil
}

func (s *RequestStore) Get(_ context.Context, id string) (*request.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[id]
	if !ok {
		return nil, errors.RequestNotFound(id)
	}
	return r.Clone(), nil
}

func (s *RequestStore) Update(_ context.Context, r *request.Record, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data[r.ID]
	if !ok {
		return errors.RequestNotFound(r.ID)
	}
	if cur.Version != expectedVersion {
		return errors.ConcurrentModification(r.ID, expectedVersion)
	}
	r.Version = expectedVersion + 1
	s.data[r.ID] = r.Clone()
	return nil
}

func (s *RequestStore) List(_ context.Context, opts ...request.ListOption) ([]*request.Record, int64, error) {
	o := request.ApplyListOptions(opts...)

	s.mu.RLock()
	matched := make([]*request.Record, 0, len(s.data))
	for _, r := range s.data {
		if matches(r, o) {
			matched = append(matched, r)
		}
	}
	s.mu.RUnlock()

	sortByCreated(matched)
	total := int64(len(matched))
	if o.Offset >= len(matched) {
		return []*request.Record{}, total, nil
	}
	end := o.Offset + o.Limit
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]*request.Record, 0, end-o.Offset)
	for _, r := range matched[o.Offset:end] {
		out = append(out, r.Clone())
	}
	return out, total, nil
}

func matches(r *request.Record, o request.ListOptions) bool {
	if o.Jurisdiction != "" && r.Jurisdiction != o.Jurisdiction {
		return false
	}
	if o.Status != "" && r.Status() != o.Status {
		return false
	}
	if o.Agency != "" && !strings.EqualFold(r.Agency, o.Agency) {
		return false
	}
	return true
}

func (s *RequestStore) ListOverdue(_ context.Context, asOf time.Time) ([]*request.Record, error) {
	return s.collect(func(r *request.Record) bool {
		return !request.ExcludedFromOverdue(r.Status()) && r.IsOverdue(asOf)
	}), nil
}

func (s *RequestStore) ListOpen(_ context.Context) ([]*request.Record, []request.LoadError, error) {
	return s.collect(func(r *request.Record) bool { return !r.Status().IsTerminal() }), nil, nil
}

func (s *RequestStore) Stats(_ context.Context, asOf time.Time) (*request.Stats, error) {
	st := &request.Stats{
		ByStatus:       make(map[request.Status]int64),
		ByJurisdiction: make(map[jurisdiction.Code]int64),
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.data {
		st.Total++
		st.ByStatus[r.Status()]++
		st.ByJurisdiction[r.Jurisdiction]++
		if !request.ExcludedFromOverdue(r.Status()) && r.IsOverdue(asOf) {
			st.Overdue++
		}
	}
	return st, nil
}

func (s *RequestStore) collect(keep func(*request.Record) bool) []*request.Record {
	s.mu.RLock()
	out := make([]*request.Record, 0)
	for _, r := range s.data {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	sortByDeadline(out)
	return out
}

func sortByCreated(list []*request.Record) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

func sortByDeadline(list []*request.Record) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Deadline.Equal(list[j].Deadline) {
			return list[i].Deadline.Before(list[j].Deadline)
		}
		return list[i].ID < list[j].ID
	})
}

var _ request.Repository = (*RequestStore)(nil)

//Personal.AI order the ending
