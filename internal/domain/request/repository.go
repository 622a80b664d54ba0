package request

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// ListOptions defines filtering and pagination for record queries.
type ListOptions struct {
	Jurisdiction jurisdiction.Code
	Status       Status
	Agency       string
	Limit        int
	Offset       int
}

// ListOption defines a functional option for record queries.
type ListOption func(*ListOptions)

// WithJurisdiction filters by exact jurisdiction code.
func WithJurisdiction(code jurisdiction.Code) ListOption {
	return func(o *ListOptions) { o.Jurisdiction = code }
}

// WithStatus filters by stored status.
func WithStatus(s Status) ListOption {
	return func(o *ListOptions) { o.Status = s }
}

// WithAgency filters by agency name, case-insensitively.
func WithAgency(agency string) ListOption {
	return func(o *ListOptions) { o.Agency = agency }
}

// WithLimit sets the limit for the query.
func WithLimit(limit int) ListOption {
	return func(o *ListOptions) { o.Limit = limit }
}

// WithOffset sets the offset for the query.
func WithOffset(offset int) ListOption {
	return func(o *ListOptions) { o.Offset = offset }
}

// ApplyListOptions applies the given options and returns the final configuration.
func ApplyListOptions(opts ...ListOption) ListOptions {
	var o ListOptions
	for _, opt := range opts {
		opt(&o)
	}
	p := common.Page{Limit: o.Limit, Offset: o.Offset}.Normalize()
	o.Limit, o.Offset = p.Limit, p.Offset
	return o
}

// Stats summarizes the store.
type Stats struct {
	Total          int64                       `json:"total"`
	Overdue        int64                       `json:"overdue"`
	ByStatus       map[Status]int64            `json:"by_status"`
	ByJurisdiction map[jurisdiction.Code]int64 `json:"by_jurisdiction"`
}

// Repository defines the persistence contract for request records.
//
// Update is a conditional write: it succeeds only when the stored version
// equals expectedVersion, and then stores the record with Version set to
// expectedVersion+1.  A mismatch fails with ConcurrentModification.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Update(ctx context.Context, r *Record, expectedVersion int) error
	List(ctx context.Context, opts ...ListOption) ([]*Record, int64, error)

	// ListOverdue returns records overdue at asOf whose status is not
	// FullResponse, Resolved, Closed or Appealed.
	ListOverdue(ctx context.Context, asOf time.Time) ([]*Record, error)

	// ListOpen returns every non-terminal record, for alert scans. Stored
	// rows that cannot be rebuilt into a Record are reported in the second
	// return value and do not fail the call.
	ListOpen(ctx context.Context) ([]*Record, []LoadError, error)

	Stats(ctx context.Context, asOf time.Time) (*Stats, error)
}

// LoadError identifies a stored record that could not be decoded.
type LoadError struct {
	ID  string
	Err error
}

func (e LoadError) Error() string { return fmt.Sprintf("request %s: %v", e.ID, e.Err) }

func (e LoadError) Unwrap() error { return e.Err }

// ExcludedFromOverdue reports whether a status is left out of overdue queries.
// A full response answers the request, so it no longer counts as overdue.
func ExcludedFromOverdue(s Status) bool {
	return s.IsTerminal() || s == StatusAppealed || s == StatusFullResponse
}

//Personal.AI order the ending
