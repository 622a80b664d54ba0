package alert

import (
	"context"
	"time"
)

// ListOptions filters alert queries.
type ListOptions struct {
	RequestID string
	Kind      Kind
	Since     time.Time
	Limit     int
	Offset    int
}

// Repository stores alerts.  Insert is atomic with respect to the
// (request_id, threshold_id) key: it reports inserted=false, without error,
// when an alert with that key already exists.
type Repository interface {
	Insert(ctx context.Context, a *Alert) (inserted bool, err error)
	Exists(ctx context.Context, requestID, thresholdID string) (bool, error)
	ListByRequest(ctx context.Context, requestID string) ([]*Alert, error)
	List(ctx context.Context, opts ListOptions) ([]*Alert, int64, error)
}

//Personal.AI order the ending
