package appeal

import "context"

// Repository stores appeal rounds.  Create fails with a conflict when the
// (request_id, round) pair already exists; Update is a conditional write on
// Version like the request store.
type Repository interface {
	Create(ctx context.Context, a *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Update(ctx context.Context, a *Record, expectedVersion int) error
	ListByRequest(ctx context.Context, requestID string) ([]*Record, error)
}

// Latest returns the highest round, or nil.
func Latest(rounds []*Record) *Record {
	var latest *Record
	for _, a := range rounds {
		if latest == nil || a.Round > latest.Round {
			latest = a
		}
	}
	return latest
}

// AllConcluded reports whether every round is terminal.
func AllConcluded(rounds []*Record) bool {
	for _, a := range rounds {
		if !a.Status().IsTerminal() {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
