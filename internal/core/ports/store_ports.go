package ports

import "context"

// Store groups the four collections the system persists. Atomic runs fn
// against a Store whose reads and writes commit together or not at all;
// calling Atomic on the Store handed to fn joins the running unit of work.
type Store interface {
	Keys() KeyRepository
	Candidates() CandidateRepository
	Sessions() SessionRepository
	Votes() VoteRepository
	Atomic(ctx context.Context, fn func(Store) error) error
}
