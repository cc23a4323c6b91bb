package domain

import "github.com/google/uuid"

type Results struct {
	Candidates []Candidate    `json:"candidates"`
	Session    *VotingSession `json:"session"`
}

type SessionStatus struct {
	IsActive bool           `json:"isActive"`
	Session  *VotingSession `json:"session"`
}

type Stats struct {
	TotalKeys      int            `json:"totalKeys"`
	UsedKeys       int            `json:"usedKeys"`
	RemainingKeys  int            `json:"remainingKeys"`
	TotalVotes     int            `json:"totalVotes"`
	Candidates     []Candidate    `json:"candidates"`
	CurrentSession *VotingSession `json:"currentSession"`
}

type TallyMismatch struct {
	CandidateID uuid.UUID `json:"candidateId"`
	Name        string    `json:"name"`
	Tally       int64     `json:"tally"`
	Ledger      int64     `json:"ledger"`
}

// ReconcileReport compares the denormalized counters against the ledger.
// The ledger outlives both keys and candidates: UsedKeys may trail
// LedgerVotes after a key batch is reissued, and votes for candidates that
// were since replaced show up as OrphanLedgerVotes. Neither is an
// inconsistency.
type ReconcileReport struct {
	LedgerVotes       int             `json:"ledgerVotes"`
	TallySum          int64           `json:"tallySum"`
	UsedKeys          int             `json:"usedKeys"`
	SessionTotal      int64           `json:"sessionTotal"`
	SessionLedger     int             `json:"sessionLedger"`
	Mismatches        []TallyMismatch `json:"mismatches"`
	OrphanLedgerVotes int64           `json:"orphanLedgerVotes"`
	Repaired          bool            `json:"repaired"`
}

func (r ReconcileReport) Consistent() bool {
	return len(r.Mismatches) == 0 && r.SessionConsistent()
}

// SessionConsistent reports whether the latest session's counter matches the
// ledger entries inside its window. Repair never rewrites session counters.
func (r ReconcileReport) SessionConsistent() bool {
	return r.SessionTotal == int64(r.SessionLedger)
}
