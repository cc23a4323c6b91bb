package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote is a ledger entry. It carries the keyed hash of the redeemed key and
// never the key itself.
type Vote struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidateId"`
	KeyHash     string    `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
}
