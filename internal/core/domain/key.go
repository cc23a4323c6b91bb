package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// KeyLength is the length of the textual voting key handed to voters.
	KeyLength = 32
	// KeyBatchSize is the number of keys issued per election.
	KeyBatchSize = 36
)

type VotingKey struct {
	ID        uuid.UUID  `json:"id"`
	Key       string     `json:"key"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"usedAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// VoterClaims is what a capability token proves: the holder presented the
// key Key, whose record is KeyID, before ExpiresAt.
type VoterClaims struct {
	KeyID     uuid.UUID
	Key       string
	ExpiresAt time.Time
}

type AdminClaims struct {
	Username  string
	ExpiresAt time.Time
}
