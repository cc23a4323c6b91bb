package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxCandidates           = 3
	MaxCandidateNameLen     = 100
	MaxCandidateDescription = 500
)

type Candidate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Photo       string    `json:"photo"`
	Position    int       `json:"position"`
	Votes       int64     `json:"votes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CandidateDescriptor is the admin supplied input for one candidate slot.
type CandidateDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Photo       string `json:"photo"`
}
