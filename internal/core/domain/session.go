package domain

import (
	"time"

	"github.com/google/uuid"
)

type VotingSession struct {
	ID         uuid.UUID  `json:"id"`
	IsActive   bool       `json:"isActive"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
	TotalVotes int64      `json:"totalVotes"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Window returns the interval during which votes counted towards this
// session. An open session has a nil end.
func (s *VotingSession) Window() (time.Time, *time.Time) {
	return s.StartTime, s.EndTime
}

type SessionAction string

const (
	SessionStart SessionAction = "start"
	SessionStop  SessionAction = "stop"
)
