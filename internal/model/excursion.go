package model

import (
	"slices"
	"time"
)

// Excursion is a multi-day trip (Freizeit) with youth-leader and participant rosters.
type Excursion struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Place          string    `json:"place"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	LeaderIDs      []string  `json:"leader_ids"`
	ParticipantIDs []string  `json:"participant_ids"`
}

func (e *Excursion) IsLeader(memberID string) bool {
	return memberID != "" && slices.Contains(e.LeaderIDs, memberID)
}
