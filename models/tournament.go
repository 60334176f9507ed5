package models

import "time"

// TournamentStatus mirrors the ENUM in the database.
type TournamentStatus string

const (
	TournamentStatusPlanned   TournamentStatus = "planned"
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusCompleted TournamentStatus = "completed"
	TournamentStatusCancelled TournamentStatus = "cancelled"
)

type Tournament struct {
	ID        int              `json:"id" db:"id"`
	UserID    int              `json:"user_id" db:"user_id"`
	Name      string           `json:"name" db:"name"`
	EntryFee  float64          `json:"entry_fee" db:"entry_fee"`
	PrizePool float64          `json:"prize_pool" db:"prize_pool"`
	Date      time.Time        `json:"date" db:"date"`
	Status    TournamentStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	// Participant set, populated by the service on demand. A player appears
	// at most once (enforced by a unique constraint on tournament_players).
	Participants []Player `json:"participants,omitempty" db:"-"`
}

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentStatusPlanned, TournamentStatusActive,
		TournamentStatusCompleted, TournamentStatusCancelled:
		return true
	}
	return false
}
