package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCancelled  MatchStatus = "cancelled"
)

// MatchWinnerDraw is returned by Winner for an even completed match.
const MatchWinnerDraw = -1

type Match struct {
	ID           int         `json:"id" db:"id"`
	UserID       int         `json:"user_id" db:"user_id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Player1ID    int         `json:"player1_id" db:"player1_id"`
	Player2ID    int         `json:"player2_id" db:"player2_id"`
	Player1Score *int        `json:"player1_score,omitempty" db:"player1_score"`
	Player2Score *int        `json:"player2_score,omitempty" db:"player2_score"`
	Date         time.Time   `json:"date" db:"date"`
	Status       MatchStatus `json:"status" db:"status"`
}

// Winner derives the winning player id. It is never stored. A match has a
// winner only when it is completed and both scores are recorded and non-zero;
// equal scores yield MatchWinnerDraw, anything else yields (0, false).
func (m *Match) Winner() (playerID int, ok bool) {
	if m.Status != MatchStatusCompleted || m.Player1Score == nil || m.Player2Score == nil {
		return 0, false
	}
	s1, s2 := *m.Player1Score, *m.Player2Score
	if s1 == 0 || s2 == 0 {
		return 0, false
	}
	switch {
	case s1 > s2:
		return m.Player1ID, true
	case s2 > s1:
		return m.Player2ID, true
	default:
		return MatchWinnerDraw, true
	}
}

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusInProgress,
		MatchStatusCompleted, MatchStatusCancelled:
		return true
	}
	return false
}
