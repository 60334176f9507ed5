package models

import "time"

// PaymentRecordStatus transitions only pending_confirmation -> confirmed or
// rejected. Both outcomes are terminal.
type PaymentRecordStatus string

const (
	RecordStatusPendingConfirmation PaymentRecordStatus = "pending_confirmation"
	RecordStatusConfirmed           PaymentRecordStatus = "confirmed"
	RecordStatusRejected            PaymentRecordStatus = "rejected"
)

// PaymentRecord materializes a QR payment ticket the moment a player submits
// the public registration form. Before that the ticket exists only inside the
// URL the organizer handed out. TournamentName is a denormalized snapshot of
// the name at issuance time; TournamentID carries the real reference.
type PaymentRecord struct {
	ID              int                 `json:"id" db:"id"`
	TicketID        string              `json:"ticket_id" db:"ticket_id"`
	TournamentID    *int                `json:"tournament_id,omitempty" db:"tournament_id"`
	TournamentName  string              `json:"tournament_name" db:"tournament_name"`
	Amount          float64             `json:"amount" db:"amount"`
	PlayerName      string              `json:"player_name" db:"player_name"`
	TeamName        *string             `json:"team_name,omitempty" db:"team_name"`
	BalnearioNumber *string             `json:"balneario_number,omitempty" db:"balneario_number"`
	Phone           *string             `json:"phone,omitempty" db:"phone"`
	Email           *string             `json:"email,omitempty" db:"email"`
	PaymentMethod   *string             `json:"payment_method,omitempty" db:"payment_method"`
	Notes           *string             `json:"notes,omitempty" db:"notes"`
	Status          PaymentRecordStatus `json:"status" db:"status"`
	SubmittedAt     time.Time           `json:"submitted_at" db:"submitted_at"`
	ConfirmedAt     *time.Time          `json:"confirmed_at,omitempty" db:"confirmed_at"`
	RejectedAt      *time.Time          `json:"rejected_at,omitempty" db:"rejected_at"`
	// Admin that confirmed or rejected the record, assigned at that moment.
	ConfirmedByUserID *int `json:"confirmed_by_user_id,omitempty" db:"confirmed_by_user_id"`
}

func (s PaymentRecordStatus) Terminal() bool {
	return s == RecordStatusConfirmed || s == RecordStatusRejected
}
