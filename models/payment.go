package models

import "time"

type PaymentType string

const (
	PaymentTypeEntry PaymentType = "entry"
	PaymentTypePrize PaymentType = "prize"
	PaymentTypeOther PaymentType = "other"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentSource tags provenance: entered by hand or derived from a QR ticket.
type PaymentSource string

const (
	PaymentSourceManual PaymentSource = "manual"
	PaymentSourceQR     PaymentSource = "qr"
)

type Payment struct {
	ID           int           `json:"id" db:"id"`
	UserID       int           `json:"user_id" db:"user_id"`
	Type         PaymentType   `json:"type" db:"type"`
	PlayerID     *int          `json:"player_id,omitempty" db:"player_id"`
	TournamentID *int          `json:"tournament_id,omitempty" db:"tournament_id"`
	Amount       float64       `json:"amount" db:"amount"`
	Date         time.Time     `json:"date" db:"date"`
	Status       PaymentStatus `json:"status" db:"status"`
	Notes        *string       `json:"notes,omitempty" db:"notes"`
	Source       PaymentSource `json:"source" db:"source"`
	TicketID     *string       `json:"ticket_id,omitempty" db:"ticket_id"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

func (t PaymentType) Valid() bool {
	return t == PaymentTypeEntry || t == PaymentTypePrize || t == PaymentTypeOther
}

func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s == PaymentStatusCompleted || s == PaymentStatusCancelled
}
