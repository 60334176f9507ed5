package models

import "time"

// Player is a tournament participant kept in the admin registry.
// Players are hard-deleted; payments referencing a deleted player keep the
// dangling id and are rendered as "Desconocido".
type Player struct {
	ID           int       `json:"id" db:"id"`
	UserID       int       `json:"user_id" db:"user_id"` // owning admin account
	Name         string    `json:"name" db:"name"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Email        *string   `json:"email,omitempty" db:"email"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}
