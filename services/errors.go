package services

import "errors"

// Shared sentinel errors, mapped to HTTP statuses in the handlers layer.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Auth
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entities
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrRecordNotFound     = errors.New("payment record not found")
	ErrUserNotFound       = errors.New("user not found")

	// Business rules
	ErrPlayerNameRequired     = errors.New("player name is required")
	ErrInvalidEmail           = errors.New("email has an invalid format")
	ErrInvalidPhone           = errors.New("phone has an invalid format")
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrNegativeEntryFee       = errors.New("entry fee must not be negative")
	ErrNegativePrizePool      = errors.New("prize pool must not be negative")
	ErrInvalidStatus          = errors.New("invalid status value")
	ErrSamePlayers            = errors.New("a match needs two distinct players")
	ErrNonPositiveAmount      = errors.New("amount must be positive")
	ErrParticipantConflict    = errors.New("player is already registered for this tournament")
	ErrParticipantNotFound    = errors.New("participant registration not found")

	// Reconciliation
	ErrRecordAlreadyProcessed  = errors.New("payment record was already confirmed or rejected")
	ErrTicketAlreadySubmitted  = errors.New("a registration for this ticket was already submitted")
	ErrPaymentMethodRequired   = errors.New("payment method is required")
	ErrEmailRequiredForGateway = errors.New("email is required for mercado pago payments")

	// Conflicts
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrPlayerHasMatches       = errors.New("player has recorded matches and cannot be deleted")
)
