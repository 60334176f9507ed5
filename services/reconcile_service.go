package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trucoapp/tournament-manager/checkout"
	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/outbox"
	"github.com/trucoapp/tournament-manager/repositories"
	"github.com/trucoapp/tournament-manager/utils"
)

// Payment methods accepted by the public form. Mercado Pago submissions go
// through the hosted checkout instead of the direct submission path.
const (
	MethodCash        = "efectivo"
	MethodTransfer    = "transferencia"
	MethodMercadoPago = "mercadopago"
)

// TxRunner executes a unit of work in one transaction. Declared here so the
// service layer does not depend on the db package; db.NewTxRunner satisfies it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

// EventPublisher pushes record lifecycle events to connected admin clients.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

// RegistrationInput is the public payment form: the ticket snapshot plus
// whatever the player typed in.
type RegistrationInput struct {
	TicketID       string  `json:"ticket_id"`
	TournamentID   *int    `json:"tournament_id,omitempty"`
	TournamentName string  `json:"tournament_name"`
	Amount         float64 `json:"amount"`
	PlayerName     string  `json:"player_name"`
	TeamName       string  `json:"team_name"`
	BalnearioNum   string  `json:"balneario_number"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email"`
	PaymentMethod  string  `json:"payment_method"`
	Notes          string  `json:"notes"`
}

// SubmissionResult reports where the submission landed. Queued means the
// database was unreachable and the record sits in the outbox until replay.
type SubmissionResult struct {
	Record *models.PaymentRecord `json:"record"`
	Queued bool                  `json:"queued"`
}

type ReconcileService interface {
	// SubmitRegistration handles the manual methods (cash, transfer). The
	// record lands as pending_confirmation and waits for an admin.
	SubmitRegistration(ctx context.Context, input RegistrationInput) (*SubmissionResult, error)

	// CreateCheckout builds a Mercado Pago preference for the hosted
	// checkout redirect. No record is written here; the webhook does that.
	CreateCheckout(ctx context.Context, req checkout.PreferenceRequest) (*checkout.Preference, error)

	// ProcessGatewayNotification resolves a webhook notification into a
	// pending_confirmation record. Redeliveries are no-ops.
	ProcessGatewayNotification(ctx context.Context, topic, paymentID string) error

	// ConfirmRecord transitions the record to confirmed and creates exactly
	// one completed entry payment, all in one transaction. A record that
	// already reached a terminal status yields ErrRecordAlreadyProcessed.
	ConfirmRecord(ctx context.Context, recordID, adminID int) (*models.PaymentRecord, error)
	RejectRecord(ctx context.Context, recordID, adminID int) (*models.PaymentRecord, error)

	GetRecord(ctx context.Context, id int) (*models.PaymentRecord, error)
	GetRecordByTicketID(ctx context.Context, ticketID string) (*models.PaymentRecord, error)
	ListRecords(ctx context.Context, status *models.PaymentRecordStatus) ([]models.PaymentRecord, error)

	// ReplayQueuedRecord is the outbox replayer's sink. A ticket conflict
	// means an earlier attempt already landed, so it counts as success.
	ReplayQueuedRecord(ctx context.Context, record *models.PaymentRecord) error
}

type reconcileService struct {
	txRunner       TxRunner
	recordRepo     repositories.PaymentRecordRepository
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	paymentRepo    repositories.PaymentRepository
	checkout       checkout.Client
	queue          outbox.Queue
	events         EventPublisher
	logger         *slog.Logger
}

func NewReconcileService(
	txRunner TxRunner,
	recordRepo repositories.PaymentRecordRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	paymentRepo repositories.PaymentRepository,
	checkoutClient checkout.Client,
	queue outbox.Queue,
	events EventPublisher,
	logger *slog.Logger,
) ReconcileService {
	return &reconcileService{
		txRunner:       txRunner,
		recordRepo:     recordRepo,
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		paymentRepo:    paymentRepo,
		checkout:       checkoutClient,
		queue:          queue,
		events:         events,
		logger:         logger,
	}
}

func (s *reconcileService) SubmitRegistration(ctx context.Context, input RegistrationInput) (*SubmissionResult, error) {
	record, err := s.buildRecord(input)
	if err != nil {
		return nil, err
	}

	err = s.recordRepo.Create(ctx, nil, record)
	if err == nil {
		s.publish("record.submitted", record)
		return &SubmissionResult{Record: record}, nil
	}
	if errors.Is(err, repositories.ErrTicketIDConflict) {
		return nil, ErrTicketAlreadySubmitted
	}

	// Database trouble. Park the submission in the outbox so the player is
	// not asked to fill the form again.
	if s.queue != nil {
		if qErr := s.queue.Enqueue(record); qErr == nil {
			s.logger.Warn("payment record queued to outbox",
				slog.String("ticket_id", record.TicketID),
				slog.Any("error", err),
			)
			return &SubmissionResult{Record: record, Queued: true}, nil
		}
	}
	return nil, fmt.Errorf("failed to store payment record: %w", err)
}

func (s *reconcileService) buildRecord(input RegistrationInput) (*models.PaymentRecord, error) {
	if strings.TrimSpace(input.TicketID) == "" {
		return nil, ErrValidationFailed
	}
	if strings.TrimSpace(input.PlayerName) == "" {
		return nil, ErrPlayerNameRequired
	}

	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	switch method {
	case "":
		return nil, ErrPaymentMethodRequired
	case MethodCash, MethodTransfer:
	case MethodMercadoPago:
		// Gateway submissions take the checkout path, never this one.
		return nil, ErrPaymentMethodRequired
	default:
		return nil, ErrPaymentMethodRequired
	}

	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, ErrInvalidEmail
	}
	if input.Phone != "" {
		if _, err := utils.ValidateArgentinePhone(input.Phone); err != nil {
			return nil, ErrInvalidPhone
		}
	}

	tournamentName := input.TournamentName
	if tournamentName == "" {
		tournamentName = "Torneo de Truco"
	}

	record := &models.PaymentRecord{
		TicketID:       input.TicketID,
		TournamentID:   input.TournamentID,
		TournamentName: tournamentName,
		Amount:         input.Amount,
		PlayerName:     strings.TrimSpace(input.PlayerName),
		PaymentMethod:  &method,
		Status:         models.RecordStatusPendingConfirmation,
		SubmittedAt:    time.Now(),
	}
	setOptional(&record.TeamName, input.TeamName)
	setOptional(&record.BalnearioNumber, input.BalnearioNum)
	setOptional(&record.Phone, input.Phone)
	setOptional(&record.Email, input.Email)
	setOptional(&record.Notes, input.Notes)
	return record, nil
}

func (s *reconcileService) CreateCheckout(ctx context.Context, req checkout.PreferenceRequest) (*checkout.Preference, error) {
	if req.TournamentName == "" || req.PlayerName == "" || req.Amount <= 0 {
		return nil, ErrValidationFailed
	}
	if req.Email == "" {
		return nil, ErrEmailRequiredForGateway
	}
	if !utils.IsValidEmail(req.Email) {
		return nil, ErrInvalidEmail
	}

	pref, err := s.checkout.CreatePreference(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout preference: %w", err)
	}
	return pref, nil
}

func (s *reconcileService) ProcessGatewayNotification(ctx context.Context, topic, paymentID string) error {
	if topic != "payment" || paymentID == "" {
		// Merchant-order and other topics carry nothing this app needs.
		return nil
	}

	info, err := s.checkout.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to fetch gateway payment %s: %w", paymentID, err)
	}
	if info.Status != "approved" {
		s.logger.Info("ignoring gateway payment in non-approved status",
			slog.String("payment_id", paymentID),
			slog.String("status", info.Status),
		)
		return nil
	}
	if !strings.HasPrefix(info.ExternalReference, "TRU-") {
		s.logger.Warn("gateway payment without a ticket reference",
			slog.String("payment_id", paymentID),
			slog.String("external_reference", info.ExternalReference),
		)
		return nil
	}

	method := MethodMercadoPago
	notes := fmt.Sprintf("Pago Mercado Pago #%d", info.ID)
	record := &models.PaymentRecord{
		TicketID:       info.ExternalReference,
		TournamentName: "Torneo de Truco",
		Amount:         info.TransactionAmount,
		PlayerName:     info.PayerEmail,
		PaymentMethod:  &method,
		Notes:          &notes,
		Status:         models.RecordStatusPendingConfirmation,
		SubmittedAt:    time.Now(),
	}
	setOptional(&record.Email, info.PayerEmail)

	err = s.recordRepo.Create(ctx, nil, record)
	if errors.Is(err, repositories.ErrTicketIDConflict) {
		// Webhook redelivery, or the player submitted the form as well.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to materialize gateway payment record: %w", err)
	}
	s.publish("record.submitted", record)
	return nil
}

func (s *reconcileService) ConfirmRecord(ctx context.Context, recordID, adminID int) (*models.PaymentRecord, error) {
	var confirmed *models.PaymentRecord

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		record, err := s.recordRepo.GetByID(ctx, exec, recordID)
		if err != nil {
			if errors.Is(err, repositories.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		now := time.Now()
		if err := s.recordRepo.ConfirmIfPending(ctx, exec, recordID, adminID, now); err != nil {
			if errors.Is(err, repositories.ErrRecordNotPending) {
				return ErrRecordAlreadyProcessed
			}
			return err
		}

		player, err := s.resolvePlayer(ctx, exec, record, adminID)
		if err != nil {
			return err
		}
		tournamentID := s.resolveTournamentID(ctx, exec, record)

		notes := confirmationNotes(record)
		payment := &models.Payment{
			UserID:       adminID,
			Type:         models.PaymentTypeEntry,
			PlayerID:     &player.ID,
			TournamentID: tournamentID,
			Amount:       record.Amount,
			Date:         now,
			Status:       models.PaymentStatusCompleted,
			Notes:        &notes,
			Source:       models.PaymentSourceQR,
			TicketID:     &record.TicketID,
		}
		if err := s.paymentRepo.Create(ctx, exec, payment); err != nil {
			return fmt.Errorf("failed to create payment for record %d: %w", recordID, err)
		}

		record.Status = models.RecordStatusConfirmed
		record.ConfirmedAt = &now
		record.ConfirmedByUserID = &adminID
		confirmed = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish("record.confirmed", confirmed)
	return confirmed, nil
}

func (s *reconcileService) RejectRecord(ctx context.Context, recordID, adminID int) (*models.PaymentRecord, error) {
	var rejected *models.PaymentRecord

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		record, err := s.recordRepo.GetByID(ctx, exec, recordID)
		if err != nil {
			if errors.Is(err, repositories.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		now := time.Now()
		if err := s.recordRepo.RejectIfPending(ctx, exec, recordID, adminID, now); err != nil {
			if errors.Is(err, repositories.ErrRecordNotPending) {
				return ErrRecordAlreadyProcessed
			}
			return err
		}

		record.Status = models.RecordStatusRejected
		record.RejectedAt = &now
		record.ConfirmedByUserID = &adminID
		rejected = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish("record.rejected", rejected)
	return rejected, nil
}

func (s *reconcileService) GetRecord(ctx context.Context, id int) (*models.PaymentRecord, error) {
	record, err := s.recordRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *reconcileService) GetRecordByTicketID(ctx context.Context, ticketID string) (*models.PaymentRecord, error) {
	record, err := s.recordRepo.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *reconcileService) ListRecords(ctx context.Context, status *models.PaymentRecordStatus) ([]models.PaymentRecord, error) {
	return s.recordRepo.List(ctx, status)
}

func (s *reconcileService) ReplayQueuedRecord(ctx context.Context, record *models.PaymentRecord) error {
	err := s.recordRepo.Create(ctx, nil, record)
	if errors.Is(err, repositories.ErrTicketIDConflict) {
		return nil
	}
	if err == nil {
		s.publish("record.submitted", record)
	}
	return err
}

// resolvePlayer finds the player the record refers to, or creates one owned
// by the confirming admin when nobody matches.
func (s *reconcileService) resolvePlayer(ctx context.Context, exec repositories.SQLExecutor, record *models.PaymentRecord, adminID int) (*models.Player, error) {
	phone := ""
	if record.Phone != nil {
		phone = *record.Phone
	}

	player, err := s.playerRepo.FindByNameOrPhone(ctx, exec, record.PlayerName, phone)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, repositories.ErrPlayerNotFound) {
		return nil, err
	}

	player = &models.Player{
		UserID: adminID,
		Name:   record.PlayerName,
		Phone:  record.Phone,
		Email:  record.Email,
	}
	if err := s.playerRepo.Create(ctx, exec, player); err != nil {
		return nil, fmt.Errorf("failed to create player from record %d: %w", record.ID, err)
	}
	return player, nil
}

// resolveTournamentID prefers the id carried in the ticket; records issued
// before ids travelled in the URL fall back to a name lookup. A dangling or
// missing reference leaves the payment without a tournament.
func (s *reconcileService) resolveTournamentID(ctx context.Context, exec repositories.SQLExecutor, record *models.PaymentRecord) *int {
	if record.TournamentID != nil {
		if t, err := s.tournamentRepo.GetByID(ctx, exec, *record.TournamentID); err == nil {
			return &t.ID
		}
	}
	if record.TournamentName != "" {
		if t, err := s.tournamentRepo.GetByName(ctx, exec, record.TournamentName); err == nil {
			return &t.ID
		}
	}
	return nil
}

func confirmationNotes(record *models.PaymentRecord) string {
	parts := []string{"Registro desde QR - Ticket: " + record.TicketID}
	if record.TeamName != nil && *record.TeamName != "" {
		parts = append(parts, "Equipo: "+*record.TeamName)
	}
	if record.BalnearioNumber != nil && *record.BalnearioNumber != "" {
		parts = append(parts, "Balneario: "+*record.BalnearioNumber)
	}
	return strings.Join(parts, " - ")
}

func (s *reconcileService) publish(event string, payload interface{}) {
	if s.events == nil || payload == nil {
		return
	}
	s.events.Publish(event, payload)
}

func setOptional(dst **string, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	*dst = &value
}
