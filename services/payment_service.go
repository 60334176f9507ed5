package services

import (
	"context"
	"errors"
	"time"

	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/repositories"
)

type PaymentInput struct {
	Type         models.PaymentType   `json:"type"`
	PlayerID     *int                 `json:"player_id,omitempty"`
	TournamentID *int                 `json:"tournament_id,omitempty"`
	Amount       float64              `json:"amount"`
	Date         time.Time            `json:"date"`
	Status       models.PaymentStatus `json:"status"`
	Notes        string               `json:"notes"`
}

type PaymentService interface {
	Create(ctx context.Context, userID int, input PaymentInput) (*models.Payment, error)
	Get(ctx context.Context, id int) (*models.Payment, error)
	List(ctx context.Context, filter repositories.ListPaymentsFilter) ([]models.Payment, error)
	Update(ctx context.Context, id int, input PaymentInput) (*models.Payment, error)
	Delete(ctx context.Context, id int) error
}

type paymentService struct {
	paymentRepo repositories.PaymentRepository
}

func NewPaymentService(paymentRepo repositories.PaymentRepository) PaymentService {
	return &paymentService{paymentRepo: paymentRepo}
}

func (s *paymentService) validate(input *PaymentInput) error {
	if !input.Type.Valid() {
		return ErrInvalidStatus
	}
	if input.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if input.Status == "" {
		input.Status = models.PaymentStatusCompleted
	}
	if !input.Status.Valid() {
		return ErrInvalidStatus
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}
	return nil
}

func (s *paymentService) Create(ctx context.Context, userID int, input PaymentInput) (*models.Payment, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:       userID,
		Type:         input.Type,
		PlayerID:     input.PlayerID,
		TournamentID: input.TournamentID,
		Amount:       input.Amount,
		Date:         input.Date,
		Status:       input.Status,
		Source:       models.PaymentSourceManual,
	}
	setOptional(&payment.Notes, input.Notes)

	if err := s.paymentRepo.Create(ctx, nil, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) Get(ctx context.Context, id int) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) List(ctx context.Context, filter repositories.ListPaymentsFilter) ([]models.Payment, error) {
	return s.paymentRepo.List(ctx, filter)
}

func (s *paymentService) Update(ctx context.Context, id int, input PaymentInput) (*models.Payment, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	payment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	payment.Type = input.Type
	payment.PlayerID = input.PlayerID
	payment.TournamentID = input.TournamentID
	payment.Amount = input.Amount
	payment.Date = input.Date
	payment.Status = input.Status
	payment.Notes = nil
	setOptional(&payment.Notes, input.Notes)

	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) Delete(ctx context.Context, id int) error {
	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}
	return nil
}
