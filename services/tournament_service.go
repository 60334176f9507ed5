package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/repositories"
)

type TournamentInput struct {
	Name      string                  `json:"name"`
	EntryFee  float64                 `json:"entry_fee"`
	PrizePool float64                 `json:"prize_pool"`
	Date      time.Time               `json:"date"`
	Status    models.TournamentStatus `json:"status"`
}

type TournamentService interface {
	Create(ctx context.Context, userID int, input TournamentInput) (*models.Tournament, error)
	// Get loads the tournament with its participant set populated.
	Get(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error)
	// Delete removes the tournament and its matches. Payments keep a
	// dangling reference and render as "Sin torneo".
	Delete(ctx context.Context, id int) error

	AddParticipant(ctx context.Context, tournamentID, playerID int) error
	RemoveParticipant(ctx context.Context, tournamentID, playerID int) error
	ListParticipants(ctx context.Context, tournamentID int) ([]models.Player, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
}

func NewTournamentService(tournamentRepo repositories.TournamentRepository, playerRepo repositories.PlayerRepository) TournamentService {
	return &tournamentService{tournamentRepo: tournamentRepo, playerRepo: playerRepo}
}

func (s *tournamentService) validate(input *TournamentInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return ErrTournamentNameRequired
	}
	if input.EntryFee < 0 {
		return ErrNegativeEntryFee
	}
	if input.PrizePool < 0 {
		return ErrNegativePrizePool
	}
	if input.Status == "" {
		input.Status = models.TournamentStatusPlanned
	}
	if !input.Status.Valid() {
		return ErrInvalidStatus
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}
	return nil
}

func (s *tournamentService) Create(ctx context.Context, userID int, input TournamentInput) (*models.Tournament, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		UserID:    userID,
		Name:      input.Name,
		EntryFee:  input.EntryFee,
		PrizePool: input.PrizePool,
		Date:      input.Date,
		Status:    input.Status,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, err
	}
	tournament.Participants = []models.Player{}
	return tournament, nil
}

func (s *tournamentService) Get(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	participants, err := s.tournamentRepo.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	tournament.Participants = participants
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.tournamentRepo.List(ctx, filter)
}

func (s *tournamentService) Update(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	tournament.Name = input.Name
	tournament.EntryFee = input.EntryFee
	tournament.PrizePool = input.PrizePool
	tournament.Date = input.Date
	tournament.Status = input.Status

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrTournamentNameConflict):
			return nil, ErrTournamentNameConflict
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

func (s *tournamentService) AddParticipant(ctx context.Context, tournamentID, playerID int) error {
	if err := s.tournamentRepo.AddParticipant(ctx, tournamentID, playerID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrParticipantConflict):
			return ErrParticipantConflict
		case errors.Is(err, repositories.ErrParticipantInvalidRef):
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *tournamentService) RemoveParticipant(ctx context.Context, tournamentID, playerID int) error {
	if err := s.tournamentRepo.RemoveParticipant(ctx, tournamentID, playerID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	return nil
}

func (s *tournamentService) ListParticipants(ctx context.Context, tournamentID int) ([]models.Player, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.tournamentRepo.ListParticipants(ctx, tournamentID)
}
