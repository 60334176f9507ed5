package services

import (
	"context"
	"errors"
	"time"

	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/repositories"
)

type MatchInput struct {
	TournamentID int                `json:"tournament_id"`
	Player1ID    int                `json:"player1_id"`
	Player2ID    int                `json:"player2_id"`
	Player1Score *int               `json:"player1_score,omitempty"`
	Player2Score *int               `json:"player2_score,omitempty"`
	Date         time.Time          `json:"date"`
	Status       models.MatchStatus `json:"status"`
}

type MatchService interface {
	Create(ctx context.Context, userID int, input MatchInput) (*models.Match, error)
	Get(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context, filter repositories.ListMatchesFilter) ([]models.Match, error)
	Update(ctx context.Context, id int, input MatchInput) (*models.Match, error)
	Delete(ctx context.Context, id int) error
}

type matchService struct {
	matchRepo repositories.MatchRepository
}

func NewMatchService(matchRepo repositories.MatchRepository) MatchService {
	return &matchService{matchRepo: matchRepo}
}

func (s *matchService) validate(input *MatchInput) error {
	if input.Player1ID == input.Player2ID {
		return ErrSamePlayers
	}
	if input.Status == "" {
		input.Status = models.MatchStatusScheduled
	}
	if !input.Status.Valid() {
		return ErrInvalidStatus
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}
	return nil
}

func (s *matchService) Create(ctx context.Context, userID int, input MatchInput) (*models.Match, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	match := &models.Match{
		UserID:       userID,
		TournamentID: input.TournamentID,
		Player1ID:    input.Player1ID,
		Player2ID:    input.Player2ID,
		Player1Score: input.Player1Score,
		Player2Score: input.Player2Score,
		Date:         input.Date,
		Status:       input.Status,
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchInvalidRef) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) Get(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) List(ctx context.Context, filter repositories.ListMatchesFilter) ([]models.Match, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.matchRepo.List(ctx, filter)
}

func (s *matchService) Update(ctx context.Context, id int, input MatchInput) (*models.Match, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	match, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	match.TournamentID = input.TournamentID
	match.Player1ID = input.Player1ID
	match.Player2ID = input.Player2ID
	match.Player1Score = input.Player1Score
	match.Player2Score = input.Player2Score
	match.Date = input.Date
	match.Status = input.Status

	if err := s.matchRepo.Update(ctx, match); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMatchNotFound):
			return nil, ErrMatchNotFound
		case errors.Is(err, repositories.ErrMatchInvalidRef):
			return nil, ErrNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) Delete(ctx context.Context, id int) error {
	if err := s.matchRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	return nil
}
