package services

import (
	"context"
	"errors"
	"strings"

	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/repositories"
	"github.com/trucoapp/tournament-manager/utils"
)

type PlayerInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type PlayerService interface {
	Create(ctx context.Context, userID int, input PlayerInput) (*models.Player, error)
	Get(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context) ([]models.Player, error)
	Update(ctx context.Context, id int, input PlayerInput) (*models.Player, error)
	// Delete removes the player. Payments keep their dangling player id and
	// render as "Desconocido" in the dashboard.
	Delete(ctx context.Context, id int) error
}

type playerService struct {
	playerRepo repositories.PlayerRepository
}

func NewPlayerService(playerRepo repositories.PlayerRepository) PlayerService {
	return &playerService{playerRepo: playerRepo}
}

func (s *playerService) validate(input *PlayerInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return ErrPlayerNameRequired
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return ErrInvalidEmail
	}
	if input.Phone != "" {
		if _, err := utils.ValidateArgentinePhone(input.Phone); err != nil {
			return ErrInvalidPhone
		}
	}
	return nil
}

func (s *playerService) Create(ctx context.Context, userID int, input PlayerInput) (*models.Player, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	player := &models.Player{UserID: userID, Name: input.Name}
	setOptional(&player.Phone, input.Phone)
	setOptional(&player.Email, input.Email)

	if err := s.playerRepo.Create(ctx, nil, player); err != nil {
		return nil, err
	}
	return player, nil
}

func (s *playerService) Get(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (s *playerService) List(ctx context.Context) ([]models.Player, error) {
	return s.playerRepo.List(ctx)
}

func (s *playerService) Update(ctx context.Context, id int, input PlayerInput) (*models.Player, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	player, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	player.Name = input.Name
	player.Phone = nil
	player.Email = nil
	setOptional(&player.Phone, input.Phone)
	setOptional(&player.Email, input.Email)

	if err := s.playerRepo.Update(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (s *playerService) Delete(ctx context.Context, id int) error {
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerNotFound):
			return ErrPlayerNotFound
		case errors.Is(err, repositories.ErrPlayerInUse):
			return ErrPlayerHasMatches
		}
		return err
	}
	return nil
}
