package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/repositories"
)

type DashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
	// TournamentRevenues reports the expected gate per tournament:
	// entry fee times registered participants.
	TournamentRevenues(ctx context.Context) ([]models.TournamentRevenue, error)
}

type dashboardService struct {
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	paymentRepo    repositories.PaymentRepository
	recordRepo     repositories.PaymentRecordRepository
}

func NewDashboardService(
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	paymentRepo repositories.PaymentRepository,
	recordRepo repositories.PaymentRecordRepository,
) DashboardService {
	return &dashboardService{
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		paymentRepo:    paymentRepo,
		recordRepo:     recordRepo,
	}
}

func (s *dashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var (
		payments []models.Payment
		players  []models.Player
		pending  []models.PaymentRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = s.paymentRepo.List(gctx, repositories.ListPaymentsFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.List(gctx)
		return err
	})
	g.Go(func() error {
		status := models.RecordStatusPendingConfirmation
		var err error
		pending, err = s.recordRepo.List(gctx, &status)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		PendingRecords: len(pending),
		PlayersTotal:   len(players),
	}
	for _, p := range payments {
		switch {
		case p.Status == models.PaymentStatusPending:
			stats.PendingPayments++
		case p.Status != models.PaymentStatusCompleted:
			// Cancelled payments count nowhere.
		case p.Type == models.PaymentTypePrize:
			stats.TotalPrizes += p.Amount
		case p.Type == models.PaymentTypeEntry:
			stats.TotalRevenue += p.Amount
		default:
			// Completed payments of type "other" are bookkeeping only.
		}
	}
	stats.Net = stats.TotalRevenue - stats.TotalPrizes
	return stats, nil
}

func (s *dashboardService) TournamentRevenues(ctx context.Context) ([]models.TournamentRevenue, error) {
	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{})
	if err != nil {
		return nil, err
	}

	revenues := make([]models.TournamentRevenue, 0, len(tournaments))
	for _, t := range tournaments {
		count, countErr := s.tournamentRepo.CountParticipants(ctx, t.ID)
		if countErr != nil {
			return nil, countErr
		}
		revenues = append(revenues, models.TournamentRevenue{
			TournamentID: t.ID,
			Name:         t.Name,
			EntryFee:     t.EntryFee,
			Participants: count,
			Revenue:      t.EntryFee * float64(count),
		})
	}
	return revenues, nil
}
