package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trucoapp/tournament-manager/models"
)

func TestDashboardStats(t *testing.T) {
	players := newFakePlayerRepo()
	tourneys := newFakeTournamentRepo()
	payments := newFakePaymentRepo()
	records := newFakeRecordRepo()
	service := NewDashboardService(players, tourneys, payments, records)

	for _, name := range []string{"Juan", "Pedro"} {
		require.NoError(t, players.Create(context.Background(), nil, &models.Player{UserID: 1, Name: name}))
	}

	now := time.Now()
	seed := []*models.Payment{
		{UserID: 1, Type: models.PaymentTypeEntry, Amount: 1000, Date: now, Status: models.PaymentStatusCompleted},
		{UserID: 1, Type: models.PaymentTypeEntry, Amount: 1500, Date: now, Status: models.PaymentStatusCompleted},
		{UserID: 1, Type: models.PaymentTypePrize, Amount: 800, Date: now, Status: models.PaymentStatusCompleted},
		{UserID: 1, Type: models.PaymentTypeEntry, Amount: 2000, Date: now, Status: models.PaymentStatusPending},
		{UserID: 1, Type: models.PaymentTypeEntry, Amount: 3000, Date: now, Status: models.PaymentStatusCancelled},
		// Revenue only counts entry payments; a completed "other" stays out.
		{UserID: 1, Type: models.PaymentTypeOther, Amount: 500, Date: now, Status: models.PaymentStatusCompleted},
	}
	for _, p := range seed {
		require.NoError(t, payments.Create(context.Background(), nil, p))
	}

	require.NoError(t, records.Create(context.Background(), nil, &models.PaymentRecord{
		TicketID:       "TRU-1700000000000-AAAAAAAAA",
		TournamentName: "Torneo de Verano",
		Amount:         1000,
		PlayerName:     "Juan",
		Status:         models.RecordStatusPendingConfirmation,
	}))

	stats, err := service.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(2500), stats.TotalRevenue)
	assert.Equal(t, float64(800), stats.TotalPrizes)
	assert.Equal(t, float64(1700), stats.Net)
	assert.Equal(t, 1, stats.PendingPayments)
	assert.Equal(t, 1, stats.PendingRecords)
	assert.Equal(t, 2, stats.PlayersTotal)
}

func TestTournamentRevenues(t *testing.T) {
	players := newFakePlayerRepo()
	tourneys := newFakeTournamentRepo()
	service := NewDashboardService(players, tourneys, newFakePaymentRepo(), newFakeRecordRepo())

	tournament := &models.Tournament{UserID: 1, Name: "Torneo de Verano", EntryFee: 1000, Date: time.Now()}
	require.NoError(t, tourneys.Create(context.Background(), tournament))
	for playerID := 1; playerID <= 3; playerID++ {
		require.NoError(t, tourneys.AddParticipant(context.Background(), tournament.ID, playerID))
	}

	revenues, err := service.TournamentRevenues(context.Background())
	require.NoError(t, err)

	require.Len(t, revenues, 1)
	assert.Equal(t, 3, revenues[0].Participants)
	// 1000 entry fee times 3 registered players.
	assert.Equal(t, float64(3000), revenues[0].Revenue)
}
