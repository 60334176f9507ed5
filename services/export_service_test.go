package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/repositories"
)

type fakeMatchRepo struct {
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
}

func (r *fakeMatchRepo) Create(ctx context.Context, m *models.Match) error {
	m.ID = r.nextID
	r.nextID++
	stored := *m
	r.matches[m.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) List(ctx context.Context, filter repositories.ListMatchesFilter) ([]models.Match, error) {
	out := make([]models.Match, 0)
	for _, m := range r.matches {
		out = append(out, *m)
	}
	return out, nil
}

func (r *fakeMatchRepo) Update(ctx context.Context, m *models.Match) error {
	if _, ok := r.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	stored := *m
	r.matches[m.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

type fakeBackupRepo struct {
	imported *repositories.BackupData
}

func (r *fakeBackupRepo) ReplaceAll(ctx context.Context, exec repositories.SQLExecutor, data *repositories.BackupData) error {
	r.imported = data
	return nil
}

type exportFixture struct {
	service ExportService
	backup  *fakeBackupRepo
	players *fakePlayerRepo
	tourney *fakeTournamentRepo
	matches *fakeMatchRepo
	pay     *fakePaymentRepo
	records *fakeRecordRepo
}

func newExportFixture() *exportFixture {
	f := &exportFixture{
		backup:  &fakeBackupRepo{},
		players: newFakePlayerRepo(),
		tourney: newFakeTournamentRepo(),
		matches: newFakeMatchRepo(),
		pay:     newFakePaymentRepo(),
		records: newFakeRecordRepo(),
	}
	f.service = NewExportService(
		passthroughTxRunner{},
		f.backup,
		f.players,
		f.tourney,
		f.matches,
		f.pay,
		f.records,
	)
	return f
}

func TestExportJSON(t *testing.T) {
	f := newExportFixture()

	player := &models.Player{UserID: 1, Name: "Juan Pérez"}
	require.NoError(t, f.players.Create(context.Background(), nil, player))
	tournament := &models.Tournament{UserID: 1, Name: "Torneo de Verano", EntryFee: 1000, Date: time.Now()}
	require.NoError(t, f.tourney.Create(context.Background(), tournament))
	payment := &models.Payment{UserID: 1, Type: models.PaymentTypeEntry, Amount: 1000, Date: time.Now(), Status: models.PaymentStatusCompleted, Source: models.PaymentSourceManual}
	require.NoError(t, f.pay.Create(context.Background(), nil, payment))

	envelope, err := f.service.ExportJSON(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.0", envelope.Version)
	assert.WithinDuration(t, time.Now(), envelope.ExportDate, time.Minute)
	assert.Len(t, envelope.Data.Players, 1)
	assert.Len(t, envelope.Data.Tournaments, 1)
	assert.Len(t, envelope.Data.Payments, 1)
	assert.NotNil(t, envelope.Data.Matches)
	assert.NotNil(t, envelope.Data.PaymentRecords)

	// The envelope keys are part of the backup format.
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"exportDate"`)
	assert.Contains(t, string(raw), `"version":"1.0"`)
	assert.Contains(t, string(raw), `"paymentRecords"`)
}

func TestImportJSON(t *testing.T) {
	t.Run("round trips an exported envelope", func(t *testing.T) {
		f := newExportFixture()

		player := &models.Player{UserID: 1, Name: "Juan Pérez"}
		require.NoError(t, f.players.Create(context.Background(), nil, player))

		envelope, err := f.service.ExportJSON(context.Background())
		require.NoError(t, err)
		raw, err := json.Marshal(envelope)
		require.NoError(t, err)

		require.NoError(t, f.service.ImportJSON(context.Background(), raw))
		require.NotNil(t, f.backup.imported)
		assert.Len(t, f.backup.imported.Players, 1)
		assert.Equal(t, "Juan Pérez", f.backup.imported.Players[0].Name)
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		f := newExportFixture()

		err := f.service.ImportJSON(context.Background(), []byte("{not json"))
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Nil(t, f.backup.imported)
	})

	t.Run("rejects unknown versions", func(t *testing.T) {
		f := newExportFixture()

		err := f.service.ImportJSON(context.Background(), []byte(`{"exportDate":"2026-01-01T00:00:00Z","version":"2.0","data":{}}`))
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Nil(t, f.backup.imported)
	})
}

func TestExportPaymentsCSV(t *testing.T) {
	f := newExportFixture()

	player := &models.Player{UserID: 1, Name: "Juan \"El Zurdo\" Pérez"}
	require.NoError(t, f.players.Create(context.Background(), nil, player))
	tournament := &models.Tournament{UserID: 1, Name: "Torneo de Verano", Date: time.Now()}
	require.NoError(t, f.tourney.Create(context.Background(), tournament))

	notes := "pagó en efectivo"
	missingPlayer := 99
	payments := []*models.Payment{
		{
			UserID: 1, Type: models.PaymentTypeEntry, PlayerID: &player.ID, TournamentID: &tournament.ID,
			Amount: 1500.5, Date: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			Status: models.PaymentStatusCompleted, Notes: &notes, Source: models.PaymentSourceManual,
		},
		{
			UserID: 1, Type: models.PaymentTypePrize, PlayerID: &missingPlayer,
			Amount: 500, Date: time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC),
			Status: models.PaymentStatusCompleted, Source: models.PaymentSourceManual,
		},
	}
	for _, p := range payments {
		require.NoError(t, f.pay.Create(context.Background(), nil, p))
	}

	csv, err := f.service.ExportPaymentsCSV(context.Background())
	require.NoError(t, err)

	// UTF-8 BOM so spreadsheets keep the accents.
	require.True(t, len(csv) > 3)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, csv[:3])

	body := string(csv[3:])
	lines := strings.Split(strings.TrimRight(body, "\r\n"), "\r\n")
	require.Len(t, lines, 3)

	assert.Equal(t, `"Fecha","Tipo","Jugador","Torneo","Monto","Estado","Notas"`, lines[0])
	// Every field is quoted; embedded quotes are doubled.
	assert.Contains(t, body, `"Juan ""El Zurdo"" Pérez"`)
	assert.Contains(t, body, `"$1.500,50"`)
	// Dangling references render with their placeholders.
	assert.Contains(t, body, `"Desconocido"`)
	assert.Contains(t, body, `"Sin torneo"`)
}

func TestExportPlayersCSV(t *testing.T) {
	f := newExportFixture()

	phone := "+54 1122334455"
	require.NoError(t, f.players.Create(context.Background(), nil, &models.Player{
		UserID: 1, Name: "Juan Pérez", Phone: &phone,
	}))

	csv, err := f.service.ExportPlayersCSV(context.Background())
	require.NoError(t, err)

	body := string(csv[3:])
	lines := strings.Split(strings.TrimRight(body, "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Nombre","Teléfono","Email","Registrado"`, lines[0])
	assert.Contains(t, lines[1], `"Juan Pérez"`)
	assert.Contains(t, lines[1], `"+54 1122334455"`)
}

func TestExportTournamentsCSV(t *testing.T) {
	f := newExportFixture()

	tournament := &models.Tournament{
		UserID: 1, Name: "Torneo de Verano", EntryFee: 1000, PrizePool: 5000,
		Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Status: models.TournamentStatusPlanned,
	}
	require.NoError(t, f.tourney.Create(context.Background(), tournament))
	require.NoError(t, f.tourney.AddParticipant(context.Background(), tournament.ID, 1))
	require.NoError(t, f.tourney.AddParticipant(context.Background(), tournament.ID, 2))

	csv, err := f.service.ExportTournamentsCSV(context.Background())
	require.NoError(t, err)

	body := string(csv[3:])
	lines := strings.Split(strings.TrimRight(body, "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Nombre","Fecha","Inscripción","Premios","Estado","Participantes"`, lines[0])
	assert.Equal(t, `"Torneo de Verano","2026-02-01","$1.000,00","$5.000,00","planned","2"`, lines[1])
}

func TestExportMatchesCSV(t *testing.T) {
	f := newExportFixture()

	player1 := &models.Player{UserID: 1, Name: "Juan"}
	require.NoError(t, f.players.Create(context.Background(), nil, player1))
	tournament := &models.Tournament{UserID: 1, Name: "Torneo de Verano", Date: time.Now()}
	require.NoError(t, f.tourney.Create(context.Background(), tournament))

	s1, s2 := 3, 2
	require.NoError(t, f.matches.Create(context.Background(), &models.Match{
		UserID: 1, TournamentID: tournament.ID, Player1ID: player1.ID, Player2ID: 99,
		Player1Score: &s1, Player2Score: &s2,
		Date:   time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
		Status: models.MatchStatusCompleted,
	}))

	csv, err := f.service.ExportMatchesCSV(context.Background())
	require.NoError(t, err)

	body := string(csv[3:])
	lines := strings.Split(strings.TrimRight(body, "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Fecha","Torneo","Jugador 1","Jugador 2","Resultado","Estado"`, lines[0])
	// Player 2 was deleted at some point; the row still renders.
	assert.Equal(t, `"2026-01-20","Torneo de Verano","Juan","Desconocido","3 - 2","completed"`, lines[1])
}

func TestExportRecordsCSV(t *testing.T) {
	f := newExportFixture()

	method := MethodCash
	require.NoError(t, f.records.Create(context.Background(), nil, &models.PaymentRecord{
		TicketID:       "TRU-1700000000000-AAAAAAAAA",
		TournamentName: "Torneo de Verano",
		Amount:         1500.5,
		PlayerName:     "Juan Pérez",
		PaymentMethod:  &method,
		Status:         models.RecordStatusPendingConfirmation,
		SubmittedAt:    time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}))

	csv, err := f.service.ExportRecordsCSV(context.Background())
	require.NoError(t, err)

	body := string(csv[3:])
	lines := strings.Split(strings.TrimRight(body, "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Fecha","Ticket","Jugador","Torneo","Monto","Método","Estado"`, lines[0])
	assert.Equal(t, `"2026-01-15","TRU-1700000000000-AAAAAAAAA","Juan Pérez","Torneo de Verano","$1.500,50","efectivo","pending_confirmation"`, lines[1])
}
