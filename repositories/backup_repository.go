package repositories

import (
	"context"
	"fmt"

	"github.com/trucoapp/tournament-manager/models"
)

// BackupData is the full dataset moved by export and import.
type BackupData struct {
	Players        []models.Player        `json:"players"`
	Tournaments    []models.Tournament    `json:"tournaments"`
	Matches        []models.Match         `json:"matches"`
	Payments       []models.Payment       `json:"payments"`
	PaymentRecords []models.PaymentRecord `json:"paymentRecords"`
}

// BackupRepository owns the wholesale-replace SQL behind import. Inserts keep
// the exported ids so cross-references survive the round trip.
type BackupRepository interface {
	ReplaceAll(ctx context.Context, exec SQLExecutor, data *BackupData) error
}

type postgresBackupRepository struct{}

func NewPostgresBackupRepository() BackupRepository {
	return &postgresBackupRepository{}
}

func (r *postgresBackupRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, data *BackupData) error {
	// Children first so foreign keys never block the wipe.
	wipe := []string{
		"DELETE FROM payments",
		"DELETE FROM payment_records",
		"DELETE FROM matches",
		"DELETE FROM tournament_players",
		"DELETE FROM tournaments",
		"DELETE FROM players",
	}
	for _, stmt := range wipe {
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear table for import: %w", err)
		}
	}

	for i := range data.Players {
		p := &data.Players[i]
		_, err := exec.ExecContext(ctx, `
			INSERT INTO players (id, user_id, name, phone, email, registered_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.UserID, p.Name, p.Phone, p.Email, p.RegisteredAt,
		)
		if err != nil {
			return fmt.Errorf("failed to import player %d: %w", p.ID, err)
		}
	}

	for i := range data.Tournaments {
		t := &data.Tournaments[i]
		_, err := exec.ExecContext(ctx, `
			INSERT INTO tournaments (id, user_id, name, entry_fee, prize_pool, date, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.UserID, t.Name, t.EntryFee, t.PrizePool, t.Date, t.Status, t.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to import tournament %d: %w", t.ID, err)
		}
		for _, p := range t.Participants {
			_, err := exec.ExecContext(ctx, `
				INSERT INTO tournament_players (tournament_id, player_id)
				VALUES ($1, $2)`,
				t.ID, p.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to import participant %d of tournament %d: %w", p.ID, t.ID, err)
			}
		}
	}

	for i := range data.Matches {
		m := &data.Matches[i]
		_, err := exec.ExecContext(ctx, `
			INSERT INTO matches (id, user_id, tournament_id, player1_id, player2_id, player1_score, player2_score, date, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			m.ID, m.UserID, m.TournamentID, m.Player1ID, m.Player2ID,
			m.Player1Score, m.Player2Score, m.Date, m.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to import match %d: %w", m.ID, err)
		}
	}

	for i := range data.Payments {
		p := &data.Payments[i]
		_, err := exec.ExecContext(ctx, `
			INSERT INTO payments (id, user_id, type, player_id, tournament_id, amount, date, status, notes, source, ticket_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, p.UserID, p.Type, p.PlayerID, p.TournamentID, p.Amount,
			p.Date, p.Status, p.Notes, p.Source, p.TicketID, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to import payment %d: %w", p.ID, err)
		}
	}

	for i := range data.PaymentRecords {
		rec := &data.PaymentRecords[i]
		_, err := exec.ExecContext(ctx, `
			INSERT INTO payment_records (
				id, ticket_id, tournament_id, tournament_name, amount, player_name,
				team_name, balneario_number, phone, email, payment_method, notes,
				status, submitted_at, confirmed_at, rejected_at, confirmed_by_user_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			rec.ID, rec.TicketID, rec.TournamentID, rec.TournamentName, rec.Amount,
			rec.PlayerName, rec.TeamName, rec.BalnearioNumber, rec.Phone, rec.Email,
			rec.PaymentMethod, rec.Notes, rec.Status, rec.SubmittedAt,
			rec.ConfirmedAt, rec.RejectedAt, rec.ConfirmedByUserID,
		)
		if err != nil {
			return fmt.Errorf("failed to import payment record %d: %w", rec.ID, err)
		}
	}

	// Explicit-id inserts leave the serial sequences behind; bump them so the
	// next insert does not collide.
	sequences := []string{"players", "tournaments", "matches", "payments", "payment_records"}
	for _, table := range sequences {
		stmt := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))",
			table, table,
		)
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset %s id sequence: %w", table, err)
		}
	}
	return nil
}
