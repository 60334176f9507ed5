package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/trucoapp/tournament-manager/models"
)

var (
	ErrRecordNotFound = errors.New("payment record not found")
	// ErrTicketIDConflict means a record for this ticket already exists.
	// The unique constraint is what makes ticket submission and webhook
	// delivery idempotent.
	ErrTicketIDConflict = errors.New("payment record ticket id conflict")
	// ErrRecordNotPending is returned by the compare-and-set transition
	// methods when the record already reached a terminal status.
	ErrRecordNotPending = errors.New("payment record is not pending confirmation")
)

type PaymentRecordRepository interface {
	Create(ctx context.Context, exec SQLExecutor, record *models.PaymentRecord) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.PaymentRecord, error)
	GetByTicketID(ctx context.Context, ticketID string) (*models.PaymentRecord, error)
	List(ctx context.Context, status *models.PaymentRecordStatus) ([]models.PaymentRecord, error)

	// ConfirmIfPending and RejectIfPending transition the record only when it
	// is still pending_confirmation; ErrRecordNotPending otherwise. Terminal
	// states are never overwritten.
	ConfirmIfPending(ctx context.Context, exec SQLExecutor, id int, adminID int, at time.Time) error
	RejectIfPending(ctx context.Context, exec SQLExecutor, id int, adminID int, at time.Time) error
}

type postgresPaymentRecordRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRecordRepository(db *sql.DB) PaymentRecordRepository {
	return &postgresPaymentRecordRepository{db: db}
}

func (r *postgresPaymentRecordRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const paymentRecordColumns = `
	id, ticket_id, tournament_id, tournament_name, amount, player_name,
	team_name, balneario_number, phone, email, payment_method, notes,
	status, submitted_at, confirmed_at, rejected_at, confirmed_by_user_id`

func (r *postgresPaymentRecordRepository) Create(ctx context.Context, exec SQLExecutor, rec *models.PaymentRecord) error {
	query := `
		INSERT INTO payment_records (
			ticket_id, tournament_id, tournament_name, amount, player_name,
			team_name, balneario_number, phone, email, payment_method, notes, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, submitted_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		rec.TicketID, rec.TournamentID, rec.TournamentName, rec.Amount, rec.PlayerName,
		rec.TeamName, rec.BalnearioNumber, rec.Phone, rec.Email, rec.PaymentMethod,
		rec.Notes, rec.Status,
	).Scan(&rec.ID, &rec.SubmittedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "payment_records_ticket_id_key" {
				return ErrTicketIDConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresPaymentRecordRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.PaymentRecord, error) {
	query := `SELECT` + paymentRecordColumns + ` FROM payment_records WHERE id = $1`
	return r.scanRecord(r.executor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresPaymentRecordRepository) GetByTicketID(ctx context.Context, ticketID string) (*models.PaymentRecord, error) {
	query := `SELECT` + paymentRecordColumns + ` FROM payment_records WHERE ticket_id = $1`
	return r.scanRecord(r.db.QueryRowContext(ctx, query, ticketID))
}

func (r *postgresPaymentRecordRepository) List(ctx context.Context, status *models.PaymentRecordStatus) ([]models.PaymentRecord, error) {
	query := `SELECT` + paymentRecordColumns + ` FROM payment_records WHERE 1=1`
	args := []interface{}{}
	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, *status)
	}
	query += " ORDER BY submitted_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.PaymentRecord, 0)
	for rows.Next() {
		rec, scanErr := r.scanRecordRows(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *postgresPaymentRecordRepository) ConfirmIfPending(ctx context.Context, exec SQLExecutor, id int, adminID int, at time.Time) error {
	query := `
		UPDATE payment_records
		SET status = $1, confirmed_at = $2, confirmed_by_user_id = $3
		WHERE id = $4 AND status = $5`
	return r.transitionIfPending(ctx, exec, query,
		models.RecordStatusConfirmed, at, adminID, id, models.RecordStatusPendingConfirmation)
}

func (r *postgresPaymentRecordRepository) RejectIfPending(ctx context.Context, exec SQLExecutor, id int, adminID int, at time.Time) error {
	query := `
		UPDATE payment_records
		SET status = $1, rejected_at = $2, confirmed_by_user_id = $3
		WHERE id = $4 AND status = $5`
	return r.transitionIfPending(ctx, exec, query,
		models.RecordStatusRejected, at, adminID, id, models.RecordStatusPendingConfirmation)
}

func (r *postgresPaymentRecordRepository) transitionIfPending(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) error {
	result, err := r.executor(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Either the record does not exist or it is no longer pending. The
		// caller already loaded the record, so the latter is the usual case.
		return ErrRecordNotPending
	}
	return nil
}

func (r *postgresPaymentRecordRepository) scanRecord(row *sql.Row) (*models.PaymentRecord, error) {
	rec := &models.PaymentRecord{}
	err := row.Scan(
		&rec.ID, &rec.TicketID, &rec.TournamentID, &rec.TournamentName, &rec.Amount,
		&rec.PlayerName, &rec.TeamName, &rec.BalnearioNumber, &rec.Phone, &rec.Email,
		&rec.PaymentMethod, &rec.Notes, &rec.Status, &rec.SubmittedAt,
		&rec.ConfirmedAt, &rec.RejectedAt, &rec.ConfirmedByUserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *postgresPaymentRecordRepository) scanRecordRows(rows *sql.Rows) (*models.PaymentRecord, error) {
	rec := &models.PaymentRecord{}
	err := rows.Scan(
		&rec.ID, &rec.TicketID, &rec.TournamentID, &rec.TournamentName, &rec.Amount,
		&rec.PlayerName, &rec.TeamName, &rec.BalnearioNumber, &rec.Phone, &rec.Email,
		&rec.PaymentMethod, &rec.Notes, &rec.Status, &rec.SubmittedAt,
		&rec.ConfirmedAt, &rec.RejectedAt, &rec.ConfirmedByUserID,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
