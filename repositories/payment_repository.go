package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/trucoapp/tournament-manager/models"
)

var ErrPaymentNotFound = errors.New("payment not found")

type ListPaymentsFilter struct {
	Type         *models.PaymentType
	Status       *models.PaymentStatus
	TournamentID *int
	PlayerID     *int
}

type PaymentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, payment *models.Payment) error
	GetByID(ctx context.Context, id int) (*models.Payment, error)
	List(ctx context.Context, filter ListPaymentsFilter) ([]models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id int) error
}

type postgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) PaymentRepository {
	return &postgresPaymentRepository{db: db}
}

func (r *postgresPaymentRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPaymentRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Payment) error {
	query := `
		INSERT INTO payments (user_id, type, player_id, tournament_id, amount, date, status, notes, source, ticket_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	return r.executor(exec).QueryRowContext(ctx, query,
		p.UserID, p.Type, p.PlayerID, p.TournamentID, p.Amount,
		p.Date, p.Status, p.Notes, p.Source, p.TicketID,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *postgresPaymentRepository) GetByID(ctx context.Context, id int) (*models.Payment, error) {
	query := `
		SELECT id, user_id, type, player_id, tournament_id, amount, date, status, notes, source, ticket_id, created_at
		FROM payments
		WHERE id = $1`

	p := &models.Payment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.Type, &p.PlayerID, &p.TournamentID, &p.Amount,
		&p.Date, &p.Status, &p.Notes, &p.Source, &p.TicketID, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPaymentRepository) List(ctx context.Context, filter ListPaymentsFilter) ([]models.Payment, error) {
	query := `
		SELECT id, user_id, type, player_id, tournament_id, amount, date, status, notes, source, ticket_id, created_at
		FROM payments
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argID)
		args = append(args, *filter.Type)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.TournamentID != nil {
		query += fmt.Sprintf(" AND tournament_id = $%d", argID)
		args = append(args, *filter.TournamentID)
		argID++
	}
	if filter.PlayerID != nil {
		query += fmt.Sprintf(" AND player_id = $%d", argID)
		args = append(args, *filter.PlayerID)
		argID++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		if scanErr := rows.Scan(
			&p.ID, &p.UserID, &p.Type, &p.PlayerID, &p.TournamentID, &p.Amount,
			&p.Date, &p.Status, &p.Notes, &p.Source, &p.TicketID, &p.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *postgresPaymentRepository) Update(ctx context.Context, p *models.Payment) error {
	query := `
		UPDATE payments SET
			type = $1,
			player_id = $2,
			tournament_id = $3,
			amount = $4,
			date = $5,
			status = $6,
			notes = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		p.Type, p.PlayerID, p.TournamentID, p.Amount, p.Date, p.Status, p.Notes, p.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPaymentNotFound)
}

func (r *postgresPaymentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM payments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPaymentNotFound)
}
