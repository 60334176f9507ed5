package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/trucoapp/tournament-manager/models"
)

var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrMatchInvalidRef = errors.New("invalid tournament or player reference")
)

type ListMatchesFilter struct {
	TournamentID *int
	Status       *models.MatchStatus
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context, filter ListMatchesFilter) ([]models.Match, error)
	Update(ctx context.Context, match *models.Match) error
	Delete(ctx context.Context, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (user_id, tournament_id, player1_id, player2_id, player1_score, player2_score, date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		m.UserID, m.TournamentID, m.Player1ID, m.Player2ID,
		m.Player1Score, m.Player2Score, m.Date, m.Status,
	).Scan(&m.ID)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `
		SELECT id, user_id, tournament_id, player1_id, player2_id, player1_score, player2_score, date, status
		FROM matches
		WHERE id = $1`

	m := &models.Match{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.UserID, &m.TournamentID, &m.Player1ID, &m.Player2ID,
		&m.Player1Score, &m.Player2Score, &m.Date, &m.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, filter ListMatchesFilter) ([]models.Match, error) {
	query := `
		SELECT id, user_id, tournament_id, player1_id, player2_id, player1_score, player2_score, date, status
		FROM matches
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.TournamentID != nil {
		query += fmt.Sprintf(" AND tournament_id = $%d", argID)
		args = append(args, *filter.TournamentID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := rows.Scan(
			&m.ID, &m.UserID, &m.TournamentID, &m.Player1ID, &m.Player2ID,
			&m.Player1Score, &m.Player2Score, &m.Date, &m.Status,
		); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches SET
			tournament_id = $1,
			player1_id = $2,
			player2_id = $3,
			player1_score = $4,
			player2_score = $5,
			date = $6,
			status = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		m.TournamentID, m.Player1ID, m.Player2ID,
		m.Player1Score, m.Player2Score, m.Date, m.Status, m.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM matches WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		return ErrMatchInvalidRef
	}
	return err
}
