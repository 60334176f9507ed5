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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrParticipantConflict    = errors.New("player is already registered for this tournament")
	ErrParticipantNotFound    = errors.New("participant registration not found")
	ErrParticipantInvalidRef  = errors.New("invalid player or tournament reference")
	ErrTournamentNameConflict = errors.New("tournament name conflict for this organizer")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	GetByName(ctx context.Context, exec SQLExecutor, name string) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	// Delete removes the tournament. Matches cascade at the schema level;
	// payments keep a dangling tournament reference.
	Delete(ctx context.Context, id int) error

	AddParticipant(ctx context.Context, tournamentID, playerID int) error
	RemoveParticipant(ctx context.Context, tournamentID, playerID int) error
	ListParticipants(ctx context.Context, tournamentID int) ([]models.Player, error)
	CountParticipants(ctx context.Context, tournamentID int) (int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (user_id, name, entry_fee, prize_pool, date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.UserID, t.Name, t.EntryFee, t.PrizePool, t.Date, t.Status,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `
		SELECT id, user_id, name, entry_fee, prize_pool, date, status, created_at
		FROM tournaments
		WHERE id = $1`
	return r.scanTournament(ctx, r.executor(exec), query, id)
}

// GetByName is the legacy resolution path for payment records issued before
// tournament ids travelled in the ticket URL.
func (r *postgresTournamentRepository) GetByName(ctx context.Context, exec SQLExecutor, name string) (*models.Tournament, error) {
	query := `
		SELECT id, user_id, name, entry_fee, prize_pool, date, status, created_at
		FROM tournaments
		WHERE name = $1
		ORDER BY created_at DESC
		LIMIT 1`
	return r.scanTournament(ctx, r.executor(exec), query, name)
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `
		SELECT id, user_id, name, entry_fee, prize_pool, date, status, created_at
		FROM tournaments
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.UserID, &t.Name, &t.EntryFee, &t.PrizePool, &t.Date, &t.Status, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			entry_fee = $2,
			prize_pool = $3,
			date = $4,
			status = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.EntryFee, t.PrizePool, t.Date, t.Status, t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AddParticipant(ctx context.Context, tournamentID, playerID int) error {
	query := `
		INSERT INTO tournament_players (tournament_id, player_id)
		VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrParticipantConflict
			case "23503":
				return ErrParticipantInvalidRef
			}
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) RemoveParticipant(ctx context.Context, tournamentID, playerID int) error {
	query := `DELETE FROM tournament_players WHERE tournament_id = $1 AND player_id = $2`
	result, err := r.db.ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresTournamentRepository) ListParticipants(ctx context.Context, tournamentID int) ([]models.Player, error) {
	query := `
		SELECT p.id, p.user_id, p.name, p.phone, p.email, p.registered_at
		FROM tournament_players tp
		JOIN players p ON p.id = tp.player_id
		WHERE tp.tournament_id = $1
		ORDER BY tp.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Phone, &p.Email, &p.RegisteredAt); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresTournamentRepository) CountParticipants(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_players WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	return count, err
}

func (r *postgresTournamentRepository) scanTournament(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := exec.QueryRowContext(ctx, query, args...).Scan(
		&t.ID, &t.UserID, &t.Name, &t.EntryFee, &t.PrizePool, &t.Date, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" && pqErr.Constraint == "tournaments_user_id_name_key" {
			return ErrTournamentNameConflict
		}
	}
	return err
}
