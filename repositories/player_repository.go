package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/trucoapp/tournament-manager/models"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerInUse    = errors.New("player is referenced by matches")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	// FindByNameOrPhone resolves a player during ticket confirmation:
	// an exact name match or, failing that, an exact phone match.
	FindByNameOrPhone(ctx context.Context, exec SQLExecutor, name, phone string) (*models.Player, error)
	List(ctx context.Context) ([]models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	Delete(ctx context.Context, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		INSERT INTO players (user_id, name, phone, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, registered_at`

	return r.executor(exec).QueryRowContext(ctx, query,
		player.UserID,
		player.Name,
		player.Phone,
		player.Email,
	).Scan(&player.ID, &player.RegisteredAt)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `
		SELECT id, user_id, name, phone, email, registered_at
		FROM players
		WHERE id = $1`

	player := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&player.ID, &player.UserID, &player.Name, &player.Phone, &player.Email, &player.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (r *postgresPlayerRepository) FindByNameOrPhone(ctx context.Context, exec SQLExecutor, name, phone string) (*models.Player, error) {
	query := `
		SELECT id, user_id, name, phone, email, registered_at
		FROM players
		WHERE name = $1 OR ($2 <> '' AND phone = $2)
		ORDER BY (name = $1) DESC
		LIMIT 1`

	player := &models.Player{}
	err := r.executor(exec).QueryRowContext(ctx, query, name, phone).Scan(
		&player.ID, &player.UserID, &player.Name, &player.Phone, &player.Email, &player.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context) ([]models.Player, error) {
	query := `
		SELECT id, user_id, name, phone, email, registered_at
		FROM players
		ORDER BY registered_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
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

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players SET
			name = $1,
			phone = $2,
			email = $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, player.Name, player.Phone, player.Email, player.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// Delete removes the player row only. Payments referencing the player keep
// the dangling id on purpose; display layers render them as "Desconocido".
// Matches hold a real foreign key, so a player with recorded matches cannot
// be deleted.
func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM players WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrPlayerInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
