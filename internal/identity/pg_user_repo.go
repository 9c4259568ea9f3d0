package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zionnet/newsflow/internal/domain"
)

// PostgreSQL unique_violation.
const pgUniqueViolation = "23505"

type pgUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgUserRepository returns a UserRepository backed by PostgreSQL.
func NewPgUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, hashed_password, email, preferences, created_at
		FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, hashed_password, email, preferences, created_at
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Insert persists a new user. A concurrent insert of the same email from
// another consumer instance surfaces as domain.ErrDuplicateEmail so the
// caller can collapse the race onto the idempotent path.
func (r *pgUserRepository) Insert(ctx context.Context, u *domain.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, hashed_password, email, preferences, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.HashedPassword, u.Email, u.Preferences, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *pgUserRepository) UpdatePreferences(ctx context.Context, id string, preferences []string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET preferences = $1 WHERE id = $2`, preferences, id)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.HashedPassword, &u.Email, &u.Preferences, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

var _ UserRepository = (*pgUserRepository)(nil)
