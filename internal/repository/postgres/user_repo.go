package postgres

import (
	"context"
	"errors"
	"fmt"

	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, role, created_at, updated_at`

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &userRepo{db: db}
}

// Create inserts the local row for a Supabase identity. The email is unique,
// so a second identity with the same address is a conflict.
func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, user.ID, user.Email, user.Role, user.CreatedAt, user.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case hasCode(err, pgUniqueViolation):
		return apperror.Conflict("An account with this email already exists")
	default:
		return fmt.Errorf("failed to insert user: %w", err)
	}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var u domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &u, nil
}

// Update writes the users row only; the profile keeps its own role copy.
func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET email = $2, role = $3, updated_at = $4 WHERE id = $1`,
		user.ID, user.Email, user.Role, user.UpdatedAt,
	)
	if err != nil {
		if hasCode(err, pgUniqueViolation) {
			return apperror.Conflict("An account with this email already exists")
		}
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
