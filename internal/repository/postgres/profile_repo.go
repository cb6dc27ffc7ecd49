package postgres

import (
	"context"
	"errors"
	"fmt"

	"go-healthcare-portal/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type profileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) domain.ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
		SELECT user_id, role, full_name, phone, birth_date, specialty, license_number,
		       is_onboarded, onboarded_at, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var p domain.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Role, &p.FullName, &p.Phone, &p.BirthDate, &p.Specialty, &p.LicenseNumber,
		&p.IsOnboarded, &p.OnboardedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// Upsert writes the profile and mirrors its role onto users in one
// transaction so the two tables never disagree.
func (r *profileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO profiles (
			user_id, role, full_name, phone, birth_date, specialty, license_number,
			is_onboarded, onboarded_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			role = EXCLUDED.role,
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			birth_date = EXCLUDED.birth_date,
			specialty = EXCLUDED.specialty,
			license_number = EXCLUDED.license_number,
			is_onboarded = EXCLUDED.is_onboarded,
			onboarded_at = COALESCE(profiles.onboarded_at, EXCLUDED.onboarded_at),
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, onboarded_at
	`
	err = tx.QueryRow(ctx, query,
		p.UserID, p.Role, p.FullName, p.Phone, p.BirthDate, p.Specialty, p.LicenseNumber,
		p.IsOnboarded, p.OnboardedAt, p.UpdatedAt,
	).Scan(&p.CreatedAt, &p.OnboardedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`,
		p.UserID, p.Role, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to mirror role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit profile: %w", err)
	}
	return nil
}
