package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/pkg/apperror"
)

type authUsecase struct {
	userRepo    domain.UserRepository
	profileRepo domain.ProfileRepository
	now         func() time.Time
}

func NewAuthUsecase(userRepo domain.UserRepository, profileRepo domain.ProfileRepository) domain.AuthUsecase {
	return &authUsecase{userRepo: userRepo, profileRepo: profileRepo, now: time.Now}
}

// EnsureUserExists creates the local users row for a verified identity.
// New identities start as patients; the role is only changed by onboarding
// or by an admin.
func (u *authUsecase) EnsureUserExists(ctx context.Context, user *domain.User) error {
	existing, err := u.userRepo.GetByID(ctx, user.ID)
	if err == nil {
		if user.Email != "" && !strings.EqualFold(existing.Email, user.Email) {
			existing.Email = user.Email
			existing.UpdatedAt = u.now()
			if err := u.userRepo.Update(ctx, existing); err != nil {
				return err
			}
		}
		*user = *existing
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return apperror.Internal(err)
	}

	if user.Role == "" || !user.Role.IsValid() {
		user.Role = domain.RolePatient
	}
	user.CreatedAt = u.now()
	user.UpdatedAt = user.CreatedAt
	return u.userRepo.Create(ctx, user)
}

func (u *authUsecase) AssignRole(ctx context.Context, userID string, role domain.Role) error {
	// Security: Only admin can assign roles
	ctxRole, ok := ctx.Value(domain.KeyUserRole).(string)
	if !ok || ctxRole != string(domain.RoleAdmin) {
		return apperror.Forbidden("Only admins can assign roles")
	}
	if !role.IsValid() {
		return apperror.BadRequest("Unknown role")
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperror.NotFound("User not found")
		}
		return apperror.Internal(err)
	}

	user.Role = role
	user.UpdatedAt = u.now()
	if err := u.userRepo.Update(ctx, user); err != nil {
		return apperror.Internal(err)
	}

	profile, err := u.profileRepo.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return nil
	case err != nil:
		return apperror.Internal(err)
	}
	profile.Role = role
	profile.UpdatedAt = user.UpdatedAt
	if err := u.profileRepo.Upsert(ctx, profile); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperror.Unauthorized("User not found")
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

// ResolveViewer loads the identity and profile behind a verified token. A
// missing profile row is not an error; a failed profile read is carried in
// Viewer.ProfileErr so callers can tell the two apart.
func (u *authUsecase) ResolveViewer(ctx context.Context, userID string) (*domain.Viewer, error) {
	user, err := u.GetCurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	viewer := &domain.Viewer{User: user}
	profile, err := u.profileRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		viewer.Profile = profile
	case errors.Is(err, domain.ErrProfileNotFound):
	default:
		viewer.ProfileErr = err
	}
	return viewer, nil
}
