package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/internal/guard"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type onboardingUsecase struct {
	repo     domain.ProfileRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewOnboardingUsecase(repo domain.ProfileRepository, validate *validator.Validate) domain.OnboardingUsecase {
	return &onboardingUsecase{
		repo:     repo,
		validate: validate,
		now:      time.Now,
	}
}

func authorizeSelf(ctx context.Context, userID, action string) error {
	ctxUserID, ok := ctx.Value(domain.KeyUserID).(string)
	if !ok || ctxUserID == "" {
		return apperror.Unauthorized("User not authenticated")
	}
	if ctxUserID != userID {
		return apperror.Forbidden("You can only " + action + " your own onboarding")
	}
	return nil
}

func (u *onboardingUsecase) GetOnboardingStatus(ctx context.Context, userID string) (*domain.OnboardingStatus, error) {
	if err := authorizeSelf(ctx, userID, "check"); err != nil {
		return nil, err
	}

	profile, err := u.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return &domain.OnboardingStatus{Completed: false}, nil
		}
		return nil, apperror.Unavailable("Profile is temporarily unavailable", err)
	}

	return &domain.OnboardingStatus{
		Completed:   profile.IsOnboarded,
		Role:        profile.Role,
		CompletedAt: profile.OnboardedAt,
	}, nil
}

// CompleteOnboarding writes the profile and marks it onboarded. Repeating the
// call with the same role updates the details; switching role after
// onboarding is reserved for admins.
func (u *onboardingUsecase) CompleteOnboarding(ctx context.Context, userID string, req *domain.OnboardingSubmitRequest) (*domain.OnboardingResult, error) {
	if err := authorizeSelf(ctx, userID, "complete"); err != nil {
		return nil, err
	}

	req.FullName = strings.TrimSpace(req.FullName)
	// Forms submit every field; an empty input means "not given".
	for _, field := range []**string{&req.Phone, &req.BirthDate, &req.Specialty, &req.LicenseNumber} {
		if isBlank(*field) {
			*field = nil
		}
	}
	if req.Role != domain.RoleDoctor {
		req.Specialty, req.LicenseNumber = nil, nil
	}
	if err := u.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.Role == domain.RoleDoctor && (isBlank(req.Specialty) || isBlank(req.LicenseNumber)) {
		return nil, apperror.BadRequest("Validation failed: Specialty and License number are required for doctors")
	}

	existing, err := u.repo.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		existing = nil
	case err != nil:
		return nil, apperror.Unavailable("Profile is temporarily unavailable", err)
	}
	if existing != nil && existing.IsOnboarded && existing.Role != req.Role {
		return nil, apperror.Conflict("Role can only be changed by an administrator")
	}

	now := u.now().UTC()
	profile := &domain.Profile{
		UserID:      userID,
		Role:        req.Role,
		FullName:    req.FullName,
		IsOnboarded: true,
		OnboardedAt: &now,
		UpdatedAt:   now,
	}
	if existing != nil {
		profile.CreatedAt = existing.CreatedAt
	}
	if !isBlank(req.Phone) {
		phone := validation.NormalizePhone(*req.Phone)
		profile.Phone = &phone
	}
	if !isBlank(req.BirthDate) {
		d, err := time.Parse(validation.DateLayout, *req.BirthDate)
		if err != nil {
			return nil, apperror.BadRequest("Validation failed: Date of birth must be YYYY-MM-DD")
		}
		profile.BirthDate = &d
	}
	if req.Role == domain.RoleDoctor {
		specialty := strings.TrimSpace(*req.Specialty)
		license := strings.TrimSpace(*req.LicenseNumber)
		profile.Specialty = &specialty
		profile.LicenseNumber = &license
	}

	if err := u.repo.Upsert(ctx, profile); err != nil {
		return nil, apperror.Internal(err)
	}

	return &domain.OnboardingResult{
		Profile:  profile,
		Redirect: guard.HomeFor(profile.Role),
	}, nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
