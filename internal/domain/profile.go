package domain

import (
	"context"
	"time"
)

// Profile is the portal-side profile row for an authenticated identity.
// A profile is complete only when it exists and IsOnboarded is true.
type Profile struct {
	UserID        string     `json:"user_id"`
	Role          Role       `json:"role"`
	FullName      string     `json:"full_name"`
	Phone         *string    `json:"phone,omitempty"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	Specialty     *string    `json:"specialty,omitempty"`      // doctors only
	LicenseNumber *string    `json:"license_number,omitempty"` // doctors only
	IsOnboarded   bool       `json:"is_onboarded"`
	OnboardedAt   *time.Time `json:"onboarded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProfileRepository reads and writes the profiles table.
// GetByUserID returns ErrProfileNotFound when no row exists.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	Upsert(ctx context.Context, profile *Profile) error
}

// ============================================================================
// Onboarding
// ============================================================================

// OnboardingSubmitRequest is the payload for completing onboarding
type OnboardingSubmitRequest struct {
	Role          Role    `json:"role" form:"role" validate:"required,oneof=patient doctor"`
	FullName      string  `json:"full_name" form:"full_name" validate:"required,min=2,max=120,valid_name,no_emoji"`
	Phone         *string `json:"phone,omitempty" form:"phone" validate:"omitempty,valid_phone"`
	BirthDate     *string `json:"birth_date,omitempty" form:"birth_date" validate:"omitempty,past_date"` // Format: YYYY-MM-DD
	Specialty     *string `json:"specialty,omitempty" form:"specialty" validate:"omitempty,min=2,max=80,no_emoji"`
	LicenseNumber *string `json:"license_number,omitempty" form:"license_number" validate:"omitempty,min=3,max=40"`
}

// OnboardingStatus represents the onboarding completion status
type OnboardingStatus struct {
	Completed   bool       `json:"completed"`
	Role        Role       `json:"role,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// OnboardingResult is returned after a successful onboarding so the client
// can replace-navigate to the role's dashboard.
type OnboardingResult struct {
	Profile  *Profile `json:"profile"`
	Redirect string   `json:"redirect"`
}

type OnboardingUsecase interface {
	GetOnboardingStatus(ctx context.Context, userID string) (*OnboardingStatus, error)
	CompleteOnboarding(ctx context.Context, userID string, req *OnboardingSubmitRequest) (*OnboardingResult, error)
}
