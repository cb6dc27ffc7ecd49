package guard_test

import (
	"errors"
	"testing"

	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/internal/guard"

	"github.com/stretchr/testify/assert"
)

func authed() guard.Session { return guard.Session{Authenticated: true} }

func onboarded(role domain.Role) *guard.Profile {
	return &guard.Profile{Role: role, Onboarded: true}
}

func TestDecideRules(t *testing.T) {
	tests := []struct {
		name string
		in   guard.Inputs
		want guard.Decision
	}{
		{
			name: "loading wins over everything",
			in: guard.Inputs{
				Session: guard.Session{Loading: true},
				Path:    "/dashboard/doctor",
			},
			want: guard.Decision{Action: guard.ActionLoading, Cause: guard.CauseSessionUnresolved, Placeholder: guard.PlaceholderVerifying},
		},
		{
			name: "unauthenticated goes to login with return target",
			in:   guard.Inputs{Path: "/dashboard/patient"},
			want: guard.Decision{
				Action: guard.ActionRedirect,
				Target: "/login?redirect=%2Fdashboard%2Fpatient",
				Mode:   guard.ModePush,
				Cause:  guard.CauseNoIdentity,
			},
		},
		{
			name: "unauthenticated keeps query string in return target",
			in:   guard.Inputs{Path: "/dashboard/patient/records?type=lab_result"},
			want: guard.Decision{
				Action: guard.ActionRedirect,
				Target: "/login?redirect=%2Fdashboard%2Fpatient%2Frecords%3Ftype%3Dlab_result",
				Mode:   guard.ModePush,
				Cause:  guard.CauseNoIdentity,
			},
		},
		{
			name: "unauthenticated on login does not loop",
			in:   guard.Inputs{Path: "/login"},
			want: guard.Decision{Action: guard.ActionBlank, Cause: guard.CauseNoIdentity},
		},
		{
			name: "no profile goes to onboarding",
			in:   guard.Inputs{Session: authed(), Path: "/dashboard/doctor"},
			want: guard.Decision{
				Action:      guard.ActionRedirect,
				Target:      guard.OnboardingPath,
				Mode:        guard.ModePush,
				Cause:       guard.CauseNoProfile,
				Placeholder: guard.PlaceholderPreparing,
			},
		},
		{
			name: "no profile already on onboarding shows placeholder",
			in:   guard.Inputs{Session: authed(), Path: "/onboarding"},
			want: guard.Decision{Action: guard.ActionLoading, Cause: guard.CauseNoProfile, Placeholder: guard.PlaceholderPreparing},
		},
		{
			name: "profile fetch failure is reported separately",
			in:   guard.Inputs{Session: authed(), ProfileErr: errors.New("connection reset"), Path: "/dashboard/patient"},
			want: guard.Decision{Action: guard.ActionError, Cause: guard.CauseProfileUnavailable, Placeholder: guard.PlaceholderUnavailable},
		},
		{
			name: "fetch error ignored once a profile is present",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.RolePatient), ProfileErr: errors.New("stale"), Path: "/dashboard/patient"},
			want: guard.Decision{Action: guard.ActionRender},
		},
		{
			name: "not onboarded goes to onboarding",
			in:   guard.Inputs{Session: authed(), Profile: &guard.Profile{Role: domain.RoleDoctor}, Path: "/dashboard/doctor"},
			want: guard.Decision{
				Action:      guard.ActionRedirect,
				Target:      guard.OnboardingPath,
				Mode:        guard.ModePush,
				Cause:       guard.CauseNotOnboarded,
				Placeholder: guard.PlaceholderPreparing,
			},
		},
		{
			name: "not onboarded under onboarding stays",
			in:   guard.Inputs{Session: authed(), Profile: &guard.Profile{Role: domain.RolePatient}, Path: "/onboarding/step-2"},
			want: guard.Decision{Action: guard.ActionLoading, Cause: guard.CauseNotOnboarded, Placeholder: guard.PlaceholderPreparing},
		},
		{
			name: "onboarded doctor leaves onboarding with replace",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.RoleDoctor), Path: "/onboarding"},
			want: guard.Decision{
				Action:      guard.ActionRedirect,
				Target:      guard.DoctorHome,
				Mode:        guard.ModeReplace,
				Cause:       guard.CauseAlreadyOnboarded,
				Placeholder: guard.PlaceholderPreparing,
			},
		},
		{
			name: "onboarded patient leaves onboarding with replace",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.RolePatient), Path: "/onboarding"},
			want: guard.Decision{
				Action:      guard.ActionRedirect,
				Target:      guard.PatientHome,
				Mode:        guard.ModeReplace,
				Cause:       guard.CauseAlreadyOnboarded,
				Placeholder: guard.PlaceholderPreparing,
			},
		},
		{
			name: "admin leaving onboarding lands on patient dashboard",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.RoleAdmin), Path: "/onboarding"},
			want: guard.Decision{
				Action:      guard.ActionRedirect,
				Target:      guard.PatientHome,
				Mode:        guard.ModeReplace,
				Cause:       guard.CauseAlreadyOnboarded,
				Placeholder: guard.PlaceholderPreparing,
			},
		},
		{
			name: "patient on doctor dashboard is sent home",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.RolePatient), Path: "/dashboard/doctor"},
			want: guard.Decision{Action: guard.ActionRedirect, Target: guard.PatientHome, Mode: guard.ModePush, Cause: guard.CauseWrongRole},
		},
		{
			name: "doctor on patient subpage is sent home",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.RoleDoctor), Path: "/dashboard/patient/records"},
			want: guard.Decision{Action: guard.ActionRedirect, Target: guard.DoctorHome, Mode: guard.ModePush, Cause: guard.CauseWrongRole},
		},
		{
			name: "doctor with explicit allowed roles renders",
			in: guard.Inputs{
				Session:      authed(),
				Profile:      onboarded(domain.RoleDoctor),
				Path:         "/dashboard/doctor",
				AllowedRoles: []domain.Role{domain.RoleDoctor},
			},
			want: guard.Decision{Action: guard.ActionRender},
		},
		{
			name: "explicit allowed roles override inference",
			in: guard.Inputs{
				Session:      authed(),
				Profile:      onboarded(domain.RoleAdmin),
				Path:         "/dashboard/doctor",
				AllowedRoles: []domain.Role{domain.RoleDoctor, domain.RoleAdmin},
			},
			want: guard.Decision{Action: guard.ActionRender},
		},
		{
			name: "explicit restriction on unrestricted path",
			in: guard.Inputs{
				Session:      authed(),
				Profile:      onboarded(domain.RolePatient),
				Path:         "/reports",
				AllowedRoles: []domain.Role{domain.RoleAdmin},
			},
			want: guard.Decision{Action: guard.ActionRedirect, Target: guard.PatientHome, Mode: guard.ModePush, Cause: guard.CauseWrongRole},
		},
		{
			name: "unauthorized but already home renders nothing",
			in: guard.Inputs{
				Session:      authed(),
				Profile:      onboarded(domain.RolePatient),
				Path:         "/dashboard/patient/settings",
				AllowedRoles: []domain.Role{domain.RoleAdmin},
			},
			want: guard.Decision{Action: guard.ActionBlank, Cause: guard.CauseWrongRole},
		},
		{
			name: "unknown role never passes a restriction",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.Role("nurse")), Path: "/dashboard/doctor"},
			want: guard.Decision{Action: guard.ActionRedirect, Target: guard.PatientHome, Mode: guard.ModePush, Cause: guard.CauseWrongRole},
		},
		{
			name: "unknown role at fallback home does not loop",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.Role("nurse")), Path: "/dashboard/patient"},
			want: guard.Decision{Action: guard.ActionBlank, Cause: guard.CauseWrongRole},
		},
		{
			name: "unrestricted path renders for any onboarded role",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.Role("nurse")), Path: "/settings"},
			want: guard.Decision{Action: guard.ActionRender},
		},
		{
			name: "trailing slash is normalised",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.RoleDoctor), Path: "/dashboard/doctor/"},
			want: guard.Decision{Action: guard.ActionRender},
		},
		{
			name: "lookalike prefix is not the doctor dashboard",
			in:   guard.Inputs{Session: authed(), Profile: onboarded(domain.RolePatient), Path: "/dashboard/doctors-directory"},
			want: guard.Decision{Action: guard.ActionRender},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.Decide(tt.in))
		})
	}
}

func TestDecideLoadingIgnoresOtherFields(t *testing.T) {
	profiles := []*guard.Profile{nil, {Role: domain.RolePatient}, onboarded(domain.RoleDoctor), onboarded("")}
	paths := []string{"/", "/login", "/onboarding", "/dashboard/doctor", "/dashboard/patient"}

	for _, authenticated := range []bool{true, false} {
		for _, p := range profiles {
			for _, path := range paths {
				d := guard.Decide(guard.Inputs{
					Session:      guard.Session{Loading: true, Authenticated: authenticated},
					Profile:      p,
					Path:         path,
					AllowedRoles: []domain.Role{domain.RoleAdmin},
				})
				assert.Equal(t, guard.ActionLoading, d.Action)
				assert.Equal(t, guard.PlaceholderVerifying, d.Placeholder)
				assert.Equal(t, guard.StateLoading, d.State())
				assert.Empty(t, d.Target)
			}
		}
	}
}

func TestDecideNoProfileAnyRoleGoesToOnboarding(t *testing.T) {
	paths := []string{"/", "/dashboard/doctor", "/dashboard/patient", "/records/123"}
	roleSets := [][]domain.Role{nil, {domain.RoleDoctor}, {domain.RolePatient}, {domain.RoleAdmin}, {}}

	for _, path := range paths {
		for _, allowed := range roleSets {
			d := guard.Decide(guard.Inputs{Session: authed(), Path: path, AllowedRoles: allowed})
			assert.True(t, d.IsRedirect(), path)
			assert.Equal(t, guard.OnboardingPath, d.Target)
			assert.Equal(t, guard.StateAuthenticatedNoProfile, d.State())
		}
	}
}

func TestDecideNeverRendersIncompleteViewer(t *testing.T) {
	cases := []guard.Inputs{
		{Session: guard.Session{Loading: true}, Profile: onboarded(domain.RoleDoctor), Path: "/dashboard/doctor"},
		{Session: authed(), Path: "/dashboard/patient"},
		{Session: authed(), Path: "/onboarding"},
		{Session: authed(), Profile: &guard.Profile{Role: domain.RolePatient}, Path: "/dashboard/patient"},
		{Session: authed(), Profile: &guard.Profile{Role: domain.RolePatient}, Path: "/onboarding"},
		{Session: authed(), ProfileErr: errors.New("timeout"), Path: "/settings"},
		{Path: "/settings"},
		{Path: "/login"},
	}
	for _, in := range cases {
		assert.False(t, guard.Decide(in).RendersChildren(), "%+v", in)
	}
}

func TestDecisionState(t *testing.T) {
	assert.Equal(t, guard.StateUnauthenticated, guard.Decide(guard.Inputs{Path: "/x"}).State())
	assert.Equal(t, guard.StateAuthenticatedNotOnboarded,
		guard.Decide(guard.Inputs{Session: authed(), Profile: &guard.Profile{}, Path: "/x"}).State())
	assert.Equal(t, guard.StateAuthenticatedOnboarded,
		guard.Decide(guard.Inputs{Session: authed(), Profile: onboarded(domain.RolePatient), Path: "/x"}).State())
}
