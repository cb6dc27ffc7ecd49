// Package guard decides what a viewer may see on a protected route and where
// to send them otherwise. Decide is pure; Executor turns a Decision into a
// navigation call.
package guard

import (
	"strings"

	"go-healthcare-portal/internal/domain"
)

// Session is the authentication state reported by the auth provider.
type Session struct {
	Authenticated bool
	Loading       bool
}

// Profile is the part of the viewer's profile the guard reads.
type Profile struct {
	Role      domain.Role
	Onboarded bool
}

// Inputs is everything one evaluation depends on.
type Inputs struct {
	Session Session
	// Profile is nil when no profile row exists for the identity.
	Profile *Profile
	// ProfileErr is set when the profile could not be fetched. It only
	// matters while Profile is nil.
	ProfileErr error
	// Path is the requested path, optionally with a query string.
	Path string
	// AllowedRoles restricts the route explicitly. nil means not given and
	// the restriction is inferred from Path.
	AllowedRoles []domain.Role
}

type Action string

const (
	ActionRender   Action = "render"
	ActionLoading  Action = "loading"
	ActionBlank    Action = "blank"
	ActionRedirect Action = "redirect"
	ActionError    Action = "error"
)

type Mode string

const (
	ModePush    Mode = "push"
	ModeReplace Mode = "replace"
)

// Cause classifies why the guard did not simply render.
type Cause string

const (
	CauseNone               Cause = ""
	CauseSessionUnresolved  Cause = "session_unresolved"
	CauseNoIdentity         Cause = "no_identity"
	CauseNoProfile          Cause = "no_profile"
	CauseProfileUnavailable Cause = "profile_unavailable"
	CauseNotOnboarded       Cause = "not_onboarded"
	CauseAlreadyOnboarded   Cause = "already_onboarded"
	CauseWrongRole          Cause = "wrong_role"
)

// Placeholder is what to show instead of the protected content.
type Placeholder string

const (
	PlaceholderNone        Placeholder = ""
	PlaceholderVerifying   Placeholder = "verifying"
	PlaceholderPreparing   Placeholder = "preparing"
	PlaceholderUnavailable Placeholder = "unavailable"
)

// Label is the human readable text for a placeholder.
func (p Placeholder) Label() string {
	switch p {
	case PlaceholderVerifying:
		return "Verifying your session..."
	case PlaceholderPreparing:
		return "Preparing your account..."
	case PlaceholderUnavailable:
		return "We could not load your profile. Please try again."
	default:
		return ""
	}
}

// State is the guard's view of the viewer, LOADING until auth resolves.
type State string

const (
	StateLoading                   State = "LOADING"
	StateUnauthenticated           State = "UNAUTHENTICATED"
	StateAuthenticatedNoProfile    State = "AUTHENTICATED_NO_PROFILE"
	StateAuthenticatedNotOnboarded State = "AUTHENTICATED_NOT_ONBOARDED"
	StateAuthenticatedOnboarded    State = "AUTHENTICATED_ONBOARDED"
)

// Decision is the outcome of one evaluation.
type Decision struct {
	Action      Action
	Target      string
	Mode        Mode
	Cause       Cause
	Placeholder Placeholder
}

func (d Decision) IsRedirect() bool {
	return d.Action == ActionRedirect
}

// RendersChildren reports whether protected content may be shown.
func (d Decision) RendersChildren() bool {
	return d.Action == ActionRender
}

func (d Decision) State() State {
	switch d.Cause {
	case CauseSessionUnresolved:
		return StateLoading
	case CauseNoIdentity:
		return StateUnauthenticated
	case CauseNoProfile, CauseProfileUnavailable:
		return StateAuthenticatedNoProfile
	case CauseNotOnboarded:
		return StateAuthenticatedNotOnboarded
	default:
		return StateAuthenticatedOnboarded
	}
}

// Decide evaluates the access rules in order; the first match wins.
func Decide(in Inputs) Decision {
	current := CleanPath(in.Path)

	if in.Session.Loading {
		return Decision{
			Action:      ActionLoading,
			Cause:       CauseSessionUnresolved,
			Placeholder: PlaceholderVerifying,
		}
	}

	if !in.Session.Authenticated {
		if IsUnder(current, LoginPath) {
			return Decision{Action: ActionBlank, Cause: CauseNoIdentity}
		}
		return Decision{
			Action: ActionRedirect,
			Target: LoginURL(returnTarget(in.Path)),
			Mode:   ModePush,
			Cause:  CauseNoIdentity,
		}
	}

	if in.Profile == nil {
		if in.ProfileErr != nil {
			return Decision{
				Action:      ActionError,
				Cause:       CauseProfileUnavailable,
				Placeholder: PlaceholderUnavailable,
			}
		}
		return toOnboarding(current, CauseNoProfile)
	}

	if !in.Profile.Onboarded {
		return toOnboarding(current, CauseNotOnboarded)
	}

	home := HomeFor(in.Profile.Role)

	if IsUnder(current, OnboardingPath) {
		return Decision{
			Action:      ActionRedirect,
			Target:      home,
			Mode:        ModeReplace,
			Cause:       CauseAlreadyOnboarded,
			Placeholder: PlaceholderPreparing,
		}
	}

	allowed := in.AllowedRoles
	if allowed == nil {
		allowed = InferAllowedRoles(current)
	}
	if allowed != nil && !containsRole(allowed, in.Profile.Role) {
		if IsUnder(current, home) {
			return Decision{Action: ActionBlank, Cause: CauseWrongRole}
		}
		return Decision{
			Action: ActionRedirect,
			Target: home,
			Mode:   ModePush,
			Cause:  CauseWrongRole,
		}
	}

	return Decision{Action: ActionRender}
}

func toOnboarding(current string, cause Cause) Decision {
	if IsUnder(current, OnboardingPath) {
		return Decision{
			Action:      ActionLoading,
			Cause:       cause,
			Placeholder: PlaceholderPreparing,
		}
	}
	return Decision{
		Action:      ActionRedirect,
		Target:      OnboardingPath,
		Mode:        ModePush,
		Cause:       cause,
		Placeholder: PlaceholderPreparing,
	}
}

// returnTarget keeps the query string of the original request so the login
// page can send the viewer back to exactly what they asked for.
func returnTarget(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return "/"
	}
	cleaned := CleanPath(raw)
	if i := strings.IndexByte(raw, '?'); i >= 0 && i < len(raw)-1 {
		return cleaned + raw[i:]
	}
	return cleaned
}
