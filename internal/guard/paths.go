package guard

import (
	"net/url"
	"path"
	"strings"

	"go-healthcare-portal/internal/domain"
)

// Route surfaces the guard redirects to.
const (
	LoginPath      = "/login"
	OnboardingPath = "/onboarding"
	DashboardPath  = "/dashboard"
	DoctorHome     = "/dashboard/doctor"
	PatientHome    = "/dashboard/patient"

	// ReturnParam carries the originally requested path on the login redirect.
	ReturnParam = "redirect"
)

// HomeFor returns the dashboard a role lands on. Only doctors have their own
// dashboard; every other value, unknown roles included, goes to the patient one.
func HomeFor(role domain.Role) string {
	if role == domain.RoleDoctor {
		return DoctorHome
	}
	return PatientHome
}

// LoginURL builds the login redirect target carrying returnTo.
func LoginURL(returnTo string) string {
	if returnTo == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{ReturnParam: {returnTo}}.Encode()
}

// CleanPath strips query and fragment and canonicalises the path part.
func CleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// IsUnder reports whether p equals prefix or is nested below it.
func IsUnder(p, prefix string) bool {
	p = CleanPath(p)
	prefix = CleanPath(prefix)
	if prefix == "/" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// InferAllowedRoles derives the role restriction from a dashboard path.
// A nil result means the path is unrestricted.
func InferAllowedRoles(p string) []domain.Role {
	switch {
	case IsUnder(p, DoctorHome):
		return []domain.Role{domain.RoleDoctor}
	case IsUnder(p, PatientHome):
		return []domain.Role{domain.RolePatient}
	default:
		return nil
	}
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	if !role.IsValid() {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Surface reduces a path to the route surface it belongs to, for labels
// that must stay low-cardinality.
func Surface(p string) string {
	for _, s := range []string{LoginPath, OnboardingPath, DoctorHome, PatientHome, DashboardPath} {
		if IsUnder(p, s) {
			return s
		}
	}
	return "other"
}

// SafeReturnTarget validates a return-target taken from a query string.
// Only host-less absolute paths are accepted; the login surface itself and
// anything unparseable fall back to "/".
func SafeReturnTarget(raw string) string {
	next := strings.TrimSpace(raw)
	if next == "" {
		return "/"
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	parsed, err := url.Parse(next)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return "/"
	}
	// Browsers read a decoded backslash as a slash, so "/%5Cevil.com" would
	// leave the site just like "//evil.com".
	if strings.Contains(parsed.Path, "\\") || strings.HasPrefix(parsed.Path, "//") {
		return "/"
	}
	cleaned := CleanPath(parsed.EscapedPath())
	if IsUnder(CleanPath(parsed.Path), LoginPath) {
		return "/"
	}
	if parsed.RawQuery != "" {
		return cleaned + "?" + parsed.RawQuery
	}
	return cleaned
}
