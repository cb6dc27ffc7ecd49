package middleware

import (
	"net/http"

	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/internal/guard"
	"go-healthcare-portal/pkg/logger"
	"go-healthcare-portal/pkg/metrics"
	"go-healthcare-portal/pkg/security"

	"github.com/gin-gonic/gin"
)

// PlaceholderTemplate is rendered whenever the guard withholds a page.
const PlaceholderTemplate = "placeholder.html"

// GuardObserver receives every decision made for a page request.
type GuardObserver struct {
	Metrics  *metrics.Recorder
	Security *security.SecurityLogger
}

func (o *GuardObserver) hook(c *gin.Context) guard.Hook {
	return func(in guard.Inputs, d guard.Decision, issued bool) {
		o.Observe(c, in, d, issued)
	}
}

// Observe records one decision for the current request. issued reports
// whether the redirect was carried out or handed to the client.
func (o *GuardObserver) Observe(c *gin.Context, in guard.Inputs, d guard.Decision, issued bool) {
	if o == nil {
		return
	}
	if o.Metrics != nil {
		o.Metrics.Decision(string(d.Action), string(d.Cause))
		if issued {
			o.Metrics.Redirect(guard.Surface(d.Target), string(d.Mode))
		}
	}
	if o.Security == nil {
		return
	}
	var userID string
	if v := ViewerFrom(c); v != nil && v.User != nil {
		userID = v.User.ID
	}
	ctx := c.Request.Context()
	if issued {
		o.Security.LogRedirect(ctx, userID, c.ClientIP(), requestIDFrom(c),
			in.Path, d.Target, string(d.Mode), string(d.Cause))
	}
	if d.Cause == guard.CauseProfileUnavailable {
		o.Security.LogProfileUnavailable(ctx, userID, requestIDFrom(c), in.Path, in.ProfileErr)
	}
}

// httpNavigator turns guard navigations into HTTP redirects. HTMX requests
// get the equivalent response headers instead of a 3xx.
type httpNavigator struct {
	c *gin.Context
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

func (n *httpNavigator) Push(target string) {
	if isHTMX(n.c) {
		n.c.Header("HX-Redirect", target)
		n.c.Status(http.StatusOK)
		return
	}
	n.c.Redirect(http.StatusFound, target)
}

// Replace must not leave the current URL in history, so the response is
// not cacheable and browsers follow it with a GET.
func (n *httpNavigator) Replace(target string) {
	n.c.Header("Cache-Control", "no-store")
	if isHTMX(n.c) {
		n.c.Header("HX-Location", target)
		n.c.Header("HX-Replace-Url", target)
		n.c.Status(http.StatusOK)
		return
	}
	n.c.Redirect(http.StatusSeeOther, target)
}

func (n *httpNavigator) CurrentPath() string {
	return n.c.Request.URL.RequestURI()
}

// GuardInputs builds the guard inputs for the current request from the
// viewer OptionalAuth resolved. Pages never see an unresolved session.
func GuardInputs(c *gin.Context, allowed []domain.Role) guard.Inputs {
	in := guard.Inputs{
		Path:         c.Request.URL.RequestURI(),
		AllowedRoles: allowed,
	}
	viewer := ViewerFrom(c)
	if viewer == nil {
		return in
	}
	in.Session.Authenticated = true
	if viewer.Profile != nil {
		in.Profile = &guard.Profile{Role: viewer.Profile.Role, Onboarded: viewer.Profile.IsOnboarded}
	} else {
		in.ProfileErr = viewer.ProfileErr
	}
	return in
}

func evaluate(c *gin.Context, obs *GuardObserver, allowed []domain.Role) (guard.Decision, bool) {
	var issued bool
	exec := guard.NewExecutor(&httpNavigator{c: c},
		guard.WithLogger(logger.Log),
		guard.WithHook(obs.hook(c)),
		guard.WithHook(func(_ guard.Inputs, _ guard.Decision, navigated bool) { issued = navigated }),
	)
	d := exec.Evaluate(GuardInputs(c, allowed))
	return d, issued
}

// PageGuard protects a page subtree. With no roles given the restriction is
// inferred from the request path.
func PageGuard(obs *GuardObserver, allowed ...domain.Role) gin.HandlerFunc {
	var roles []domain.Role
	if len(allowed) > 0 {
		roles = allowed
	}
	return func(c *gin.Context) {
		d, issued := evaluate(c, obs, roles)
		if d.RendersChildren() {
			c.Next()
			return
		}
		if issued {
			c.Abort()
			return
		}
		renderPlaceholder(c, d)
		c.Abort()
	}
}

// OnboardingGate serves the onboarding form to viewers who still need it and
// sends everyone else where the guard says.
func OnboardingGate(obs *GuardObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, issued := evaluate(c, obs, nil)
		if d.Action == guard.ActionLoading &&
			(d.Cause == guard.CauseNoProfile || d.Cause == guard.CauseNotOnboarded) {
			c.Next()
			return
		}
		if issued {
			c.Abort()
			return
		}
		renderPlaceholder(c, d)
		c.Abort()
	}
}

func placeholderStatus(d guard.Decision) int {
	switch d.Action {
	case guard.ActionError:
		return http.StatusServiceUnavailable
	case guard.ActionBlank:
		if d.Cause == guard.CauseWrongRole {
			return http.StatusForbidden
		}
		return http.StatusNoContent
	default:
		return http.StatusOK
	}
}

func renderPlaceholder(c *gin.Context, d guard.Decision) {
	status := placeholderStatus(d)
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "30")
	}
	c.Header("Cache-Control", "no-store")
	if status == http.StatusNoContent {
		c.Status(status)
		return
	}
	c.HTML(status, PlaceholderTemplate, gin.H{
		"Title":       "Please wait",
		"Action":      string(d.Action),
		"Cause":       string(d.Cause),
		"Placeholder": string(d.Placeholder),
		"Message":     d.Placeholder.Label(),
		"Target":      d.Target,
	})
}
