package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-healthcare-portal/internal/delivery/http/response"
	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/auth"
	"go-healthcare-portal/pkg/logger"
	"go-healthcare-portal/pkg/security"

	"github.com/gin-gonic/gin"
)

// AuthCookieName holds the access token for browser sessions
const AuthCookieName = "auth_token"

var errNoToken = errors.New("no token")

// TokenVerifier validates a raw access token.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// TokenFromRequest reads the bearer token, falling back to the auth cookie.
func TokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return ""
	}
	if cookie, err := c.Cookie(AuthCookieName); err == nil {
		return cookie
	}
	return ""
}

// authenticate verifies the token and loads the viewer. A verified identity
// without a local users row gets one created on first sight.
func authenticate(c *gin.Context, verifier TokenVerifier, authUC domain.AuthUsecase) (*domain.Viewer, error) {
	raw := TokenFromRequest(c)
	if raw == "" {
		return nil, errNoToken
	}
	claims, err := verifier.Verify(raw)
	if err != nil {
		return nil, apperror.New(http.StatusUnauthorized, "Invalid token", err)
	}

	ctx := c.Request.Context()
	viewer, err := authUC.ResolveViewer(ctx, claims.Subject)
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == http.StatusUnauthorized {
		if err := authUC.EnsureUserExists(ctx, &domain.User{ID: claims.Subject, Email: claims.Email}); err != nil {
			return nil, err
		}
		viewer, err = authUC.ResolveViewer(ctx, claims.Subject)
	}
	if err != nil {
		return nil, err
	}
	return viewer, nil
}

// EffectiveRole is the profile role once onboarding is done, otherwise the
// role stored on the users row.
func EffectiveRole(v *domain.Viewer) domain.Role {
	if v == nil || v.User == nil {
		return ""
	}
	if v.Profile != nil && v.Profile.IsOnboarded {
		return v.Profile.Role
	}
	return v.User.Role
}

// setViewer publishes the viewer on the gin context and on the request
// context, where the usecases read it.
func setViewer(c *gin.Context, v *domain.Viewer) {
	role := string(EffectiveRole(v))
	c.Set(string(domain.KeyUserID), v.User.ID)
	c.Set(string(domain.KeyUserEmail), v.User.Email)
	c.Set(string(domain.KeyUserRole), role)
	c.Set(string(domain.KeyViewer), v)

	ctx := context.WithValue(c.Request.Context(), domain.KeyUserID, v.User.ID)
	ctx = context.WithValue(ctx, domain.KeyUserEmail, v.User.Email)
	ctx = context.WithValue(ctx, domain.KeyUserRole, role)
	ctx = context.WithValue(ctx, domain.KeyViewer, v)
	c.Request = c.Request.WithContext(ctx)
}

// ViewerFrom returns the viewer resolved by one of the auth middlewares.
func ViewerFrom(c *gin.Context) *domain.Viewer {
	v, _ := c.Get(string(domain.KeyViewer))
	viewer, _ := v.(*domain.Viewer)
	return viewer
}

// AuthMiddleware rejects requests without a valid session
func AuthMiddleware(verifier TokenVerifier, authUC domain.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, err := authenticate(c, verifier, authUC)
		if err != nil {
			if errors.Is(err, errNoToken) {
				response.Error(c, http.StatusUnauthorized, "Authorization header or auth_token cookie required")
				c.Abort()
				return
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Code == http.StatusUnauthorized {
				security.DefaultLogger().Log(c.Request.Context(), security.SecurityEvent{
					Event:       security.EventUnauthorizedAccess,
					SubjectType: "ip",
					IP:          c.ClientIP(),
					UserAgent:   c.Request.UserAgent(),
					RequestID:   requestIDFrom(c),
					Path:        c.Request.URL.Path,
					Details:     map[string]interface{}{"reason": appErr.Message},
				})
				response.Error(c, http.StatusUnauthorized, appErr.Message)
				c.Abort()
				return
			}
			c.Error(err)
			c.Abort()
			return
		}

		setViewer(c, viewer)
		c.Next()
	}
}

// OptionalAuth resolves the viewer when a token is present and valid, and
// otherwise lets the request through anonymously. Pages and the navigation
// endpoint use it so the guard can decide what an anonymous viewer sees.
func OptionalAuth(verifier TokenVerifier, authUC domain.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, err := authenticate(c, verifier, authUC)
		switch {
		case err == nil:
			setViewer(c, viewer)
		case !errors.Is(err, errNoToken):
			logger.Log.Debug("Treating request as anonymous", "path", c.Request.URL.Path, "error", err)
		}
		c.Next()
	}
}
