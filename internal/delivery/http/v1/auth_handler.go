package v1

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"go-healthcare-portal/config"
	"go-healthcare-portal/internal/delivery/http/middleware"
	"go-healthcare-portal/internal/delivery/http/response"
	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/internal/guard"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/auth"
	"go-healthcare-portal/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// IdentityProvider issues and revokes sessions for email/password users.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

type AuthHandler struct {
	authUC   domain.AuthUsecase
	identity IdentityProvider
	config   *config.Config
}

func NewAuthHandler(public, protected *gin.RouterGroup, authUC domain.AuthUsecase, identity IdentityProvider, cfg *config.Config, loginLimit gin.HandlerFunc) {
	handler := &AuthHandler{
		authUC:   authUC,
		identity: identity,
		config:   cfg,
	}

	publicAuth := public.Group("/auth")
	{
		publicAuth.POST("/login", loginLimit, handler.Login)
		publicAuth.POST("/register", loginLimit, handler.Register)
	}

	protectedAuth := protected.Group("/auth")
	{
		protectedAuth.POST("/logout", handler.Logout)
		protectedAuth.GET("/me", handler.Me)
	}

	admin := protected.Group("/admin", middleware.RequireRoles(domain.RoleAdmin))
	{
		admin.PUT("/users/:id/role", handler.AssignRole)
	}
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
	// Redirect is the page to return to after a form login
	Redirect string `json:"redirect" form:"redirect"`
}

type RegisterRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=8"`
}

type AssignRoleRequest struct {
	Role domain.Role `json:"role" binding:"required,oneof=patient doctor admin"`
}

// isFormPost reports whether the request came from a server-rendered form
// rather than an API client.
func isFormPost(c *gin.Context) bool {
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return true
	}
	return false
}

// afterLogin is where a successful form login lands.
func afterLogin(raw string) string {
	target := guard.SafeReturnTarget(raw)
	if target == "/" {
		return guard.DashboardPath
	}
	return target
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookieName, token, maxAge, "/", "", h.config.CookieSecure, true)
}

// Login godoc
// @Summary      User Login
// @Description  Login with email and password via Supabase. Form posts are redirected back to the requested page.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        login  body      LoginRequest  true  "Login Credentials"
// @Success      200    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Failure      401    {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	ctx := c.Request.Context()
	reqID := c.GetString("RequestID")
	session, err := h.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		reason := "provider_error"
		if errors.Is(err, auth.ErrInvalidCredentials) {
			reason = "invalid_credentials"
		}
		security.DefaultLogger().LogLoginFailed(ctx, req.Email, c.ClientIP(), c.Request.UserAgent(), reqID, reason)

		if isFormPost(c) {
			q := url.Values{"error": {reason}}
			if req.Redirect != "" {
				q.Set(guard.ReturnParam, req.Redirect)
			}
			c.Redirect(http.StatusSeeOther, guard.LoginPath+"?"+q.Encode())
			return
		}
		if reason == "invalid_credentials" {
			c.Error(apperror.Unauthorized("Invalid email or password"))
			return
		}
		c.Error(apperror.Unavailable("Login service unavailable", err))
		return
	}

	// Keep the stored role; new users are created as patients.
	user := &domain.User{ID: session.User.ID, Email: session.User.Email}
	if err := h.authUC.EnsureUserExists(ctx, user); err != nil {
		c.Error(err)
		return
	}
	actualUser, err := h.authUC.GetCurrentUser(ctx, user.ID)
	if err != nil {
		c.Error(err)
		return
	}

	h.setSessionCookie(c, session.AccessToken, session.ExpiresIn)
	security.DefaultLogger().LogLoginSuccess(ctx, req.Email, c.ClientIP(), c.Request.UserAgent(), reqID)

	if isFormPost(c) {
		c.Redirect(http.StatusSeeOther, afterLogin(req.Redirect))
		return
	}
	response.Success(c, http.StatusOK, "Login successful", gin.H{
		"token":    session.AccessToken,
		"user":     actualUser,
		"redirect": afterLogin(req.Redirect),
	})
}

// Register godoc
// @Summary      User Registration
// @Description  Register a new patient account. Depending on the project settings the user must confirm their email first.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        register  body      RegisterRequest  true  "Registration Details"
// @Success      201    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	ctx := c.Request.Context()
	session, err := h.identity.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		c.Error(apperror.New(http.StatusBadRequest, "Registration failed", err))
		return
	}

	// Without a session the user is synced on first login after confirming.
	if session.AccessToken == "" {
		response.Created(c, "Registration successful. Please check your email to confirm.", nil)
		return
	}

	user := &domain.User{ID: session.User.ID, Email: req.Email, Role: domain.RolePatient}
	if err := h.authUC.EnsureUserExists(ctx, user); err != nil {
		c.Error(err)
		return
	}
	h.setSessionCookie(c, session.AccessToken, session.ExpiresIn)

	if isFormPost(c) {
		c.Redirect(http.StatusSeeOther, guard.OnboardingPath)
		return
	}
	response.Created(c, "Registration successful", gin.H{
		"token":    session.AccessToken,
		"user":     user,
		"redirect": guard.OnboardingPath,
	})
}

// Logout godoc
// @Summary      Logout
// @Description  Revoke the session and clear the auth cookie
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
// @Security     BearerAuth
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if token := middleware.TokenFromRequest(c); token != "" {
		// The cookie is cleared even when revocation fails.
		_ = h.identity.SignOut(ctx, token)
	}
	h.setSessionCookie(c, "", -1)

	security.DefaultLogger().Log(ctx, security.SecurityEvent{
		Event:        security.EventLogout,
		SubjectType:  "user_id",
		SubjectValue: security.HashValue(c.GetString(string(domain.KeyUserID))),
		IP:           c.ClientIP(),
		RequestID:    c.GetString("RequestID"),
	})

	if isFormPost(c) {
		c.Redirect(http.StatusSeeOther, guard.LoginPath)
		return
	}
	response.Success(c, http.StatusOK, "Logged out", nil)
}

// Me godoc
// @Summary      Current user
// @Description  Returns the user, profile and the dashboard the user lands on
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
// @Security     BearerAuth
func (h *AuthHandler) Me(c *gin.Context) {
	viewer := middleware.ViewerFrom(c)
	if viewer == nil {
		c.Error(apperror.Unauthorized("Authentication required"))
		return
	}

	onboarded := viewer.Profile != nil && viewer.Profile.IsOnboarded
	home := guard.OnboardingPath
	if onboarded {
		home = guard.HomeFor(viewer.Profile.Role)
	}

	response.Success(c, http.StatusOK, "User details", gin.H{
		"user":                 viewer.User,
		"profile":              viewer.Profile,
		"onboarding_completed": onboarded,
		"profile_available":    viewer.ProfileErr == nil,
		"home":                 home,
	})
}

// AssignRole godoc
// @Summary      Assign a role
// @Description  Change a user's role (admin only)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "User ID"
// @Param        request  body      AssignRoleRequest  true  "New role"
// @Success      200      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/users/{id}/role [put]
// @Security     BearerAuth
func (h *AuthHandler) AssignRole(c *gin.Context) {
	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	targetID := c.Param("id")
	if err := h.authUC.AssignRole(c.Request.Context(), targetID, req.Role); err != nil {
		c.Error(err)
		return
	}

	security.DefaultLogger().LogUserEvent(c.Request.Context(), security.EventRoleModified, targetID, map[string]interface{}{
		"role":     string(req.Role),
		"admin_id": security.HashValue(c.GetString(string(domain.KeyUserID))),
	})
	response.Success(c, http.StatusOK, "Role updated", gin.H{"user_id": targetID, "role": req.Role})
}
