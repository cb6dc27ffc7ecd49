package middleware

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/auth"
	"go-healthcare-portal/pkg/metrics"
	"go-healthcare-portal/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier map[string]string

func (f fakeVerifier) Verify(raw string) (*auth.Claims, error) {
	sub, ok := f[raw]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{
		Email:            sub + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub},
	}, nil
}

type MockAuthUsecase struct {
	mock.Mock
}

func (m *MockAuthUsecase) EnsureUserExists(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *MockAuthUsecase) AssignRole(ctx context.Context, userID string, role domain.Role) error {
	return m.Called(ctx, userID, role).Error(0)
}
func (m *MockAuthUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockAuthUsecase) ResolveViewer(ctx context.Context, userID string) (*domain.Viewer, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Viewer), args.Error(1)
}

var tokens = fakeVerifier{"tok-patient": "u-patient", "tok-doctor": "u-doctor", "tok-new": "u-new", "tok-broken": "u-broken", "tok-admin": "u-admin"}

func onboarded(id string, role domain.Role) *domain.Viewer {
	return &domain.Viewer{
		User:    &domain.User{ID: id, Email: id + "@example.com", Role: role},
		Profile: &domain.Profile{UserID: id, Role: role, FullName: "Test", IsOnboarded: true},
	}
}

func newAuthUC() *MockAuthUsecase {
	uc := new(MockAuthUsecase)
	uc.On("ResolveViewer", mock.Anything, "u-patient").Return(onboarded("u-patient", domain.RolePatient), nil)
	uc.On("ResolveViewer", mock.Anything, "u-doctor").Return(onboarded("u-doctor", domain.RoleDoctor), nil)
	uc.On("ResolveViewer", mock.Anything, "u-admin").Return(onboarded("u-admin", domain.RoleAdmin), nil)
	uc.On("ResolveViewer", mock.Anything, "u-new").Return(&domain.Viewer{
		User: &domain.User{ID: "u-new", Role: domain.RolePatient},
	}, nil)
	uc.On("ResolveViewer", mock.Anything, "u-broken").Return(&domain.Viewer{
		User:       &domain.User{ID: "u-broken", Role: domain.RolePatient},
		ProfileErr: errors.New("connection refused"),
	}, nil)
	return uc
}

func pageRouter(obs *GuardObserver, uc domain.AuthUsecase) *gin.Engine {
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New(PlaceholderTemplate).Parse(`{{.Message}}`)))
	r.Use(RequestID(), OptionalAuth(tokens, uc))

	ok := func(c *gin.Context) { c.String(http.StatusOK, "content") }
	r.GET("/dashboard/patient", PageGuard(obs), ok)
	r.GET("/dashboard/doctor", PageGuard(obs), ok)
	r.GET("/onboarding", OnboardingGate(obs), func(c *gin.Context) { c.String(http.StatusOK, "form") })
	return r
}

func get(r http.Handler, path, token string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRequiresToken(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens, newAuthUC()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/me", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewarePublishesViewerOnRequestContext(t *testing.T) {
	r := gin.New()
	var gotID, gotRole string
	r.GET("/me", AuthMiddleware(tokens, newAuthUC()), func(c *gin.Context) {
		gotID, _ = c.Request.Context().Value(domain.KeyUserID).(string)
		gotRole, _ = c.Request.Context().Value(domain.KeyUserRole).(string)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok-doctor")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-doctor", gotID)
	assert.Equal(t, "doctor", gotRole)
}

func TestAuthMiddlewareCreatesUnknownUser(t *testing.T) {
	uc := new(MockAuthUsecase)
	uc.On("ResolveViewer", mock.Anything, "u-new").
		Return(nil, apperror.Unauthorized("User not found")).Once()
	uc.On("EnsureUserExists", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == "u-new" && u.Email == "u-new@example.com"
	})).Return(nil).Once()
	uc.On("ResolveViewer", mock.Anything, "u-new").
		Return(&domain.Viewer{User: &domain.User{ID: "u-new", Role: domain.RolePatient}}, nil).Once()

	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens, uc), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/me", "tok-new")
	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}

func TestPageGuardRedirectsAnonymousToLogin(t *testing.T) {
	rec := metrics.NewRecorder()
	r := pageRouter(&GuardObserver{Metrics: rec}, newAuthUC())

	w := get(r, "/dashboard/patient?tab=labs", "")

	assert.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/dashboard/patient?tab=labs", loc.Query().Get("redirect"))

	n, err := testutil.GatherAndCount(rec.Registry(), "portal_guard_redirects_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPageGuardHTMXRedirect(t *testing.T) {
	r := pageRouter(nil, newAuthUC())

	w := get(r, "/dashboard/doctor", "tok-patient", "HX-Request", "true")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/dashboard/patient", w.Header().Get("HX-Redirect"))
	assert.NotContains(t, w.Body.String(), "content")
}

func TestPageGuardWrongRole(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	obs := &GuardObserver{Security: security.NewSecurityLogger(zap.New(core), "test", "test")}
	r := pageRouter(obs, newAuthUC())

	w := get(r, "/dashboard/patient", "tok-doctor")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/doctor", w.Header().Get("Location"))
	require.Equal(t, 1, logs.FilterMessage(string(security.EventUnauthorizedAccess)).Len())

	// Admins land on the patient dashboard but may not see its content.
	w = get(r, "/dashboard/patient", "tok-admin")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "content")
}

func TestPageGuardRendersForAllowedRole(t *testing.T) {
	r := pageRouter(nil, newAuthUC())

	w := get(r, "/dashboard/doctor", "tok-doctor")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "content", w.Body.String())
}

func TestPageGuardProfileUnavailable(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	obs := &GuardObserver{Security: security.NewSecurityLogger(zap.New(core), "test", "test")}
	r := pageRouter(obs, newAuthUC())

	w := get(r, "/dashboard/patient", "tok-broken")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "could not load your profile")
	assert.Equal(t, 1, logs.FilterMessage(string(security.EventProfileUnavailable)).Len())
}

func TestPageGuardSendsNewUserToOnboarding(t *testing.T) {
	r := pageRouter(nil, newAuthUC())

	w := get(r, "/dashboard/patient", "tok-new")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/onboarding", w.Header().Get("Location"))
}

func TestOnboardingGate(t *testing.T) {
	r := pageRouter(nil, newAuthUC())

	t.Run("serves form while not onboarded", func(t *testing.T) {
		w := get(r, "/onboarding", "tok-new")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "form", w.Body.String())
	})

	t.Run("onboarded viewer is replaced home", func(t *testing.T) {
		w := get(r, "/onboarding", "tok-doctor")
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/doctor", w.Header().Get("Location"))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	})

	t.Run("htmx replace", func(t *testing.T) {
		w := get(r, "/onboarding", "tok-patient", "HX-Request", "true")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/dashboard/patient", w.Header().Get("HX-Location"))
		assert.Equal(t, "/dashboard/patient", w.Header().Get("HX-Replace-Url"))
	})

	t.Run("anonymous goes to login", func(t *testing.T) {
		w := get(r, "/onboarding", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login?redirect="))
	})
}

func TestRequireRoles(t *testing.T) {
	r := gin.New()
	r.GET("/notes", AuthMiddleware(tokens, newAuthUC()), RequireRoles(domain.RoleDoctor),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/notes", "tok-doctor").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/notes", "tok-patient").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/notes", "tok-new").Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, requestIDFrom(c)) })

	inbound := uuid.NewString()
	w := get(r, "/", "", RequestIDHeader, inbound)
	assert.Equal(t, inbound, w.Body.String())
	assert.Equal(t, inbound, w.Header().Get(RequestIDHeader))

	w = get(r, "/", "", RequestIDHeader, "<script>")
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestCSRFMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CSRFMiddleware(false, "/v1/auth/login"))
	r.GET("/form", func(c *gin.Context) { c.String(http.StatusOK, CSRFToken(c)) })
	r.POST("/submit", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/v1/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/form", "")
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Body.String()
	require.Len(t, token, CSRFTokenLength*2)

	post := func(body string, mutate func(*http.Request)) int {
		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: CSRFTokenCookieName, Value: token})
		if mutate != nil {
			mutate(req)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusForbidden, post("", nil))
	assert.Equal(t, http.StatusForbidden, post("", func(req *http.Request) { req.Header.Set(CSRFTokenHeaderName, "wrong") }))
	assert.Equal(t, http.StatusOK, post("", func(req *http.Request) { req.Header.Set(CSRFTokenHeaderName, token) }))
	assert.Equal(t, http.StatusOK, post("csrf_token="+token, nil))
	assert.Equal(t, http.StatusOK, post("", func(req *http.Request) { req.Header.Set("Authorization", "Bearer x") }))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitInMemory(t *testing.T) {
	r := gin.New()
	cfg := GlobalRateLimitConfig(2, time.Minute)
	cfg.KeyPrefix = "rl:test:" + uuid.NewString() + ":"
	r.Use(RateLimitMiddleware(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	w := get(r, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestErrorHandlerMapsAppErrors(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/down", func(c *gin.Context) { c.Error(apperror.Unavailable("Profile service unavailable", errors.New("timeout"))) })
	r.GET("/boom", func(c *gin.Context) { c.Error(errors.New("secret detail")) })

	w := get(r, "/down", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))

	w = get(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret detail")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
