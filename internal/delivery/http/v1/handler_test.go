package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go-healthcare-portal/config"
	"go-healthcare-portal/internal/delivery/http/middleware"
	v1 "go-healthcare-portal/internal/delivery/http/v1"
	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/internal/usecase"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/auth"
	"go-healthcare-portal/pkg/metrics"
	"go-healthcare-portal/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
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
	return &auth.Claims{Email: sub + "@example.com", RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}, nil
}

type fakeIdentity struct {
	session *auth.Session
	err     error
	signOut []string
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	return f.session, f.err
}
func (f *fakeIdentity) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	return f.session, f.err
}
func (f *fakeIdentity) SignOut(ctx context.Context, token string) error {
	f.signOut = append(f.signOut, token)
	return nil
}

type MockAuthUsecase struct{ mock.Mock }

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

type MockOnboardingUsecase struct{ mock.Mock }

func (m *MockOnboardingUsecase) GetOnboardingStatus(ctx context.Context, userID string) (*domain.OnboardingStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OnboardingStatus), args.Error(1)
}
func (m *MockOnboardingUsecase) CompleteOnboarding(ctx context.Context, userID string, req *domain.OnboardingSubmitRequest) (*domain.OnboardingResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OnboardingResult), args.Error(1)
}

type MockRecordUsecase struct{ mock.Mock }

func (m *MockRecordUsecase) ListForViewer(ctx context.Context, v *domain.Viewer, f domain.RecordFilter) ([]domain.MedicalRecord, error) {
	args := m.Called(ctx, v, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MedicalRecord), args.Error(1)
}
func (m *MockRecordUsecase) Get(ctx context.Context, v *domain.Viewer, id uuid.UUID) (*domain.MedicalRecord, error) {
	args := m.Called(ctx, v, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MedicalRecord), args.Error(1)
}
func (m *MockRecordUsecase) Create(ctx context.Context, v *domain.Viewer, req *domain.CreateRecordRequest) (*domain.MedicalRecord, error) {
	args := m.Called(ctx, v, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MedicalRecord), args.Error(1)
}
func (m *MockRecordUsecase) Export(ctx context.Context, v *domain.Viewer, f domain.RecordFilter) ([]byte, string, error) {
	args := m.Called(ctx, v, f)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

type MockNoteUsecase struct{ mock.Mock }

func (m *MockNoteUsecase) Structure(ctx context.Context, req *domain.StructureNoteRequest) (*domain.StructuredNote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StructuredNote), args.Error(1)
}

const (
	patientID = "7f0e8a52-1c2d-4e5f-9a0b-1c2d3e4f5a6b"
	doctorID  = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

func onboarded(id string, role domain.Role) *domain.Viewer {
	return &domain.Viewer{
		User:    &domain.User{ID: id, Email: string(role) + "@example.com", Role: role},
		Profile: &domain.Profile{UserID: id, Role: role, FullName: "Test " + string(role), IsOnboarded: true},
	}
}

type testEnv struct {
	router     *gin.Engine
	authUC     *MockAuthUsecase
	onboarding *MockOnboardingUsecase
	records    *MockRecordUsecase
	notes      *MockNoteUsecase
	identity   *fakeIdentity
	healthy    bool
	events     *observer.ObservedLogs
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		authUC:     new(MockAuthUsecase),
		onboarding: new(MockOnboardingUsecase),
		records:    new(MockRecordUsecase),
		notes:      new(MockNoteUsecase),
		identity:   &fakeIdentity{},
		healthy:    true,
	}
	env.authUC.On("ResolveViewer", mock.Anything, patientID).Return(onboarded(patientID, domain.RolePatient), nil).Maybe()
	env.authUC.On("ResolveViewer", mock.Anything, doctorID).Return(onboarded(doctorID, domain.RoleDoctor), nil).Maybe()
	env.authUC.On("ResolveViewer", mock.Anything, "u-new").
		Return(&domain.Viewer{User: &domain.User{ID: "u-new", Role: domain.RolePatient}}, nil).Maybe()

	health := usecase.NewHealthUsecase(map[string]usecase.Pinger{
		"database": func(context.Context) error {
			if env.healthy {
				return nil
			}
			return errors.New("down")
		},
	}, nil)

	core, events := observer.New(zapcore.DebugLevel)
	env.events = events

	cfg := &config.Config{
		AppEnv:                   "test",
		FrontendURL:              "http://localhost:3000",
		RateLimitWindowSeconds:   60,
		RateLimitLoginThreshold:  1000,
		RateLimitGlobalThreshold: 100000,
	}
	env.router = v1.NewRouter(v1.RouterDeps{
		AuthUC:       env.authUC,
		OnboardingUC: env.onboarding,
		RecordUC:     env.records,
		NoteUC:       env.notes,
		HealthUC:     health,
		Verifier:     fakeVerifier{"tok-patient": patientID, "tok-doctor": doctorID, "tok-new": "u-new"},
		Identity:     env.identity,
		Metrics:      metrics.NewRecorder(),
		Security:     security.NewSecurityLogger(zap.New(core), "test", "test"),
		Config:       cfg,
	})
	return env
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) form(path, token string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/v1/health", "", nil).Code)

	env.healthy = false
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodGet, "/v1/health", "", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func loginSession() *auth.Session {
	s := &auth.Session{AccessToken: "access-123", ExpiresIn: 3600}
	s.User.ID = patientID
	s.User.Email = "patient@example.com"
	return s
}

func TestLoginJSON(t *testing.T) {
	env := newEnv(t)
	env.identity.session = loginSession()
	env.authUC.On("EnsureUserExists", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == patientID && u.Role == ""
	})).Return(nil)
	env.authUC.On("GetCurrentUser", mock.Anything, patientID).Return(&domain.User{ID: patientID, Role: domain.RolePatient}, nil)

	w := env.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "patient@example.com", "password": "secret", "redirect": "https://evil.example",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token    string `json:"token"`
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "access-123", data.Token)
	assert.Equal(t, "/dashboard", data.Redirect)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AuthCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "access-123", cookie.Value)
}

func TestLoginFormRedirects(t *testing.T) {
	env := newEnv(t)

	t.Run("bad credentials go back to login", func(t *testing.T) {
		env.identity.err = auth.ErrInvalidCredentials
		w := env.form("/v1/auth/login", "", url.Values{
			"email": {"patient@example.com"}, "password": {"nope"}, "redirect": {"/dashboard/patient"},
		})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		loc, _ := url.Parse(w.Header().Get("Location"))
		assert.Equal(t, "/login", loc.Path)
		assert.Equal(t, "invalid_credentials", loc.Query().Get("error"))
		assert.Equal(t, "/dashboard/patient", loc.Query().Get("redirect"))
	})

	t.Run("success returns to the requested page", func(t *testing.T) {
		env.identity.err = nil
		env.identity.session = loginSession()
		env.authUC.On("EnsureUserExists", mock.Anything, mock.Anything).Return(nil)
		env.authUC.On("GetCurrentUser", mock.Anything, patientID).Return(&domain.User{ID: patientID}, nil)

		w := env.form("/v1/auth/login", "", url.Values{
			"email": {"patient@example.com"}, "password": {"secret"}, "redirect": {"/dashboard/patient?tab=labs"},
		})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/patient?tab=labs", w.Header().Get("Location"))
	})
}

func TestLoginProviderDown(t *testing.T) {
	env := newEnv(t)
	env.identity.err = errors.New("gotrue: request failed")

	w := env.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "a@example.com", "password": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodPost, "/v1/auth/logout", "tok-patient", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"tok-patient"}, env.identity.signOut)
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AuthCookieName {
			found = true
			assert.True(t, c.MaxAge < 0)
		}
	}
	assert.True(t, found)
}

func TestMe(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodGet, "/v1/auth/me", "tok-doctor", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Home      string `json:"home"`
		Onboarded bool   `json:"onboarding_completed"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "/dashboard/doctor", data.Home)
	assert.True(t, data.Onboarded)

	w = env.do(http.MethodGet, "/v1/auth/me", "tok-new", nil)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "/onboarding", data.Home)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/v1/auth/me", "", nil).Code)
}

func TestAssignRoleRequiresAdmin(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodPut, "/v1/admin/users/"+patientID+"/role", "tok-doctor", map[string]string{"role": "doctor"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	env.authUC.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnboardingComplete(t *testing.T) {
	env := newEnv(t)
	result := &domain.OnboardingResult{
		Profile:  &domain.Profile{UserID: "u-new", Role: domain.RoleDoctor, IsOnboarded: true},
		Redirect: "/dashboard/doctor",
	}
	env.onboarding.On("CompleteOnboarding", mock.Anything, "u-new", mock.MatchedBy(func(r *domain.OnboardingSubmitRequest) bool {
		return r.Role == domain.RoleDoctor && r.FullName == "Jane Doe"
	})).Return(result, nil)

	t.Run("json", func(t *testing.T) {
		w := env.do(http.MethodPost, "/v1/onboarding/complete", "tok-new", map[string]string{
			"role": "doctor", "full_name": "Jane Doe", "specialty": "Cardiology", "license_number": "LIC-1",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		var data domain.OnboardingResult
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
		assert.Equal(t, "/dashboard/doctor", data.Redirect)
	})

	t.Run("form", func(t *testing.T) {
		w := env.form("/v1/onboarding/complete", "tok-new", url.Values{
			"role": {"doctor"}, "full_name": {"Jane Doe"}, "specialty": {"Cardiology"}, "license_number": {"LIC-1"},
		})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/doctor", w.Header().Get("Location"))
	})
}

func TestOnboardingFormErrorGoesBackToForm(t *testing.T) {
	env := newEnv(t)
	env.onboarding.On("CompleteOnboarding", mock.Anything, "u-new", mock.Anything).
		Return(nil, apperror.BadRequest("Validation failed: Full name is required"))

	w := env.form("/v1/onboarding/complete", "tok-new", url.Values{"role": {"patient"}, "full_name": {"!"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	loc, _ := url.Parse(w.Header().Get("Location"))
	assert.Equal(t, "/onboarding", loc.Path)
	assert.Contains(t, loc.Query().Get("error"), "Full name")
}

func TestOnboardingStatusUnavailable(t *testing.T) {
	env := newEnv(t)
	env.onboarding.On("GetOnboardingStatus", mock.Anything, patientID).
		Return(nil, apperror.Unavailable("Profile is temporarily unavailable", errors.New("timeout")))

	w := env.do(http.MethodGet, "/v1/onboarding/status", "tok-patient", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}

func TestListRecordsParsesFilter(t *testing.T) {
	env := newEnv(t)
	env.records.On("ListForViewer", mock.Anything, mock.Anything, mock.MatchedBy(func(f domain.RecordFilter) bool {
		return f.PatientID == patientID && f.RecordType != nil && *f.RecordType == domain.RecordLabResult &&
			f.Limit == 10 && f.Offset == 20
	})).Return([]domain.MedicalRecord{}, nil)

	w := env.do(http.MethodGet, "/v1/records?patient_id="+patientID+"&type=lab_result&limit=10&offset=20", "tok-doctor", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/v1/records?patient_id=not-a-uuid", "tok-doctor", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/v1/records?limit=-1", "tok-doctor", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRecordInvalidIDIsNotFound(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodGet, "/v1/records/abc", "tok-patient", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env.records.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRecordDoctorOnly(t *testing.T) {
	env := newEnv(t)
	body := map[string]interface{}{
		"patient_id": patientID, "title": "CBC", "record_type": "lab_result",
		"content": map[string]interface{}{"Hemoglobin": map[string]string{"value": "13.5"}},
	}

	w := env.do(http.MethodPost, "/v1/records", "tok-patient", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	rec := &domain.MedicalRecord{ID: uuid.New(), PatientID: patientID, DoctorID: doctorID, RecordType: domain.RecordLabResult}
	env.records.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(r *domain.CreateRecordRequest) bool {
		return r.PatientID == patientID && r.Title == "CBC"
	})).Return(rec, nil)

	w = env.do(http.MethodPost, "/v1/records", "tok-doctor", body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestExportRecords(t *testing.T) {
	env := newEnv(t)
	env.records.On("Export", mock.Anything, mock.Anything, mock.Anything).
		Return([]byte("xlsx-bytes"), "medical_records_20260101_120000.xlsx", nil)

	w := env.do(http.MethodGet, "/v1/records/export", "tok-patient", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="medical_records_20260101_120000.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx-bytes", w.Body.String())
}

func TestStructureNote(t *testing.T) {
	env := newEnv(t)
	body := map[string]string{"text": "Patient reports chest pain for two days."}

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/v1/notes/structure", "tok-patient", body).Code)

	env.notes.On("Structure", mock.Anything, mock.Anything).Return(&domain.StructuredNote{ChiefComplaint: "Chest pain"}, nil).Once()
	w := env.do(http.MethodPost, "/v1/notes/structure", "tok-doctor", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Chest pain")

	env.notes.On("Structure", mock.Anything, mock.Anything).
		Return(nil, apperror.New(http.StatusBadGateway, "Note assistant rejected the request", nil)).Once()
	assert.Equal(t, http.StatusBadGateway, env.do(http.MethodPost, "/v1/notes/structure", "tok-doctor", body).Code)
}

func TestNavigationEvaluate(t *testing.T) {
	env := newEnv(t)

	type result struct {
		Action string `json:"action"`
		State  string `json:"state"`
		Target string `json:"target"`
		Mode   string `json:"mode"`
	}
	evaluate := func(token string, body interface{}) (int, result) {
		w := env.do(http.MethodPost, "/v1/navigation/evaluate", token, body)
		var r result
		if w.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(decode(t, w).Data, &r))
		}
		return w.Code, r
	}

	code, r := evaluate("", map[string]string{"path": "/dashboard/doctor"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "redirect", r.Action)
	assert.Equal(t, "UNAUTHENTICATED", r.State)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Fdoctor", r.Target)

	_, r = evaluate("tok-patient", map[string]interface{}{"path": "/reports", "allowed_roles": []string{"doctor"}})
	assert.Equal(t, "redirect", r.Action)
	assert.Equal(t, "/dashboard/patient", r.Target)
	assert.Equal(t, "push", r.Mode)

	_, r = evaluate("tok-new", map[string]string{"path": "/onboarding"})
	assert.Equal(t, "loading", r.Action)
	assert.Equal(t, "AUTHENTICATED_NO_PROFILE", r.State)

	code, _ = evaluate("tok-patient", map[string]interface{}{"path": "/x", "allowed_roles": []string{"nurse"}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestNavigationEvaluateLogsRedirects(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodPost, "/v1/navigation/evaluate", "", map[string]string{"path": "/dashboard/doctor"})
	require.Equal(t, http.StatusOK, w.Code)
	issued := env.events.FilterMessage(string(security.EventRedirectIssued)).All()
	require.Len(t, issued, 1)
	fields := issued[0].ContextMap()
	assert.Equal(t, "/dashboard/doctor", fields["path"])
	assert.Equal(t, "ip", fields["subject_type"])
	assert.Contains(t, fields["details"], `"target":"/login"`)

	w = env.do(http.MethodPost, "/v1/navigation/evaluate", "tok-patient",
		map[string]interface{}{"path": "/reports", "allowed_roles": []string{"doctor"}})
	require.Equal(t, http.StatusOK, w.Code)
	denied := env.events.FilterMessage(string(security.EventUnauthorizedAccess)).All()
	require.Len(t, denied, 1)
	assert.Equal(t, "user_id", denied[0].ContextMap()["subject_type"])
	assert.Contains(t, denied[0].ContextMap()["details"], `"cause":"wrong_role"`)

	// Rendering decisions are not redirects.
	w = env.do(http.MethodPost, "/v1/navigation/evaluate", "tok-patient", map[string]string{"path": "/dashboard/patient"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.events.FilterMessage(string(security.EventRedirectIssued)).All(), 1)
	assert.Len(t, env.events.FilterMessage(string(security.EventUnauthorizedAccess)).All(), 1)
}
