// Package pages serves the server-rendered portal. Every protected page sits
// behind the navigation guard; data comes from the same usecases as the API.
package pages

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"go-healthcare-portal/internal/delivery/http/middleware"
	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/internal/guard"
	"go-healthcare-portal/internal/records"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageRecordLimit bounds how many records a dashboard renders.
const pageRecordLimit = 200

var loginErrors = map[string]string{
	"invalid_credentials": "Invalid email or password.",
	"provider_error":      "Sign-in is temporarily unavailable. Please try again.",
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	funcs := template.FuncMap{
		"classify": records.Classify,
		"summary":  records.Summary,
		"date": func(t time.Time) string {
			return t.Format("02 Jan 2006 15:04")
		},
	}
	return template.Must(template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

type Deps struct {
	AuthUC   domain.AuthUsecase
	RecordUC domain.MedicalRecordUsecase
	Verifier middleware.TokenVerifier
	Observer *middleware.GuardObserver
}

type Handler struct {
	recordUC domain.MedicalRecordUsecase
}

// Register installs the templates and page routes on r.
func Register(r *gin.Engine, deps Deps) {
	r.SetHTMLTemplate(Templates())
	h := &Handler{recordUC: deps.RecordUC}

	site := r.Group("")
	site.Use(middleware.OptionalAuth(deps.Verifier, deps.AuthUC))
	{
		site.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, guard.DashboardPath) })
		site.GET(guard.LoginPath, h.Login)
		site.GET(guard.OnboardingPath, middleware.OnboardingGate(deps.Observer), h.Onboarding)

		dash := site.Group(guard.DashboardPath, middleware.PageGuard(deps.Observer))
		{
			dash.GET("", h.Dashboard)
			dash.GET("/patient", h.PatientDashboard)
			dash.GET("/doctor", h.DoctorDashboard)
		}
	}
}

func page(c *gin.Context, title string, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["CSRFToken"] = middleware.CSRFToken(c)
	if v := middleware.ViewerFrom(c); v != nil {
		data["Viewer"] = v
		if v.Profile != nil {
			data["Name"] = v.Profile.FullName
		}
	}
	return data
}

func render(c *gin.Context, status int, name, title string, data gin.H) {
	c.Header("Cache-Control", "no-store")
	c.HTML(status, name, page(c, title, data))
}

// Login shows the sign-in form, or sends an already signed-in viewer on to
// where they were going.
func (h *Handler) Login(c *gin.Context) {
	returnTo := c.Query(guard.ReturnParam)
	if viewer := middleware.ViewerFrom(c); viewer != nil {
		target := guard.SafeReturnTarget(returnTo)
		if target == "/" {
			target = guard.DashboardPath
		}
		c.Redirect(http.StatusFound, target)
		return
	}

	render(c, http.StatusOK, "login.html", "Sign in", gin.H{
		"Redirect": guard.SafeReturnTarget(returnTo),
		"Error":    loginErrors[c.Query("error")],
	})
}

func (h *Handler) Onboarding(c *gin.Context) {
	data := gin.H{"Error": c.Query("error"), "Role": "patient"}
	if v := middleware.ViewerFrom(c); v != nil {
		if v.User != nil && v.User.Role == domain.RoleDoctor {
			data["Role"] = "doctor"
		}
		if v.Profile != nil {
			data["FullName"] = v.Profile.FullName
		}
	}
	render(c, http.StatusOK, "onboarding.html", "Welcome", data)
}

// Dashboard is the admin overview; everyone else is sent to their own home.
func (h *Handler) Dashboard(c *gin.Context) {
	viewer := middleware.ViewerFrom(c)
	role := middleware.EffectiveRole(viewer)
	if role != domain.RoleAdmin {
		c.Redirect(http.StatusFound, guard.HomeFor(role))
		return
	}
	render(c, http.StatusOK, "admin_overview.html", "Administration", nil)
}

func (h *Handler) PatientDashboard(c *gin.Context) {
	list, err := h.recordUC.ListForViewer(c.Request.Context(), middleware.ViewerFrom(c), domain.RecordFilter{Limit: pageRecordLimit})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, "patient_dashboard.html", "My records", gin.H{
		"Categories": records.Categorize(list),
	})
}

func (h *Handler) DoctorDashboard(c *gin.Context) {
	data := gin.H{}
	patientID := c.Query("patient_id")
	if patientID != "" {
		if _, err := uuid.Parse(patientID); err != nil {
			data["Error"] = "Patient ID must be a UUID"
			render(c, http.StatusBadRequest, "doctor_dashboard.html", "Dashboard", data)
			return
		}
		list, err := h.recordUC.ListForViewer(c.Request.Context(), middleware.ViewerFrom(c), domain.RecordFilter{
			PatientID: patientID,
			Limit:     pageRecordLimit,
		})
		if err != nil {
			h.fail(c, err)
			return
		}
		data["PatientID"] = patientID
		data["Categories"] = records.Categorize(list)
	}
	render(c, http.StatusOK, "doctor_dashboard.html", "Dashboard", data)
}

// fail renders the placeholder page for a usecase error.
func (h *Handler) fail(c *gin.Context, err error) {
	appErr := apperror.From(err)
	status := appErr.Code
	message := "Something went wrong. Please try again."
	if status < http.StatusInternalServerError {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Log.Error("Page failed", "path", c.Request.URL.Path, "error", err)
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "30")
	}
	render(c, status, middleware.PlaceholderTemplate, "Unavailable", gin.H{
		"Action":  string(guard.ActionError),
		"Message": message,
	})
}
