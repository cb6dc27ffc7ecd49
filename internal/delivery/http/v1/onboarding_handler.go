package v1

import (
	"errors"
	"net/http"
	"net/url"

	"go-healthcare-portal/internal/delivery/http/response"
	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/internal/guard"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/security"

	"github.com/gin-gonic/gin"
)

type OnboardingHandler struct {
	onboardingUC domain.OnboardingUsecase
}

func NewOnboardingHandler(r *gin.RouterGroup, onboardingUC domain.OnboardingUsecase) {
	handler := &OnboardingHandler{onboardingUC: onboardingUC}

	onboarding := r.Group("/onboarding")
	{
		onboarding.GET("/status", handler.GetStatus)
		onboarding.POST("/complete", handler.Complete)
	}
}

// GetStatus godoc
// @Summary      Get onboarding status
// @Description  Check if the current user has completed onboarding
// @Tags         onboarding
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.OnboardingStatus}
// @Failure      401  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /onboarding/status [get]
// @Security     BearerAuth
func (h *OnboardingHandler) GetStatus(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))

	status, err := h.onboardingUC.GetOnboardingStatus(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Onboarding status retrieved", status)
}

// Complete godoc
// @Summary      Complete onboarding
// @Description  Submit role and profile details. The response carries the dashboard to replace-navigate to; form posts get a 303 there.
// @Tags         onboarding
// @Accept       json
// @Produce      json
// @Param        request  body      domain.OnboardingSubmitRequest  true  "Onboarding data"
// @Success      200      {object}  response.Response{data=domain.OnboardingResult}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /onboarding/complete [post]
// @Security     BearerAuth
func (h *OnboardingHandler) Complete(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))
	form := isFormPost(c)

	var req domain.OnboardingSubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		if form {
			redirectWithError(c, guard.OnboardingPath, "Please check the form and try again")
			return
		}
		response.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.onboardingUC.CompleteOnboarding(ctx, userID, &req)
	if err != nil {
		var appErr *apperror.AppError
		if form && errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError {
			redirectWithError(c, guard.OnboardingPath, appErr.Message)
			return
		}
		c.Error(err)
		return
	}

	security.DefaultLogger().LogUserEvent(ctx, security.EventOnboardingComplete, userID, map[string]interface{}{
		"role": string(result.Profile.Role),
	})

	// Onboarding must not stay in history once it is done.
	c.Header("Cache-Control", "no-store")
	if form {
		if c.GetHeader("HX-Request") == "true" {
			c.Header("HX-Location", result.Redirect)
			c.Header("HX-Replace-Url", result.Redirect)
			c.Status(http.StatusOK)
			return
		}
		c.Redirect(http.StatusSeeOther, result.Redirect)
		return
	}
	response.Success(c, http.StatusOK, "Onboarding completed successfully", result)
}

func redirectWithError(c *gin.Context, path, msg string) {
	c.Redirect(http.StatusSeeOther, path+"?"+url.Values{"error": {msg}}.Encode())
}
