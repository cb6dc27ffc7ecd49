package v1

import (
	"net/http"

	"go-healthcare-portal/internal/delivery/http/middleware"
	"go-healthcare-portal/internal/delivery/http/response"
	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/internal/guard"
	"go-healthcare-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type NavigationHandler struct {
	observer *middleware.GuardObserver
}

// NewNavigationHandler exposes the guard to client-side routers. The group
// must resolve the viewer optionally so anonymous callers get a decision too.
func NewNavigationHandler(r *gin.RouterGroup, observer *middleware.GuardObserver) {
	handler := &NavigationHandler{observer: observer}
	r.POST("/navigation/evaluate", handler.Evaluate)
}

type EvaluateRequest struct {
	Path string `json:"path" binding:"required"`
	// AllowedRoles restricts the route; omit to infer it from the path
	AllowedRoles []domain.Role `json:"allowed_roles"`
}

type EvaluateResponse struct {
	Action      guard.Action      `json:"action"`
	State       guard.State       `json:"state"`
	Cause       guard.Cause       `json:"cause,omitempty"`
	Target      string            `json:"target,omitempty"`
	Mode        guard.Mode        `json:"mode,omitempty"`
	Placeholder guard.Placeholder `json:"placeholder,omitempty"`
	Message     string            `json:"message,omitempty"`
}

// Evaluate godoc
// @Summary      Evaluate a navigation
// @Description  Returns what the guard would do for the caller on the given path
// @Tags         navigation
// @Accept       json
// @Produce      json
// @Param        request  body      EvaluateRequest  true  "Path and optional role restriction"
// @Success      200      {object}  response.Response{data=EvaluateResponse}
// @Failure      400      {object}  response.Response
// @Router       /navigation/evaluate [post]
func (h *NavigationHandler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	for _, r := range req.AllowedRoles {
		if !r.IsValid() {
			c.Error(apperror.BadRequest("Unknown role: " + string(r)))
			return
		}
	}

	in := middleware.GuardInputs(c, req.AllowedRoles)
	in.Path = req.Path
	d := guard.Decide(in)
	// The client performs the navigation, so a redirect counts as issued.
	h.observer.Observe(c, in, d, d.IsRedirect())

	response.Success(c, http.StatusOK, "Navigation evaluated", EvaluateResponse{
		Action:      d.Action,
		State:       d.State(),
		Cause:       d.Cause,
		Target:      d.Target,
		Mode:        d.Mode,
		Placeholder: d.Placeholder,
		Message:     d.Placeholder.Label(),
	})
}
