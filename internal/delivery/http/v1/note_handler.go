package v1

import (
	"net/http"

	"go-healthcare-portal/internal/delivery/http/middleware"
	"go-healthcare-portal/internal/delivery/http/response"
	"go-healthcare-portal/internal/domain"

	"github.com/gin-gonic/gin"
)

type NoteHandler struct {
	noteUC domain.NoteUsecase
}

func NewNoteHandler(r *gin.RouterGroup, noteUC domain.NoteUsecase) {
	handler := &NoteHandler{noteUC: noteUC}

	notes := r.Group("/notes", middleware.RequireRoles(domain.RoleDoctor))
	{
		notes.POST("/structure", handler.Structure)
	}
}

// Structure godoc
// @Summary      Structure a clinical note
// @Description  Turns free-text notes into a SOAP layout using the hosted model. Nothing is stored.
// @Tags         notes
// @Accept       json
// @Produce      json
// @Param        request  body      domain.StructureNoteRequest  true  "Free-text note"
// @Success      200      {object}  response.Response{data=domain.StructuredNote}
// @Failure      400      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /notes/structure [post]
// @Security     BearerAuth
func (h *NoteHandler) Structure(c *gin.Context) {
	var req domain.StructureNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	note, err := h.noteUC.Structure(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Note structured", note)
}
