package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"go-healthcare-portal/internal/delivery/http/middleware"
	"go-healthcare-portal/internal/delivery/http/response"
	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RecordHandler struct {
	recordUC domain.MedicalRecordUsecase
}

func NewRecordHandler(r *gin.RouterGroup, recordUC domain.MedicalRecordUsecase) {
	handler := &RecordHandler{recordUC: recordUC}

	records := r.Group("/records")
	{
		records.GET("", handler.List)
		records.GET("/export", handler.Export)
		records.GET("/:id", handler.Get)
		records.POST("", middleware.RequireRoles(domain.RoleDoctor, domain.RoleAdmin), handler.Create)
	}
}

// parseFilter reads patient_id, type, limit and offset from the query.
func parseFilter(c *gin.Context) (domain.RecordFilter, error) {
	filter := domain.RecordFilter{PatientID: c.Query("patient_id")}
	if filter.PatientID != "" {
		if _, err := uuid.Parse(filter.PatientID); err != nil {
			return filter, apperror.BadRequest("Invalid patient_id")
		}
	}
	if t := c.Query("type"); t != "" {
		rt := domain.RecordType(t)
		filter.RecordType = &rt
	}
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return filter, apperror.BadRequest("Invalid limit")
		}
		filter.Limit = n
	}
	if o := c.Query("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			return filter, apperror.BadRequest("Invalid offset")
		}
		filter.Offset = n
	}
	return filter, nil
}

// List godoc
// @Summary      List medical records
// @Description  Patients always get their own records; doctors must pass patient_id
// @Tags         records
// @Produce      json
// @Param        patient_id  query     string  false  "Patient ID"
// @Param        type        query     string  false  "Record type"
// @Param        limit       query     int     false  "Page size"
// @Param        offset      query     int     false  "Offset"
// @Success      200  {object}  response.Response{data=[]domain.MedicalRecord}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /records [get]
// @Security     BearerAuth
func (h *RecordHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	list, err := h.recordUC.ListForViewer(c.Request.Context(), middleware.ViewerFrom(c), filter)
	if err != nil {
		c.Error(err)
		return
	}
	if list == nil {
		list = []domain.MedicalRecord{}
	}

	response.Success(c, http.StatusOK, "Records retrieved", list)
}

// Get godoc
// @Summary      Get a medical record
// @Tags         records
// @Produce      json
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  response.Response{data=domain.MedicalRecord}
// @Failure      404  {object}  response.Response
// @Router       /records/{id} [get]
// @Security     BearerAuth
func (h *RecordHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NotFound("Record not found"))
		return
	}

	rec, err := h.recordUC.Get(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Record retrieved", rec)
}

// Create godoc
// @Summary      Add a medical record
// @Description  Doctors add a record to an onboarded patient's chart. The patient is notified by email.
// @Tags         records
// @Accept       json
// @Produce      json
// @Param        request  body      domain.CreateRecordRequest  true  "Record"
// @Success      201      {object}  response.Response{data=domain.MedicalRecord}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /records [post]
// @Security     BearerAuth
func (h *RecordHandler) Create(c *gin.Context) {
	var req domain.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	rec, err := h.recordUC.Create(ctx, middleware.ViewerFrom(c), &req)
	if err != nil {
		c.Error(err)
		return
	}

	security.DefaultLogger().LogUserEvent(ctx, security.EventRecordCreated, c.GetString(string(domain.KeyUserID)), map[string]interface{}{
		"record_id":   rec.ID.String(),
		"record_type": string(rec.RecordType),
		"patient":     security.HashValue(rec.PatientID),
	})
	response.Created(c, "Record created", rec)
}

// Export godoc
// @Summary      Export medical records
// @Description  Download the viewer's visible records as an Excel workbook
// @Tags         records
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        patient_id  query     string  false  "Patient ID"
// @Param        type        query     string  false  "Record type"
// @Success      200  {file}    file
// @Failure      400  {object}  response.Response
// @Router       /records/export [get]
// @Security     BearerAuth
func (h *RecordHandler) Export(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()
	data, filename, err := h.recordUC.Export(ctx, middleware.ViewerFrom(c), filter)
	if err != nil {
		c.Error(err)
		return
	}

	security.DefaultLogger().LogUserEvent(ctx, security.EventRecordExported, c.GetString(string(domain.KeyUserID)), map[string]interface{}{
		"patient": security.HashValue(filter.PatientID),
		"bytes":   len(data),
	})
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
