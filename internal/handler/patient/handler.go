package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinical-records/internal/handler"
	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/service/patient"
)

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("", h.ListPatients)
		patients.POST("", h.CreatePatient)
		patients.DELETE("", h.DeletePatients)
		patients.GET("/:id", h.GetPatient)
		patients.PATCH("/:id", h.UpdatePatient)

		patients.POST("/:id/diagnoses", h.AddDiagnosis)
		patients.GET("/:id/diagnoses", h.ListDiagnoses)
		patients.PUT("/:id/diagnoses/:did", h.UpdateDiagnosis)
		patients.DELETE("/:id/diagnoses/:did", h.DeleteDiagnosis)
	}
}

func (h *Handler) ListPatients(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var page model.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid pagination parameters"))
		return
	}

	result, err := h.service.ListPatients(c.Request.Context(), doctorID, page)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) CreatePatient(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.CreatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	view, err := h.service.CreatePatient(c.Request.Context(), doctorID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(view))
}

func (h *Handler) GetPatient(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	view, err := h.service.GetPatient(c.Request.Context(), doctorID, c.Param("id"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.UpdatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	view, err := h.service.UpdatePatient(c.Request.Context(), doctorID, c.Param("id"), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}

func (h *Handler) DeletePatients(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.DeletePatientsRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	deleted, err := h.service.DeletePatients(c.Request.Context(), doctorID, req.IDs)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": deleted}))
}

func (h *Handler) AddDiagnosis(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.CreateDiagnosisRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	diagnosis, err := h.service.AddDiagnosis(c.Request.Context(), doctorID, c.Param("id"), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(diagnosis))
}

func (h *Handler) ListDiagnoses(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	list, err := h.service.ListDiagnoses(c.Request.Context(), doctorID, c.Param("id"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) UpdateDiagnosis(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}
	handler.RespondError(c, h.service.UpdateDiagnosis(c.Request.Context(), doctorID, c.Param("id"), c.Param("did")))
}

func (h *Handler) DeleteDiagnosis(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}
	handler.RespondError(c, h.service.DeleteDiagnosis(c.Request.Context(), doctorID, c.Param("id"), c.Param("did")))
}
