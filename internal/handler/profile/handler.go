package profile

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinical-records/internal/handler"
	"github.com/jwalitptl/clinical-records/internal/model"
)

type ProfileService interface {
	GetPersonalData(ctx context.Context, callerID, userID string) (*model.PersonalData, error)
	SavePersonalData(ctx context.Context, callerID, userID string, form *model.PersonalDataForm) (*model.PersonalData, error)
	GetMedicalData(ctx context.Context, callerID, userID string) (*model.MedicalData, error)
	SaveMedicalData(ctx context.Context, callerID, userID string, form *model.MedicalDataForm) (*model.MedicalData, error)
}

type Handler struct {
	service ProfileService
}

func NewHandler(service ProfileService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes serves the caller's own profile only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	profile := r.Group("/profile")
	{
		profile.GET("/personal", h.GetPersonal)
		profile.PUT("/personal", h.SavePersonal)
		profile.GET("/medical", h.GetMedical)
		profile.PUT("/medical", h.SaveMedical)
	}
}

func (h *Handler) GetPersonal(c *gin.Context) {
	callerID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	data, err := h.service.GetPersonalData(c.Request.Context(), callerID, callerID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(data))
}

func (h *Handler) SavePersonal(c *gin.Context) {
	callerID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var form model.PersonalDataForm
	if !handler.BindJSON(c, &form) {
		return
	}

	data, err := h.service.SavePersonalData(c.Request.Context(), callerID, callerID, &form)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(data))
}

func (h *Handler) GetMedical(c *gin.Context) {
	callerID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	data, err := h.service.GetMedicalData(c.Request.Context(), callerID, callerID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(data))
}

func (h *Handler) SaveMedical(c *gin.Context) {
	callerID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var form model.MedicalDataForm
	if !handler.BindJSON(c, &form) {
		return
	}

	data, err := h.service.SaveMedicalData(c.Request.Context(), callerID, callerID, &form)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(data))
}
