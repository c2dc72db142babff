package sharing

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinical-records/internal/handler"
	"github.com/jwalitptl/clinical-records/internal/model"
)

// Sharer changes who can see a patient.
type Sharer interface {
	Share(ctx context.Context, actorID, patientID, doctorID string) (*model.SharingGrant, error)
	Unshare(ctx context.Context, actorID, patientID, doctorID string) error
}

// Directory lists the doctors a patient has shared with.
type Directory interface {
	SharedDoctors(ctx context.Context, callerID, patientID string) ([]*model.Doctor, error)
}

type Handler struct {
	sharer    Sharer
	directory Directory
}

func NewHandler(sharer Sharer, directory Directory) *Handler {
	return &Handler{sharer: sharer, directory: directory}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sharing := r.Group("/sharing")
	{
		sharing.POST("", h.Grant)
		sharing.DELETE("", h.Revoke)
		sharing.GET("/doctors/:patientId", h.SharedDoctors)
	}
}

func (h *Handler) Grant(c *gin.Context) {
	actorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.ShareRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	grant, err := h.sharer.Share(c.Request.Context(), actorID, req.PatientID, req.DoctorID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(grant))
}

func (h *Handler) Revoke(c *gin.Context) {
	actorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.ShareRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	if err := h.sharer.Unshare(c.Request.Context(), actorID, req.PatientID, req.DoctorID); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "sharing revoked"})
}

func (h *Handler) SharedDoctors(c *gin.Context) {
	callerID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	doctors, err := h.directory.SharedDoctors(c.Request.Context(), callerID, c.Param("patientId"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}
