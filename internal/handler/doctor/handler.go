package doctor

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinical-records/internal/handler"
	"github.com/jwalitptl/clinical-records/internal/model"
)

type Searcher interface {
	SearchDoctors(ctx context.Context, query string) ([]*model.Doctor, error)
}

type Handler struct {
	searcher Searcher
}

func NewHandler(searcher Searcher) *Handler {
	return &Handler{searcher: searcher}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/doctors", h.Search)
}

func (h *Handler) Search(c *gin.Context) {
	if _, ok := handler.CallerID(c); !ok {
		return
	}

	doctors, err := h.searcher.SearchDoctors(c.Request.Context(), c.Query("q"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}
