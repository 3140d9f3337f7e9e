package history

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medilens/medilens-api/internal/model"
	apperrors "github.com/medilens/medilens-api/pkg/errors"
	"github.com/medilens/medilens-api/pkg/httputil"
)

type Service interface {
	Get(ctx context.Context, id uuid.UUID, userID string) (*model.Analysis, error)
	List(ctx context.Context, userID string, filters *model.AnalysisFilters) (*model.PagedResult[*model.Analysis], error)
	Delete(ctx context.Context, id uuid.UUID, userID string) error
	MarkSentToChat(ctx context.Context, id uuid.UUID, userID string) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects r to require authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	analyses := r.Group("/analyses")
	{
		analyses.GET("", h.ListAnalyses)
		analyses.GET("/:id", h.GetAnalysis)
		analyses.DELETE("/:id", h.DeleteAnalysis)
		analyses.POST("/:id/send-to-chat", h.SendToChat)
	}
}

func (h *Handler) ListAnalyses(c *gin.Context) {
	var filters model.AnalysisFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		_ = c.Error(apperrors.BadRequest("invalid query parameters", err))
		return
	}

	page, err := h.service.List(c.Request.Context(), httputil.UserID(c), &filters)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, page)
}

func (h *Handler) GetAnalysis(c *gin.Context) {
	id, ok := analysisID(c)
	if !ok {
		return
	}

	analysis, err := h.service.Get(c.Request.Context(), id, httputil.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, analysis)
}

func (h *Handler) DeleteAnalysis(c *gin.Context) {
	id, ok := analysisID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, httputil.UserID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, &httputil.Response{Status: "success", Message: "analysis deleted"})
}

func (h *Handler) SendToChat(c *gin.Context) {
	id, ok := analysisID(c)
	if !ok {
		return
	}

	if err := h.service.MarkSentToChat(c.Request.Context(), id, httputil.UserID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, &httputil.Response{Status: "success", Message: "analysis sent to chat"})
}

func analysisID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.BadRequest("invalid analysis ID", err))
		return uuid.Nil, false
	}
	return id, true
}
