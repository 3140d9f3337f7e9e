package analysis

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	engine "github.com/medilens/medilens-api/internal/analysis"
	service "github.com/medilens/medilens-api/internal/service/analysis"
	"github.com/medilens/medilens-api/pkg/httputil"
)

type Service interface {
	Analyze(ctx context.Context, in service.AnalyzeInput) (*service.Result, error)
	Correct(text string) string
	Extract(text string) (engine.MedicalInfo, error)
}

type AnalyzeRequest struct {
	Text string `json:"text" binding:"required,notblank,max=20000"`
	Save bool   `json:"save"`
}

type TextRequest struct {
	Text string `json:"text" binding:"required,notblank,max=20000"`
}

type CorrectResponse struct {
	Text string `json:"text"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	analysis := r.Group("/analysis")
	{
		analysis.POST("", h.Analyze)
		analysis.POST("/correct", h.Correct)
		analysis.POST("/extract", h.Extract)
	}
}

// Analyze renders the report for the posted OCR text. Authenticated callers
// may ask for it to be saved to their history.
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), service.AnalyzeInput{
		Text:   req.Text,
		UserID: httputil.UserID(c),
		Save:   req.Save,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := http.StatusOK
	if result.ID != nil {
		status = http.StatusCreated
	}
	httputil.RespondWithSuccess(c, status, result)
}

func (h *Handler) Correct(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, CorrectResponse{Text: h.service.Correct(req.Text)})
}

func (h *Handler) Extract(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	info, err := h.service.Extract(req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, info)
}
