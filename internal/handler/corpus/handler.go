package corpus

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medilens/medilens-api/internal/corpus"
	"github.com/medilens/medilens-api/pkg/httputil"
)

type Service interface {
	LookupTerm(term string) (corpus.Lookup, error)
	CorpusStats() corpus.Stats
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/corpus")
	{
		group.GET("/terms/:term", h.LookupTerm)
		group.GET("/stats", h.Stats)
	}
}

func (h *Handler) LookupTerm(c *gin.Context) {
	res, err := h.service.LookupTerm(c.Param("term"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, res)
}

func (h *Handler) Stats(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, h.service.CorpusStats())
}
