package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/medilens/medilens-api/internal/analysis"
	"github.com/medilens/medilens-api/internal/corpus"
	analysisHandler "github.com/medilens/medilens-api/internal/handler/analysis"
	corpusHandler "github.com/medilens/medilens-api/internal/handler/corpus"
	healthHandler "github.com/medilens/medilens-api/internal/handler/health"
	historyHandler "github.com/medilens/medilens-api/internal/handler/history"
	"github.com/medilens/medilens-api/internal/handler/prometheus"
	"github.com/medilens/medilens-api/internal/middleware"
	service "github.com/medilens/medilens-api/internal/service/analysis"
	"github.com/medilens/medilens-api/pkg/auth"
	"github.com/medilens/medilens-api/pkg/metrics"
)

func setup(t *testing.T) (*gin.Engine, *auth.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidation(middleware.DefaultValidationConfig()))

	tokens, err := auth.NewTokenManager("router-test-secret", "medilens")
	require.NoError(t, err)

	prom := prometheus.New()
	m := metrics.NewMetrics("medilens", prom.Registerer())
	svc := service.NewService(engine.NewAnalyzer(corpus.Empty()), service.WithMetrics(m))

	r := NewRouter(
		middleware.NewAuthMiddleware(tokens),
		Handlers{
			Analysis: analysisHandler.NewHandler(svc),
			History:  historyHandler.NewHandler(svc),
			Corpus:   corpusHandler.NewHandler(svc),
			Health:   healthHandler.NewHandler(map[string]healthHandler.Checker{"history": svc}),
		},
		prom,
		RouterConfig{
			Logger:     zerolog.Nop(),
			Metrics:    m,
			RateLimit:  100,
			RateBurst:  100,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()
	return r.Engine(), tokens
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublicAnalysisRoute(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodPost, "/api/v1/analysis", `{"text":"Napa 500 mg Tab BD"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, APIVersion, w.Header().Get("X-API-Version"))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestHistoryRequiresAuthentication(t *testing.T) {
	r, tokens := setup(t)

	w := do(r, http.MethodGet, "/api/v1/analyses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/v1/analyses", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := tokens.Generate("user-1", "user@example.com", time.Hour)
	require.NoError(t, err)

	// Authenticated, but no history store is configured.
	w = do(r, http.MethodGet, "/api/v1/analyses", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAnalysisRejectsInvalidToken(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodPost, "/api/v1/analysis", `{"text":"Napa 500 mg Tab BD"}`,
		map[string]string{"Authorization": "Bearer invalid"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCorpusRoutesAreCacheable(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodGet, "/api/v1/corpus/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=300")
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodGet, "/api/v1/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	do(r, http.MethodGet, "/api/v1/health/live", "", nil)

	w = do(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "medilens_http_requests_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
