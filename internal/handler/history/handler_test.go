package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medilens/medilens-api/internal/middleware"
	"github.com/medilens/medilens-api/internal/model"
	apperrors "github.com/medilens/medilens-api/pkg/errors"
	"github.com/medilens/medilens-api/pkg/httputil"
)

const testUser = "user-1"

type mockService struct {
	mock.Mock
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID, userID string) (*model.Analysis, error) {
	args := m.Called(ctx, id, userID)
	if a := args.Get(0); a != nil {
		return a.(*model.Analysis), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) List(ctx context.Context, userID string, filters *model.AnalysisFilters) (*model.PagedResult[*model.Analysis], error) {
	args := m.Called(ctx, userID, filters)
	if p := args.Get(0); p != nil {
		return p.(*model.PagedResult[*model.Analysis]), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockService) MarkSentToChat(ctx context.Context, id uuid.UUID, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler(zerolog.Nop()))
	r.Use(func(c *gin.Context) {
		c.Set(httputil.ContextUserID, testUser)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func serve(r *gin.Engine, method, path string) (*httptest.ResponseRecorder, httputil.Response) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	var resp httputil.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestGetAnalysis(t *testing.T) {
	svc := new(mockService)
	id := uuid.New()
	svc.On("Get", mock.Anything, id, testUser).Return(&model.Analysis{
		Base:      model.Base{ID: id},
		UserID:    testUser,
		Medicines: []string{"Paracetamol"},
	}, nil)

	w, resp := serve(setupRouter(svc), http.MethodGet, "/api/v1/analyses/"+id.String())

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", resp.Status)
	assert.Contains(t, w.Body.String(), id.String())
	svc.AssertExpectations(t)
}

func TestGetAnalysisNotFound(t *testing.T) {
	svc := new(mockService)
	id := uuid.New()
	svc.On("Get", mock.Anything, id, testUser).Return(nil, apperrors.NotFound("analysis", nil))

	w, resp := serve(setupRouter(svc), http.MethodGet, "/api/v1/analyses/"+id.String())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "analysis not found", resp.Message)
}

func TestInvalidAnalysisID(t *testing.T) {
	svc := new(mockService)
	r := setupRouter(svc)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w, resp := serve(r, method, "/api/v1/analyses/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, w.Code, method)
		assert.Equal(t, "invalid analysis ID", resp.Message)
	}

	w, _ := serve(r, http.MethodPost, "/api/v1/analyses/42/send-to-chat")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestListAnalyses(t *testing.T) {
	svc := new(mockService)
	svc.On("List", mock.Anything, testUser, mock.MatchedBy(func(f *model.AnalysisFilters) bool {
		return f.Page == 2 && f.PageSize == 5 && f.SentToChat != nil && *f.SentToChat
	})).Return(&model.PagedResult[*model.Analysis]{
		Items:    []*model.Analysis{{UserID: testUser}},
		Total:    6,
		Page:     2,
		PageSize: 5,
	}, nil)

	w, _ := serve(setupRouter(svc), http.MethodGet, "/api/v1/analyses?page=2&page_size=5&sent_to_chat=true")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data model.PagedResult[*model.Analysis] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(6), body.Data.Total)
	assert.Len(t, body.Data.Items, 1)
	svc.AssertExpectations(t)
}

func TestListAnalysesInvalidQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"non-numeric page", "page=abc"},
		{"unparseable date", "start_date=yesterday"},
		{"non-boolean flag", "sent_to_chat=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)

			w, resp := serve(setupRouter(svc), http.MethodGet, "/api/v1/analyses?"+tt.query)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid query parameters", resp.Message)
			svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDeleteAndSendToChat(t *testing.T) {
	svc := new(mockService)
	id := uuid.New()
	svc.On("Delete", mock.Anything, id, testUser).Return(nil)
	svc.On("MarkSentToChat", mock.Anything, id, testUser).Return(apperrors.NotFound("analysis", nil))
	r := setupRouter(svc)

	w, resp := serve(r, http.MethodDelete, "/api/v1/analyses/"+id.String())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "analysis deleted", resp.Message)

	w, _ = serve(r, http.MethodPost, "/api/v1/analyses/"+id.String()+"/send-to-chat")
	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertExpectations(t)
}
