package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"novelhub/internal/api/handler"
	"novelhub/internal/ingestion"
	"novelhub/internal/models"
)

// --- MOCK SERVICE ---

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ResolveListing(ctx context.Context, page int, category string) []models.Listing {
	args := m.Called(ctx, page, category)
	return args.Get(0).([]models.Listing)
}

func (m *MockCatalogService) ResolveDetail(ctx context.Context, externalID string) *models.Detail {
	args := m.Called(ctx, externalID)
	return args.Get(0).(*models.Detail)
}

func (m *MockCatalogService) ResolveChapter(ctx context.Context, sourceURL string) (*models.ChapterText, error) {
	args := m.Called(ctx, sourceURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChapterText), args.Error(1)
}

func (m *MockCatalogService) Search(ctx context.Context, query string) []models.Listing {
	args := m.Called(ctx, query)
	return args.Get(0).([]models.Listing)
}

// --- SETUP ---

func setupRouter(svc *MockCatalogService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewNovelHandler(svc)
	h.RegisterRoutes(r.Group("/"))
	return r
}

func doGet(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// --- TESTS ---

func TestListDefaults(t *testing.T) {
	svc := new(MockCatalogService)
	svc.On("ResolveListing", mock.Anything, 1, "all").Return([]models.Listing{
		{ExternalID: "/fiction/1/a", Title: "A", Source: models.SourcePrimary},
	})

	w := doGet(t, setupRouter(svc), "/novels")

	require.Equal(t, http.StatusOK, w.Code)
	var got []models.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
	svc.AssertExpectations(t)
}

func TestListPageAndCategoryPassedThrough(t *testing.T) {
	svc := new(MockCatalogService)
	svc.On("ResolveListing", mock.Anything, 3, "fantasy").Return([]models.Listing{})

	w := doGet(t, setupRouter(svc), "/novels?page=3&category=fantasy")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String(), "exhaustion is an empty array, not an error object")
	svc.AssertExpectations(t)
}

func TestGenreRoute(t *testing.T) {
	svc := new(MockCatalogService)
	svc.On("ResolveListing", mock.Anything, 1, "horror").Return([]models.Listing{})

	w := doGet(t, setupRouter(svc), "/genre?tag=horror")

	require.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestSearchEmptyQueryShortCircuits(t *testing.T) {
	svc := new(MockCatalogService)

	w := doGet(t, setupRouter(svc), "/search?q=")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
	svc.AssertNotCalled(t, "Search")
}

func TestDetails(t *testing.T) {
	svc := new(MockCatalogService)
	svc.On("ResolveDetail", mock.Anything, "/fiction/123/mol").Return(&models.Detail{
		Listing:     models.Listing{ExternalID: "/fiction/123/mol", Title: "MoL", Author: "DK", RatingText: "4.7", Source: models.SourcePrimary},
		Description: "Loops.",
		Chapters:    []models.ChapterRef{{Ordinal: 1, Title: "Ch 1", URL: "/fiction/123/mol/chapter/1"}},
	})

	w := doGet(t, setupRouter(svc), "/details?url=/fiction/123/mol")

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Loops.", got["description"])
	assert.Len(t, got["chapters"], 1)
	svc.AssertExpectations(t)
}

func TestDetailsMissingURL(t *testing.T) {
	svc := new(MockCatalogService)

	w := doGet(t, setupRouter(svc), "/details")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadSuccess(t *testing.T) {
	svc := new(MockCatalogService)
	svc.On("ResolveChapter", mock.Anything, "/fiction/123/mol/chapter/1").
		Return(&models.ChapterText{Title: "Ch 1", Content: "Body."}, nil)

	w := doGet(t, setupRouter(svc), "/read?url=/fiction/123/mol/chapter/1")

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Ch 1", got["title"])
	assert.Equal(t, "Body.", got["content"])
}

func TestReadFailureServesPlaceholder(t *testing.T) {
	svc := new(MockCatalogService)
	svc.On("ResolveChapter", mock.Anything, "/fiction/123/mol/chapter/1").
		Return(nil, ingestion.ErrUpstreamUnavailable)

	w := doGet(t, setupRouter(svc), "/read?url=/fiction/123/mol/chapter/1")

	// still 200: the boundary contract is failure-free
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, handler.ChapterPlaceholder, got["content"])
}
