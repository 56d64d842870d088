package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"novelhub/internal/api/dto"
	"novelhub/internal/models"
)

// ChapterPlaceholder is the fixed human-readable body served when every tier
// of a chapter resolution is exhausted. The reading surface must never render
// a silent blank page.
const ChapterPlaceholder = "Failed to load chapter. Source might be protected."

// requestTimeout bounds one full resolution including its upstream calls.
const requestTimeout = 25 * time.Second

// CatalogService is the core-facing contract: three total resolution
// operations plus query forwarding. Implemented by resolver.Resolver.
type CatalogService interface {
	ResolveListing(ctx context.Context, page int, category string) []models.Listing
	ResolveDetail(ctx context.Context, externalID string) *models.Detail
	ResolveChapter(ctx context.Context, sourceURL string) (*models.ChapterText, error)
	Search(ctx context.Context, query string) []models.Listing
}

type NovelHandler struct {
	svc CatalogService
}

func NewNovelHandler(svc CatalogService) *NovelHandler {
	return &NovelHandler{svc: svc}
}

func (h *NovelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/novels", h.List)
	rg.GET("/genre", h.Genre)
	rg.GET("/search", h.Search)
	rg.GET("/details", h.Details)
	rg.GET("/read", h.Read)
}

// List serves the catalog home page: GET /novels?page=1&category=all
func (h *NovelHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	category := c.DefaultQuery("category", "all")

	c.JSON(http.StatusOK, h.svc.ResolveListing(ctx, page, category))
}

// Genre serves a category browse: GET /genre?tag=fantasy&page=1
// Kept as its own route for client compatibility; it is the same resolution
// as /novels with the tag as category.
func (h *NovelHandler) Genre(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	tag := c.DefaultQuery("tag", "all")

	c.JSON(http.StatusOK, h.svc.ResolveListing(ctx, page, tag))
}

// Search forwards a query: GET /search?q=dungeon
func (h *NovelHandler) Search(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusOK, []models.Listing{})
		return
	}

	c.JSON(http.StatusOK, h.svc.Search(ctx, q))
}

// Details serves novel metadata plus the chapter index: GET /details?url=<id>
func (h *NovelHandler) Details(c *gin.Context) {
	id := strings.TrimSpace(c.Query("url"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	detail := h.svc.ResolveDetail(ctx, id)
	c.JSON(http.StatusOK, dto.FromDetail(*detail))
}

// Read serves a chapter body: GET /read?url=<chapter url or volume id>
// A failed resolution still answers 200 with the fixed placeholder; the
// failure-free contract of the boundary is part of the design.
func (h *NovelHandler) Read(c *gin.Context) {
	u := strings.TrimSpace(c.Query("url"))
	if u == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	text, err := h.svc.ResolveChapter(ctx, u)
	if err != nil {
		c.JSON(http.StatusOK, dto.ReadResponse{Content: ChapterPlaceholder})
		return
	}
	c.JSON(http.StatusOK, dto.FromChapterText(*text))
}
