package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CatalogHandler lists the leagues, markets and sportsbooks on file.
type CatalogHandler struct {
	catalog Catalog
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GetLeagues handles GET /leagues.
func (h *CatalogHandler) GetLeagues(c *gin.Context) {
	h.list(c, "leagues", h.catalog.DistinctLeagues)
}

// GetMarkets handles GET /markets.
func (h *CatalogHandler) GetMarkets(c *gin.Context) {
	h.list(c, "markets", h.catalog.DistinctMarkets)
}

// GetBooks handles GET /books.
func (h *CatalogHandler) GetBooks(c *gin.Context) {
	h.list(c, "books", h.catalog.DistinctSportsbooks)
}

func (h *CatalogHandler) list(c *gin.Context, key string, fetch func(context.Context) ([]string, error)) {
	values, err := fetch(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list "+key)
		return
	}
	if values == nil {
		values = []string{}
	}
	c.JSON(http.StatusOK, gin.H{key: values, "count": len(values)})
}
