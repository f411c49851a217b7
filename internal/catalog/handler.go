package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookhub/internal/store"
	"bookhub/internal/sync"
)

type Handler struct {
	Catalog *Catalog
	Hub     *sync.Hub
}

func NewHandler(cat *Catalog, hub *sync.Hub) *Handler {
	return &Handler{Catalog: cat, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/books", h.list)
	rg.GET("/books/:id", h.getOne)
	rg.GET("/books/:id/content", h.content)
	rg.DELETE("/books/:id", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	entries, err := h.Catalog.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": len(entries),
		"items": entries,
	})
}

func (h *Handler) getOne(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	b, err := h.Catalog.Store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, b.Summary())
}

// content streams the stored blob back byte for byte.
func (h *Handler) content(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	b, err := h.Catalog.Store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.Data(http.StatusOK, b.ContentType, b.Content)
}

func (h *Handler) remove(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	if err := h.Catalog.Store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	if h.Hub != nil {
		h.Hub.Publish(sync.NewEvent(sync.EventCatalogRefresh))
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func bookID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return 0, false
	}
	return id, true
}
