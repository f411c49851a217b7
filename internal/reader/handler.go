package reader

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookhub/internal/epub"
	"bookhub/internal/store"
)

type Handler struct {
	Manager *Manager
}

func NewHandler(m *Manager) *Handler {
	return &Handler{Manager: m}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reader", h.state)
	rg.POST("/reader/open", h.open)
	rg.POST("/reader/close", h.close)
	rg.POST("/reader/next", h.next)
	rg.POST("/reader/prev", h.prev)
	rg.POST("/reader/goto", h.gotoLocator)
	rg.POST("/reader/swipe", h.swipe)
	rg.POST("/reader/scroll", h.scroll)
	rg.GET("/reader/search", h.search)
	rg.GET("/reader/text", h.text)
	rg.GET("/reader/pages/:num", h.page)
}

type openReq struct {
	ID int64 `json:"id"`
}

func (h *Handler) open(c *gin.Context) {
	var req openReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "book id required"})
		return
	}

	st, err := h.Manager.Open(c.Request.Context(), req.ID)
	if err != nil {
		writeReaderError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) close(c *gin.Context) {
	if err := h.Manager.Close(c.Request.Context()); err != nil {
		writeReaderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "closed", "view": "catalog"})
}

func (h *Handler) state(c *gin.Context) {
	st, err := h.Manager.State()
	if err != nil {
		writeReaderError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) next(c *gin.Context) {
	st, err := h.Manager.Next(c.Request.Context())
	if err != nil {
		writeReaderError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) prev(c *gin.Context) {
	st, err := h.Manager.Prev(c.Request.Context())
	if err != nil {
		writeReaderError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type gotoReq struct {
	Locator string `json:"locator"`
}

func (h *Handler) gotoLocator(c *gin.Context) {
	var req gotoReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Locator == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "locator required"})
		return
	}

	st, err := h.Manager.GotoLocator(c.Request.Context(), req.Locator)
	if err != nil {
		writeReaderError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type swipeReq struct {
	DeltaX float64 `json:"delta_x"`
}

func (h *Handler) swipe(c *gin.Context) {
	var req swipeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	st, err := h.Manager.Swipe(c.Request.Context(), req.DeltaX)
	if err != nil {
		writeReaderError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type scrollReq struct {
	Offset int64 `json:"offset"`
}

func (h *Handler) scroll(c *gin.Context) {
	var req scrollReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	st, err := h.Manager.Scroll(c.Request.Context(), req.Offset)
	if err != nil {
		writeReaderError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) search(c *gin.Context) {
	query := c.Query("q")
	matches, st, err := h.Manager.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, epub.ErrNoResults) {
			c.JSON(http.StatusOK, gin.H{
				"message": "no results",
				"total":   0,
				"matches": []epub.Match{},
			})
			return
		}
		writeReaderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   len(matches),
		"matches": matches,
		"state":   st,
	})
}

func (h *Handler) text(c *gin.Context) {
	text, err := h.Manager.Text()
	if err != nil {
		writeReaderError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (h *Handler) page(c *gin.Context) {
	num, err := strconv.Atoi(c.Param("num"))
	if err != nil || num < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page number"})
		return
	}

	page, err := h.Manager.Page(num)
	if err != nil {
		if errors.Is(err, ErrPageNotReady) {
			c.JSON(http.StatusAccepted, gin.H{"message": "page not rendered yet"})
			return
		}
		writeReaderError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// writeReaderError maps the error taxonomy onto responses. Every
// recoverable failure points the client back at the catalog instead of
// leaving a dead view.
func writeReaderError(c *gin.Context, err error) {
	var renderErr *RenderError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found", "view": "catalog"})
	case errors.Is(err, ErrNoSession):
		c.JSON(http.StatusConflict, gin.H{"error": "no open book", "view": "catalog"})
	case errors.Is(err, ErrUnsupportedFormat):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "view": "catalog"})
	case errors.Is(err, ErrWrongFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrBadLocator):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &renderErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": renderErr.Error(), "view": "catalog"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reader failed"})
	}
}
