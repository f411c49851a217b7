package importer

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	Importer *Importer
}

func NewHandler(im *Importer) *Handler {
	return &Handler{Importer: im}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/books", h.importBatch)
}

// importBatch accepts multipart uploads under the "files" field. Every
// file is handled independently; a read failure is reported per file,
// never swallowed and never fatal to the batch.
func (h *Handler) importBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	files := make([]File, 0, len(headers))
	failed := make([]Result, 0)
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			failed = append(failed, Result{Filename: fh.Filename, Error: "read failed: " + err.Error()})
			continue
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			failed = append(failed, Result{Filename: fh.Filename, Error: "read failed: " + err.Error()})
			continue
		}
		files = append(files, File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	results := h.Importer.Import(c.Request.Context(), files)
	results = append(results, failed...)

	c.JSON(http.StatusOK, gin.H{
		"batch_id": uuid.NewString(),
		"results":  results,
	})
}
