package handlers

import (
	"errors"
	"net/http"

	"taskpilot/backend/internal/monitoring"
	"taskpilot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	files         services.FileService
	maxUploadSize int64
}

func NewFileHandler(files services.FileService, maxUploadSize int64) *FileHandler {
	return &FileHandler{files: files, maxUploadSize: maxUploadSize}
}

// UploadFile accepts a multipart form with a single "file" field.
func (h *FileHandler) UploadFile(c *gin.Context) {
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided for upload."})
		return
	}

	body, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer body.Close()

	meta, err := h.files.UploadFile(c.Request.Context(), c.Param("id"), services.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	monitoring.FilesUploaded.Inc()

	c.JSON(http.StatusCreated, meta)
}
