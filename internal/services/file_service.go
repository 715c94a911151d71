package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"path"
	"strconv"
	"strings"

	"taskpilot/backend/internal/models"
	"taskpilot/backend/internal/storage"
)

type FileUpload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type FileService interface {
	UploadFile(ctx context.Context, projectID string, upload FileUpload) (models.FileMetadata, error)
}

type FileServiceImpl struct {
	store    storage.ObjectStore
	projects ProjectService
}

func NewFileService(store storage.ObjectStore, projects ProjectService) *FileServiceImpl {
	return &FileServiceImpl{store: store, projects: projects}
}

// UploadFile stores the file under the project's prefix and records its
// metadata on the project.
func (s *FileServiceImpl) UploadFile(ctx context.Context, projectID string, upload FileUpload) (models.FileMetadata, error) {
	name := path.Base(strings.ReplaceAll(upload.Name, "\\", "/"))
	if upload.Body == nil || name == "." || name == "/" || name == ".." {
		return models.FileMetadata{}, fmt.Errorf("%w: no file provided for upload", ErrInvalidInput)
	}

	if _, ok := s.projects.GetProject(ctx, projectID); !ok {
		return models.FileMetadata{}, fmt.Errorf("file upload failed: %w", ErrProjectNotFound)
	}

	url, size, err := s.store.Put(ctx, storage.ProjectObjectKey(projectID, name), upload.Body)
	if err != nil {
		log.Printf("Error uploading file: %v", err)
		return models.FileMetadata{}, fmt.Errorf("file upload failed: %w", err)
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file := models.FileMetadata{
		Name: name,
		Type: contentType,
		Size: FormatBytes(size),
		URL:  url,
	}

	if err := s.projects.AddFileRecord(ctx, projectID, file); err != nil {
		return models.FileMetadata{}, fmt.Errorf("file upload failed: %w", err)
	}
	return file, nil
}

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatBytes renders a size with 1024-based units and at most two
// decimals, dropping trailing zeros: 1536 -> "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}

	value := float64(n)
	i := 0
	for value >= 1024 && i < len(byteUnits)-1 {
		value /= 1024
		i++
	}

	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + byteUnits[i]
}
