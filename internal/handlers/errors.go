package handlers

import (
	"errors"
	"log"
	"net/http"

	"taskpilot/backend/internal/ai"
	"taskpilot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// handleServiceError maps service sentinels onto HTTP statuses.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
	case errors.Is(err, services.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, services.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists."})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "project was modified concurrently, reload and try again"})
	case errors.Is(err, services.ErrInvalidTask), errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ai.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ai.ErrInvalidResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": "the assistant returned an unusable response"})
	case errors.Is(err, ai.ErrUpstream):
		log.Printf("AI request failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "the assistant is unavailable, try again later"})
	case errors.Is(err, ai.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI features are not configured"})
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
	}
}
