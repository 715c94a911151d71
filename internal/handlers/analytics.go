package handlers

import (
	"net/http"
	"strconv"

	"taskpilot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

const recentActivityLimit = 5

type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.analytics.Summary(c.Request.Context()))
}

// GetDashboard returns the summary together with the latest activity feed.
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	limit := recentActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"summary":        h.analytics.Summary(ctx),
		"recentActivity": h.analytics.RecentActivity(ctx, limit),
	})
}

func (h *AnalyticsHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	c.JSON(http.StatusOK, h.analytics.Search(c.Request.Context(), query))
}
