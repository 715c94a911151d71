package handlers

import (
	"context"
	"net/http"

	"taskpilot/backend/internal/ai"
	"taskpilot/backend/internal/monitoring"

	"github.com/gin-gonic/gin"
)

type Assistant interface {
	TaskGenerator
	GenerateProjectOutline(ctx context.Context, description string) (ai.ProjectOutline, error)
	SummarizeProgressNotes(ctx context.Context, notes string) (ai.ProgressSummary, error)
}

type AIHandler struct {
	assistant Assistant
}

func NewAIHandler(assistant Assistant) *AIHandler {
	return &AIHandler{assistant: assistant}
}

type promptInput struct {
	Text string `json:"text" binding:"required"`
}

func bindPrompt(c *gin.Context) (string, bool) {
	var input promptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return input.Text, true
}

func respondAI(c *gin.Context, flow string, result interface{}, err error) {
	monitoring.AIRequests.WithLabelValues(flow, monitoring.ResultLabel(err, nil)).Inc()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AIHandler) GenerateOutline(c *gin.Context) {
	text, ok := bindPrompt(c)
	if !ok {
		return
	}
	out, err := h.assistant.GenerateProjectOutline(c.Request.Context(), text)
	respondAI(c, "outline", out, err)
}

func (h *AIHandler) GenerateTasks(c *gin.Context) {
	text, ok := bindPrompt(c)
	if !ok {
		return
	}
	out, err := h.assistant.GenerateTasksForProject(c.Request.Context(), text)
	respondAI(c, "tasks", out, err)
}

func (h *AIHandler) SummarizeNotes(c *gin.Context) {
	text, ok := bindPrompt(c)
	if !ok {
		return
	}
	out, err := h.assistant.SummarizeProgressNotes(c.Request.Context(), text)
	respondAI(c, "summary", out, err)
}
