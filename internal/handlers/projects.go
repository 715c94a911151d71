package handlers

import (
	"context"
	"net/http"
	"time"

	"taskpilot/backend/internal/ai"
	"taskpilot/backend/internal/models"
	"taskpilot/backend/internal/monitoring"
	"taskpilot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// TaskGenerator suggests initial tasks for a new project.
type TaskGenerator interface {
	GenerateTasksForProject(ctx context.Context, description string) (ai.TaskSuggestions, error)
}

type ProjectHandler struct {
	projects  services.ProjectService
	users     services.UserService
	analytics services.AnalyticsService
	generator TaskGenerator
}

func NewProjectHandler(projects services.ProjectService, users services.UserService, analytics services.AnalyticsService, generator TaskGenerator) *ProjectHandler {
	return &ProjectHandler{projects: projects, users: users, analytics: analytics, generator: generator}
}

type taskInput struct {
	Title    string              `json:"title" binding:"required"`
	Status   models.TaskStatus   `json:"status"`
	Priority models.TaskPriority `json:"priority"`
	DueDate  *time.Time          `json:"dueDate"`
}

type projectInput struct {
	Name          string      `json:"name" binding:"required"`
	Description   string      `json:"description"`
	Deadline      time.Time   `json:"deadline" binding:"required"`
	Tasks         []taskInput `json:"tasks"`
	GenerateTasks bool        `json:"generateTasks"`
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"projects": h.projects.ListProjects(c.Request.Context())})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, ok := h.projects.GetProject(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	owner, ok := currentActor(c, h.users)
	if !ok {
		return
	}

	var input projectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks := make([]models.Task, 0, len(input.Tasks))
	for _, t := range input.Tasks {
		tasks = append(tasks, models.Task{
			Title:    t.Title,
			Status:   t.Status,
			Priority: t.Priority,
			DueDate:  t.DueDate,
		})
	}

	if input.GenerateTasks {
		if h.generator == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI features are not configured"})
			return
		}
		suggestions, err := h.generator.GenerateTasksForProject(c.Request.Context(), input.Description)
		monitoring.AIRequests.WithLabelValues("tasks", monitoring.ResultLabel(err, nil)).Inc()
		if err != nil {
			handleServiceError(c, err)
			return
		}
		for _, s := range suggestions.Tasks {
			tasks = append(tasks, models.Task{
				Title:    s.Title,
				Status:   models.StatusTodo,
				Priority: s.Priority,
			})
		}
	}

	id, err := h.projects.CreateProject(c.Request.Context(), services.ProjectInput{
		Name:        input.Name,
		Description: input.Description,
		Deadline:    input.Deadline,
	}, tasks, owner)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	monitoring.ProjectsCreated.Inc()

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var input struct {
		Name        string    `json:"name" binding:"required"`
		Description string    `json:"description"`
		Deadline    time.Time `json:"deadline" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.projects.UpdateProject(c.Request.Context(), c.Param("id"), services.ProjectInput{
		Name:        input.Name,
		Description: input.Description,
		Deadline:    input.Deadline,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project updated successfully"})
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projects.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProjectHandler) GetProjectReport(c *gin.Context) {
	report, ok := h.analytics.ProjectReport(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}
