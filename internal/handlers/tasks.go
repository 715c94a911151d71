package handlers

import (
	"net/http"
	"time"

	"taskpilot/backend/internal/models"
	"taskpilot/backend/internal/monitoring"
	"taskpilot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	tasks services.TaskService
	users services.UserService
}

func NewTaskHandler(tasks services.TaskService, users services.UserService) *TaskHandler {
	return &TaskHandler{tasks: tasks, users: users}
}

// assigneeFor looks up the directory record to copy onto the task.
func (h *TaskHandler) assigneeFor(c *gin.Context, id string) (*models.User, bool) {
	if id == "" {
		return nil, true
	}
	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return user, true
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := currentActor(c, h.users)
	if !ok {
		return
	}

	var input struct {
		Title      string              `json:"title" binding:"required"`
		Priority   models.TaskPriority `json:"priority"`
		Status     models.TaskStatus   `json:"status"`
		DueDate    *time.Time          `json:"dueDate"`
		AssigneeID string              `json:"assigneeId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignee, ok := h.assigneeFor(c, input.AssigneeID)
	if !ok {
		return
	}

	task, err := h.tasks.AddTask(c.Request.Context(), c.Param("id"), services.NewTaskInput{
		Title:    input.Title,
		Priority: input.Priority,
		Status:   input.Status,
		DueDate:  input.DueDate,
		Assignee: assignee,
	}, actor)
	monitoring.TaskWrites.WithLabelValues("create", monitoring.ResultLabel(err, services.ErrConflict)).Inc()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := currentActor(c, h.users)
	if !ok {
		return
	}

	var input struct {
		Title      string              `json:"title" binding:"required"`
		Priority   models.TaskPriority `json:"priority" binding:"required"`
		Status     models.TaskStatus   `json:"status" binding:"required"`
		DueDate    *time.Time          `json:"dueDate"`
		AssigneeID string              `json:"assigneeId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignee, ok := h.assigneeFor(c, input.AssigneeID)
	if !ok {
		return
	}

	updated := models.Task{
		ID:       c.Param("task_id"),
		Title:    input.Title,
		Status:   input.Status,
		Priority: input.Priority,
		DueDate:  input.DueDate,
		Assignee: assignee,
	}
	err := h.tasks.UpdateTask(c.Request.Context(), c.Param("id"), updated, actor)
	monitoring.TaskWrites.WithLabelValues("update", monitoring.ResultLabel(err, services.ErrConflict)).Inc()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task updated successfully"})
}
