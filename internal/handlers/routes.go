package handlers

import "github.com/gin-gonic/gin"

type Handlers struct {
	Projects  *ProjectHandler
	Tasks     *TaskHandler
	Files     *FileHandler
	Users     *UserHandler
	Analytics *AnalyticsHandler
	AI        *AIHandler
	Auth      *AuthHandler
}

// RegisterRoutes mounts the API under /api/v1. Every route except the
// development token endpoint requires authentication.
func RegisterRoutes(router gin.IRouter, h Handlers, authenticate gin.HandlerFunc, devTokens bool) {
	api := router.Group("/api/v1")

	if devTokens {
		api.POST("/auth/dev-token", h.Auth.DevToken)
	}

	protected := api.Group("")
	protected.Use(authenticate)

	protected.POST("/auth/session", h.Auth.Session)

	protected.GET("/projects", h.Projects.ListProjects)
	protected.POST("/projects", h.Projects.CreateProject)
	protected.GET("/projects/:id", h.Projects.GetProject)
	protected.PUT("/projects/:id", h.Projects.UpdateProject)
	protected.DELETE("/projects/:id", h.Projects.DeleteProject)
	protected.GET("/projects/:id/report", h.Projects.GetProjectReport)

	protected.POST("/projects/:id/tasks", h.Tasks.CreateTask)
	protected.PUT("/projects/:id/tasks/:task_id", h.Tasks.UpdateTask)

	protected.POST("/projects/:id/files", h.Files.UploadFile)

	protected.GET("/users", h.Users.ListUsers)
	protected.POST("/users", h.Users.AddUser)
	protected.GET("/users/me", h.Users.GetCurrentUser)
	protected.PUT("/users/me", h.Users.UpdateCurrentUser)

	protected.GET("/analytics", h.Analytics.GetAnalytics)
	protected.GET("/dashboard", h.Analytics.GetDashboard)
	protected.GET("/search", h.Analytics.Search)

	protected.POST("/ai/outline", h.AI.GenerateOutline)
	protected.POST("/ai/tasks", h.AI.GenerateTasks)
	protected.POST("/ai/summary", h.AI.SummarizeNotes)
}
