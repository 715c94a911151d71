package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"taskpilot/backend/internal/cache"
	"taskpilot/backend/internal/models"
	"taskpilot/backend/internal/repositories"
	"taskpilot/backend/internal/worker"
)

type NewTaskInput struct {
	Title    string
	Priority models.TaskPriority
	Status   models.TaskStatus
	DueDate  *time.Time
	Assignee *models.User
}

type TaskService interface {
	AddTask(ctx context.Context, projectID string, input NewTaskInput, actor models.User) (models.Task, error)
	UpdateTask(ctx context.Context, projectID string, updated models.Task, actor models.User) error
}

type TaskServiceImpl struct {
	repo repositories.ProjectRepository
	now  func() time.Time
	viewRefresher
}

func NewTaskService(repo repositories.ProjectRepository, views cache.Invalidator, jobs worker.Enqueuer) *TaskServiceImpl {
	return &TaskServiceImpl{
		repo:          repo,
		now:           func() time.Time { return time.Now().UTC() },
		viewRefresher: newViewRefresher(views, jobs),
	}
}

func validateTask(t models.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, t.Priority)
	}
	return nil
}

func (s *TaskServiceImpl) AddTask(ctx context.Context, projectID string, input NewTaskInput, actor models.User) (models.Task, error) {
	task := models.Task{
		ID:       newID(),
		Title:    strings.TrimSpace(input.Title),
		Status:   input.Status,
		Priority: input.Priority,
		DueDate:  utcPtr(input.DueDate),
		Assignee: input.Assignee,
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if err := validateTask(task); err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	project, err := s.load(ctx, projectID)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	project.Tasks = append(project.Tasks, task)
	project.CompletionPercentage = CompletionPercentage(project.Tasks)
	at := nextTimestamp(s.now(), project.Activities)
	project.Activities = append(project.Activities, newActivity(describeCreation(task), actor, at))

	if err := s.repo.SaveTaskChanges(ctx, project); err != nil {
		log.Printf("Error adding task to project %s: %v", projectID, err)
		return models.Task{}, fmt.Errorf("failed to create task: %w", mapRepoError(err))
	}

	s.invalidateAndWarm(ctx, cache.ProjectView(projectID), cache.ViewDashboard, cache.ViewProjects)
	return task, nil
}

// UpdateTask replaces the task with the same id in place and logs what changed.
func (s *TaskServiceImpl) UpdateTask(ctx context.Context, projectID string, updated models.Task, actor models.User) error {
	updated.Title = strings.TrimSpace(updated.Title)
	updated.DueDate = utcPtr(updated.DueDate)
	if err := validateTask(updated); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	project, err := s.load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	idx := project.TaskIndex(updated.ID)
	if idx < 0 {
		return fmt.Errorf("failed to update task: %w", ErrTaskNotFound)
	}

	original := project.Tasks[idx]
	project.Tasks[idx] = updated
	project.CompletionPercentage = CompletionPercentage(project.Tasks)
	at := nextTimestamp(s.now(), project.Activities)
	project.Activities = append(project.Activities, newActivity(describeChange(original, updated), actor, at))

	if err := s.repo.SaveTaskChanges(ctx, project); err != nil {
		log.Printf("Error updating task %s in project %s: %v", updated.ID, projectID, err)
		return fmt.Errorf("failed to update task: %w", mapRepoError(err))
	}

	s.invalidateAndWarm(ctx, cache.ProjectView(projectID), cache.ViewDashboard, cache.ViewProjects)
	return nil
}

func (s *TaskServiceImpl) load(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.repo.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		log.Printf("Error loading project %s: %v", projectID, err)
		return nil, err
	}
	return project, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
