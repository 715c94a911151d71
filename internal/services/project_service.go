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
	"taskpilot/backend/internal/storage"
	"taskpilot/backend/internal/worker"
)

type ProjectInput struct {
	Name        string
	Description string
	Deadline    time.Time
}

type ProjectService interface {
	// FetchProjects is ListProjects with the backend error surfaced.
	FetchProjects(ctx context.Context) ([]models.Project, error)
	ListProjects(ctx context.Context) []models.Project
	GetProject(ctx context.Context, id string) (*models.Project, bool)
	CreateProject(ctx context.Context, input ProjectInput, initialTasks []models.Task, owner models.User) (string, error)
	UpdateProject(ctx context.Context, id string, input ProjectInput) error
	DeleteProject(ctx context.Context, id string) error
	AddFileRecord(ctx context.Context, id string, file models.FileMetadata) error
}

type ProjectServiceImpl struct {
	repo repositories.ProjectRepository
	viewRefresher
}

func NewProjectService(repo repositories.ProjectRepository, views cache.Invalidator, jobs worker.Enqueuer) *ProjectServiceImpl {
	return &ProjectServiceImpl{
		repo:          repo,
		viewRefresher: newViewRefresher(views, jobs),
	}
}

// withCompletion recomputes the derived percentage; the stored value is never trusted.
func withCompletion(p models.Project) models.Project {
	p.CompletionPercentage = CompletionPercentage(p.Tasks)
	return p
}

func (s *ProjectServiceImpl) FetchProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i] = withCompletion(projects[i])
	}
	return projects, nil
}

func (s *ProjectServiceImpl) ListProjects(ctx context.Context) []models.Project {
	projects, err := s.FetchProjects(ctx)
	if err != nil {
		log.Printf("Error fetching projects: %v", err)
		return []models.Project{}
	}
	return projects
}

func (s *ProjectServiceImpl) GetProject(ctx context.Context, id string) (*models.Project, bool) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Error fetching project %s: %v", id, err)
		}
		return nil, false
	}
	p := withCompletion(*project)
	return &p, true
}

func (s *ProjectServiceImpl) CreateProject(ctx context.Context, input ProjectInput, initialTasks []models.Task, owner models.User) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", fmt.Errorf("failed to create project: %w: name is required", ErrInvalidInput)
	}

	tasks := make([]models.Task, 0, len(initialTasks))
	for _, t := range initialTasks {
		if t.ID == "" {
			t.ID = newID()
		}
		if t.Status == "" {
			t.Status = models.StatusTodo
		}
		if t.Priority == "" {
			t.Priority = models.PriorityMedium
		}
		if err := validateTask(t); err != nil {
			return "", fmt.Errorf("failed to create project: %w", err)
		}
		tasks = append(tasks, t)
	}

	project := &models.Project{
		ID:                   newID(),
		Name:                 name,
		Owner:                owner,
		Deadline:             input.Deadline.UTC(),
		ProgressNotes:        input.Description,
		CompletionPercentage: CompletionPercentage(tasks),
		Tasks:                tasks,
		Activities:           []models.Activity{},
		Files:                []models.FileMetadata{},
	}

	if err := s.repo.Create(ctx, project); err != nil {
		log.Printf("Error adding project: %v", err)
		return "", fmt.Errorf("failed to create project: %w", err)
	}

	s.invalidateAndWarm(ctx, cache.ViewProjects, cache.ViewDashboard)
	return project.ID, nil
}

func (s *ProjectServiceImpl) UpdateProject(ctx context.Context, id string, input ProjectInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return fmt.Errorf("failed to update project: %w: name is required", ErrInvalidInput)
	}

	if err := s.repo.UpdateMetadata(ctx, id, name, input.Description, input.Deadline); err != nil {
		log.Printf("Error updating project %s: %v", id, err)
		return fmt.Errorf("failed to update project: %w", mapRepoError(err))
	}

	s.invalidateAndWarm(ctx, cache.ProjectView(id), cache.ViewProjects, cache.ViewDashboard)
	return nil
}

// DeleteProject removes the project and schedules removal of its stored files.
func (s *ProjectServiceImpl) DeleteProject(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Printf("Error deleting project %s: %v", id, err)
		return fmt.Errorf("failed to delete project: %w", mapRepoError(err))
	}

	s.invalidateAndWarm(ctx, cache.ViewProjects, cache.ViewDashboard, cache.ProjectView(id))
	s.enqueue(ctx, worker.QueueMaintenance, worker.JobTypeCleanupFiles,
		worker.CleanupFilesPayload(storage.ProjectPrefix(id)))
	return nil
}

func (s *ProjectServiceImpl) AddFileRecord(ctx context.Context, id string, file models.FileMetadata) error {
	if err := s.repo.AppendFile(ctx, id, file); err != nil {
		log.Printf("Error adding file to project %s: %v", id, err)
		return fmt.Errorf("failed to add file: %w", mapRepoError(err))
	}

	s.invalidate(ctx, cache.ProjectView(id))
	return nil
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrProjectNotFound
	case errors.Is(err, repositories.ErrVersionConflict):
		return ErrConflict
	default:
		return err
	}
}
