package services

import (
	"context"
	"log"
	"time"

	"taskpilot/backend/internal/cache"
	"taskpilot/backend/internal/models"
)

// ViewCache is the read side of the view cache.
type ViewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

var (
	projectListKey = cache.ViewKey(cache.ViewProjects, "all")
	teamKey        = cache.ViewKey(cache.ViewTeam, "all")
	summaryKey     = cache.ViewKey(cache.ViewDashboard, "summary")
)

func projectKey(id string) string {
	return cache.ViewKey(cache.ProjectView(id), "detail")
}

func profileKey(userID string) string {
	return cache.ViewKey(cache.SettingsView(userID), "profile")
}

// readThrough serves key from c, or loads and stores it. Load errors are
// returned and never cached.
func readThrough[T any](ctx context.Context, c ViewCache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if err := c.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		log.Printf("cache: failed to store %s: %v", key, err)
	}
	return value, nil
}

// CachedProjectService serves project reads from the view cache. Writes go
// straight to the wrapped service, which invalidates the affected views.
type CachedProjectService struct {
	ProjectService
	cache      ViewCache
	listTTL    time.Duration
	projectTTL time.Duration
}

func NewCachedProjectService(inner ProjectService, c ViewCache, listTTL, projectTTL time.Duration) *CachedProjectService {
	return &CachedProjectService{
		ProjectService: inner,
		cache:          c,
		listTTL:        listTTL,
		projectTTL:     projectTTL,
	}
}

func (s *CachedProjectService) FetchProjects(ctx context.Context) ([]models.Project, error) {
	return readThrough(ctx, s.cache, projectListKey, s.listTTL, s.ProjectService.FetchProjects)
}

func (s *CachedProjectService) ListProjects(ctx context.Context) []models.Project {
	projects, err := s.FetchProjects(ctx)
	if err != nil {
		log.Printf("Error fetching projects: %v", err)
		return []models.Project{}
	}
	return projects
}

func (s *CachedProjectService) GetProject(ctx context.Context, id string) (*models.Project, bool) {
	project, err := readThrough(ctx, s.cache, projectKey(id), s.projectTTL, func(ctx context.Context) (*models.Project, error) {
		p, ok := s.ProjectService.GetProject(ctx, id)
		if !ok {
			return nil, ErrProjectNotFound
		}
		return p, nil
	})
	if err != nil || project == nil {
		return nil, false
	}
	return project, true
}

// Warm rebuilds the cached project list.
func (s *CachedProjectService) Warm(ctx context.Context) error {
	projects, err := s.ProjectService.FetchProjects(ctx)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, projectListKey, projects, s.listTTL)
}

type CachedUserService struct {
	UserService
	cache ViewCache
	ttl   time.Duration
}

func NewCachedUserService(inner UserService, c ViewCache, ttl time.Duration) *CachedUserService {
	return &CachedUserService{UserService: inner, cache: c, ttl: ttl}
}

func (s *CachedUserService) FetchUsers(ctx context.Context) ([]models.User, error) {
	return readThrough(ctx, s.cache, teamKey, s.ttl, s.UserService.FetchUsers)
}

func (s *CachedUserService) ListUsers(ctx context.Context) []models.User {
	users, err := s.FetchUsers(ctx)
	if err != nil {
		log.Printf("Error fetching users: %v", err)
		return []models.User{}
	}
	return users
}

func (s *CachedUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return readThrough(ctx, s.cache, profileKey(id), s.ttl, func(ctx context.Context) (*models.User, error) {
		return s.UserService.GetUser(ctx, id)
	})
}
