package services

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"taskpilot/backend/internal/models"

	"golang.org/x/sync/errgroup"
)

type StatusCount struct {
	Status models.TaskStatus `json:"status"`
	Count  int               `json:"count"`
}

type ProjectDistribution struct {
	ProjectID  string `json:"projectId"`
	Name       string `json:"name"`
	Todo       int    `json:"todo"`
	InProgress int    `json:"inProgress"`
	Done       int    `json:"done"`
}

type Summary struct {
	TotalProjects       int                   `json:"totalProjects"`
	TotalTasks          int                   `json:"totalTasks"`
	CompletedTasks      int                   `json:"completedTasks"`
	InProgressTasks     int                   `json:"inProgressTasks"`
	OverdueTasks        int                   `json:"overdueTasks"`
	CompletionRate      int                   `json:"completionRate"`
	StatusBreakdown     []StatusCount         `json:"statusBreakdown"`
	ProjectDistribution []ProjectDistribution `json:"projectDistribution"`
}

type ProjectActivity struct {
	models.Activity
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
}

type Report struct {
	Project      models.Project            `json:"project"`
	StatusCounts map[models.TaskStatus]int `json:"statusCounts"`
	OverdueTasks int                       `json:"overdueTasks"`
}

type ProjectHit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TaskHit struct {
	ProjectID   string            `json:"projectId"`
	ProjectName string            `json:"projectName"`
	TaskID      string            `json:"taskId"`
	Title       string            `json:"title"`
	Status      models.TaskStatus `json:"status"`
}

type SearchResults struct {
	Projects []ProjectHit  `json:"projects"`
	Tasks    []TaskHit     `json:"tasks"`
	Users    []models.User `json:"users"`
}

type AnalyticsService interface {
	Summary(ctx context.Context) Summary
	RecentActivity(ctx context.Context, limit int) []ProjectActivity
	ProjectReport(ctx context.Context, id string) (*Report, bool)
	Search(ctx context.Context, query string) SearchResults
}

type AnalyticsServiceImpl struct {
	projects ProjectService
	users    UserService
	cache    ViewCache
	ttl      time.Duration
	now      func() time.Time
}

func NewAnalyticsService(projects ProjectService, users UserService) *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{projects: projects, users: users, now: time.Now}
}

// WithCache keeps the computed summary in the dashboard view for ttl.
func (s *AnalyticsServiceImpl) WithCache(c ViewCache, ttl time.Duration) *AnalyticsServiceImpl {
	s.cache = c
	s.ttl = ttl
	return s
}

func (s *AnalyticsServiceImpl) loadSummary(ctx context.Context) (Summary, error) {
	projects, err := s.projects.FetchProjects(ctx)
	if err != nil {
		return Summary{}, err
	}
	return summarize(projects, s.now()), nil
}

func (s *AnalyticsServiceImpl) Summary(ctx context.Context) Summary {
	var summary Summary
	var err error
	if s.cache != nil {
		summary, err = readThrough(ctx, s.cache, summaryKey, s.ttl, s.loadSummary)
	} else {
		summary, err = s.loadSummary(ctx)
	}
	if err != nil {
		log.Printf("Error computing analytics summary: %v", err)
		return summarize(nil, s.now())
	}
	return summary
}

// Warm recomputes the cached dashboard summary.
func (s *AnalyticsServiceImpl) Warm(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	summary, err := s.loadSummary(ctx)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, summaryKey, summary, s.ttl)
}

func summarize(projects []models.Project, now time.Time) Summary {
	summary := Summary{
		TotalProjects:       len(projects),
		ProjectDistribution: make([]ProjectDistribution, 0, len(projects)),
	}

	byStatus := make(map[models.TaskStatus]int, len(models.TaskStatuses))
	for i := range projects {
		p := &projects[i]
		counts := p.StatusCounts()
		for status, n := range counts {
			byStatus[status] += n
		}
		for _, t := range p.Tasks {
			if t.IsOverdue(now) {
				summary.OverdueTasks++
			}
		}
		summary.TotalTasks += len(p.Tasks)
		summary.ProjectDistribution = append(summary.ProjectDistribution, ProjectDistribution{
			ProjectID:  p.ID,
			Name:       p.Name,
			Todo:       counts[models.StatusTodo],
			InProgress: counts[models.StatusInProgress],
			Done:       counts[models.StatusDone],
		})
	}

	summary.CompletedTasks = byStatus[models.StatusDone]
	summary.InProgressTasks = byStatus[models.StatusInProgress]
	if summary.TotalTasks > 0 {
		summary.CompletionRate = percentOf(summary.CompletedTasks, summary.TotalTasks)
	}

	summary.StatusBreakdown = make([]StatusCount, 0, len(models.TaskStatuses))
	for _, status := range models.TaskStatuses {
		summary.StatusBreakdown = append(summary.StatusBreakdown, StatusCount{Status: status, Count: byStatus[status]})
	}
	return summary
}

func percentOf(part, total int) int {
	return int(math.Round(100 * float64(part) / float64(total)))
}

// RecentActivity returns activities across all projects, newest first.
func (s *AnalyticsServiceImpl) RecentActivity(ctx context.Context, limit int) []ProjectActivity {
	var all []ProjectActivity
	for _, p := range s.projects.ListProjects(ctx) {
		for _, a := range p.Activities {
			all = append(all, ProjectActivity{Activity: a, ProjectID: p.ID, ProjectName: p.Name})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []ProjectActivity{}
	}
	return all
}

func (s *AnalyticsServiceImpl) ProjectReport(ctx context.Context, id string) (*Report, bool) {
	project, ok := s.projects.GetProject(ctx, id)
	if !ok {
		return nil, false
	}

	now := s.now()
	overdue := 0
	for _, t := range project.Tasks {
		if t.IsOverdue(now) {
			overdue++
		}
	}

	return &Report{
		Project:      *project,
		StatusCounts: project.StatusCounts(),
		OverdueTasks: overdue,
	}, true
}

// Search matches query case-insensitively against project names, task
// titles and team members' names and emails.
func (s *AnalyticsServiceImpl) Search(ctx context.Context, query string) SearchResults {
	var projects []models.Project
	var users []models.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		projects = s.projects.ListProjects(gctx)
		return nil
	})
	g.Go(func() error {
		users = s.users.ListUsers(gctx)
		return nil
	})
	_ = g.Wait()

	q := strings.ToLower(strings.TrimSpace(query))
	matches := func(fields ...string) bool {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	}

	results := SearchResults{
		Projects: []ProjectHit{},
		Tasks:    []TaskHit{},
		Users:    []models.User{},
	}
	for _, p := range projects {
		if matches(p.Name) {
			results.Projects = append(results.Projects, ProjectHit{ID: p.ID, Name: p.Name})
		}
		for _, t := range p.Tasks {
			if matches(t.Title) {
				results.Tasks = append(results.Tasks, TaskHit{
					ProjectID:   p.ID,
					ProjectName: p.Name,
					TaskID:      t.ID,
					Title:       t.Title,
					Status:      t.Status,
				})
			}
		}
	}
	for _, u := range users {
		if matches(u.Name, u.Email) {
			results.Users = append(results.Users, u)
		}
	}
	return results
}
