package handlers_test

import (
	"context"
	"io"

	"taskpilot/backend/internal/ai"
	"taskpilot/backend/internal/models"
	"taskpilot/backend/internal/services"
)

type MockProjectService struct {
	projects    map[string]models.Project
	created     []services.ProjectInput
	createdWith [][]models.Task
	err         error
}

func newMockProjectService() *MockProjectService {
	return &MockProjectService{projects: map[string]models.Project{}}
}

func (m *MockProjectService) FetchProjects(ctx context.Context) ([]models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ListProjects(ctx), nil
}

func (m *MockProjectService) ListProjects(ctx context.Context) []models.Project {
	out := []models.Project{}
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out
}

func (m *MockProjectService) GetProject(ctx context.Context, id string) (*models.Project, bool) {
	p, ok := m.projects[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (m *MockProjectService) CreateProject(ctx context.Context, input services.ProjectInput, tasks []models.Task, owner models.User) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.created = append(m.created, input)
	m.createdWith = append(m.createdWith, tasks)
	id := "p-new"
	m.projects[id] = models.Project{ID: id, Name: input.Name, Owner: owner, Tasks: tasks}
	return id, nil
}

func (m *MockProjectService) UpdateProject(ctx context.Context, id string, input services.ProjectInput) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.projects[id]; !ok {
		return services.ErrProjectNotFound
	}
	return nil
}

func (m *MockProjectService) DeleteProject(ctx context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return services.ErrProjectNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *MockProjectService) AddFileRecord(ctx context.Context, id string, file models.FileMetadata) error {
	return nil
}

type MockTaskService struct {
	added   []services.NewTaskInput
	updated []models.Task
	actor   models.User
	err     error
}

func (m *MockTaskService) AddTask(ctx context.Context, projectID string, input services.NewTaskInput, actor models.User) (models.Task, error) {
	if m.err != nil {
		return models.Task{}, m.err
	}
	m.added = append(m.added, input)
	m.actor = actor
	return models.Task{ID: "t-new", Title: input.Title, Status: models.StatusTodo, Priority: models.PriorityMedium, Assignee: input.Assignee}, nil
}

func (m *MockTaskService) UpdateTask(ctx context.Context, projectID string, updated models.Task, actor models.User) error {
	if m.err != nil {
		return m.err
	}
	m.updated = append(m.updated, updated)
	m.actor = actor
	return nil
}

type MockUserService struct {
	users   map[string]models.User
	ensured []models.Identity
	err     error
}

func newMockUserService(users ...models.User) *MockUserService {
	m := &MockUserService{users: map[string]models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *MockUserService) FetchUsers(ctx context.Context) ([]models.User, error) {
	return m.ListUsers(ctx), nil
}

func (m *MockUserService) ListUsers(ctx context.Context) []models.User {
	out := []models.User{}
	for _, u := range m.users {
		out = append(out, u)
	}
	return out
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return &u, nil
}

func (m *MockUserService) AddUser(ctx context.Context, name, email string) (models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return models.User{}, services.ErrUserExists
		}
	}
	u := models.User{ID: "u-new", Name: name, Email: email}
	m.users[u.ID] = u
	return u, nil
}

func (m *MockUserService) EnsureUserOnLogin(ctx context.Context, identity models.Identity) error {
	if m.err != nil {
		return m.err
	}
	m.ensured = append(m.ensured, identity)
	if _, ok := m.users[identity.ExternalID]; !ok && identity.Email != "" {
		m.users[identity.ExternalID] = models.User{ID: identity.ExternalID, Name: identity.DisplayName, Email: identity.Email}
	}
	return nil
}

func (m *MockUserService) UpdateUserProfile(ctx context.Context, userID, name string) error {
	u, ok := m.users[userID]
	if !ok {
		return services.ErrUserNotFound
	}
	u.Name = name
	m.users[userID] = u
	return nil
}

type MockFileService struct {
	received []byte
	name     string
	err      error
}

func (m *MockFileService) UploadFile(ctx context.Context, projectID string, upload services.FileUpload) (models.FileMetadata, error) {
	if m.err != nil {
		return models.FileMetadata{}, m.err
	}
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return models.FileMetadata{}, err
	}
	m.received = data
	m.name = upload.Name
	return models.FileMetadata{Name: upload.Name, Type: upload.ContentType, Size: services.FormatBytes(int64(len(data))), URL: "http://files/" + upload.Name}, nil
}

type MockAnalyticsService struct {
	projects *MockProjectService
	query    string
	limit    int
}

func (m *MockAnalyticsService) Summary(ctx context.Context) services.Summary {
	return services.Summary{TotalProjects: len(m.projects.projects)}
}

func (m *MockAnalyticsService) RecentActivity(ctx context.Context, limit int) []services.ProjectActivity {
	m.limit = limit
	return []services.ProjectActivity{}
}

func (m *MockAnalyticsService) ProjectReport(ctx context.Context, id string) (*services.Report, bool) {
	p, ok := m.projects.GetProject(ctx, id)
	if !ok {
		return nil, false
	}
	return &services.Report{Project: *p, StatusCounts: p.StatusCounts()}, true
}

func (m *MockAnalyticsService) Search(ctx context.Context, query string) services.SearchResults {
	m.query = query
	return services.SearchResults{Projects: []services.ProjectHit{}, Tasks: []services.TaskHit{}, Users: []models.User{}}
}

type MockAssistant struct {
	tasks ai.TaskSuggestions
	err   error
}

func (m *MockAssistant) GenerateTasksForProject(ctx context.Context, description string) (ai.TaskSuggestions, error) {
	return m.tasks, m.err
}

func (m *MockAssistant) GenerateProjectOutline(ctx context.Context, description string) (ai.ProjectOutline, error) {
	if m.err != nil {
		return ai.ProjectOutline{}, m.err
	}
	return ai.ProjectOutline{Outline: "outline for " + description}, nil
}

func (m *MockAssistant) SummarizeProgressNotes(ctx context.Context, notes string) (ai.ProgressSummary, error) {
	if m.err != nil {
		return ai.ProgressSummary{}, m.err
	}
	return ai.ProgressSummary{Summary: "summary"}, nil
}
