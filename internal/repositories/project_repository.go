package repositories

import (
	"context"
	"errors"
	"time"

	"taskpilot/backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	List(ctx context.Context) ([]models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	UpdateMetadata(ctx context.Context, id, name, progressNotes string, deadline time.Time) error
	Delete(ctx context.Context, id string) error
	AppendFile(ctx context.Context, id string, file models.FileMetadata) error
	SaveTaskChanges(ctx context.Context, project *models.Project) error
}

// projectRecord is the stored shape of a project. Tasks, activities and
// files are embedded JSON documents, so a row is the unit of consistency.
type projectRecord struct {
	ID                   string                                  `gorm:"primaryKey;type:varchar(64)"`
	Name                 string                                  `gorm:"not null"`
	Owner                datatypes.JSONType[models.User]         `gorm:"not null"`
	Deadline             time.Time                               `gorm:"not null"`
	ProgressNotes        string                                  `gorm:"type:text"`
	CompletionPercentage int                                     `gorm:"not null;default:0"`
	Tasks                datatypes.JSONSlice[models.Task]        `gorm:"not null"`
	Activities           datatypes.JSONSlice[models.Activity]    `gorm:"not null"`
	Files                datatypes.JSONSlice[models.FileMetadata] `gorm:"not null"`
	Version              int64                                   `gorm:"not null;default:1"`
	FilesVersion         int64                                   `gorm:"not null;default:1"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (projectRecord) TableName() string { return "projects" }

func encodeProject(p *models.Project) projectRecord {
	return projectRecord{
		ID:                   p.ID,
		Name:                 p.Name,
		Owner:                datatypes.NewJSONType(p.Owner),
		Deadline:             p.Deadline.UTC(),
		ProgressNotes:        p.ProgressNotes,
		CompletionPercentage: p.CompletionPercentage,
		Tasks:                datatypes.JSONSlice[models.Task](nonNil(p.Tasks)),
		Activities:           datatypes.JSONSlice[models.Activity](nonNil(p.Activities)),
		Files:                datatypes.JSONSlice[models.FileMetadata](nonNil(p.Files)),
		Version:              p.Version,
		FilesVersion:         1,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

// decodeProject is the only place a stored row becomes a models.Project.
func decodeProject(rec *projectRecord) models.Project {
	return models.Project{
		ID:                   rec.ID,
		Name:                 rec.Name,
		Owner:                rec.Owner.Data(),
		Deadline:             rec.Deadline.UTC(),
		ProgressNotes:        rec.ProgressNotes,
		CompletionPercentage: rec.CompletionPercentage,
		Tasks:                nonNil([]models.Task(rec.Tasks)),
		Activities:           nonNil([]models.Activity(rec.Activities)),
		Files:                nonNil([]models.FileMetadata(rec.Files)),
		Version:              rec.Version,
		CreatedAt:            rec.CreatedAt.UTC(),
		UpdatedAt:            rec.UpdatedAt.UTC(),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type GormProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

func (r *GormProjectRepository) List(ctx context.Context) ([]models.Project, error) {
	var records []projectRecord
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&records).Error; err != nil {
		return nil, err
	}

	projects := make([]models.Project, 0, len(records))
	for i := range records {
		projects = append(projects, decodeProject(&records[i]))
	}
	return projects, nil
}

func (r *GormProjectRepository) Get(ctx context.Context, id string) (*models.Project, error) {
	var rec projectRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translateError(err)
	}
	project := decodeProject(&rec)
	return &project, nil
}

func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	project.Version = 1
	project.CreatedAt = now
	project.UpdatedAt = now

	rec := encodeProject(project)
	return translateError(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *GormProjectRepository) UpdateMetadata(ctx context.Context, id, name, progressNotes string, deadline time.Time) error {
	result := r.db.WithContext(ctx).Model(&projectRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":           name,
		"progress_notes": progressNotes,
		"deadline":       deadline.UTC(),
		"updated_at":     time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormProjectRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&projectRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

const appendFileAttempts = 3

// AppendFile adds file to the project's file list. The list carries its own
// version, so uploads never conflict with task or metadata writes; a race
// between two uploads is retried since appends commute.
func (r *GormProjectRepository) AppendFile(ctx context.Context, id string, file models.FileMetadata) error {
	var err error
	for attempt := 0; attempt < appendFileAttempts; attempt++ {
		var rec projectRecord
		if err = r.db.WithContext(ctx).Select("id", "files", "files_version").Where("id = ?", id).First(&rec).Error; err != nil {
			return translateError(err)
		}

		// Appending an identical record is a no-op, matching set-union semantics.
		for _, existing := range rec.Files {
			if existing == file {
				return nil
			}
		}

		files := append(nonNil([]models.FileMetadata(rec.Files)), file)
		_, err = r.conditionalUpdate(ctx, id, "files_version", rec.FilesVersion, map[string]interface{}{
			"files": datatypes.JSONSlice[models.FileMetadata](files),
		})
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}
	}
	return err
}

// SaveTaskChanges writes tasks, completion percentage and activities in one
// statement, guarded by the version the project was read at.
func (r *GormProjectRepository) SaveTaskChanges(ctx context.Context, project *models.Project) error {
	now, err := r.conditionalUpdate(ctx, project.ID, "version", project.Version, map[string]interface{}{
		"tasks":                 datatypes.JSONSlice[models.Task](nonNil(project.Tasks)),
		"activities":            datatypes.JSONSlice[models.Activity](nonNil(project.Activities)),
		"completion_percentage": project.CompletionPercentage,
	})
	if err != nil {
		return err
	}

	project.Version++
	project.UpdatedAt = now
	return nil
}

// conditionalUpdate applies fields only if versionColumn still holds
// version, and bumps it.
func (r *GormProjectRepository) conditionalUpdate(ctx context.Context, id, versionColumn string, version int64, fields map[string]interface{}) (time.Time, error) {
	now := time.Now().UTC()
	fields[versionColumn] = gorm.Expr(versionColumn + " + 1")
	fields["updated_at"] = now

	result := r.db.WithContext(ctx).Model(&projectRecord{}).
		Where("id = ? AND "+versionColumn+" = ?", id, version).
		Updates(fields)
	if result.Error != nil {
		return now, result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&projectRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return now, err
		}
		if count == 0 {
			return now, ErrNotFound
		}
		return now, ErrVersionConflict
	}
	return now, nil
}
