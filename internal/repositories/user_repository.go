package repositories

import (
	"context"
	"time"

	"taskpilot/backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id, name, initials string) error
}

type userRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(128)"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	AvatarURL string
	Initials  string `gorm:"type:varchar(8)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRecord) TableName() string { return "users" }

func decodeUser(rec *userRecord) models.User {
	return models.User{
		ID:        rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		AvatarURL: rec.AvatarURL,
		Initials:  rec.Initials,
	}
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) List(ctx context.Context) ([]models.User, error) {
	var records []userRecord
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&records).Error; err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(records))
	for i := range records {
		users = append(users, decodeUser(&records[i]))
	}
	return users, nil
}

func (r *GormUserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translateError(err)
	}
	user := decodeUser(&rec)
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		return nil, translateError(err)
	}
	user := decodeUser(&rec)
	return &user, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	rec := userRecord{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Initials:  user.Initials,
	}
	return translateError(r.db.WithContext(ctx).Create(&rec).Error)
}

func (r *GormUserRepository) UpdateProfile(ctx context.Context, id, name, initials string) error {
	result := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":       name,
		"initials":   initials,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
