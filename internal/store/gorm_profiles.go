package store

import (
	"context"
	"errors"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormProfileStore struct {
	db *gorm.DB
}

func NewGormProfileStore(db *gorm.DB) *GormProfileStore {
	return &GormProfileStore{db: db}
}

func (s *GormProfileStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormProfileStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	return s.db.WithContext(ctx).Create(p).Error
}
