package site

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store interface {
	GetWebsiteName(ctx context.Context) (string, error)
	SetWebsiteName(ctx context.Context, name string) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetWebsiteName(ctx context.Context) (string, error) {
	var setting Setting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", websiteNameKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultWebsiteName, nil
		}
		return "", err
	}
	return setting.Value, nil
}

func (s *GormStore) SetWebsiteName(ctx context.Context, name string) error {
	setting := Setting{Key: websiteNameKey, Value: name}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&setting).Error
}
