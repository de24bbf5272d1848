// Package settings is the persisted key/value config store. Recognized keys
// are seeded at migration time; values are free text interpreted by the
// typed getters.
package settings

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/models"
)

type Store struct {
	DB *gorm.DB
}

func (s *Store) Get(ctx context.Context, key, def string) string {
	var setting models.Setting
	err := s.DB.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		return def
	}
	if setting.Value == "" {
		return def
	}
	return setting.Value
}

func (s *Store) GetInt(ctx context.Context, key string, def int) int {
	v := s.Get(ctx, key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (s *Store) GetBool(ctx context.Context, key string, def bool) bool {
	switch s.Get(ctx, key, "") {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	var setting models.Setting
	err := s.DB.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.DB.WithContext(ctx).Create(&models.Setting{Key: key, Value: value}).Error
	}
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(&setting).Update("value", value).Error
}

func (s *Store) All(ctx context.Context) ([]models.Setting, error) {
	var list []models.Setting
	if err := s.DB.WithContext(ctx).Order("key ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
