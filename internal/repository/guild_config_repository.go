//go:generate mockery --name GuildConfigRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"

	"gorm.io/gorm"
)

// GuildConfigRepository インターフェース
type GuildConfigRepository interface {
	Find(ctx context.Context, db *gorm.DB, guildID string) (*model.GuildConfig, error)
	Save(ctx context.Context, tx *gorm.DB, cfg *model.GuildConfig) error
	FindAll(ctx context.Context, db *gorm.DB) ([]*model.GuildConfig, error)
}

type gormGuildConfigRepository struct{}

func NewGormGuildConfigRepository() GuildConfigRepository {
	return &gormGuildConfigRepository{}
}

func (r *gormGuildConfigRepository) Find(ctx context.Context, db *gorm.DB, guildID string) (*model.GuildConfig, error) {
	logger := middleware.GetLogger(ctx)
	var cfg model.GuildConfig
	result := db.WithContext(ctx).Where("guild_id = ?", guildID).First(&cfg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding guild config in DB",
			"error", result.Error,
			"guild_id", guildID,
		)
		return nil, fmt.Errorf("gormGuildConfigRepository.Find: %w", result.Error)
	}
	return &cfg, nil
}

func (r *gormGuildConfigRepository) Save(ctx context.Context, tx *gorm.DB, cfg *model.GuildConfig) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Save(cfg)
	if result.Error != nil {
		logger.Error("Error saving guild config in DB",
			"error", result.Error,
			"guild_id", cfg.GuildID,
		)
		return fmt.Errorf("gormGuildConfigRepository.Save: %w", result.Error)
	}
	return nil
}

func (r *gormGuildConfigRepository) FindAll(ctx context.Context, db *gorm.DB) ([]*model.GuildConfig, error) {
	logger := middleware.GetLogger(ctx)
	var cfgs []*model.GuildConfig
	result := db.WithContext(ctx).Order("guild_id ASC").Find(&cfgs)
	if result.Error != nil {
		logger.Error("Error listing guild configs in DB", "error", result.Error)
		return nil, fmt.Errorf("gormGuildConfigRepository.FindAll: %w", result.Error)
	}
	return cfgs, nil
}
