//go:generate mockery --name UserConfigRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserConfigRepository インターフェース
type UserConfigRepository interface {
	Find(ctx context.Context, db *gorm.DB, userID, guildID string) (*model.UserConfig, error)
	FindByGuild(ctx context.Context, db *gorm.DB, guildID string) ([]*model.UserConfig, error)
	Upsert(ctx context.Context, tx *gorm.DB, cfg *model.UserConfig) error
}

type gormUserConfigRepository struct{}

func NewGormUserConfigRepository() UserConfigRepository {
	return &gormUserConfigRepository{}
}

func (r *gormUserConfigRepository) Find(ctx context.Context, db *gorm.DB, userID, guildID string) (*model.UserConfig, error) {
	logger := middleware.GetLogger(ctx)
	var cfg model.UserConfig
	result := db.WithContext(ctx).Where("user_id = ? AND guild_id = ?", userID, guildID).First(&cfg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user config in DB",
			"error", result.Error,
			"user_id", userID,
			"guild_id", guildID,
		)
		return nil, fmt.Errorf("gormUserConfigRepository.Find: %w", result.Error)
	}
	return &cfg, nil
}

func (r *gormUserConfigRepository) FindByGuild(ctx context.Context, db *gorm.DB, guildID string) ([]*model.UserConfig, error) {
	logger := middleware.GetLogger(ctx)
	var cfgs []*model.UserConfig
	result := db.WithContext(ctx).Where("guild_id = ?", guildID).Order("user_id ASC").Find(&cfgs)
	if result.Error != nil {
		logger.Error("Error listing user configs in DB",
			"error", result.Error,
			"guild_id", guildID,
		)
		return nil, fmt.Errorf("gormUserConfigRepository.FindByGuild: %w", result.Error)
	}
	return cfgs, nil
}

func (r *gormUserConfigRepository) Upsert(ctx context.Context, tx *gorm.DB, cfg *model.UserConfig) error {
	logger := middleware.GetLogger(ctx)
	existing, err := r.Find(ctx, tx, cfg.UserID, cfg.GuildID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			if cfg.UserConfigID == uuid.Nil {
				cfg.UserConfigID = uuid.New()
			}
			result := tx.WithContext(ctx).Create(cfg)
			if result.Error != nil {
				logger.Error("Error creating user config in DB",
					"error", result.Error,
					"user_id", cfg.UserID,
					"guild_id", cfg.GuildID,
				)
				return fmt.Errorf("gormUserConfigRepository.Upsert: %w", result.Error)
			}
			return nil
		}
		return err
	}

	existing.PreferredName = cfg.PreferredName
	result := tx.WithContext(ctx).Save(existing)
	if result.Error != nil {
		logger.Error("Error updating user config in DB",
			"error", result.Error,
			"user_id", cfg.UserID,
			"guild_id", cfg.GuildID,
		)
		return fmt.Errorf("gormUserConfigRepository.Upsert: %w", result.Error)
	}
	*cfg = *existing
	return nil
}
