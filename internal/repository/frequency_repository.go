//go:generate mockery --name FrequencyRepository --output ./mocks --outpkg mocks --case=underscore
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

// FrequencyRepository インターフェース
type FrequencyRepository interface {
	Create(ctx context.Context, tx *gorm.DB, freq *model.Frequency) error
	FindByID(ctx context.Context, db *gorm.DB, frequencyID uuid.UUID) (*model.Frequency, error)
	FindByName(ctx context.Context, db *gorm.DB, guildID, name string) (*model.Frequency, error)
	FindByGuild(ctx context.Context, db *gorm.DB, guildID string) ([]*model.Frequency, error)
	FindDefault(ctx context.Context, db *gorm.DB, guildID string) (*model.Frequency, error)
	Upsert(ctx context.Context, tx *gorm.DB, freq *model.Frequency) error
	Delete(ctx context.Context, tx *gorm.DB, frequencyID uuid.UUID) error
}

type gormFrequencyRepository struct{}

func NewGormFrequencyRepository() FrequencyRepository {
	return &gormFrequencyRepository{}
}

func (r *gormFrequencyRepository) Create(ctx context.Context, tx *gorm.DB, freq *model.Frequency) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(freq)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error creating frequency in DB",
			"error", result.Error,
			"guild_id", freq.GuildID,
			"name", freq.Name,
		)
		return fmt.Errorf("gormFrequencyRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormFrequencyRepository) FindByID(ctx context.Context, db *gorm.DB, frequencyID uuid.UUID) (*model.Frequency, error) {
	logger := middleware.GetLogger(ctx)
	var freq model.Frequency
	result := db.WithContext(ctx).Where("frequency_id = ?", frequencyID).First(&freq)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding frequency by ID in DB",
			"error", result.Error,
			"frequency_id", frequencyID.String(),
		)
		return nil, fmt.Errorf("gormFrequencyRepository.FindByID: %w", result.Error)
	}
	return &freq, nil
}

func (r *gormFrequencyRepository) FindByName(ctx context.Context, db *gorm.DB, guildID, name string) (*model.Frequency, error) {
	logger := middleware.GetLogger(ctx)
	var freq model.Frequency
	result := db.WithContext(ctx).Where("guild_id = ? AND name = ?", guildID, name).First(&freq)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding frequency by name in DB",
			"error", result.Error,
			"guild_id", guildID,
			"name", name,
		)
		return nil, fmt.Errorf("gormFrequencyRepository.FindByName: %w", result.Error)
	}
	return &freq, nil
}

func (r *gormFrequencyRepository) FindByGuild(ctx context.Context, db *gorm.DB, guildID string) ([]*model.Frequency, error) {
	logger := middleware.GetLogger(ctx)
	var freqs []*model.Frequency
	result := db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("duration ASC, name ASC").
		Find(&freqs)
	if result.Error != nil {
		logger.Error("Error listing frequencies in DB",
			"error", result.Error,
			"guild_id", guildID,
		)
		return nil, fmt.Errorf("gormFrequencyRepository.FindByGuild: %w", result.Error)
	}
	return freqs, nil
}

func (r *gormFrequencyRepository) FindDefault(ctx context.Context, db *gorm.DB, guildID string) (*model.Frequency, error) {
	logger := middleware.GetLogger(ctx)
	var freq model.Frequency
	result := db.WithContext(ctx).
		Where("guild_id = ? AND is_default = ?", guildID, true).
		Order("created_at ASC").
		First(&freq)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding default frequency in DB",
			"error", result.Error,
			"guild_id", guildID,
		)
		return nil, fmt.Errorf("gormFrequencyRepository.FindDefault: %w", result.Error)
	}
	return &freq, nil
}

// Upsert は (guild_id, name) をキーに作成または更新します。デフォルト頻度の
// 初期投入で使います
func (r *gormFrequencyRepository) Upsert(ctx context.Context, tx *gorm.DB, freq *model.Frequency) error {
	existing, err := r.FindByName(ctx, tx, freq.GuildID, freq.Name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return r.Create(ctx, tx, freq)
		}
		return err
	}
	existing.Duration = freq.Duration
	existing.IsDefault = freq.IsDefault
	result := tx.WithContext(ctx).Save(existing)
	if result.Error != nil {
		return fmt.Errorf("gormFrequencyRepository.Upsert: %w", result.Error)
	}
	*freq = *existing
	return nil
}

func (r *gormFrequencyRepository) Delete(ctx context.Context, tx *gorm.DB, frequencyID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("frequency_id = ?", frequencyID).Delete(&model.Frequency{})
	if result.Error != nil {
		logger.Error("Error deleting frequency in DB",
			"error", result.Error,
			"frequency_id", frequencyID.String(),
		)
		return fmt.Errorf("gormFrequencyRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
