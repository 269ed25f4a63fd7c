//go:generate mockery --name SeqRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"

	"gorm.io/gorm"
)

// SeqRepository は採番カウンタの読み書きを担います
type SeqRepository interface {
	Find(ctx context.Context, db *gorm.DB, userID, guildID string, state model.ItemState) (*model.SeqCounter, error)
	Save(ctx context.Context, tx *gorm.DB, counter *model.SeqCounter) error
}

type gormSeqRepository struct{}

func NewGormSeqRepository() SeqRepository {
	return &gormSeqRepository{}
}

func (r *gormSeqRepository) Find(ctx context.Context, db *gorm.DB, userID, guildID string, state model.ItemState) (*model.SeqCounter, error) {
	logger := middleware.GetLogger(ctx)
	var counter model.SeqCounter
	result := db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ? AND state = ?", userID, guildID, state).
		First(&counter)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding sequence counter in DB",
			"error", result.Error,
			"user_id", userID,
			"guild_id", guildID,
			"state", string(state),
		)
		return nil, fmt.Errorf("gormSeqRepository.Find: %w", result.Error)
	}
	return &counter, nil
}

func (r *gormSeqRepository) Save(ctx context.Context, tx *gorm.DB, counter *model.SeqCounter) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Save(counter)
	if result.Error != nil {
		logger.Error("Error saving sequence counter in DB",
			"error", result.Error,
			"user_id", counter.UserID,
			"guild_id", counter.GuildID,
			"state", string(counter.State),
		)
		return fmt.Errorf("gormSeqRepository.Save: %w", result.Error)
	}
	return nil
}
