//go:generate mockery --name ItemRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepository インターフェース
type ItemRepository interface {
	Create(ctx context.Context, tx *gorm.DB, item *model.Item) error
	Save(ctx context.Context, tx *gorm.DB, item *model.Item) error
	FindByID(ctx context.Context, db *gorm.DB, userID, guildID string, itemID uuid.UUID) (*model.Item, error)
	FindByActiveSeq(ctx context.Context, db *gorm.DB, userID, guildID string, seq int) (*model.Item, error)
	FindByArchiveSeq(ctx context.Context, db *gorm.DB, userID, guildID string, seq int) (*model.Item, error)
	FindActive(ctx context.Context, db *gorm.DB, userID, guildID string) ([]*model.Item, error)
	FindArchived(ctx context.Context, db *gorm.DB, userID, guildID string) ([]*model.Item, error)
	FindByOwner(ctx context.Context, db *gorm.DB, userID, guildID string) ([]*model.Item, error)
	FindDue(ctx context.Context, db *gorm.DB, asOf time.Time) ([]*model.Item, error)
	FindAwaiting(ctx context.Context, db *gorm.DB, userID, guildID, messageID string) ([]*model.Item, error)
	MaxActiveSeq(ctx context.Context, db *gorm.DB, userID, guildID string) (int, error)
	MaxArchiveSeq(ctx context.Context, db *gorm.DB, userID, guildID string) (int, error)
	CountByFrequencyName(ctx context.Context, db *gorm.DB, guildID, name string) (int64, error)
}

type gormItemRepository struct{}

func NewGormItemRepository() ItemRepository {
	return &gormItemRepository{}
}

func (r *gormItemRepository) Create(ctx context.Context, tx *gorm.DB, item *model.Item) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(item)
	if result.Error != nil {
		logger.Error("Error creating item in DB",
			"error", result.Error,
			"user_id", item.UserID,
			"guild_id", item.GuildID,
			"name", item.Name,
		)
		return fmt.Errorf("gormItemRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormItemRepository) Save(ctx context.Context, tx *gorm.DB, item *model.Item) error {
	logger := middleware.GetLogger(ctx)
	// Save だと zero value が飛ばされる心配はない (主キー揃った全カラム更新)
	result := tx.WithContext(ctx).Save(item)
	if result.Error != nil {
		logger.Error("Error saving item in DB",
			"error", result.Error,
			"item_id", item.ItemID.String(),
		)
		return fmt.Errorf("gormItemRepository.Save: %w", result.Error)
	}
	return nil
}

func (r *gormItemRepository) FindByID(ctx context.Context, db *gorm.DB, userID, guildID string, itemID uuid.UUID) (*model.Item, error) {
	logger := middleware.GetLogger(ctx)
	var item model.Item
	result := db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ? AND item_id = ?", userID, guildID, itemID).
		First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding item by ID in DB",
			"error", result.Error,
			"item_id", itemID.String(),
		)
		return nil, fmt.Errorf("gormItemRepository.FindByID: %w", result.Error)
	}
	return &item, nil
}

func (r *gormItemRepository) FindByActiveSeq(ctx context.Context, db *gorm.DB, userID, guildID string, seq int) (*model.Item, error) {
	return r.findBySeq(ctx, db, userID, guildID, "active_seq", seq, false)
}

func (r *gormItemRepository) FindByArchiveSeq(ctx context.Context, db *gorm.DB, userID, guildID string, seq int) (*model.Item, error) {
	return r.findBySeq(ctx, db, userID, guildID, "archive_seq", seq, true)
}

func (r *gormItemRepository) findBySeq(ctx context.Context, db *gorm.DB, userID, guildID, column string, seq int, archived bool) (*model.Item, error) {
	logger := middleware.GetLogger(ctx)
	var item model.Item
	result := db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ? AND archived = ? AND "+column+" = ?", userID, guildID, archived, seq).
		// 採番の競合で万一同番号が重複しても決定的に1件を選ぶ
		Order("created_at ASC").
		First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding item by sequence in DB",
			"error", result.Error,
			"user_id", userID,
			"guild_id", guildID,
			"column", column,
			"seq", seq,
		)
		return nil, fmt.Errorf("gormItemRepository.findBySeq: %w", result.Error)
	}
	return &item, nil
}

func (r *gormItemRepository) FindActive(ctx context.Context, db *gorm.DB, userID, guildID string) ([]*model.Item, error) {
	return r.findByState(ctx, db, userID, guildID, false, "active_seq ASC, created_at ASC")
}

func (r *gormItemRepository) FindArchived(ctx context.Context, db *gorm.DB, userID, guildID string) ([]*model.Item, error) {
	return r.findByState(ctx, db, userID, guildID, true, "archive_seq ASC, created_at ASC")
}

func (r *gormItemRepository) findByState(ctx context.Context, db *gorm.DB, userID, guildID string, archived bool, order string) ([]*model.Item, error) {
	logger := middleware.GetLogger(ctx)
	var items []*model.Item
	result := db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ? AND archived = ?", userID, guildID, archived).
		Order(order).
		Find(&items)
	if result.Error != nil {
		logger.Error("Error listing items in DB",
			"error", result.Error,
			"user_id", userID,
			"guild_id", guildID,
			"archived", archived,
		)
		return nil, fmt.Errorf("gormItemRepository.findByState: %w", result.Error)
	}
	return items, nil
}

func (r *gormItemRepository) FindByOwner(ctx context.Context, db *gorm.DB, userID, guildID string) ([]*model.Item, error) {
	logger := middleware.GetLogger(ctx)
	var items []*model.Item
	result := db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ?", userID, guildID).
		Order("archived ASC, active_seq ASC, archive_seq ASC").
		Find(&items)
	if result.Error != nil {
		logger.Error("Error listing items by owner in DB",
			"error", result.Error,
			"user_id", userID,
			"guild_id", guildID,
		)
		return nil, fmt.Errorf("gormItemRepository.FindByOwner: %w", result.Error)
	}
	return items, nil
}

// FindDue は期日が来ているアイテムを返します。通知待ち(awaiting_review)の
// アイテムは除外され、二重ディスパッチは起きません
func (r *gormItemRepository) FindDue(ctx context.Context, db *gorm.DB, asOf time.Time) ([]*model.Item, error) {
	logger := middleware.GetLogger(ctx)
	var items []*model.Item
	result := db.WithContext(ctx).
		Where("archived = ? AND awaiting_review = ? AND next_reminder <= ?", false, false, asOf).
		Order("user_id ASC, guild_id ASC, active_seq ASC").
		Find(&items)
	if result.Error != nil {
		logger.Error("Error finding due items in DB", "error", result.Error)
		return nil, fmt.Errorf("gormItemRepository.FindDue: %w", result.Error)
	}
	return items, nil
}

// FindAwaiting は特定の通知メッセージに束ねられた確認待ちアイテムだけを返します。
// ここの絞り込みがバッチ相関の正しさの中心です
func (r *gormItemRepository) FindAwaiting(ctx context.Context, db *gorm.DB, userID, guildID, messageID string) ([]*model.Item, error) {
	logger := middleware.GetLogger(ctx)
	var items []*model.Item
	result := db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ? AND archived = ? AND awaiting_review = ? AND last_reminder_message_id = ?",
			userID, guildID, false, true, messageID).
		Order("active_seq ASC").
		Find(&items)
	if result.Error != nil {
		logger.Error("Error finding awaiting items in DB",
			"error", result.Error,
			"user_id", userID,
			"guild_id", guildID,
			"message_id", messageID,
		)
		return nil, fmt.Errorf("gormItemRepository.FindAwaiting: %w", result.Error)
	}
	return items, nil
}

func (r *gormItemRepository) MaxActiveSeq(ctx context.Context, db *gorm.DB, userID, guildID string) (int, error) {
	return r.maxSeq(ctx, db, userID, guildID, "active_seq")
}

func (r *gormItemRepository) MaxArchiveSeq(ctx context.Context, db *gorm.DB, userID, guildID string) (int, error) {
	return r.maxSeq(ctx, db, userID, guildID, "archive_seq")
}

func (r *gormItemRepository) maxSeq(ctx context.Context, db *gorm.DB, userID, guildID, column string) (int, error) {
	logger := middleware.GetLogger(ctx)
	var max int
	result := db.WithContext(ctx).Model(&model.Item{}).
		Where("user_id = ? AND guild_id = ?", userID, guildID).
		Select("COALESCE(MAX(" + column + "), 0)").
		Scan(&max)
	if result.Error != nil {
		logger.Error("Error reading max sequence in DB",
			"error", result.Error,
			"user_id", userID,
			"guild_id", guildID,
			"column", column,
		)
		return 0, fmt.Errorf("gormItemRepository.maxSeq: %w", result.Error)
	}
	return max, nil
}

func (r *gormItemRepository) CountByFrequencyName(ctx context.Context, db *gorm.DB, guildID, name string) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.Item{}).
		Where("guild_id = ? AND frequency_name = ?", guildID, name).
		Count(&count)
	if result.Error != nil {
		logger.Error("Error counting items by frequency in DB",
			"error", result.Error,
			"guild_id", guildID,
			"frequency_name", name,
		)
		return 0, fmt.Errorf("gormItemRepository.CountByFrequencyName: %w", result.Error)
	}
	return count, nil
}
