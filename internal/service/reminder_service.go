// internal/service/reminder_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/repository"
	"go_5_review_keep/internal/timeutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DueGroup は同一ユーザー宛に1通知へ束ねる期日アイテムの集まりです
type DueGroup struct {
	UserID  string
	GuildID string
	Items   []*model.Item
}

// ReminderService はリマインダーのディスパッチ準備とバッチ相関を担います。
// 1つの通知メッセージに束ねたアイテムは同じメッセージIDを共有し、
// 確認(confirm)はそのメッセージIDに束ねられたアイテムだけを解決します
type ReminderService interface {
	FindDueGroups(ctx context.Context, asOf time.Time) ([]DueGroup, error)
	MarkDispatched(ctx context.Context, userID, guildID string, itemIDs []uuid.UUID, messageID string) error
	ConfirmBatch(ctx context.Context, userID, guildID, messageID string) (*model.ConfirmBatchResult, error)
}

type reminderService struct {
	db       *gorm.DB
	itemRepo repository.ItemRepository
	loc      *time.Location
	cfg      *config.Config
}

func NewReminderService(db *gorm.DB, itemRepo repository.ItemRepository, loc *time.Location, cfg *config.Config) ReminderService {
	return &reminderService{
		db:       db,
		itemRepo: itemRepo,
		loc:      loc,
		cfg:      cfg,
	}
}

// FindDueGroups は期日が来たアイテムを (ユーザー, ギルド) ごとにまとめます。
// 各グループは設定のバッチ上限で打ち切られ、残りは次のティックで拾われます
func (s *reminderService) FindDueGroups(ctx context.Context, asOf time.Time) ([]DueGroup, error) {
	logger := middleware.GetLogger(ctx)

	due, err := s.itemRepo.FindDue(ctx, s.db, asOf)
	if err != nil {
		logger.Error("Error finding due items", "error", err)
		return nil, model.ErrInternalServer
	}

	// FindDue は user_id, guild_id 順で返すため、境界で区切るだけでよい
	var groups []DueGroup
	for _, item := range due {
		n := len(groups)
		if n == 0 || groups[n-1].UserID != item.UserID || groups[n-1].GuildID != item.GuildID {
			groups = append(groups, DueGroup{UserID: item.UserID, GuildID: item.GuildID})
			n++
		}
		if len(groups[n-1].Items) >= s.cfg.Reminder.BatchLimit {
			continue // 上限超過分は次回に回す
		}
		groups[n-1].Items = append(groups[n-1].Items, item)
	}

	logger.Info("Due items grouped", "due_items", len(due), "groups", len(groups))
	return groups, nil
}

// MarkDispatched は通知済みのアイテムに確認待ちフラグとメッセージIDを付けます。
// アイテムごとに個別に永続化し、途中で失敗しても成功済みの更新はそのままです
func (s *reminderService) MarkDispatched(ctx context.Context, userID, guildID string, itemIDs []uuid.UUID, messageID string) error {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "guild_id", guildID, "message_id", messageID)

	if messageID == "" || len(itemIDs) == 0 {
		return model.ErrInvalidInput
	}

	var failed int
	for _, itemID := range itemIDs {
		item, err := s.itemRepo.FindByID(ctx, s.db, userID, guildID, itemID)
		if err != nil {
			logger.Error("Error loading item for dispatch", "error", err, "item_id", itemID.String())
			failed++
			continue
		}
		if item.Archived || item.AwaitingReview {
			// 既に確認待ち（二重ディスパッチ）やアーカイブ済みは触らない
			logger.Warn("Skipping dispatch for item in unexpected state",
				"item_id", itemID.String(),
				"archived", item.Archived,
				"awaiting_review", item.AwaitingReview,
			)
			continue
		}

		msgID := messageID
		item.AwaitingReview = true
		item.LastReminderMessageID = &msgID

		if err := s.itemRepo.Save(ctx, s.db, item); err != nil {
			logger.Error("Error saving dispatched item", "error", err, "item_id", itemID.String())
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d items failed to mark: %w", failed, len(itemIDs), model.ErrPartialFailure)
	}
	return nil
}

// ConfirmBatch は1つの通知メッセージに束ねられたアイテムだけを解決します。
// 別の通知で確認待ちのアイテムには決して触れません。対象が0件の場合は
// エラーではなく no-op として報告します（確認は冪等）
func (s *reminderService) ConfirmBatch(ctx context.Context, userID, guildID, messageID string) (*model.ConfirmBatchResult, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "guild_id", guildID, "message_id", messageID)

	if messageID == "" {
		return nil, model.ErrInvalidInput
	}

	items, err := s.itemRepo.FindAwaiting(ctx, s.db, userID, guildID, messageID)
	if err != nil {
		logger.Error("Error finding awaiting items", "error", err)
		return nil, model.ErrInternalServer
	}

	if len(items) == 0 {
		logger.Info("Confirm resolved no items (already confirmed or unknown message)")
		return &model.ConfirmBatchResult{Confirmed: []string{}, NoOp: true}, nil
	}

	now := time.Now()
	confirmed := make([]string, 0, len(items))
	var failed int
	for _, item := range items {
		item.AwaitingReview = false
		item.LastReminderMessageID = nil
		item.NextReminder = timeutil.NextReminderAt(now, item.Duration(), s.loc)

		if err := s.itemRepo.Save(ctx, s.db, item); err != nil {
			logger.Error("Error saving confirmed item", "error", err, "item_id", item.ItemID.String())
			failed++
			continue
		}
		confirmed = append(confirmed, item.Name)
	}

	if failed > 0 {
		// 成功済みの更新は戻さない。呼び出し側は結果の状態を確認する
		return &model.ConfirmBatchResult{Confirmed: confirmed},
			fmt.Errorf("%d of %d items failed to confirm: %w", failed, len(items), model.ErrPartialFailure)
	}

	logger.Info("Batch confirmed", "items", len(confirmed))
	return &model.ConfirmBatchResult{Confirmed: confirmed}, nil
}
