// internal/service/item_service.go
package service

import (
	"context"
	"errors"
	"time"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/repository"
	"go_5_review_keep/internal/timeutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemService はアイテムのライフサイクル（作成・アーカイブ・復帰・移動・一覧）を担います
type ItemService interface {
	CreateItem(ctx context.Context, req *model.PostItemRequest) (*model.Item, error)
	ArchiveItem(ctx context.Context, userID, guildID string, ref model.ItemRef) (*model.Item, error)
	ReviveItem(ctx context.Context, userID, guildID string, ref model.ItemRef) (*model.Item, error)
	MoveItem(ctx context.Context, userID, guildID string, ref model.ItemRef, frequencyName string) (*model.Item, error)
	ListActive(ctx context.Context, userID, guildID string) ([]*model.Item, error)
	ListArchived(ctx context.Context, userID, guildID string) ([]*model.Item, error)
	ListAll(ctx context.Context, userID, guildID string) ([]*model.Item, error)
}

type itemService struct {
	db       *gorm.DB
	itemRepo repository.ItemRepository
	freqRepo repository.FrequencyRepository
	seqRepo  repository.SeqRepository
	loc      *time.Location
	cfg      *config.Config
}

func NewItemService(db *gorm.DB, itemRepo repository.ItemRepository, freqRepo repository.FrequencyRepository, seqRepo repository.SeqRepository, loc *time.Location, cfg *config.Config) ItemService {
	return &itemService{
		db:       db,
		itemRepo: itemRepo,
		freqRepo: freqRepo,
		seqRepo:  seqRepo,
		loc:      loc,
		cfg:      cfg,
	}
}

func (s *itemService) CreateItem(ctx context.Context, req *model.PostItemRequest) (*model.Item, error) {
	logger := middleware.GetLogger(ctx).With("user_id", req.UserID, "guild_id", req.GuildID)

	if req.Name == "" || req.ImageURL == "" {
		return nil, model.ErrInvalidInput
	}

	var created *model.Item

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 頻度を解決。未指定ならギルドのデフォルトを使う
		var freq *model.Frequency
		var err error
		if req.FrequencyName == "" {
			freq, err = s.freqRepo.FindDefault(ctx, tx, req.GuildID)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.NewAppError("NO_DEFAULT_FREQUENCY", "デフォルトのリズムが設定されていません。", "frequency_name", model.ErrInvalidInput)
				}
				return err
			}
		} else {
			freq, err = s.freqRepo.FindByName(ctx, tx, req.GuildID, req.FrequencyName)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.NewAppError("FREQUENCY_NOT_FOUND", "指定されたリズムが見つかりません。", "frequency_name", model.ErrNotFound)
				}
				return err
			}
		}

		// アクティブ系列の新しい番号を払い出し
		seq, err := nextSequence(ctx, tx, s.itemRepo, s.seqRepo, req.UserID, req.GuildID, model.StateActive)
		if err != nil {
			logger.Error("Error allocating active sequence", "error", err)
			return model.ErrInternalServer
		}

		now := time.Now()
		item := &model.Item{
			ItemID:            uuid.New(),
			UserID:            req.UserID,
			GuildID:           req.GuildID,
			Name:              req.Name,
			ImageURL:          req.ImageURL,
			FrequencyName:     freq.Name,
			FrequencyDuration: freq.Duration,
			NextReminder:      timeutil.NextReminderAt(now, freq.Span(), s.loc),
		}
		item.Place(model.Placement{State: model.StateActive, Seq: seq})

		if err := s.itemRepo.Create(ctx, tx, item); err != nil {
			logger.Error("Error creating item in transaction", "error", err)
			return model.ErrInternalServer
		}

		created = item
		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Item created",
		"item_id", created.ItemID.String(),
		"active_seq", *created.ActiveSeq,
		"next_reminder", created.NextReminder,
	)
	return created, nil
}

func (s *itemService) ArchiveItem(ctx context.Context, userID, guildID string, ref model.ItemRef) (*model.Item, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "guild_id", guildID)

	var archived *model.Item

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.resolveActive(ctx, tx, userID, guildID, ref)
		if err != nil {
			return err
		}

		seq, err := nextSequence(ctx, tx, s.itemRepo, s.seqRepo, userID, guildID, model.StateArchived)
		if err != nil {
			logger.Error("Error allocating archive sequence", "error", err)
			return model.ErrInternalServer
		}

		// アーカイブへ遷移。確認待ちの状態も一緒に破棄される
		item.Place(model.Placement{State: model.StateArchived, Seq: seq})
		item.AwaitingReview = false
		item.LastReminderMessageID = nil

		if err := s.itemRepo.Save(ctx, tx, item); err != nil {
			return model.ErrInternalServer
		}
		archived = item
		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Item archived",
		"item_id", archived.ItemID.String(),
		"archive_seq", *archived.ArchiveSeq,
	)
	return archived, nil
}

func (s *itemService) ReviveItem(ctx context.Context, userID, guildID string, ref model.ItemRef) (*model.Item, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "guild_id", guildID)

	var revived *model.Item

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.resolveArchived(ctx, tx, userID, guildID, ref)
		if err != nil {
			return err
		}

		// 元の番号には戻らない。常に新しい番号で復帰する
		seq, err := nextSequence(ctx, tx, s.itemRepo, s.seqRepo, userID, guildID, model.StateActive)
		if err != nil {
			logger.Error("Error allocating active sequence", "error", err)
			return model.ErrInternalServer
		}

		item.Place(model.Placement{State: model.StateActive, Seq: seq})
		item.AwaitingReview = false
		item.LastReminderMessageID = nil
		item.NextReminder = timeutil.NextReminderAt(time.Now(), item.Duration(), s.loc)

		if err := s.itemRepo.Save(ctx, tx, item); err != nil {
			return model.ErrInternalServer
		}
		revived = item
		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Item revived",
		"item_id", revived.ItemID.String(),
		"active_seq", *revived.ActiveSeq,
	)
	return revived, nil
}

func (s *itemService) MoveItem(ctx context.Context, userID, guildID string, ref model.ItemRef, frequencyName string) (*model.Item, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "guild_id", guildID)

	if frequencyName == "" {
		return nil, model.ErrInvalidInput
	}

	var moved *model.Item

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.resolveActive(ctx, tx, userID, guildID, ref)
		if err != nil {
			return err
		}

		freq, err := s.freqRepo.FindByName(ctx, tx, guildID, frequencyName)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("FREQUENCY_NOT_FOUND", "指定されたリズムが見つかりません。", "frequency_name", model.ErrNotFound)
			}
			return err
		}

		// 新しいリズムへの移動は未確認のリマインダーを黙って取り下げる。
		// 新しいサイクルが古い催促より優先される、というプロダクト判断
		item.FrequencyName = freq.Name
		item.FrequencyDuration = freq.Duration
		item.AwaitingReview = false
		item.LastReminderMessageID = nil
		item.NextReminder = timeutil.NextReminderAt(time.Now(), freq.Span(), s.loc)

		if err := s.itemRepo.Save(ctx, tx, item); err != nil {
			return model.ErrInternalServer
		}
		moved = item
		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Item moved",
		"item_id", moved.ItemID.String(),
		"frequency_name", moved.FrequencyName,
	)
	return moved, nil
}

func (s *itemService) ListActive(ctx context.Context, userID, guildID string) ([]*model.Item, error) {
	items, err := s.itemRepo.FindActive(ctx, s.db, userID, guildID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Error listing active items", "error", err)
		return nil, model.ErrInternalServer
	}
	return items, nil
}

func (s *itemService) ListArchived(ctx context.Context, userID, guildID string) ([]*model.Item, error) {
	items, err := s.itemRepo.FindArchived(ctx, s.db, userID, guildID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Error listing archived items", "error", err)
		return nil, model.ErrInternalServer
	}
	return items, nil
}

func (s *itemService) ListAll(ctx context.Context, userID, guildID string) ([]*model.Item, error) {
	items, err := s.itemRepo.FindByOwner(ctx, s.db, userID, guildID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Error listing items", "error", err)
		return nil, model.ErrInternalServer
	}
	return items, nil
}

// resolveActive はアクティブ状態のアイテムへの参照を解決します。
// ID参照でもアーカイブ済みのアイテムは対象外（NotFound）です
func (s *itemService) resolveActive(ctx context.Context, tx *gorm.DB, userID, guildID string, ref model.ItemRef) (*model.Item, error) {
	if id, ok := ref.ID(); ok {
		item, err := s.itemRepo.FindByID(ctx, tx, userID, guildID, id)
		if err != nil {
			return nil, err
		}
		if item.Archived {
			return nil, model.ErrNotFound
		}
		return item, nil
	}
	if seq, ok := ref.Seq(); ok {
		return s.itemRepo.FindByActiveSeq(ctx, tx, userID, guildID, seq)
	}
	return nil, model.ErrInvalidInput
}

// resolveArchived はアーカイブ状態のアイテムへの参照を解決します
func (s *itemService) resolveArchived(ctx context.Context, tx *gorm.DB, userID, guildID string, ref model.ItemRef) (*model.Item, error) {
	if id, ok := ref.ID(); ok {
		item, err := s.itemRepo.FindByID(ctx, tx, userID, guildID, id)
		if err != nil {
			return nil, err
		}
		if !item.Archived {
			return nil, model.ErrNotFound
		}
		return item, nil
	}
	if seq, ok := ref.Seq(); ok {
		return s.itemRepo.FindByArchiveSeq(ctx, tx, userID, guildID, seq)
	}
	return nil, model.ErrInvalidInput
}
