// internal/service/frequency_service.go
package service

import (
	"context"
	"errors"
	"time"

	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/repository"
	"go_5_review_keep/internal/timeutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FrequencyService はギルドごとの復習リズムのCRUDを担います
type FrequencyService interface {
	ListFrequencies(ctx context.Context, guildID string) ([]*model.Frequency, error)
	CreateFrequency(ctx context.Context, guildID string, req *model.PostFrequencyRequest) (*model.Frequency, error)
	DeleteFrequency(ctx context.Context, frequencyID uuid.UUID) error
	SeedDefaults(ctx context.Context, guildID string) ([]*model.Frequency, error)
}

type frequencyService struct {
	db       *gorm.DB
	freqRepo repository.FrequencyRepository
	itemRepo repository.ItemRepository
}

func NewFrequencyService(db *gorm.DB, freqRepo repository.FrequencyRepository, itemRepo repository.ItemRepository) FrequencyService {
	return &frequencyService{
		db:       db,
		freqRepo: freqRepo,
		itemRepo: itemRepo,
	}
}

func (s *frequencyService) ListFrequencies(ctx context.Context, guildID string) ([]*model.Frequency, error) {
	freqs, err := s.freqRepo.FindByGuild(ctx, s.db, guildID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Error listing frequencies", "error", err)
		return nil, model.ErrInternalServer
	}
	return freqs, nil
}

func (s *frequencyService) CreateFrequency(ctx context.Context, guildID string, req *model.PostFrequencyRequest) (*model.Frequency, error) {
	logger := middleware.GetLogger(ctx).With("guild_id", guildID)

	// 期間の書式は永続化の前に検証する
	span, err := timeutil.ParseSpan(req.Duration)
	if err != nil {
		return nil, err
	}

	var created *model.Frequency

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 同名のリズムは許さない
		if _, err := s.freqRepo.FindByName(ctx, tx, guildID, req.Name); err == nil {
			return model.NewAppError("FREQUENCY_EXISTS", "同じ名前のリズムが既に存在します。", "name", model.ErrConflict)
		} else if !errors.Is(err, model.ErrNotFound) {
			return model.ErrInternalServer
		}

		freq := &model.Frequency{
			FrequencyID: uuid.New(),
			GuildID:     guildID,
			Name:        req.Name,
			Duration:    span.Milliseconds(),
			IsDefault:   req.IsDefault,
		}
		if err := s.freqRepo.Create(ctx, tx, freq); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("FREQUENCY_EXISTS", "同じ名前のリズムが既に存在します。", "name", model.ErrConflict)
			}
			logger.Error("Error creating frequency", "error", err)
			return model.ErrInternalServer
		}
		created = freq
		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Frequency created", "name", created.Name, "duration_ms", created.Duration)
	return created, nil
}

// DeleteFrequency はリズムを削除します。参照しているアイテムが1つでもあれば
// 拒否します（参照整合性）
func (s *frequencyService) DeleteFrequency(ctx context.Context, frequencyID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("frequency_id", frequencyID.String())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		freq, err := s.freqRepo.FindByID(ctx, tx, frequencyID)
		if err != nil {
			return err // model.ErrNotFound または内部エラー
		}

		count, err := s.itemRepo.CountByFrequencyName(ctx, tx, freq.GuildID, freq.Name)
		if err != nil {
			logger.Error("Error counting referencing items", "error", err)
			return model.ErrInternalServer
		}
		if count > 0 {
			return model.NewAppError("FREQUENCY_IN_USE", "このリズムはまだアイテムに使われているため削除できません。", "", model.ErrConflict)
		}

		if err := s.freqRepo.Delete(ctx, tx, frequencyID); err != nil {
			logger.Error("Error deleting frequency", "error", err)
			return model.ErrInternalServer
		}

		logger.Info("Frequency deleted", "name", freq.Name)
		return nil
	})
}

// SeedDefaults は標準のリズム一式を投入します。既存の同名リズムは上書きします
func (s *frequencyService) SeedDefaults(ctx context.Context, guildID string) ([]*model.Frequency, error) {
	logger := middleware.GetLogger(ctx).With("guild_id", guildID)

	day := (24 * time.Hour).Milliseconds()
	defaults := []*model.Frequency{
		{FrequencyID: uuid.New(), GuildID: guildID, Name: "Daily", Duration: day, IsDefault: true},
		{FrequencyID: uuid.New(), GuildID: guildID, Name: "Every 2 Days", Duration: 2 * day},
		{FrequencyID: uuid.New(), GuildID: guildID, Name: "Weekly", Duration: 7 * day},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, freq := range defaults {
			if err := s.freqRepo.Upsert(ctx, tx, freq); err != nil {
				logger.Error("Error seeding default frequency", "error", err, "name", freq.Name)
				return model.ErrInternalServer
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Default frequencies seeded")
	return defaults, nil
}
