// internal/service/profile_service.go
package service

import (
	"context"
	"errors"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/repository"

	"gorm.io/gorm"
)

// ProfileService はギルド設定とユーザー設定（呼び名など）を担います
type ProfileService interface {
	GetGuildConfig(ctx context.Context, guildID string) (*model.GuildConfig, error)
	UpdateGuildConfig(ctx context.Context, guildID string, req *model.PutGuildConfigRequest) (*model.GuildConfig, error)
	ListUserConfigs(ctx context.Context, guildID string) ([]*model.UserConfig, error)
	UpsertUserConfig(ctx context.Context, guildID string, req *model.PostUserConfigRequest) (*model.UserConfig, error)

	// PreferredName / BotName は Phraser 用の解決ヘルパー。
	// 設定が無い場合もエラーにせずデフォルト名を返します
	PreferredName(ctx context.Context, userID, guildID string) string
	BotName(ctx context.Context, guildID string) string
}

type profileService struct {
	db        *gorm.DB
	guildRepo repository.GuildConfigRepository
	userRepo  repository.UserConfigRepository
	cfg       *config.Config
}

func NewProfileService(db *gorm.DB, guildRepo repository.GuildConfigRepository, userRepo repository.UserConfigRepository, cfg *config.Config) ProfileService {
	return &profileService{
		db:        db,
		guildRepo: guildRepo,
		userRepo:  userRepo,
		cfg:       cfg,
	}
}

// GetGuildConfig はギルド設定を返します。未作成ならデフォルト値で作成します
func (s *profileService) GetGuildConfig(ctx context.Context, guildID string) (*model.GuildConfig, error) {
	logger := middleware.GetLogger(ctx).With("guild_id", guildID)

	gc, err := s.guildRepo.Find(ctx, s.db, guildID)
	if err == nil {
		return gc, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		logger.Error("Error loading guild config", "error", err)
		return nil, model.ErrInternalServer
	}

	gc = &model.GuildConfig{
		GuildID:      guildID,
		BotName:      s.cfg.App.DefaultBotName,
		ReminderHour: s.cfg.Reminder.Hour,
	}
	if err := s.guildRepo.Save(ctx, s.db, gc); err != nil {
		logger.Error("Error creating default guild config", "error", err)
		return nil, model.ErrInternalServer
	}
	logger.Info("Created default guild config")
	return gc, nil
}

func (s *profileService) UpdateGuildConfig(ctx context.Context, guildID string, req *model.PutGuildConfigRequest) (*model.GuildConfig, error) {
	logger := middleware.GetLogger(ctx).With("guild_id", guildID)

	gc, err := s.GetGuildConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if req.BotName != nil && *req.BotName != "" {
		gc.BotName = *req.BotName
	}
	if req.ReminderHour != nil {
		gc.ReminderHour = *req.ReminderHour
	}
	if req.NotifyChatID != nil {
		gc.NotifyChatID = *req.NotifyChatID
	}

	if err := s.guildRepo.Save(ctx, s.db, gc); err != nil {
		logger.Error("Error saving guild config", "error", err)
		return nil, model.ErrInternalServer
	}

	logger.Info("Guild config updated")
	return gc, nil
}

func (s *profileService) ListUserConfigs(ctx context.Context, guildID string) ([]*model.UserConfig, error) {
	cfgs, err := s.userRepo.FindByGuild(ctx, s.db, guildID)
	if err != nil {
		middleware.GetLogger(ctx).Error("Error listing user configs", "error", err)
		return nil, model.ErrInternalServer
	}
	return cfgs, nil
}

func (s *profileService) UpsertUserConfig(ctx context.Context, guildID string, req *model.PostUserConfigRequest) (*model.UserConfig, error) {
	logger := middleware.GetLogger(ctx).With("guild_id", guildID, "user_id", req.UserID)

	uc := &model.UserConfig{
		UserID:        req.UserID,
		GuildID:       guildID,
		PreferredName: req.PreferredName,
	}
	if err := s.userRepo.Upsert(ctx, s.db, uc); err != nil {
		logger.Error("Error upserting user config", "error", err)
		return nil, model.ErrInternalServer
	}

	logger.Info("User config upserted")
	return uc, nil
}

func (s *profileService) PreferredName(ctx context.Context, userID, guildID string) string {
	uc, err := s.userRepo.Find(ctx, s.db, userID, guildID)
	if err != nil || uc.PreferredName == "" {
		return s.cfg.App.DefaultUserName
	}
	return uc.PreferredName
}

func (s *profileService) BotName(ctx context.Context, guildID string) string {
	gc, err := s.guildRepo.Find(ctx, s.db, guildID)
	if err != nil || gc.BotName == "" {
		return s.cfg.App.DefaultBotName
	}
	return gc.BotName
}
