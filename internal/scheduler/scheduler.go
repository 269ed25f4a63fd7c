// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/service"
	"go_5_review_keep/internal/timeutil"
)

// Scheduler は毎時0分にリマインド送信処理を起動し、ギルドごとに設定された
// 通知時刻(ReminderHour)に当たるグループだけを送信します。
// 起動直後のキャッチアップ実行（当日分の送り漏らし対策）も担当します
type Scheduler struct {
	cron     *gocron.Scheduler
	reminder service.ReminderService
	profile  service.ProfileService
	phraser  service.Phraser
	notifier service.Notifier
	cfg      *config.Config
	loc      *time.Location
	logger   *slog.Logger
}

func New(
	reminder service.ReminderService,
	profile service.ProfileService,
	phraser service.Phraser,
	notifier service.Notifier,
	cfg *config.Config,
	loc *time.Location,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:     gocron.NewScheduler(loc),
		reminder: reminder,
		profile:  profile,
		phraser:  phraser,
		notifier: notifier,
		cfg:      cfg,
		loc:      loc,
		logger:   logger,
	}
}

// Start は毎時ジョブを登録して非同期でスケジューラを動かします
func (s *Scheduler) Start() error {
	if _, err := s.cron.Cron("0 * * * *").Do(s.runJob); err != nil {
		return fmt.Errorf("Scheduler.Start: %w", err)
	}
	s.cron.StartAsync()
	s.logger.Info("Reminder scheduler started", "timezone", s.loc.String())

	if s.cfg.Reminder.CatchupOnStart {
		// 停止していた間の送り漏らしを拾うため、起動時だけは時刻を見ずに送る
		go func() {
			ctx := middleware.WithLogger(context.Background(), s.logger.With("job", "reminder_catchup"))
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("Reminder catchup finished with errors", "error", err)
			}
		}()
	}
	return nil
}

// Stop はスケジューラを停止します
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("Reminder scheduler stopped")
}

func (s *Scheduler) runJob() {
	ctx := middleware.WithLogger(context.Background(), s.logger.With("job", "reminder"))
	hour := time.Now().In(s.loc).Hour()
	if err := s.run(ctx, hour); err != nil {
		s.logger.Error("Reminder job finished with errors", "error", err)
	}
}

// RunOnce は通知時刻に関係なく、期日到来アイテムをすべて送信します。
// 管理APIの手動実行と起動時のキャッチアップから呼ばれます
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.run(ctx, -1)
}

// run は期日到来アイテムをユーザーごとにまとめて1通ずつ送信します。
// hour が0以上なら、ギルド設定の通知時刻がその時刻のグループだけを対象にします。
// 送信に成功したグループだけ確認待ちに遷移させるため、通知が落ちた
// ユーザーのアイテムは次回の実行で再度拾われます
func (s *Scheduler) run(ctx context.Context, hour int) error {
	logger := middleware.GetLogger(ctx)

	now := timeutil.Midnight(time.Now().In(s.loc), s.loc)
	groups, err := s.reminder.FindDueGroups(ctx, now)
	if err != nil {
		return fmt.Errorf("Scheduler.run: %w", err)
	}
	if len(groups) == 0 {
		logger.Info("No reminders due")
		return nil
	}

	var sent, failed int
	for _, group := range groups {
		guildCfg, err := s.profile.GetGuildConfig(ctx, group.GuildID)
		if err != nil {
			logger.Error("Error loading guild config",
				"guild_id", group.GuildID,
				"error", err,
			)
			failed++
			continue
		}
		if hour >= 0 && guildCfg.ReminderHour != hour {
			continue
		}

		if err := s.sendGroup(ctx, group, guildCfg); err != nil {
			logger.Error("Error sending reminder group",
				"user_id", group.UserID,
				"guild_id", group.GuildID,
				"error", err,
			)
			failed++
			continue
		}
		sent++
	}
	logger.Info("Reminder run finished", "groups", len(groups), "sent", sent, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("Scheduler.run: %d/%d groups failed", failed, len(groups))
	}
	return nil
}

func (s *Scheduler) sendGroup(ctx context.Context, group service.DueGroup, guildCfg *model.GuildConfig) error {
	logger := middleware.GetLogger(ctx)

	userName := s.profile.PreferredName(ctx, group.UserID, group.GuildID)

	names := make([]string, 0, len(group.Items))
	ids := make([]uuid.UUID, 0, len(group.Items))
	for _, item := range group.Items {
		names = append(names, item.Name)
		ids = append(ids, item.ItemID)
	}

	text := s.phraser.ReminderMessage(ctx, names, userName, guildCfg.BotName)

	// 通知先はギルド設定の上書きがあればそれを、無ければユーザーIDを使う
	chatID := group.UserID
	if guildCfg.NotifyChatID != "" {
		chatID = guildCfg.NotifyChatID
	}

	messageID, err := s.notifier.Send(ctx, chatID, text)
	if err != nil {
		return fmt.Errorf("sendGroup: %w", err)
	}

	if err := s.reminder.MarkDispatched(ctx, group.UserID, group.GuildID, ids, messageID); err != nil {
		// 送信済みだが記録に失敗した場合、次回の実行で同じアイテムに再送が走る
		logger.Error("Error marking items as dispatched",
			"user_id", group.UserID,
			"guild_id", group.GuildID,
			"message_id", messageID,
			"error", err,
		)
		return fmt.Errorf("sendGroup: %w", err)
	}

	logger.Info("Reminder sent",
		"user_id", group.UserID,
		"guild_id", group.GuildID,
		"items", len(group.Items),
		"message_id", messageID,
	)
	return nil
}
