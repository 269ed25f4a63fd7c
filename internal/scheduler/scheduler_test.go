// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/repository"
	"go_5_review_keep/internal/service"
	"go_5_review_keep/internal/timeutil"

	"github.com/google/uuid"
)

// captureNotifier は送信内容を記録して連番のメッセージIDを返すテスト用Notifier
type captureNotifier struct {
	sent []sentMessage
	fail bool
}

type sentMessage struct {
	ChatID    string
	Text      string
	MessageID string
}

func (n *captureNotifier) Send(_ context.Context, chatID string, text string) (string, error) {
	if n.fail {
		return "", fmt.Errorf("notifier unavailable")
	}
	messageID := fmt.Sprintf("msg-%d", len(n.sent)+1)
	n.sent = append(n.sent, sentMessage{ChatID: chatID, Text: text, MessageID: messageID})
	return messageID, nil
}

type testEnv struct {
	db       *gorm.DB
	reminder service.ReminderService
	items    service.ItemService
	profile  service.ProfileService
	notifier *captureNotifier
	sched    *Scheduler
	loc      *time.Location
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	loc, err := timeutil.LoadLocation("")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Reminder.BatchLimit = 10
	cfg.Reminder.Hour = 0
	cfg.App.DefaultBotName = "Koharu"
	cfg.App.DefaultUserName = "Master"

	itemRepo := repository.NewGormItemRepository()
	items := service.NewItemService(db, itemRepo,
		repository.NewGormFrequencyRepository(),
		repository.NewGormSeqRepository(), loc, cfg)
	reminder := service.NewReminderService(db, itemRepo, loc, cfg)
	profile := service.NewProfileService(db,
		repository.NewGormGuildConfigRepository(),
		repository.NewGormUserConfigRepository(), cfg)

	notifier := &captureNotifier{}
	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := New(reminder, profile, service.NewPhraser(cfg), notifier, cfg, loc, testLogger)

	require.NoError(t, db.Create(&model.Frequency{
		FrequencyID: uuid.New(),
		GuildID:     "guild-1",
		Name:        "Daily",
		Duration:    (24 * time.Hour).Milliseconds(),
		IsDefault:   true,
	}).Error)

	return &testEnv{db: db, reminder: reminder, items: items, profile: profile, notifier: notifier, sched: sched, loc: loc}
}

func (e *testEnv) createDueItem(t *testing.T, userID, name string) *model.Item {
	t.Helper()
	item, err := e.items.CreateItem(context.Background(), &model.PostItemRequest{
		UserID:   userID,
		GuildID:  "guild-1",
		Name:     name,
		ImageURL: "https://example.com/" + name + ".png",
	})
	require.NoError(t, err)
	require.NoError(t, e.db.Model(&model.Item{}).Where("item_id = ?", item.ItemID).
		Update("next_reminder", time.Now().Add(-48*time.Hour)).Error)
	return item
}

func TestScheduler_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: ユーザーごとに1通ずつ送られ、全アイテムが確認待ちに遷移する", func(t *testing.T) {
		env := setupEnv(t)

		a1 := env.createDueItem(t, "user-a", "alpha")
		a2 := env.createDueItem(t, "user-a", "beta")
		b1 := env.createDueItem(t, "user-b", "gamma")

		require.NoError(t, env.sched.RunOnce(ctx))

		require.Len(t, env.notifier.sent, 2)
		assert.Equal(t, "user-a", env.notifier.sent[0].ChatID)
		assert.Contains(t, env.notifier.sent[0].Text, "alpha")
		assert.Contains(t, env.notifier.sent[0].Text, "beta")
		assert.Equal(t, "user-b", env.notifier.sent[1].ChatID)

		// 同じ通知に束ねられたアイテムは同じメッセージIDを共有する
		for _, id := range []uuid.UUID{a1.ItemID, a2.ItemID} {
			var fresh model.Item
			require.NoError(t, env.db.First(&fresh, "item_id = ?", id).Error)
			assert.True(t, fresh.AwaitingReview)
			require.NotNil(t, fresh.LastReminderMessageID)
			assert.Equal(t, env.notifier.sent[0].MessageID, *fresh.LastReminderMessageID)
		}
		var fresh model.Item
		require.NoError(t, env.db.First(&fresh, "item_id = ?", b1.ItemID).Error)
		require.NotNil(t, fresh.LastReminderMessageID)
		assert.Equal(t, env.notifier.sent[1].MessageID, *fresh.LastReminderMessageID)
	})

	t.Run("正常系: 送信後の確認はそのメッセージIDで解決できる", func(t *testing.T) {
		env := setupEnv(t)
		item := env.createDueItem(t, "user-a", "alpha")

		require.NoError(t, env.sched.RunOnce(ctx))
		require.Len(t, env.notifier.sent, 1)

		result, err := env.reminder.ConfirmBatch(ctx, "user-a", "guild-1", env.notifier.sent[0].MessageID)
		require.NoError(t, err)
		assert.False(t, result.NoOp)
		assert.Equal(t, []string{"alpha"}, result.Confirmed)

		var fresh model.Item
		require.NoError(t, env.db.First(&fresh, "item_id = ?", item.ItemID).Error)
		assert.False(t, fresh.AwaitingReview)
	})

	t.Run("正常系: 期日到来がなければ何も送られない", func(t *testing.T) {
		env := setupEnv(t)
		require.NoError(t, env.sched.RunOnce(ctx))
		assert.Empty(t, env.notifier.sent)
	})

	t.Run("正常系: 通知先はギルド設定で上書きできる", func(t *testing.T) {
		env := setupEnv(t)
		env.createDueItem(t, "user-a", "alpha")

		chatID := "-100999"
		_, err := env.profile.UpdateGuildConfig(ctx, "guild-1", &model.PutGuildConfigRequest{
			NotifyChatID: &chatID,
		})
		require.NoError(t, err)

		require.NoError(t, env.sched.RunOnce(ctx))
		require.Len(t, env.notifier.sent, 1)
		assert.Equal(t, chatID, env.notifier.sent[0].ChatID)
	})

	t.Run("正常系: 呼び名が設定されていれば文面に使われる", func(t *testing.T) {
		env := setupEnv(t)
		env.createDueItem(t, "user-a", "alpha")

		_, err := env.profile.UpsertUserConfig(ctx, "guild-1", &model.PostUserConfigRequest{
			UserID:        "user-a",
			PreferredName: "Aruu",
		})
		require.NoError(t, err)

		require.NoError(t, env.sched.RunOnce(ctx))
		require.Len(t, env.notifier.sent, 1)
		assert.Contains(t, env.notifier.sent[0].Text, "Aruu")
	})

	t.Run("異常系: 送信に失敗したアイテムは確認待ちにならず次回再送される", func(t *testing.T) {
		env := setupEnv(t)
		item := env.createDueItem(t, "user-a", "alpha")

		env.notifier.fail = true
		err := env.sched.RunOnce(ctx)
		require.Error(t, err)

		var fresh model.Item
		require.NoError(t, env.db.First(&fresh, "item_id = ?", item.ItemID).Error)
		assert.False(t, fresh.AwaitingReview)
		assert.Nil(t, fresh.LastReminderMessageID)

		// 復旧後のティックで送られる
		env.notifier.fail = false
		require.NoError(t, env.sched.RunOnce(ctx))
		require.Len(t, env.notifier.sent, 1)
		require.NoError(t, env.db.First(&fresh, "item_id = ?", item.ItemID).Error)
		assert.True(t, fresh.AwaitingReview)
	})
}

func TestScheduler_HourFilter(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: ギルド設定の通知時刻と一致する時刻だけ送られる", func(t *testing.T) {
		env := setupEnv(t)
		env.createDueItem(t, "user-a", "alpha")

		hour := 9
		_, err := env.profile.UpdateGuildConfig(ctx, "guild-1", &model.PutGuildConfigRequest{ReminderHour: &hour})
		require.NoError(t, err)

		// 通知時刻ではない時刻のティック
		require.NoError(t, env.sched.run(ctx, 8))
		assert.Empty(t, env.notifier.sent)

		// 通知時刻のティック
		require.NoError(t, env.sched.run(ctx, 9))
		require.Len(t, env.notifier.sent, 1)
	})

	t.Run("正常系: 手動実行は通知時刻に関係なく送られる", func(t *testing.T) {
		env := setupEnv(t)
		env.createDueItem(t, "user-a", "alpha")

		hour := 23
		_, err := env.profile.UpdateGuildConfig(ctx, "guild-1", &model.PutGuildConfigRequest{ReminderHour: &hour})
		require.NoError(t, err)

		require.NoError(t, env.sched.RunOnce(ctx))
		require.Len(t, env.notifier.sent, 1)
	})
}
