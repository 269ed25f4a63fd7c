// internal/service/item_service_test.go
package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/repository"
	"go_5_review_keep/internal/timeutil"
)

// --- テストヘルパー関数 ---

// setupTestDB はテストごとに独立したインメモリDBを用意します。
// DSNにテスト名を含めることで、cache=shared でもテスト間でDBが混ざりません
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect database for testing")
	require.NoError(t, repository.Migrate(db), "failed to migrate database for testing")
	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Reminder.BatchLimit = 10
	cfg.App.DefaultBotName = "Koharu"
	cfg.App.DefaultUserName = "Master"
	return cfg
}

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := timeutil.LoadLocation("")
	require.NoError(t, err)
	return loc
}

func newTestItemService(t *testing.T) (ItemService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewItemService(db,
		repository.NewGormItemRepository(),
		repository.NewGormFrequencyRepository(),
		repository.NewGormSeqRepository(),
		mustLoc(t), testConfig())
	return svc, db
}

func seedFrequency(t *testing.T, db *gorm.DB, guildID, name string, span time.Duration, isDefault bool) {
	t.Helper()
	freq := &model.Frequency{
		FrequencyID: uuid.New(),
		GuildID:     guildID,
		Name:        name,
		Duration:    span.Milliseconds(),
		IsDefault:   isDefault,
	}
	require.NoError(t, db.Create(freq).Error)
}

func createTestItem(t *testing.T, svc ItemService, userID, guildID, name string) *model.Item {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), &model.PostItemRequest{
		UserID:   userID,
		GuildID:  guildID,
		Name:     name,
		ImageURL: "https://example.com/" + name + ".png",
	})
	require.NoError(t, err)
	return item
}

// --- Test CreateItem ---

func Test_itemService_CreateItem(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"
	guildID := "guild-1"

	t.Run("正常系: デフォルトのリズムで作成され、番号1が割り当てられる", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)

		item, err := svc.CreateItem(ctx, &model.PostItemRequest{
			UserID:   userID,
			GuildID:  guildID,
			Name:     "binary search",
			ImageURL: "https://example.com/bs.png",
		})
		require.NoError(t, err)

		assert.Equal(t, "Daily", item.FrequencyName)
		assert.False(t, item.Archived)
		require.NotNil(t, item.ActiveSeq)
		assert.Equal(t, 1, *item.ActiveSeq)
		assert.Nil(t, item.ArchiveSeq)
		assert.False(t, item.AwaitingReview)

		// 次回リマインダーは0時に量子化されている
		loc := mustLoc(t)
		want := timeutil.NextReminderAt(time.Now(), 24*time.Hour, loc)
		assert.True(t, item.NextReminder.In(loc).Equal(want), "got %v, want %v", item.NextReminder, want)
	})

	t.Run("正常系: リズムを指定して作成できる", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		seedFrequency(t, db, guildID, "Weekly", 7*24*time.Hour, false)

		item, err := svc.CreateItem(ctx, &model.PostItemRequest{
			UserID:        userID,
			GuildID:       guildID,
			Name:          "graph traversal",
			ImageURL:      "https://example.com/graph.png",
			FrequencyName: "Weekly",
		})
		require.NoError(t, err)
		assert.Equal(t, "Weekly", item.FrequencyName)
		assert.Equal(t, (7 * 24 * time.Hour).Milliseconds(), item.FrequencyDuration)
	})

	t.Run("正常系: 作成のたびに番号が増える", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)

		for i := 1; i <= 3; i++ {
			item := createTestItem(t, svc, userID, guildID, fmt.Sprintf("item-%d", i))
			require.NotNil(t, item.ActiveSeq)
			assert.Equal(t, i, *item.ActiveSeq)
		}
	})

	t.Run("正常系: 別ユーザーの採番は独立している", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)

		a := createTestItem(t, svc, "user-a", guildID, "item-a")
		b := createTestItem(t, svc, "user-b", guildID, "item-b")
		assert.Equal(t, 1, *a.ActiveSeq)
		assert.Equal(t, 1, *b.ActiveSeq)
	})

	t.Run("異常系: 指定されたリズムが存在しない", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)

		_, err := svc.CreateItem(ctx, &model.PostItemRequest{
			UserID:        userID,
			GuildID:       guildID,
			Name:          "x",
			ImageURL:      "https://example.com/x.png",
			FrequencyName: "Nope",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))

		var appErr *model.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "FREQUENCY_NOT_FOUND", appErr.Detail.Code)
	})

	t.Run("異常系: デフォルトのリズムが未設定", func(t *testing.T) {
		svc, _ := newTestItemService(t)

		_, err := svc.CreateItem(ctx, &model.PostItemRequest{
			UserID:   userID,
			GuildID:  guildID,
			Name:     "x",
			ImageURL: "https://example.com/x.png",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrInvalidInput))
	})
}

// --- Test ArchiveItem / ReviveItem ---

func Test_itemService_ArchiveAndRevive(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"
	guildID := "guild-1"

	t.Run("正常系: 番号参照でアーカイブするとアーカイブ系列の番号が付く", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		created := createTestItem(t, svc, userID, guildID, "item-1")

		archived, err := svc.ArchiveItem(ctx, userID, guildID, model.RefBySeq(*created.ActiveSeq))
		require.NoError(t, err)

		assert.True(t, archived.Archived)
		require.NotNil(t, archived.ArchiveSeq)
		assert.Equal(t, 1, *archived.ArchiveSeq)
		assert.Nil(t, archived.ActiveSeq)
	})

	t.Run("正常系: アーカイブで確認待ち状態が破棄される", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		created := createTestItem(t, svc, userID, guildID, "item-1")

		msgID := "m1"
		require.NoError(t, db.Model(&model.Item{}).Where("item_id = ?", created.ItemID).
			Updates(map[string]interface{}{"awaiting_review": true, "last_reminder_message_id": msgID}).Error)

		archived, err := svc.ArchiveItem(ctx, userID, guildID, model.RefByID(created.ItemID))
		require.NoError(t, err)
		assert.False(t, archived.AwaitingReview)
		assert.Nil(t, archived.LastReminderMessageID)
	})

	t.Run("正常系: 復帰は常に過去に払い出したどの番号よりも大きい番号を取る", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)

		a := createTestItem(t, svc, userID, guildID, "item-a") // active 1
		b := createTestItem(t, svc, userID, guildID, "item-b") // active 2

		// 最大番号のbをアーカイブ。現存の最大番号は1に下がる
		_, err := svc.ArchiveItem(ctx, userID, guildID, model.RefByID(b.ItemID))
		require.NoError(t, err)

		// 復帰しても 2 は再利用されず 3 になる
		revived, err := svc.ReviveItem(ctx, userID, guildID, model.RefByID(b.ItemID))
		require.NoError(t, err)
		require.NotNil(t, revived.ActiveSeq)
		assert.Equal(t, 3, *revived.ActiveSeq)

		// aの番号はそのまま
		fresh, err := svc.ListActive(ctx, userID, guildID)
		require.NoError(t, err)
		require.Len(t, fresh, 2)
		assert.Equal(t, a.ItemID, fresh[0].ItemID)
		assert.Equal(t, 1, *fresh[0].ActiveSeq)
		assert.Equal(t, 3, *fresh[1].ActiveSeq)
	})

	t.Run("正常系: アーカイブ番号も再利用されない", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		a := createTestItem(t, svc, userID, guildID, "item-a")

		// アーカイブ→復帰→再アーカイブで番号は 1 → 2
		_, err := svc.ArchiveItem(ctx, userID, guildID, model.RefByID(a.ItemID))
		require.NoError(t, err)
		_, err = svc.ReviveItem(ctx, userID, guildID, model.RefByID(a.ItemID))
		require.NoError(t, err)
		again, err := svc.ArchiveItem(ctx, userID, guildID, model.RefByID(a.ItemID))
		require.NoError(t, err)
		require.NotNil(t, again.ArchiveSeq)
		assert.Equal(t, 2, *again.ArchiveSeq)
	})

	t.Run("正常系: 復帰で次回リマインダーが引き直される", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		a := createTestItem(t, svc, userID, guildID, "item-a")

		_, err := svc.ArchiveItem(ctx, userID, guildID, model.RefByID(a.ItemID))
		require.NoError(t, err)
		revived, err := svc.ReviveItem(ctx, userID, guildID, model.RefByID(a.ItemID))
		require.NoError(t, err)

		loc := mustLoc(t)
		want := timeutil.NextReminderAt(time.Now(), 24*time.Hour, loc)
		assert.True(t, revived.NextReminder.In(loc).Equal(want))
		assert.False(t, revived.AwaitingReview)
	})

	t.Run("異常系: ID参照でもアクティブ操作はアーカイブ済みに届かない", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		a := createTestItem(t, svc, userID, guildID, "item-a")

		_, err := svc.ArchiveItem(ctx, userID, guildID, model.RefByID(a.ItemID))
		require.NoError(t, err)

		// 二重アーカイブは NotFound
		_, err = svc.ArchiveItem(ctx, userID, guildID, model.RefByID(a.ItemID))
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("異常系: アクティブなアイテムは復帰できない", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		a := createTestItem(t, svc, userID, guildID, "item-a")

		_, err := svc.ReviveItem(ctx, userID, guildID, model.RefByID(a.ItemID))
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("異常系: 他ユーザーのアイテムには届かない", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		a := createTestItem(t, svc, userID, guildID, "item-a")

		_, err := svc.ArchiveItem(ctx, "someone-else", guildID, model.RefByID(a.ItemID))
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("異常系: 存在しない番号", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)

		_, err := svc.ArchiveItem(ctx, userID, guildID, model.RefBySeq(99))
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

// --- Test MoveItem ---

func Test_itemService_MoveItem(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"
	guildID := "guild-1"

	t.Run("正常系: リズムが切り替わり周期が引き直される", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		seedFrequency(t, db, guildID, "Weekly", 7*24*time.Hour, false)
		a := createTestItem(t, svc, userID, guildID, "item-a")

		moved, err := svc.MoveItem(ctx, userID, guildID, model.RefByID(a.ItemID), "Weekly")
		require.NoError(t, err)

		assert.Equal(t, "Weekly", moved.FrequencyName)
		loc := mustLoc(t)
		want := timeutil.NextReminderAt(time.Now(), 7*24*time.Hour, loc)
		assert.True(t, moved.NextReminder.In(loc).Equal(want))
		// 番号は変わらない
		require.NotNil(t, moved.ActiveSeq)
		assert.Equal(t, *a.ActiveSeq, *moved.ActiveSeq)
	})

	t.Run("正常系: 移動は未確認のリマインダーを黙って取り下げる", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		seedFrequency(t, db, guildID, "Weekly", 7*24*time.Hour, false)
		a := createTestItem(t, svc, userID, guildID, "item-a")

		msgID := "m1"
		require.NoError(t, db.Model(&model.Item{}).Where("item_id = ?", a.ItemID).
			Updates(map[string]interface{}{"awaiting_review": true, "last_reminder_message_id": msgID}).Error)

		moved, err := svc.MoveItem(ctx, userID, guildID, model.RefByID(a.ItemID), "Weekly")
		require.NoError(t, err)
		assert.False(t, moved.AwaitingReview)
		assert.Nil(t, moved.LastReminderMessageID)
	})

	t.Run("異常系: 移動先のリズムが存在しない場合は何も変わらない", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		a := createTestItem(t, svc, userID, guildID, "item-a")

		_, err := svc.MoveItem(ctx, userID, guildID, model.RefByID(a.ItemID), "Nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))

		fresh, err := svc.ListActive(ctx, userID, guildID)
		require.NoError(t, err)
		require.Len(t, fresh, 1)
		assert.Equal(t, "Daily", fresh[0].FrequencyName)
	})

	t.Run("異常系: アーカイブ済みのアイテムは移動できない", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)
		seedFrequency(t, db, guildID, "Weekly", 7*24*time.Hour, false)
		a := createTestItem(t, svc, userID, guildID, "item-a")
		_, err := svc.ArchiveItem(ctx, userID, guildID, model.RefByID(a.ItemID))
		require.NoError(t, err)

		_, err = svc.MoveItem(ctx, userID, guildID, model.RefByID(a.ItemID), "Weekly")
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

// --- Test 一覧 ---

func Test_itemService_Listing(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"
	guildID := "guild-1"

	t.Run("正常系: アクティブ一覧は番号順", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)

		createTestItem(t, svc, userID, guildID, "first")
		createTestItem(t, svc, userID, guildID, "second")
		createTestItem(t, svc, userID, guildID, "third")

		items, err := svc.ListActive(ctx, userID, guildID)
		require.NoError(t, err)
		require.Len(t, items, 3)
		for i, item := range items {
			assert.Equal(t, i+1, *item.ActiveSeq)
		}
	})

	t.Run("正常系: アーカイブ一覧はアーカイブ番号順で、アクティブとは混ざらない", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)

		a := createTestItem(t, svc, userID, guildID, "keep")
		b := createTestItem(t, svc, userID, guildID, "drop-1")
		c := createTestItem(t, svc, userID, guildID, "drop-2")

		_, err := svc.ArchiveItem(ctx, userID, guildID, model.RefByID(b.ItemID))
		require.NoError(t, err)
		_, err = svc.ArchiveItem(ctx, userID, guildID, model.RefByID(c.ItemID))
		require.NoError(t, err)

		active, err := svc.ListActive(ctx, userID, guildID)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, a.ItemID, active[0].ItemID)

		archived, err := svc.ListArchived(ctx, userID, guildID)
		require.NoError(t, err)
		require.Len(t, archived, 2)
		assert.Equal(t, b.ItemID, archived[0].ItemID)
		assert.Equal(t, 1, *archived[0].ArchiveSeq)
		assert.Equal(t, c.ItemID, archived[1].ItemID)
		assert.Equal(t, 2, *archived[1].ArchiveSeq)
	})

	t.Run("正常系: 他ユーザーのアイテムは一覧に出ない", func(t *testing.T) {
		svc, db := newTestItemService(t)
		seedFrequency(t, db, guildID, "Daily", 24*time.Hour, true)

		createTestItem(t, svc, userID, guildID, "mine")
		createTestItem(t, svc, "user-2", guildID, "theirs")

		items, err := svc.ListActive(ctx, userID, guildID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "mine", items[0].Name)
	})
}
