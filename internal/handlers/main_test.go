// internal/handlers/main_test.go
package handlers_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/handlers"
	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/repository"
	"go_5_review_keep/internal/service"
	"go_5_review_keep/internal/timeutil"
)

const testAdminPassword = "test-password"

// testApp はハンドラテスト用に組み立てたアプリケーション一式です。
// DBはテストごとに独立したインメモリsqliteを使います
type testApp struct {
	DB       *gorm.DB
	Router   *chi.Mux
	Items    service.ItemService
	Reminder service.ReminderService
	Profile  service.ProfileService
	Runner   *stubRunner
}

// stubRunner は手動実行エンドポイント用のスタブです
type stubRunner struct {
	runs int
	err  error
}

func (r *stubRunner) RunOnce(_ context.Context) error {
	r.runs++
	return r.err
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	loc, err := timeutil.LoadLocation("")
	require.NoError(t, err)

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Reminder.BatchLimit = 10
	cfg.App.DefaultBotName = "Koharu"
	cfg.App.DefaultUserName = "Master"
	cfg.Admin.PasswordHash = string(passwordHash)
	cfg.Admin.JWTSecret = "test-jwt-secret"
	cfg.Admin.TokenExpiryMinutes = 60

	itemRepo := repository.NewGormItemRepository()
	freqRepo := repository.NewGormFrequencyRepository()
	itemSvc := service.NewItemService(db, itemRepo, freqRepo,
		repository.NewGormSeqRepository(), loc, cfg)
	reminderSvc := service.NewReminderService(db, itemRepo, loc, cfg)
	frequencySvc := service.NewFrequencyService(db, freqRepo, itemRepo)
	profileSvc := service.NewProfileService(db,
		repository.NewGormGuildConfigRepository(),
		repository.NewGormUserConfigRepository(), cfg)
	phraser := service.NewPhraser(cfg) // APIキーなし、フォールバック文面のみ

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := &stubRunner{}

	itemHandler := handlers.NewItemHandler(itemSvc, phraser, profileSvc, testLogger)
	reminderHandler := handlers.NewReminderHandler(reminderSvc, phraser, profileSvc, runner, testLogger)
	adminHandler := handlers.NewAdminHandler(itemSvc, frequencySvc, profileSvc, cfg, loc, testLogger)

	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Post("/", itemHandler.PostItem)
			r.Get("/", itemHandler.GetItems)
			r.Get("/archived", itemHandler.GetArchivedItems)
			r.Post("/{ref}/archive", itemHandler.ArchiveItem)
			r.Post("/{ref}/revive", itemHandler.ReviveItem)
			r.Post("/{ref}/move", itemHandler.MoveItem)
		})
		r.Route("/reminders", func(r chi.Router) {
			r.Post("/confirm", reminderHandler.ConfirmBatch)
		})
	})
	router.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuthMiddleware(cfg))

			r.Post("/reminders/run", reminderHandler.RunReminders)
			r.Get("/items/export", adminHandler.ExportItems)

			r.Route("/guilds/{guild_id}", func(r chi.Router) {
				r.Get("/config", adminHandler.GetGuildConfig)
				r.Put("/config", adminHandler.PutGuildConfig)

				r.Get("/frequencies", adminHandler.GetFrequencies)
				r.Post("/frequencies", adminHandler.PostFrequency)
				r.Post("/frequencies/seed", adminHandler.SeedFrequencies)

				r.Get("/users", adminHandler.GetUserConfigs)
				r.Post("/users", adminHandler.PostUserConfig)
			})
			r.Delete("/frequencies/{frequency_id}", adminHandler.DeleteFrequency)
		})
	})

	return &testApp{
		DB:       db,
		Router:   router,
		Items:    itemSvc,
		Reminder: reminderSvc,
		Profile:  profileSvc,
		Runner:   runner,
	}
}

// seedDailyFrequency はテストギルドにデフォルトのリズムを投入します
func (app *testApp) seedDailyFrequency(t *testing.T, guildID string) {
	t.Helper()
	require.NoError(t, app.DB.Create(&model.Frequency{
		FrequencyID: uuid.New(),
		GuildID:     guildID,
		Name:        "Daily",
		Duration:    (24 * time.Hour).Milliseconds(),
		IsDefault:   true,
	}).Error)
}

// seedFrequencyRow はデフォルト以外のリズムを追加します
func seedFrequencyRow(t *testing.T, app *testApp, guildID, name string, durationMs int64) {
	t.Helper()
	require.NoError(t, app.DB.Create(&model.Frequency{
		FrequencyID: uuid.New(),
		GuildID:     guildID,
		Name:        name,
		Duration:    durationMs,
		IsDefault:   false,
	}).Error)
}
