package repository

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"go_5_review_keep/internal/model"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB はGORMの接続を初期化します。接続やPingに失敗した場合はエラーを返し、
// 呼び出し側（main）はプロセスを終了させます。永続ストアなしで
// 劣化稼働させることはありません
func NewDB(databaseURL string, appLogger *slog.Logger) (*gorm.DB, error) {

	var gormLogLevel gormlogger.LogLevel
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		gormLogLevel = gormlogger.Info
	} else {
		gormLogLevel = gormlogger.Warn
	}

	// slog-gorm でSQLログもアプリのslogハンドラに流す
	slogGormLogger := slogGorm.New(
		slogGorm.WithHandler(appLogger.Handler()),
		slogGorm.WithTraceAll(),
		slogGorm.WithSlowThreshold(500*time.Millisecond),
	)
	finalGormLogger := slogGormLogger.LogMode(gormLogLevel)

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: finalGormLogger,
	})
	if err != nil {
		appLogger.Error("Failed to connect to database with GORM", slog.Any("error", err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		return nil, err
	}

	if err = sqlDB.Ping(); err != nil {
		appLogger.Error("Error pinging database", slog.Any("error", err))
		sqlDB.Close()
		return nil, err
	}

	// コネクションプールの設定
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		appLogger.Error("Error migrating database schema", slog.Any("error", err))
		sqlDB.Close()
		return nil, err
	}

	appLogger.Info("Database connection established with GORM")
	return db, nil
}

// Migrate はスキーマを最新化します。テストのインメモリDB初期化からも使います
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Item{},
		&model.Frequency{},
		&model.GuildConfig{},
		&model.UserConfig{},
		&model.SeqCounter{},
	)
}
