// internal/config/config.go
package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	App struct {
		// 量子化の基準タイムゾーン。次回リマインダーは常にこのゾーンの0時
		Timezone        string `mapstructure:"timezone"`
		DefaultBotName  string `mapstructure:"default_bot_name"`
		DefaultUserName string `mapstructure:"default_user_name"`
	} `mapstructure:"app"`
	Reminder struct {
		Hour           int  `mapstructure:"hour"`             // ギルド設定の通知時刻の初期値 (基準タイムゾーン)
		BatchLimit     int  `mapstructure:"batch_limit"`      // 1通知に束ねる最大アイテム数
		CatchupOnStart bool `mapstructure:"catchup_on_start"` // 起動直後に期日チェックを1回走らせる
	} `mapstructure:"reminder"`
	Phrase struct {
		Endpoint       string `mapstructure:"endpoint"`
		APIKey         string `mapstructure:"api_key"`
		Model          string `mapstructure:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
		Retries        int    `mapstructure:"retries"`
	} `mapstructure:"phrase"`
	Notifier struct {
		Kind          string `mapstructure:"kind"` // "log" または "telegram"
		TelegramToken string `mapstructure:"telegram_token"`
	} `mapstructure:"notifier"`
	Admin struct {
		PasswordHash       string `mapstructure:"password_hash"` // bcryptハッシュ
		JWTSecret          string `mapstructure:"jwt_secret"`
		TokenExpiryMinutes int    `mapstructure:"token_expiry_minutes"`
	} `mapstructure:"admin"`
	CORS struct {
		AllowedOrigins   []string `mapstructure:"allowed_origins"`
		AllowedMethods   []string `mapstructure:"allowed_methods"`
		AllowedHeaders   []string `mapstructure:"allowed_headers"`
		AllowCredentials bool     `mapstructure:"allow_credentials"`
		MaxAge           int      `mapstructure:"max_age"`
	} `mapstructure:"cors"`
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	// 環境変数での上書き (例: APP_DATABASE_URL, APP_ADMIN_JWT_SECRET)
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("database.url", "APP_DATABASE_URL")
	viper.BindEnv("phrase.api_key", "APP_PHRASE_API_KEY")
	viper.BindEnv("notifier.telegram_token", "APP_TELEGRAM_TOKEN")
	viper.BindEnv("admin.jwt_secret", "APP_ADMIN_JWT_SECRET")
	viper.BindEnv("admin.password_hash", "APP_ADMIN_PASSWORD_HASH")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	// --- デフォルト値の設定 ---
	if Cfg.Server.Port == "" {
		Cfg.Server.Port = DefaultServerPort
	}
	if Cfg.Log.Level == "" {
		Cfg.Log.Level = DefaultLogLevel
	}
	if Cfg.App.Timezone == "" {
		Cfg.App.Timezone = DefaultTimezone
	}
	if Cfg.App.DefaultBotName == "" {
		Cfg.App.DefaultBotName = DefaultBotName
	}
	if Cfg.App.DefaultUserName == "" {
		Cfg.App.DefaultUserName = DefaultUserName
	}
	if Cfg.Reminder.BatchLimit <= 0 {
		Cfg.Reminder.BatchLimit = DefaultReminderBatchLimit
	}
	if Cfg.Reminder.Hour < 0 || Cfg.Reminder.Hour > 23 {
		log.Printf("Invalid reminder hour %d, using default %d", Cfg.Reminder.Hour, DefaultReminderHour)
		Cfg.Reminder.Hour = DefaultReminderHour
	}
	if !viper.IsSet("reminder.catchup_on_start") {
		Cfg.Reminder.CatchupOnStart = true
	}
	if Cfg.Phrase.TimeoutSeconds <= 0 {
		Cfg.Phrase.TimeoutSeconds = DefaultPhraseTimeoutSeconds
	}
	if Cfg.Phrase.Retries < 0 {
		Cfg.Phrase.Retries = 0
	}
	if Cfg.Phrase.Model == "" {
		Cfg.Phrase.Model = DefaultPhraseModel
	}
	if Cfg.Notifier.Kind == "" {
		Cfg.Notifier.Kind = "log"
	}
	if Cfg.Admin.TokenExpiryMinutes <= 0 {
		Cfg.Admin.TokenExpiryMinutes = DefaultAdminTokenExpiryMinutes
	}
	if Cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Timezone: %s", Cfg.App.Timezone)
	log.Printf("Reminder Hour: %d", Cfg.Reminder.Hour)

	return nil
}
