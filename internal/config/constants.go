// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "review_keep"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort              = ":8080"
	DefaultLogLevel                = "info"
	DefaultTimezone                = "Asia/Kolkata"
	DefaultBotName                 = "Koharu"
	DefaultUserName                = "Master"
	DefaultReminderHour            = 0
	DefaultReminderBatchLimit      = 10
	DefaultPhraseTimeoutSeconds    = 5
	DefaultPhraseModel             = "gemma-3-12b-it"
	DefaultAdminTokenExpiryMinutes = 60
)
