// internal/model/guild_config.go
package model

import "time"

// GuildConfig はギルド（スコープ）ごとの設定です。初回アクセス時にデフォルト値で作成されます
type GuildConfig struct {
	GuildID      string    `gorm:"primaryKey" json:"guild_id"`
	BotName      string    `gorm:"not null;default:''" json:"bot_name"`
	ReminderHour int       `gorm:"not null;default:0" json:"reminder_hour"` // 基準タイムゾーンでの時刻 (0-23)
	NotifyChatID string    `gorm:"not null;default:''" json:"notify_chat_id"` // 空ならユーザーIDへ直接通知
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (GuildConfig) TableName() string {
	return "guild_configs"
}

// ギルド設定更新リクエストDTO
type PutGuildConfigRequest struct {
	BotName      *string `json:"bot_name,omitempty" validate:"omitempty,min=1,max=100"`
	ReminderHour *int    `json:"reminder_hour,omitempty" validate:"omitempty,gte=0,lte=23"`
	NotifyChatID *string `json:"notify_chat_id,omitempty"`
}
