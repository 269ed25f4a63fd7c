// internal/model/user_config.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserConfig は (ユーザー, ギルド) ごとの個人設定です
type UserConfig struct {
	UserConfigID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_config_id"`
	UserID        string    `gorm:"not null;index:idx_user_guild,unique" json:"user_id"`
	GuildID       string    `gorm:"not null;index:idx_user_guild,unique" json:"guild_id"`
	PreferredName string    `gorm:"not null;default:''" json:"preferred_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (UserConfig) TableName() string {
	return "user_configs"
}

// ユーザー設定upsertリクエストDTO
type PostUserConfigRequest struct {
	UserID        string `json:"user_id" validate:"required"`
	PreferredName string `json:"preferred_name" validate:"required,min=1,max=100"`
}
