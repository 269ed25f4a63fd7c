// internal/model/frequency.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Frequency はギルドごとに定義される復習サイクル（リズム）です
type Frequency struct {
	FrequencyID uuid.UUID `gorm:"type:uuid;primaryKey" json:"frequency_id"`
	GuildID     string    `gorm:"not null;index:idx_guild_name,unique" json:"guild_id"`
	Name        string    `gorm:"not null;index:idx_guild_name,unique" json:"name"`
	Duration    int64     `gorm:"not null" json:"duration_ms"` // ミリ秒
	IsDefault   bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Frequency) TableName() string {
	return "frequencies"
}

// Span は Duration(ms) を time.Duration に変換します
func (f *Frequency) Span() time.Duration {
	return time.Duration(f.Duration) * time.Millisecond
}

// 頻度作成リクエストDTO。Duration は "1d" "2w" "36h" のような書式
type PostFrequencyRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=100"`
	Duration  string `json:"duration" validate:"required"`
	IsDefault bool   `json:"is_default"`
}
