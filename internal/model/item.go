// internal/model/item.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ItemState はアイテムの配置状態（アクティブ / アーカイブ）を表します
type ItemState string

const (
	StateActive   ItemState = "active"
	StateArchived ItemState = "archived"
)

// Item はユーザーが復習する1つの学習アイテムを表します。
// ActiveSeq と ArchiveSeq は排他的で、必ずどちらか一方だけが設定されます。
// 直接フィールドを書き換えず、Place() を経由して更新してください。
type Item struct {
	ItemID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"item_id"`
	UserID  string    `gorm:"not null;index:idx_owner_active,priority:1;index:idx_owner_archive,priority:1" json:"user_id"`
	GuildID string    `gorm:"not null;index:idx_owner_active,priority:2;index:idx_owner_archive,priority:2" json:"guild_id"`

	Name     string `gorm:"not null" json:"name"`
	ImageURL string `gorm:"not null" json:"image_url"`

	FrequencyName     string    `gorm:"not null" json:"frequency_name"`
	FrequencyDuration int64     `gorm:"not null" json:"frequency_duration_ms"` // ミリ秒
	NextReminder      time.Time `gorm:"not null;index" json:"next_reminder"`   // 常にタイムゾーン基準の0時に量子化済み

	Archived       bool `gorm:"not null;default:false;index:idx_owner_active,priority:3;index:idx_owner_archive,priority:3" json:"archived"`
	AwaitingReview bool `gorm:"not null;default:false" json:"awaiting_review"`

	// 二重シーケンス。ダッシュボード番号とアーカイブ番号は別系列で採番される
	ActiveSeq  *int `gorm:"index:idx_owner_active,priority:4" json:"active_seq,omitempty"`
	ArchiveSeq *int `gorm:"index:idx_owner_archive,priority:4" json:"archive_seq,omitempty"`

	// このアイテムが最後に束ねられたリマインダー通知のメッセージID。
	// 確認(confirm)が解決されるとクリアされる
	LastReminderMessageID *string `json:"last_reminder_message_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Item) TableName() string {
	return "items"
}

// Placement はアイテムの状態とそのシーケンス番号の組です。
// nullableな2フィールドをタグ付きの値として扱うことで、
// 「どちらか一方だけが設定される」という不変条件の更新箇所を1箇所にします。
type Placement struct {
	State ItemState
	Seq   int
}

// Place はアイテムの配置を更新します。唯一の正規の更新経路です。
func (i *Item) Place(p Placement) {
	switch p.State {
	case StateArchived:
		seq := p.Seq
		i.Archived = true
		i.ArchiveSeq = &seq
		i.ActiveSeq = nil
	default:
		seq := p.Seq
		i.Archived = false
		i.ActiveSeq = &seq
		i.ArchiveSeq = nil
	}
}

// Placement は現在の配置を返します
func (i *Item) Placement() Placement {
	if i.Archived {
		seq := 0
		if i.ArchiveSeq != nil {
			seq = *i.ArchiveSeq
		}
		return Placement{State: StateArchived, Seq: seq}
	}
	seq := 0
	if i.ActiveSeq != nil {
		seq = *i.ActiveSeq
	}
	return Placement{State: StateActive, Seq: seq}
}

// Duration は FrequencyDuration(ms) を time.Duration に変換します
func (i *Item) Duration() time.Duration {
	return time.Duration(i.FrequencyDuration) * time.Millisecond
}

// アイテム作成リクエストDTO
type PostItemRequest struct {
	UserID        string `json:"user_id" validate:"required"`
	GuildID       string `json:"guild_id" validate:"required"`
	Name          string `json:"name" validate:"required,min=1,max=200"`
	ImageURL      string `json:"image_url" validate:"required,url"`
	FrequencyName string `json:"frequency_name" validate:"omitempty,min=1"` // 空ならギルドのデフォルトを使用
}

// archive / revive 用の操作リクエストDTO（対象は URL 上の ref で指定）
type ItemActionRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	GuildID string `json:"guild_id" validate:"required"`
}

// move リクエストDTO
type MoveItemRequest struct {
	UserID        string `json:"user_id" validate:"required"`
	GuildID       string `json:"guild_id" validate:"required"`
	FrequencyName string `json:"frequency_name" validate:"required,min=1"`
}

// ライフサイクル操作のレスポンス。message は Phraser が生成した文面
type ItemActionResponse struct {
	Item    *Item  `json:"item"`
	Message string `json:"message"`
}
