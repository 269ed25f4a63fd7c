// internal/model/seq_counter.go
package model

import "time"

// SeqCounter は (ユーザー, ギルド, 状態) ごとの採番カウンタです。
// LastSeq はその系列で今までに払い出した最大番号。アイテムが状態を離れても
// 減らないため、番号が再利用されることはありません（欠番は仕様どおり許容）
type SeqCounter struct {
	UserID    string    `gorm:"primaryKey"`
	GuildID   string    `gorm:"primaryKey"`
	State     ItemState `gorm:"primaryKey"`
	LastSeq   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (SeqCounter) TableName() string {
	return "seq_counters"
}
