// internal/model/reminder.go
package model

// バッチ確認リクエストDTO。message_id は通知送信時にトランスポートが
// 払い出したメッセージIDで、同じ通知に束ねられたアイテムだけを解決する
type ConfirmBatchRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	GuildID   string `json:"guild_id" validate:"required"`
	MessageID string `json:"message_id" validate:"required"`
}

// ConfirmBatchResult はバッチ確認の結果です。
// NoOp は対象アイテムが1件もなかった（既に確認済みなど）ことを表し、
// エラーではありません
type ConfirmBatchResult struct {
	Confirmed []string `json:"confirmed"` // 解決したアイテム名、activeSeq順
	NoOp      bool     `json:"no_op"`
}

// バッチ確認レスポンスDTO
type ConfirmBatchResponse struct {
	Result  *ConfirmBatchResult `json:"result"`
	Message string              `json:"message"`
}
