// internal/model/ref.go
package model

import (
	"strconv"

	"github.com/google/uuid"
)

// ItemRef はアイテムへの参照です。内部ID (uuid) か、状態スコープの
// シーケンス番号のどちらか一方を保持します。トランスポート層が生文字列を
// パースしてからサービスに渡すため、サービスの契約は型で区別されます。
type ItemRef struct {
	id  *uuid.UUID
	seq *int
}

// RefByID は内部IDによる参照を作ります
func RefByID(id uuid.UUID) ItemRef {
	return ItemRef{id: &id}
}

// RefBySeq はシーケンス番号による参照を作ります。番号がアクティブ系列か
// アーカイブ系列かは、参照を解決する操作側で決まります
func RefBySeq(seq int) ItemRef {
	return ItemRef{seq: &seq}
}

// ParseItemRef は生文字列を解釈します。uuidとして読めればID参照、
// 正の整数として読めればシーケンス参照、それ以外は ErrInvalidInput
func ParseItemRef(s string) (ItemRef, error) {
	if id, err := uuid.Parse(s); err == nil {
		return RefByID(id), nil
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return RefBySeq(n), nil
	}
	return ItemRef{}, NewAppError("INVALID_ITEM_REF", "アイテムの指定が不正です。IDか番号を指定してください。", "ref", ErrInvalidInput)
}

func (r ItemRef) ID() (uuid.UUID, bool) {
	if r.id == nil {
		return uuid.Nil, false
	}
	return *r.id, true
}

func (r ItemRef) Seq() (int, bool) {
	if r.seq == nil {
		return 0, false
	}
	return *r.seq, true
}

// String はログ出力用の表現を返します
func (r ItemRef) String() string {
	if r.id != nil {
		return r.id.String()
	}
	if r.seq != nil {
		return "#" + strconv.Itoa(*r.seq)
	}
	return "(empty ref)"
}
