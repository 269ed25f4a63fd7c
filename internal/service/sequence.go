// internal/service/sequence.go
package service

import (
	"context"
	"errors"

	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/repository"

	"gorm.io/gorm"
)

// nextSequence は (ユーザー, ギルド, 状態) の次のシーケンス番号を払い出します。
// カウンタは割り当て直前にその場で読み直し、1 + 今までの最大値 を返します。
// カウンタはアイテムが状態を離れても巻き戻さないため、アーカイブ→復帰を
// 繰り返しても番号が再利用されることはなく、欠番は許容されます。
//
// 既知の制限: 読み→書きの2ステップなので、同一ユーザーが同時に2つの
// リクエストを送ると同番号を二重に割り当てる可能性があります。一覧表示は
// 作成日時でタイブレークするため表示は壊れません。
func nextSequence(ctx context.Context, tx *gorm.DB, items repository.ItemRepository, seqs repository.SeqRepository, userID, guildID string, state model.ItemState) (int, error) {
	counter, err := seqs.Find(ctx, tx, userID, guildID, state)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return 0, err
		}
		// カウンタ未作成。既存データから初期化する（カウンタ導入前のレコード対策）
		var max int
		if state == model.StateArchived {
			max, err = items.MaxArchiveSeq(ctx, tx, userID, guildID)
		} else {
			max, err = items.MaxActiveSeq(ctx, tx, userID, guildID)
		}
		if err != nil {
			return 0, err
		}
		counter = &model.SeqCounter{
			UserID:  userID,
			GuildID: guildID,
			State:   state,
			LastSeq: max,
		}
	}

	counter.LastSeq++
	if err := seqs.Save(ctx, tx, counter); err != nil {
		return 0, err
	}
	return counter.LastSeq, nil
}
