// internal/timeutil/timeutil.go
package timeutil

import (
	"strconv"
	"strings"
	"time"

	"go_5_review_keep/internal/model"
)

// Midnight は t をタイムゾーン loc における「その日の0時」に切り捨てます。
// 次回リマインダーは必ずこの値に量子化され、確認した時刻による
// 時刻ずれ（ジッター）が復習サイクルに蓄積しないようにします
func Midnight(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// NextReminderAt は「now + span」を量子化した次回リマインダー時刻を返します
func NextReminderAt(now time.Time, span time.Duration, loc *time.Location) time.Time {
	return Midnight(now.Add(span), loc)
}

// ParseSpan は管理画面で入力される期間表記をパースします。
// 対応書式: "30m" "36h" "2d" "1w"、および裸の整数（日数として解釈）。
// 不正な書式は ErrInvalidInput を返し、変更は一切行われません
func ParseSpan(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, model.NewAppError("INVALID_DURATION", "期間が指定されていません。", "duration", model.ErrInvalidInput)
	}

	unit := time.Duration(24) * time.Hour
	num := s
	switch {
	case strings.HasSuffix(s, "m"):
		unit = time.Minute
		num = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "h"):
		unit = time.Hour
		num = strings.TrimSuffix(s, "h")
	case strings.HasSuffix(s, "d"):
		num = strings.TrimSuffix(s, "d")
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
		num = strings.TrimSuffix(s, "w")
	}

	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return 0, model.NewAppError("INVALID_DURATION", "期間の書式が正しくありません。例: 1d, 2w, 36h", "duration", model.ErrInvalidInput)
	}
	return time.Duration(n) * unit, nil
}

// LoadLocation は設定のタイムゾーン名を解決します。空文字は基準タイムゾーン
// （元システムに合わせて Asia/Kolkata）にフォールバックします
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = "Asia/Kolkata"
	}
	return time.LoadLocation(name)
}
