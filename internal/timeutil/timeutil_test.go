// internal/timeutil/timeutil_test.go
package timeutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_5_review_keep/internal/model"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestMidnight(t *testing.T) {
	kolkata := mustLocation(t, "Asia/Kolkata")
	tokyo := mustLocation(t, "Asia/Tokyo")

	tests := []struct {
		name string
		in   time.Time
		loc  *time.Location
		want time.Time
	}{
		{
			name: "正常系: 日中の時刻は同日の0時に切り捨てられる",
			in:   time.Date(2025, 3, 10, 15, 42, 7, 123, kolkata),
			loc:  kolkata,
			want: time.Date(2025, 3, 10, 0, 0, 0, 0, kolkata),
		},
		{
			name: "正常系: すでに0時ならそのまま",
			in:   time.Date(2025, 3, 10, 0, 0, 0, 0, kolkata),
			loc:  kolkata,
			want: time.Date(2025, 3, 10, 0, 0, 0, 0, kolkata),
		},
		{
			name: "正常系: 別タイムゾーンの時刻はタイムゾーン変換してから切り捨てる",
			// 東京の2025-03-10 01:00 はコルカタでは2025-03-09 21:30
			in:   time.Date(2025, 3, 10, 1, 0, 0, 0, tokyo),
			loc:  kolkata,
			want: time.Date(2025, 3, 9, 0, 0, 0, 0, kolkata),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Midnight(tt.in, tt.loc)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestNextReminderAt(t *testing.T) {
	kolkata := mustLocation(t, "Asia/Kolkata")

	now := time.Date(2025, 3, 10, 18, 30, 0, 0, kolkata)

	t.Run("正常系: 1日後は翌日の0時", func(t *testing.T) {
		got := NextReminderAt(now, 24*time.Hour, kolkata)
		want := time.Date(2025, 3, 11, 0, 0, 0, 0, kolkata)
		assert.True(t, got.Equal(want), "got %v, want %v", got, want)
	})

	t.Run("正常系: 確認時刻が違っても同じ日に量子化される", func(t *testing.T) {
		morning := time.Date(2025, 3, 10, 6, 1, 0, 0, kolkata)
		evening := time.Date(2025, 3, 10, 23, 59, 0, 0, kolkata)
		span := 48 * time.Hour
		assert.True(t, NextReminderAt(morning, span, kolkata).Equal(NextReminderAt(evening, span, kolkata)))
	})

	t.Run("正常系: 1日未満の間隔は当日の0時になり得る", func(t *testing.T) {
		early := time.Date(2025, 3, 10, 1, 0, 0, 0, kolkata)
		got := NextReminderAt(early, 30*time.Minute, kolkata)
		want := time.Date(2025, 3, 10, 0, 0, 0, 0, kolkata)
		assert.True(t, got.Equal(want), "got %v, want %v", got, want)
	})
}

func TestParseSpan(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "正常系: 日指定", in: "2d", want: 48 * time.Hour},
		{name: "正常系: 週指定", in: "1w", want: 7 * 24 * time.Hour},
		{name: "正常系: 時間指定", in: "36h", want: 36 * time.Hour},
		{name: "正常系: 分指定", in: "30m", want: 30 * time.Minute},
		{name: "正常系: 裸の整数は日数", in: "3", want: 72 * time.Hour},
		{name: "正常系: 大文字と空白は許容", in: " 2D ", want: 48 * time.Hour},
		{name: "異常系: 空文字", in: "", wantErr: true},
		{name: "異常系: 数値でない", in: "abc", wantErr: true},
		{name: "異常系: ゼロ", in: "0d", wantErr: true},
		{name: "異常系: 負数", in: "-1d", wantErr: true},
		{name: "異常系: 単位だけ", in: "d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpan(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadLocation(t *testing.T) {
	t.Run("正常系: 空文字はデフォルトタイムゾーン", func(t *testing.T) {
		loc, err := LoadLocation("")
		require.NoError(t, err)
		assert.Equal(t, "Asia/Kolkata", loc.String())
	})

	t.Run("正常系: 指定したタイムゾーンを返す", func(t *testing.T) {
		loc, err := LoadLocation("Asia/Tokyo")
		require.NoError(t, err)
		assert.Equal(t, "Asia/Tokyo", loc.String())
	})

	t.Run("異常系: 不明なタイムゾーン", func(t *testing.T) {
		_, err := LoadLocation("Not/AZone")
		assert.Error(t, err)
	})
}
