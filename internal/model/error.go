// internal/model/error.go
package model

import (
	"errors"
	"fmt"
)

// アプリケーション固有のエラー
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternalServer = errors.New("internal server error")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("resource conflict") // 参照中の頻度の削除など
	// バッチ操作は1件ずつ永続化するため、途中で失敗すると
	// 更新済みのアイテムはそのまま残る。その場合このエラーで通知する
	ErrPartialFailure = errors.New("batch partially failed")
)

// AppError はHTTPレスポンスに載せる詳細情報付きのエラーです。
// wrapped にはセンチネルエラーを入れ、errors.Is で種別判定できるようにします
type AppError struct {
	Detail  ErrorDetail
	wrapped error
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func NewAppError(code, message, field string, wrapped error) *AppError {
	return &AppError{
		Detail:  ErrorDetail{Code: code, Message: message, Field: field},
		wrapped: wrapped,
	}
}

func (e *AppError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Detail.Code, e.Detail.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Detail.Code, e.Detail.Message)
}

func (e *AppError) Unwrap() error {
	return e.wrapped
}

// APIErrorResponse はAPIエラーレスポンスの構造体
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
