// internal/webutil/request.go
package webutil

import (
	"encoding/json"
	"errors"
	"net/http"

	"go_5_review_keep/internal/model"

	"github.com/go-playground/validator/v10"
)

// DecodeJSONBody はリクエストボディをデコードします
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.ErrInvalidInput
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
	}
	return nil
}

// ValidateStruct はDTOをバリデーションし、失敗時は最初のエラーを
// 日本語メッセージ付きの AppError にして返します
func ValidateStruct(dst interface{}) error {
	if err := Validator.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			firstErr := validationErrors[0]
			translatedMsg := firstErr.Translate(Trans)
			return model.NewAppError(
				"VALIDATION_ERROR",
				translatedMsg,
				firstErr.Field(),
				model.ErrInvalidInput,
			)
		}
		return err
	}
	return nil
}
