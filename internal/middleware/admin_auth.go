// internal/middleware/admin_auth.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/webutil"

	"github.com/golang-jwt/jwt/v5"
)

// AdminSubject は管理トークンの subject クレームに入る値です
const AdminSubject = "admin"

// AdminAuthMiddleware は管理APIの Bearer トークン(JWT)を検証するミドルウェアです。
// トークンは POST /api/admin/login でパスワードと引き換えに発行されます
func AdminAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Admin auth failed: Authorization header missing")
				appErr := model.NewAppError("UNAUTHORIZED", "Authorizationヘッダーが必要です。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			// "Bearer {token}" の形式を検証
			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				logger.Warn("Admin auth failed: Invalid Authorization header format")
				appErr := model.NewAppError("UNAUTHORIZED", "Authorizationヘッダーの形式が正しくありません。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}
			tokenString := headerParts[1]

			// jwt.Parse は署名と有効期限(exp)の両方を検証する
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.Admin.JWTSecret), nil
			})
			if err != nil {
				logger.Warn("Admin auth failed: Invalid token", "error", err)
				appErr := model.NewAppError("INVALID_TOKEN", "トークンが無効です。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				logger.Warn("Admin auth failed: Invalid claims")
				appErr := model.NewAppError("INVALID_TOKEN", "トークンが無効です。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			subject, err := claims.GetSubject()
			if err != nil || subject != AdminSubject {
				logger.Warn("Admin auth failed: Unexpected subject", "subject", subject)
				appErr := model.NewAppError("INVALID_TOKEN", "トークンの内容が不正です。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
