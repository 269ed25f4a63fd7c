// internal/handlers/admin_handler.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/excel"
	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/service"
	"go_5_review_keep/internal/timeutil"
	"go_5_review_keep/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AdminHandler struct {
	items     service.ItemService
	frequency service.FrequencyService
	profile   service.ProfileService
	cfg       *config.Config
	loc       *time.Location
	logger    *slog.Logger
}

func NewAdminHandler(items service.ItemService, frequency service.FrequencyService, profile service.ProfileService, cfg *config.Config, loc *time.Location, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		items:     items,
		frequency: frequency,
		profile:   profile,
		cfg:       cfg,
		loc:       loc,
		logger:    logger,
	}
}

type adminLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type adminLoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login は管理パスワードを検証してアクセストークンを発行するためのハンドラ
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "AdminLogin"))

	var req adminLoginRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		logger.Warn("Validation failed", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.Admin.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("Admin login failed: password mismatch")
		appErr := model.NewAppError("UNAUTHORIZED", "パスワードが正しくありません。", "password", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	expiry := time.Duration(h.cfg.Admin.TokenExpiryMinutes) * time.Minute
	claims := &jwt.RegisteredClaims{
		Subject:   middleware.AdminSubject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(h.cfg.Admin.JWTSecret))
	if err != nil {
		logger.Error("Error signing admin token", slog.Any("error", err))
		webutil.HandleError(w, logger, fmt.Errorf("AdminHandler.Login: %w", err))
		return
	}

	logger.Info("Admin logged in successfully")
	webutil.RespondWithJSON(w, http.StatusOK, adminLoginResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(expiry.Seconds()),
	}, logger)
}

// GetGuildConfig はギルド設定を取得するためのハンドラ。未作成ならデフォルトを作る
func (h *AdminHandler) GetGuildConfig(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetGuildConfig"))

	guildID := chi.URLParam(r, "guild_id")
	logger = logger.With(slog.String("guild_id", guildID))

	cfg, err := h.profile.GetGuildConfig(r.Context(), guildID)
	if err != nil {
		logger.Error("Error getting guild config in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Guild config retrieved successfully")
	webutil.RespondWithJSON(w, http.StatusOK, cfg, logger)
}

// PutGuildConfig はギルド設定を部分更新するためのハンドラ
func (h *AdminHandler) PutGuildConfig(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutGuildConfig"))

	guildID := chi.URLParam(r, "guild_id")
	logger = logger.With(slog.String("guild_id", guildID))

	var req model.PutGuildConfigRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		logger.Warn("Validation failed", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	cfg, err := h.profile.UpdateGuildConfig(r.Context(), guildID, &req)
	if err != nil {
		logger.Error("Error updating guild config in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Guild config updated successfully")
	webutil.RespondWithJSON(w, http.StatusOK, cfg, logger)
}

// GetFrequencies はギルドの頻度一覧を取得するためのハンドラ
func (h *AdminHandler) GetFrequencies(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetFrequencies"))

	guildID := chi.URLParam(r, "guild_id")
	logger = logger.With(slog.String("guild_id", guildID))

	frequencies, err := h.frequency.ListFrequencies(r.Context(), guildID)
	if err != nil {
		logger.Error("Error listing frequencies in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if frequencies == nil {
		frequencies = []*model.Frequency{}
	}
	logger.Info("Frequencies listed successfully", slog.Int("count", len(frequencies)))
	webutil.RespondWithJSON(w, http.StatusOK, frequencies, logger)
}

// PostFrequency は頻度を追加するためのハンドラ
func (h *AdminHandler) PostFrequency(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostFrequency"))

	guildID := chi.URLParam(r, "guild_id")
	logger = logger.With(slog.String("guild_id", guildID))

	var req model.PostFrequencyRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		logger.Warn("Validation failed", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	frequency, err := h.frequency.CreateFrequency(r.Context(), guildID, &req)
	if err != nil {
		logger.Error("Error creating frequency in service", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Frequency created successfully", slog.String("frequency_id", frequency.FrequencyID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, frequency, logger)
}

// DeleteFrequency は頻度を削除するためのハンドラ。
// 使用中の頻度は 409 を返す
func (h *AdminHandler) DeleteFrequency(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteFrequency"))

	idStr := chi.URLParam(r, "frequency_id")
	frequencyID, err := uuid.Parse(idStr)
	if err != nil {
		logger.Warn("Invalid frequency ID format in URL", slog.String("frequency_id_str", idStr), slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_URL_PARAM", "frequency_idの形式が正しくありません。", "frequency_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("frequency_id", frequencyID.String()))

	if err := h.frequency.DeleteFrequency(r.Context(), frequencyID); err != nil {
		logger.Error("Error deleting frequency in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Frequency deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}

// SeedFrequencies はギルドに標準の頻度セットを投入するためのハンドラ
func (h *AdminHandler) SeedFrequencies(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "SeedFrequencies"))

	guildID := chi.URLParam(r, "guild_id")
	logger = logger.With(slog.String("guild_id", guildID))

	frequencies, err := h.frequency.SeedDefaults(r.Context(), guildID)
	if err != nil {
		logger.Error("Error seeding frequencies in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Default frequencies seeded successfully", slog.Int("count", len(frequencies)))
	webutil.RespondWithJSON(w, http.StatusOK, frequencies, logger)
}

// GetUserConfigs はギルドのユーザー設定一覧を取得するためのハンドラ
func (h *AdminHandler) GetUserConfigs(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetUserConfigs"))

	guildID := chi.URLParam(r, "guild_id")
	logger = logger.With(slog.String("guild_id", guildID))

	configs, err := h.profile.ListUserConfigs(r.Context(), guildID)
	if err != nil {
		logger.Error("Error listing user configs in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if configs == nil {
		configs = []*model.UserConfig{}
	}
	logger.Info("User configs listed successfully", slog.Int("count", len(configs)))
	webutil.RespondWithJSON(w, http.StatusOK, configs, logger)
}

// PostUserConfig はユーザー設定を登録・更新するためのハンドラ
func (h *AdminHandler) PostUserConfig(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostUserConfig"))

	guildID := chi.URLParam(r, "guild_id")
	logger = logger.With(slog.String("guild_id", guildID))

	var req model.PostUserConfigRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		logger.Warn("Validation failed", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	userConfig, err := h.profile.UpsertUserConfig(r.Context(), guildID, &req)
	if err != nil {
		logger.Error("Error upserting user config in service", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("User config upserted successfully", slog.String("user_id", req.UserID))
	webutil.RespondWithJSON(w, http.StatusOK, userConfig, logger)
}

// ExportItems はユーザーのアイテム一覧を xlsx で出力するためのハンドラ
func (h *AdminHandler) ExportItems(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ExportItems"))

	userID, guildID, err := ownerQueryParams(r)
	if err != nil {
		logger.Warn("Missing owner query params", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("user_id", userID), slog.String("guild_id", guildID))

	items, err := h.items.ListAll(r.Context(), userID, guildID)
	if err != nil {
		logger.Error("Error listing items in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	flattened := make([]model.Item, 0, len(items))
	for _, item := range items {
		flattened = append(flattened, *item)
	}

	workbook, err := excel.Export(flattened, h.loc)
	if err != nil {
		logger.Error("Error building workbook", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	fileName := fmt.Sprintf("items_%s_%s.xlsx", userID, timeutil.Midnight(time.Now().In(h.loc), h.loc).Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := workbook.Write(w); err != nil {
		logger.Error("Error writing workbook to response", slog.Any("error", err))
		return
	}
	logger.Info("Items exported successfully", slog.Int("count", len(items)))
}
