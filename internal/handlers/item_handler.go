// internal/handlers/item_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/service"
	"go_5_review_keep/internal/webutil"

	"github.com/go-chi/chi/v5"
)

type ItemHandler struct {
	service service.ItemService
	phraser service.Phraser
	profile service.ProfileService
	logger  *slog.Logger
}

func NewItemHandler(s service.ItemService, phraser service.Phraser, profile service.ProfileService, logger *slog.Logger) *ItemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemHandler{
		service: s,
		phraser: phraser,
		profile: profile,
		logger:  logger,
	}
}

// PostItem は新しいアイテムを作成するためのハンドラ
func (h *ItemHandler) PostItem(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostItem"))

	var req model.PostItemRequest
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
	logger = logger.With(slog.String("user_id", req.UserID), slog.String("guild_id", req.GuildID))

	item, err := h.service.CreateItem(r.Context(), &req)
	if err != nil {
		logger.Error("Error creating item in service", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	userName := h.profile.PreferredName(r.Context(), req.UserID, req.GuildID)
	message := h.phraser.CreatedMessage(r.Context(), item.Name, userName, h.profile.BotName(r.Context(), req.GuildID))

	logger.Info("Item created successfully", slog.String("item_id", item.ItemID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, model.ItemActionResponse{Item: item, Message: message}, logger)
}

// GetItems はアクティブなアイテムを番号順に一覧するためのハンドラ
func (h *ItemHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetItems"))

	userID, guildID, err := ownerQueryParams(r)
	if err != nil {
		logger.Warn("Missing owner query params", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("user_id", userID), slog.String("guild_id", guildID))

	items, err := h.service.ListActive(r.Context(), userID, guildID)
	if err != nil {
		logger.Error("Error listing active items in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if items == nil {
		items = []*model.Item{}
	}
	logger.Info("Active items listed successfully", slog.Int("count", len(items)))
	webutil.RespondWithJSON(w, http.StatusOK, items, logger)
}

// GetArchivedItems はアーカイブ済みアイテムを番号順に一覧するためのハンドラ
func (h *ItemHandler) GetArchivedItems(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetArchivedItems"))

	userID, guildID, err := ownerQueryParams(r)
	if err != nil {
		logger.Warn("Missing owner query params", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("user_id", userID), slog.String("guild_id", guildID))

	items, err := h.service.ListArchived(r.Context(), userID, guildID)
	if err != nil {
		logger.Error("Error listing archived items in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if items == nil {
		items = []*model.Item{}
	}
	logger.Info("Archived items listed successfully", slog.Int("count", len(items)))
	webutil.RespondWithJSON(w, http.StatusOK, items, logger)
}

// ArchiveItem はアクティブなアイテムをアーカイブへ移すためのハンドラ。
// URL の ref は UUID か番号のどちらでも指定できる
func (h *ItemHandler) ArchiveItem(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ArchiveItem"))

	ref, req, err := h.decodeItemAction(r)
	if err != nil {
		logger.Warn("Invalid archive request", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("user_id", req.UserID), slog.String("guild_id", req.GuildID), slog.String("ref", ref.String()))

	item, err := h.service.ArchiveItem(r.Context(), req.UserID, req.GuildID, ref)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Item not found for archive", slog.Any("error", err))
		} else {
			logger.Error("Error archiving item in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	userName := h.profile.PreferredName(r.Context(), req.UserID, req.GuildID)
	message := h.phraser.ArchiveMessage(r.Context(), item.Name, userName, h.profile.BotName(r.Context(), req.GuildID))

	logger.Info("Item archived successfully", slog.String("item_id", item.ItemID.String()))
	webutil.RespondWithJSON(w, http.StatusOK, model.ItemActionResponse{Item: item, Message: message}, logger)
}

// ReviveItem はアーカイブ済みアイテムをアクティブへ戻すためのハンドラ
func (h *ItemHandler) ReviveItem(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ReviveItem"))

	ref, req, err := h.decodeItemAction(r)
	if err != nil {
		logger.Warn("Invalid revive request", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("user_id", req.UserID), slog.String("guild_id", req.GuildID), slog.String("ref", ref.String()))

	item, err := h.service.ReviveItem(r.Context(), req.UserID, req.GuildID, ref)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Item not found for revive", slog.Any("error", err))
		} else {
			logger.Error("Error reviving item in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	userName := h.profile.PreferredName(r.Context(), req.UserID, req.GuildID)
	message := h.phraser.ReviveMessage(r.Context(), item.Name, userName, h.profile.BotName(r.Context(), req.GuildID))

	logger.Info("Item revived successfully", slog.String("item_id", item.ItemID.String()))
	webutil.RespondWithJSON(w, http.StatusOK, model.ItemActionResponse{Item: item, Message: message}, logger)
}

// MoveItem はアクティブなアイテムの頻度を切り替えるためのハンドラ
func (h *ItemHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "MoveItem"))

	ref, err := model.ParseItemRef(chi.URLParam(r, "ref"))
	if err != nil {
		logger.Warn("Invalid item ref in URL", slog.String("ref", chi.URLParam(r, "ref")), slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.MoveItemRequest
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
	logger = logger.With(slog.String("user_id", req.UserID), slog.String("guild_id", req.GuildID), slog.String("ref", ref.String()))

	item, err := h.service.MoveItem(r.Context(), req.UserID, req.GuildID, ref, req.FrequencyName)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Item or frequency not found for move", slog.Any("error", err))
		} else {
			logger.Error("Error moving item in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	userName := h.profile.PreferredName(r.Context(), req.UserID, req.GuildID)
	message := h.phraser.MoveMessage(r.Context(), item.Name, item.FrequencyName, userName, h.profile.BotName(r.Context(), req.GuildID))

	logger.Info("Item moved successfully", slog.String("item_id", item.ItemID.String()), slog.String("frequency", item.FrequencyName))
	webutil.RespondWithJSON(w, http.StatusOK, model.ItemActionResponse{Item: item, Message: message}, logger)
}

// decodeItemAction は archive / revive に共通の「URLのref + ボディの所有者」を読む
func (h *ItemHandler) decodeItemAction(r *http.Request) (model.ItemRef, *model.ItemActionRequest, error) {
	ref, err := model.ParseItemRef(chi.URLParam(r, "ref"))
	if err != nil {
		return model.ItemRef{}, nil, err
	}

	var req model.ItemActionRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		return model.ItemRef{}, nil, err
	}
	if err := webutil.ValidateStruct(req); err != nil {
		return model.ItemRef{}, nil, err
	}
	return ref, &req, nil
}

// ownerQueryParams は一覧系エンドポイントの user_id / guild_id クエリを読む
func ownerQueryParams(r *http.Request) (string, string, error) {
	userID := r.URL.Query().Get("user_id")
	guildID := r.URL.Query().Get("guild_id")
	if userID == "" {
		return "", "", model.NewAppError("MISSING_QUERY_PARAM", "user_idは必須です。", "user_id", model.ErrInvalidInput)
	}
	if guildID == "" {
		return "", "", model.NewAppError("MISSING_QUERY_PARAM", "guild_idは必須です。", "guild_id", model.ErrInvalidInput)
	}
	return userID, guildID, nil
}
