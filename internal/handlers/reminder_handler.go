// internal/handlers/reminder_handler.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"go_5_review_keep/internal/model"
	"go_5_review_keep/internal/service"
	"go_5_review_keep/internal/webutil"
)

type ReminderHandler struct {
	service service.ReminderService
	phraser service.Phraser
	profile service.ProfileService
	runner  ReminderRunner
	logger  *slog.Logger
}

// ReminderRunner はリマインド送信処理の手動起動を抽象化します
type ReminderRunner interface {
	RunOnce(ctx context.Context) error
}

func NewReminderHandler(s service.ReminderService, phraser service.Phraser, profile service.ProfileService, runner ReminderRunner, logger *slog.Logger) *ReminderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderHandler{
		service: s,
		phraser: phraser,
		profile: profile,
		runner:  runner,
		logger:  logger,
	}
}

// ConfirmBatch は通知に束ねられたアイテムをまとめて確認済みにするためのハンドラ。
// 対象が1件も無くても 200 を返す（再送・二重確認に対して冪等）
func (h *ReminderHandler) ConfirmBatch(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ConfirmBatch"))

	var req model.ConfirmBatchRequest
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
	logger = logger.With(
		slog.String("user_id", req.UserID),
		slog.String("guild_id", req.GuildID),
		slog.String("message_id", req.MessageID),
	)

	result, err := h.service.ConfirmBatch(r.Context(), req.UserID, req.GuildID, req.MessageID)
	if err != nil {
		logger.Error("Error confirming batch in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	var message string
	if result.NoOp {
		logger.Info("Confirm batch resolved nothing")
	} else {
		userName := h.profile.PreferredName(r.Context(), req.UserID, req.GuildID)
		message = h.phraser.PraiseMessage(r.Context(), result.Confirmed, userName, h.profile.BotName(r.Context(), req.GuildID))
		logger.Info("Batch confirmed successfully", slog.Int("count", len(result.Confirmed)))
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.ConfirmBatchResponse{Result: result, Message: message}, logger)
}

// RunReminders はリマインド送信処理を即時に1回実行するためのハンドラ
func (h *ReminderHandler) RunReminders(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "RunReminders"))

	if err := h.runner.RunOnce(r.Context()); err != nil {
		logger.Error("Error running reminders", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Reminder run triggered successfully")
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
}
