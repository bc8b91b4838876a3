// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/watchroom/cliparse"
	"github.com/danielhkuo/watchroom/middleware"
	"github.com/danielhkuo/watchroom/models"
)

type ChatHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewChatHandler(db *sql.DB, cfg cliparse.Config) *ChatHandler {
	return &ChatHandler{db: db, cfg: cfg}
}

// GetMessages handles GET /chat/messages?limit=N.
// Returns the newest N messages in ascending id order.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	limit := models.DefaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if h.cfg.ChatLimit > 0 && limit > h.cfg.ChatLimit {
		limit = h.cfg.ChatLimit
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, user_id, username, role, text, created_at FROM (
			SELECT id, user_id, username, role, text, created_at
			FROM messages
			ORDER BY id DESC
			LIMIT $1
		) recent
		ORDER BY id
	`, limit)
	if err != nil {
		slog.Error("failed to query messages", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Username, &m.Role, &m.Text, &m.Timestamp); err != nil {
			slog.Error("failed to scan message", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate messages", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, messages)
}

// SendMessage handles POST /chat/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req models.SendMessageRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Message text is required")
		return
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Message is too long")
		return
	}

	enabled, err := h.chatEnabled(r.Context())
	if err != nil {
		slog.Error("failed to read chat settings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !enabled {
		middleware.ErrorResponse(w, http.StatusForbidden, "Chat is disabled")
		return
	}
	if user.IsChatMuted {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are muted")
		return
	}

	msg := models.Message{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO messages (user_id, username, role, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, msg.UserID, msg.Username, msg.Role, msg.Text, msg.Timestamp).Scan(&msg.ID)
	if err != nil {
		slog.Error("failed to insert message", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	slog.Debug("message sent", "message_id", msg.ID, "user_id", user.ID)
	chatMessagesSent.Inc()

	middleware.JSONResponse(w, http.StatusCreated, msg)
}

// DeleteMessage handles DELETE /chat/messages/{id}
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.db.ExecContext(r.Context(), `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete message", "error", err, "message_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete message")
		return
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Message not found")
		return
	}

	slog.Info("message deleted", "message_id", id, "by", middleware.CurrentUser(r).ID)
	moderationActions.WithLabelValues("delete_message").Inc()

	middleware.JSONResponse(w, http.StatusOK, models.ClearChatResponse{Deleted: n})
}

// ClearChat handles DELETE /chat/messages
func (h *ChatHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	result, err := h.db.ExecContext(r.Context(), `DELETE FROM messages`)
	if err != nil {
		slog.Error("failed to clear chat", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to clear chat")
		return
	}
	n, _ := result.RowsAffected()

	slog.Info("chat cleared", "deleted", n, "by", middleware.CurrentUser(r).ID)
	moderationActions.WithLabelValues("clear_chat").Inc()

	middleware.JSONResponse(w, http.StatusOK, models.ClearChatResponse{Deleted: n})
}

// GetSettings handles GET /chat/settings
func (h *ChatHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.chatEnabled(r.Context())
	if err != nil {
		slog.Error("failed to read chat settings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ChatSettings{Enabled: enabled})
}

// SetSettings handles PUT /chat/settings
func (h *ChatHandler) SetSettings(w http.ResponseWriter, r *http.Request) {
	var req models.ChatSettingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "enabled is required")
		return
	}

	_, err := h.db.ExecContext(r.Context(), `
		UPDATE chat_settings SET enabled = $1, updated_at = $2 WHERE id = 1
	`, *req.Enabled, time.Now().UTC())
	if err != nil {
		slog.Error("failed to update chat settings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update chat settings")
		return
	}

	slog.Info("chat toggled", "enabled", *req.Enabled, "by", middleware.CurrentUser(r).ID)
	moderationActions.WithLabelValues("toggle_chat").Inc()

	middleware.JSONResponse(w, http.StatusOK, models.ChatSettings{Enabled: *req.Enabled})
}

func (h *ChatHandler) chatEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := h.db.QueryRowContext(ctx, `SELECT enabled FROM chat_settings WHERE id = 1`).Scan(&enabled)
	if err == sql.ErrNoRows {
		// Schema seeds the row; treat a missing one as the default
		return true, nil
	}
	return enabled, err
}
