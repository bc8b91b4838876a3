// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/watchroom/cliparse"
	"github.com/danielhkuo/watchroom/middleware"
	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/vkvideo"
)

type VideoHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVideoHandler(db *sql.DB, cfg cliparse.Config) *VideoHandler {
	return &VideoHandler{db: db, cfg: cfg}
}

// GetCurrent handles GET /video/current
func (h *VideoHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	var v models.Video
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, title, vk_url, description, created_at
		FROM videos
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&v.ID, &v.Title, &v.VKURL, &v.Description, &v.ChangedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "No video has been set")
		return
	}
	if err != nil {
		slog.Error("failed to query current video", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.withEmbed(&v)
	middleware.JSONResponse(w, http.StatusOK, v)
}

// ChangeVideo handles PUT /video/current. Earlier videos are kept as history.
func (h *VideoHandler) ChangeVideo(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeVideoRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	v := models.Video{
		Title:       strings.TrimSpace(req.Title),
		VKURL:       strings.TrimSpace(req.VKURL),
		Description: strings.TrimSpace(req.Description),
		ChangedAt:   time.Now().UTC(),
	}
	if v.Title == "" || v.VKURL == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title and vkUrl are required")
		return
	}

	user := middleware.CurrentUser(r)
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO videos (title, vk_url, description, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, v.Title, v.VKURL, v.Description, user.ID, v.ChangedAt).Scan(&v.ID)
	if err != nil {
		slog.Error("failed to insert video", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to change video")
		return
	}

	h.withEmbed(&v)
	if v.EmbedURL == "" {
		slog.Warn("video link has no embeddable reference", "video_id", v.ID, "vk_url", v.VKURL)
	}

	slog.Info("video changed", "video_id", v.ID, "title", v.Title, "by", user.ID)
	videoChanges.Inc()

	middleware.JSONResponse(w, http.StatusOK, v)
}

func (h *VideoHandler) withEmbed(v *models.Video) {
	if embed, ok := vkvideo.Embed(h.cfg.VideoHost, v.VKURL); ok {
		v.EmbedURL = embed
	}
}
