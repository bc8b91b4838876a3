// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/watchroom/cliparse"
	"github.com/danielhkuo/watchroom/db"
	"github.com/danielhkuo/watchroom/middleware"
	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/poll"
)

type PollHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config) *PollHandler {
	return &PollHandler{db: db, cfg: cfg}
}

// CreatePoll handles POST /polls. Any poll that is still active is ended
// in the same transaction, so the new option set replaces it wholesale.
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	options, err := poll.ValidateOptions(req.Options)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	user := middleware.CurrentUser(r)
	now := time.Now().UTC()

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	ended, err := tx.ExecContext(r.Context(), `UPDATE polls SET is_active = FALSE, ended_at = $1 WHERE is_active`, now)
	if err != nil {
		slog.Error("failed to end previous poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	var pollID int64
	err = tx.QueryRowContext(r.Context(), `
		INSERT INTO polls (is_active, created_by, created_at)
		VALUES (TRUE, $1, $2)
		RETURNING id
	`, user.ID, now).Scan(&pollID)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Another poll was opened at the same time")
		return
	}
	if err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	for _, opt := range options {
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO poll_options (poll_id, title, vk_url, votes)
			VALUES ($1, $2, $3, 0)
		`, pollID, opt.Title, opt.VKURL)
		if err != nil {
			slog.Error("failed to insert option", "error", err, "poll_id", pollID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	replaced, _ := ended.RowsAffected()
	slog.Info("poll created",
		"poll_id", pollID,
		"options", len(options),
		"replaced", replaced > 0,
		"by", user.ID,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{PollID: pollID})
}

// EndPoll handles POST /polls/active/end. Ending when nothing is active
// is not an error.
func (h *PollHandler) EndPoll(w http.ResponseWriter, r *http.Request) {
	result, err := h.db.ExecContext(r.Context(), `
		UPDATE polls SET is_active = FALSE, ended_at = $1 WHERE is_active
	`, time.Now().UTC())
	if err != nil {
		slog.Error("failed to end poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to end poll")
		return
	}

	if n, _ := result.RowsAffected(); n > 0 {
		slog.Info("poll ended", "by", middleware.CurrentUser(r).ID)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ActivePoll{Active: false})
}
