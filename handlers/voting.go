// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/watchroom/db"
	"github.com/danielhkuo/watchroom/middleware"
	"github.com/danielhkuo/watchroom/models"
)

// Vote handles POST /polls/active/votes.
// The vote record is inserted before the count is bumped; its primary key
// on (poll_id, user_id) makes a second vote fail with 409 from any device.
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.OptionID <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "optionId is required")
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var (
		pollID int64
		active bool
	)
	err = tx.QueryRowContext(r.Context(), `
		SELECT p.id, p.is_active
		FROM poll_options o
		JOIN polls p ON p.id = o.poll_id
		WHERE o.id = $1
	`, req.OptionID).Scan(&pollID, &active)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Option not found")
		return
	}
	if err != nil {
		slog.Error("failed to query option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !active {
		pollVotes.WithLabelValues("closed").Inc()
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not active")
		return
	}

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO poll_votes (poll_id, user_id, option_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, pollID, user.ID, req.OptionID, time.Now().UTC())

	if db.IsUniqueViolation(err) {
		pollVotes.WithLabelValues("duplicate").Inc()
		middleware.ErrorResponse(w, http.StatusConflict, "Already voted")
		return
	}
	if err != nil {
		slog.Error("failed to insert vote", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	_, err = tx.ExecContext(r.Context(), `UPDATE poll_options SET votes = votes + 1 WHERE id = $1`, req.OptionID)
	if err != nil {
		slog.Error("failed to increment votes", "error", err, "option_id", req.OptionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			pollVotes.WithLabelValues("duplicate").Inc()
			middleware.ErrorResponse(w, http.StatusConflict, "Already voted")
			return
		}
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	slog.Info("vote recorded", "poll_id", pollID, "option_id", req.OptionID, "user_id", user.ID)
	pollVotes.WithLabelValues("accepted").Inc()

	middleware.JSONResponse(w, http.StatusCreated, models.VoteResponse{Message: "Vote recorded"})
}
