// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/watchroom/middleware"
	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/poll"
)

// GetActive handles GET /polls/active. hasVoted is only ever true for an
// authenticated caller.
func (h *PollHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	result, err := h.activePoll(r.Context(), middleware.CurrentUser(r))
	if err != nil {
		slog.Error("failed to load active poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}

func (h *PollHandler) activePoll(ctx context.Context, viewer *models.User) (models.ActivePoll, error) {
	var pollID int64
	err := h.db.QueryRowContext(ctx, `
		SELECT id FROM polls WHERE is_active ORDER BY id DESC LIMIT 1
	`).Scan(&pollID)
	if err == sql.ErrNoRows {
		return models.ActivePoll{}, nil
	}
	if err != nil {
		return models.ActivePoll{}, fmt.Errorf("query active poll: %w", err)
	}

	options, err := h.loadOptions(ctx, pollID)
	if err != nil {
		return models.ActivePoll{}, err
	}

	result := models.ActivePoll{Active: true, PollID: pollID}
	result.Options, result.TotalVotes = poll.Tally(options)

	if viewer != nil {
		err := h.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM poll_votes WHERE poll_id = $1 AND user_id = $2)
		`, pollID, viewer.ID).Scan(&result.HasVoted)
		if err != nil {
			return models.ActivePoll{}, fmt.Errorf("query vote record: %w", err)
		}
	}

	return result, nil
}

func (h *PollHandler) loadOptions(ctx context.Context, pollID int64) ([]models.PollOption, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, title, vk_url, votes FROM poll_options WHERE poll_id = $1 ORDER BY id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	options := []models.PollOption{}
	for rows.Next() {
		var o models.PollOption
		if err := rows.Scan(&o.ID, &o.Title, &o.VKURL, &o.Votes); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}
