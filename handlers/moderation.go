// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/watchroom/middleware"
	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
)

// moderationTarget resolves the {id} path value and rejects self-targeting
func moderationTarget(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return 0, false
	}
	if caller := middleware.CurrentUser(r); caller != nil && caller.ID == id {
		middleware.ErrorResponse(w, http.StatusForbidden, "You cannot target yourself")
		return 0, false
	}
	return id, true
}

// ToggleMute handles PUT /users/{id}/mute
func (h *AuthHandler) ToggleMute(w http.ResponseWriter, r *http.Request) {
	targetID, ok := moderationTarget(w, r)
	if !ok {
		return
	}

	var muted bool
	err := h.db.QueryRowContext(r.Context(), `
		UPDATE users SET is_chat_muted = NOT is_chat_muted
		WHERE id = $1
		RETURNING is_chat_muted
	`, targetID).Scan(&muted)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to toggle mute", "error", err, "user_id", targetID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	slog.Info("chat mute toggled",
		"user_id", targetID,
		"muted", muted,
		"by", middleware.CurrentUser(r).ID,
	)
	moderationActions.WithLabelValues("mute").Inc()

	middleware.JSONResponse(w, http.StatusOK, models.MuteResponse{IsChatMuted: muted})
}

// ToggleBan handles PUT /users/{id}/ban. Banning also takes the user offline.
func (h *AuthHandler) ToggleBan(w http.ResponseWriter, r *http.Request) {
	targetID, ok := moderationTarget(w, r)
	if !ok {
		return
	}

	// SET expressions see the pre-update row in both postgres and sqlite
	var banned bool
	err := h.db.QueryRowContext(r.Context(), `
		UPDATE users
		SET is_banned = NOT is_banned,
		    is_online = CASE WHEN is_banned THEN is_online ELSE FALSE END
		WHERE id = $1
		RETURNING is_banned
	`, targetID).Scan(&banned)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to toggle ban", "error", err, "user_id", targetID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	slog.Info("ban toggled",
		"user_id", targetID,
		"banned", banned,
		"by", middleware.CurrentUser(r).ID,
	)
	moderationActions.WithLabelValues("ban").Inc()

	middleware.JSONResponse(w, http.StatusOK, models.BanResponse{IsBanned: banned})
}

// ChangeRole handles PUT /users/{id}/role
func (h *AuthHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := moderationTarget(w, r)
	if !ok {
		return
	}

	var req models.ChangeRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	role, err := roles.Parse(string(req.Role))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.db.ExecContext(r.Context(), `UPDATE users SET role = $1 WHERE id = $2`, role, targetID)
	if err != nil {
		slog.Error("failed to change role", "error", err, "user_id", targetID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	slog.Info("role changed",
		"user_id", targetID,
		"role", role,
		"by", middleware.CurrentUser(r).ID,
	)
	moderationActions.WithLabelValues("role").Inc()

	middleware.JSONResponse(w, http.StatusOK, models.RoleResponse{Role: role})
}

// SetOffline handles PUT /users/{id}/offline. Users may mark themselves
// offline; anyone who can manage users may mark others.
func (h *AuthHandler) SetOffline(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	caller := middleware.CurrentUser(r)
	if caller.ID != targetID && !roles.Can(caller.Role, roles.ManageUsers) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	result, err := h.db.ExecContext(r.Context(), `
		UPDATE users SET is_online = FALSE, last_seen = $1 WHERE id = $2
	`, time.Now().UTC(), targetID)
	if err != nil {
		slog.Error("failed to set offline", "error", err, "user_id", targetID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	slog.Debug("user offline", "user_id", targetID)

	middleware.JSONResponse(w, http.StatusOK, models.OnlineResponse{IsOnline: false})
}
