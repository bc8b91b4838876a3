// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/watchroom/auth"
	"github.com/danielhkuo/watchroom/cliparse"
	"github.com/danielhkuo/watchroom/db"
	"github.com/danielhkuo/watchroom/middleware"
	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
)

const userColumns = `id, username, role, is_banned, is_chat_muted, is_online, last_seen, created_at`

type AuthHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	tokens *auth.TokenIssuer
}

func NewAuthHandler(db *sql.DB, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{
		db:     db,
		cfg:    cfg,
		tokens: auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL),
	}
}

// Tokens returns the issuer used to sign session tokens
func (h *AuthHandler) Tokens() *auth.TokenIssuer {
	return h.tokens
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if n := utf8.RuneCountInString(username); n < 2 || n > 50 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username must be 2-50 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	now := time.Now().UTC()
	user := models.User{
		Username:  username,
		Role:      roles.User,
		IsOnline:  true,
		LastSeen:  &now,
		CreatedAt: now,
	}

	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO users (username, password_hash, role, is_online, last_seen, created_at)
		VALUES ($1, $2, $3, TRUE, $4, $4)
		RETURNING id
	`, username, hash, roles.User, now).Scan(&user.ID)

	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
		return
	}
	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	slog.Info("user registered", "user_id", user.ID, "username", username)
	authEvents.WithLabelValues("register").Inc()

	h.respondWithToken(w, http.StatusCreated, &user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username and password are required")
		return
	}

	var (
		userID int64
		hash   string
		banned bool
	)
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, password_hash, is_banned FROM users WHERE username = $1
	`, username).Scan(&userID, &hash, &banned)

	if err == sql.ErrNoRows {
		authEvents.WithLabelValues("login_failed").Inc()
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := auth.CheckPassword(hash, req.Password); err != nil {
		authEvents.WithLabelValues("login_failed").Inc()
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if banned {
		authEvents.WithLabelValues("login_banned").Inc()
		middleware.ErrorResponse(w, http.StatusForbidden, "This account is banned")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		UPDATE users SET is_online = TRUE, last_seen = $1 WHERE id = $2
	`, time.Now().UTC(), userID)
	if err != nil {
		slog.Error("failed to mark user online", "error", err, "user_id", userID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	user, err := h.LookupUser(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load user", "error", err, "user_id", userID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("user logged in", "user_id", userID, "username", username)
	authEvents.WithLabelValues("login").Inc()

	h.respondWithToken(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *models.User) {
	token, expiresAt, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		slog.Error("failed to issue token", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	middleware.JSONResponse(w, status, models.AuthResponse{
		User:      *user,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// ListUsers handles GET /users
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		slog.Error("failed to query users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			slog.Error("failed to scan user", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, users)
}

// LookupUser loads a user by id. Missing users yield an error wrapping
// sql.ErrNoRows.
func (h *AuthHandler) LookupUser(ctx context.Context, id int64) (*models.User, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		user     models.User
		lastSeen sql.NullTime
	)
	err := s.Scan(
		&user.ID,
		&user.Username,
		&user.Role,
		&user.IsBanned,
		&user.IsChatMuted,
		&user.IsOnline,
		&lastSeen,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		user.LastSeen = &lastSeen.Time
	}
	return &user, nil
}

// pathID parses a positive integer path value, answering 400 otherwise
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
