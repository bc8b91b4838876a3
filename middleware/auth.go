// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/watchroom/auth"
	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
)

// UserLookup loads the current state of a user. It returns an error
// wrapping sql.ErrNoRows when the user does not exist.
type UserLookup func(ctx context.Context, id int64) (*models.User, error)

// Authenticate resolves an optional bearer token into the current user.
// Requests without an Authorization header pass through anonymously;
// a header that does not verify is rejected with 401.
func Authenticate(tokens *auth.TokenIssuer, lookup UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				ErrorResponse(w, http.StatusUnauthorized, "Authorization header must be a bearer token")
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Token has expired"
				}
				ErrorResponse(w, http.StatusUnauthorized, msg)
				return
			}

			id, err := claims.UserID()
			if err != nil {
				ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			user, err := lookup(r.Context(), id)
			if errors.Is(err, sql.ErrNoRows) {
				ErrorResponse(w, http.StatusUnauthorized, "Unknown user")
				return
			}
			if err != nil {
				slog.Error("failed to load user for token", "error", err, "user_id", id)
				ErrorResponse(w, http.StatusInternalServerError, "Failed to authenticate")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the authenticated user, or nil for anonymous requests
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userKey).(*models.User)
	return user
}

// RequireUser rejects anonymous (401) and banned (403) callers
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if user.IsBanned {
			ErrorResponse(w, http.StatusForbidden, "You are banned")
			return
		}
		next(w, r)
	}
}

// RequirePermission lets the request through only if the caller's role is
// in the allow-set for action
func RequirePermission(action roles.Action, next http.HandlerFunc) http.HandlerFunc {
	return RequireUser(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if !roles.Can(user.Role, action) {
			slog.Warn("permission denied",
				"user_id", user.ID,
				"role", user.Role,
				"action", action,
			)
			ErrorResponse(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		next(w, r)
	})
}
