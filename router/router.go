// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/watchroom/cliparse"
	"github.com/danielhkuo/watchroom/handlers"
	"github.com/danielhkuo/watchroom/middleware"
	"github.com/danielhkuo/watchroom/roles"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *chi.Mux {
	r := chi.NewRouter()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	chatHandler := handlers.NewChatHandler(db, cfg)
	videoHandler := handlers.NewVideoHandler(db, cfg)
	pollHandler := handlers.NewPollHandler(db, cfg)

	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics)
	r.Use(middleware.Authenticate(authHandler.Tokens(), authHandler.LookupUser))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.ErrorResponse(w, http.StatusMethodNotAllowed, "")
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Auth and user directory
	r.Post("/auth/register", middleware.WithLogging(authHandler.Register))
	r.Post("/auth/login", middleware.WithLogging(authHandler.Login))
	r.Get("/users", middleware.WithLogging(authHandler.ListUsers))
	r.Put("/users/{id}/mute", middleware.WithLogging(middleware.RequirePermission(roles.ManageUsers, authHandler.ToggleMute)))
	r.Put("/users/{id}/ban", middleware.WithLogging(middleware.RequirePermission(roles.ManageUsers, authHandler.ToggleBan)))
	r.Put("/users/{id}/role", middleware.WithLogging(middleware.RequirePermission(roles.ChangeRole, authHandler.ChangeRole)))
	r.Put("/users/{id}/offline", middleware.WithLogging(middleware.RequireUser(authHandler.SetOffline)))

	// Chat
	r.Get("/chat/messages", middleware.WithLogging(chatHandler.GetMessages))
	r.Post("/chat/messages", middleware.WithLogging(middleware.RequireUser(chatHandler.SendMessage)))
	r.Delete("/chat/messages", middleware.WithLogging(middleware.RequirePermission(roles.ModerateChat, chatHandler.ClearChat)))
	r.Delete("/chat/messages/{id}", middleware.WithLogging(middleware.RequirePermission(roles.ModerateChat, chatHandler.DeleteMessage)))
	r.Get("/chat/settings", middleware.WithLogging(chatHandler.GetSettings))
	r.Put("/chat/settings", middleware.WithLogging(middleware.RequirePermission(roles.ToggleChat, chatHandler.SetSettings)))

	// Video
	r.Get("/video/current", middleware.WithLogging(videoHandler.GetCurrent))
	r.Put("/video/current", middleware.WithLogging(middleware.RequirePermission(roles.ChangeVideo, videoHandler.ChangeVideo)))

	// Polls
	r.Get("/polls/active", middleware.WithLogging(pollHandler.GetActive))
	r.Post("/polls", middleware.WithLogging(middleware.RequirePermission(roles.ManagePolls, pollHandler.CreatePoll)))
	r.Post("/polls/active/votes", middleware.WithLogging(middleware.RequireUser(pollHandler.Vote)))
	r.Post("/polls/active/end", middleware.WithLogging(middleware.RequirePermission(roles.ManagePolls, pollHandler.EndPoll)))

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("watchroom API v1"))
	})

	return r
}
