// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers implements the HTTP handlers of the watch room.

# Handler Types

  - AuthHandler: registration, login, the user directory, moderation
    (mute, ban, role) and presence
  - ChatHandler: chat messages and the global chat switch
  - VideoHandler: the currently playing video
  - PollHandler: the video-suggestion poll and voting

Each handler holds the database and config:

	authHandler := handlers.NewAuthHandler(db, cfg)
	chatHandler := handlers.NewChatHandler(db, cfg)

The caller is read from the request context (middleware.CurrentUser). Role
checks happen in the router through middleware.RequirePermission; handlers
only enforce rules that depend on the target, such as never moderating
yourself.

# Voting

A vote inserts a (poll_id, user_id) record before incrementing the option
count, in one transaction. A repeat vote from any device hits the primary key
and is answered with 409.

# Error Handling

Handlers answer JSON errors through middleware.ErrorResponse:

  - 400: validation failures
  - 401: bad credentials
  - 403: banned, muted, chat disabled, self-targeting
  - 404: unknown user, message, option or video
  - 409: duplicate username, repeat vote, poll not active
  - 500: database errors (logged with slog)

# Metrics

Domain counters (watchroom_auth_events_total, watchroom_poll_votes_total,
...) are registered on the default Prometheus registry.
*/
package handlers
