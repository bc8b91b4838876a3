// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the watchroom command.

Watchroom is a shared video room: one VK video everyone watches, a live
chat, a five-level moderation role hierarchy and polls for picking the next
video.

# Commands

	watchroom serve                      Run the API server
	watchroom promote <username> <role>  Assign a role directly in the database
	watchroom watch -u name              Sign in and follow the chat

Only a creator can change roles through the API, so a fresh install uses
promote to appoint its first creator.

# Configuration

serve and promote read flags, then environment variables (including a .env
file), then defaults:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string; sqlite defaults to a file in the XDG data dir
  - TOKEN_SECRET (--token-secret): Session token signing secret, required by serve
  - TOKEN_TTL (--token-ttl): Session lifetime (default: 24h)
  - CHAT_LIMIT (--chat-limit): Most messages returned per request (default: 500)
  - VIDEO_HOST (--video-host): Embeddable player host (default: vk.com)
  - LOG_LEVEL, LOG_FORMAT: slog level and text/json output

watch reads WATCHROOM_SERVER, WATCHROOM_USERNAME and WATCHROOM_PASSWORD.

# Architecture

  - handlers: HTTP request handlers (auth, chat, video, polls)
  - router: chi routes and middleware chain
  - middleware: logging, request ids, CORS, auth gates, metrics
  - models: Request/response and domain types
  - roles: Role enum and per-action allow-sets
  - poll: Option validation and percentage tally
  - vkvideo: VK link parsing and embed URLs
  - auth: Password hashing and session tokens
  - db: Driver selection and schema creation
  - cliparse: Configuration parsing
  - client: Typed HTTP client for the API
  - session: Client-side state, chat log, poll engine and sync loop

See package documentation for each component.
*/
package main
