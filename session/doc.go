// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session holds one viewer's client-side state and funnels every
action through named operations.

# Lifecycle

	app := session.New(client.New(url), session.Options{})
	if err := app.Login(ctx, "alice", password); err != nil { ... }
	if err := app.Load(ctx); err != nil { ... }
	go app.RunSync(ctx, session.DefaultSyncInterval)
	defer app.Logout(context.Background())

Logout tells the server the user went offline (best effort), clears every
cache and stops RunSync. Signing in again as someone else does the same.

# Local Gates

Checks that need no server round trip happen before any network call:

  - SendMessage: signed in, chat enabled, not muted, non-empty text
  - moderation: role allow-set from package roles, never the caller itself
  - CreatePoll: at least two options with a title and a link
  - Vote: at most once per poll; a repeat is a silent no-op

The server enforces the same rules; a 409 on Vote means the identity already
voted from elsewhere and only refreshes the poll.

# Sync

RunSync replaces the cached messages, chat flag and user directory every
interval. Each collection is last-fetch-wins. The signed-in user's own
directory entry also refreshes the session copy, so promotions and mutes
made by moderators apply locally.

# Notices

Every failure and every completed action is reported to a Notifier. The
default LogNotifier writes them through slog.
*/
package session
