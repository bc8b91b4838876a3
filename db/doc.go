// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates its schema.

# Connecting

Open picks the driver from cfg.DatabaseType: lib/pq for postgres, the pure-Go
modernc sqlite driver for sqlite. SQLite connections are limited to one open
connection and get foreign keys and a busy timeout via DSN pragmas.

	conn, err := db.Open(cfg)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - users: Identities with role, ban, mute and presence flags
  - messages: Chat log with author username and role snapshots
  - chat_settings: Single row holding the global chat switch
  - videos: Video history; the newest row is the current video
  - polls: Poll lifecycle (at most one active)
  - poll_options: Options with their vote counts
  - poll_votes: One vote per identity per poll

# Relationships

	users 1──* messages
	polls 1──* poll_options
	polls 1──* poll_votes
	users 1──* poll_votes

Poll options and votes are deleted with their poll.

# Constraint Errors

IsUniqueViolation recognises duplicate-key errors from both drivers. Handlers
use it to turn races (duplicate usernames, second votes, concurrent poll
creation) into 409 responses.
*/
package db
