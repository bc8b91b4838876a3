// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all server settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Cobra commands register the same flags on their own flag set and resolve
them with Load:

	cliparse.BindFlags(cmd.Flags())
	cfg, err := cliparse.Load(cmd.Flags())

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - DatabaseURL: connection string; for sqlite defaults to
    $XDG_DATA_HOME/watchroom/watchroom.sqlite
  - TokenSecret: Secret for session token signing (required to serve)
  - TokenTTL: Session token lifetime (default: 24h)
  - ChatLimit: Maximum messages per chat fetch (default: 500)
  - VideoHost: Host of the embeddable player (default: vk.com)
  - LogLevel, LogFormat: slog handler settings

# CLI Flags

	-p, --port          Server port
	-d, --database-url  Database URL
	-t, --database-type Database type
	--token-secret      Session token secret
	--token-ttl         Session token lifetime
	--chat-limit        Max chat fetch size
	--video-host        Player host
	--log-level         debug, info, warn, error
	--log-format        text or json

# Environment Variables

Flags fall back to environment variables named after the flag, upper-cased
with dashes replaced by underscores (PORT, DATABASE_URL, TOKEN_SECRET, ...).
A .env file in the working directory is loaded first; variables already set
in the environment win over the file.

CLI flags take precedence over environment variables.
*/
package cliparse
