// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/watchroom/cliparse"
	"github.com/danielhkuo/watchroom/db"
	"github.com/danielhkuo/watchroom/roles"
)

// Only a creator can change roles through the API, so the first creator has
// to be assigned directly in the database.
var promoteCmd = &cobra.Command{
	Use:   "promote <username> <role>",
	Short: "Assign a role to a registered user directly in the database",
	Args:  cobra.ExactArgs(2),
	RunE:  runPromote,
}

func init() {
	cliparse.BindFlags(promoteCmd.Flags())
}

func runPromote(cmd *cobra.Command, args []string) error {
	role, err := roles.Parse(args[1])
	if err != nil {
		return err
	}

	cfg, err := cliparse.Load(cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := db.CreateSchema(dbConn, cfg.DatabaseType); err != nil {
		return err
	}
	return promote(cmd.Context(), dbConn, args[0], role)
}

func promote(ctx context.Context, conn *sql.DB, username string, role roles.Role) error {
	res, err := conn.ExecContext(ctx, `UPDATE users SET role = $1 WHERE username = $2`, role, username)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no user named %q", username)
	}

	slog.Info("role changed", "username", username, "role", role)
	return nil
}
