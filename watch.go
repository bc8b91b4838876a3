// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/watchroom/client"
	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
	"github.com/danielhkuo/watchroom/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sign in and follow the room's chat from the terminal",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	fs := watchCmd.Flags()
	fs.StringP("server", "s", "http://localhost:3318", "watchroom server URL")
	fs.StringP("username", "u", "", "Account username")
	fs.String("password", "", "Account password (prefer WATCHROOM_PASSWORD)")
	fs.Duration("interval", session.DefaultSyncInterval, "How often to refresh chat and users")
	fs.Bool("register", false, "Create the account before signing in")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	v.SetEnvPrefix("watchroom")
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	username, password := v.GetString("username"), v.GetString("password")
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := session.New(client.New(v.GetString("server")), session.Options{})
	signIn := app.Login
	if v.GetBool("register") {
		signIn = app.Register
	}
	if err := signIn(ctx, username, password); err != nil {
		return err
	}
	defer app.Logout(context.Background())

	if err := app.Load(ctx); err != nil {
		return err
	}
	if video := app.Video(); video != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Now playing: %s %s\n", video.Title, video.EmbedURL)
	}

	interval := v.GetDuration("interval")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.RunSync(ctx, interval) })
	g.Go(func() error { return printChat(ctx, cmd.OutOrStdout(), app, interval) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// printChat writes every message it has not shown yet, oldest first
func printChat(ctx context.Context, w io.Writer, app *session.App, interval time.Duration) error {
	var last int64
	show := func() {
		for _, m := range app.Messages() {
			if m.ID <= last {
				continue
			}
			fmt.Fprintln(w, formatMessage(m))
			last = m.ID
		}
	}

	show()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			show()
			slog.Debug("chat refreshed", "last_id", last)
		}
	}
}

func formatMessage(m models.Message) string {
	role := ""
	if m.Role != "" && m.Role != roles.User {
		role = " [" + strings.ToUpper(string(m.Role)) + "]"
	}
	return fmt.Sprintf("%s %s%s: %s", m.Timestamp.Local().Format("15:04"), m.Username, role, m.Text)
}
