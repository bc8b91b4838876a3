// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import "log/slog"

// Notifier receives short transient notices about user actions.
type Notifier interface {
	Info(msg string)
	Error(title string, err error)
}

// LogNotifier writes notices to a slog logger
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Info(msg string) {
	n.Logger.Info(msg)
}

func (n LogNotifier) Error(title string, err error) {
	n.Logger.Warn(title, "error", err)
}
