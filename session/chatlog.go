// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
)

// chatLog keeps messages in ascending id order with no duplicate ids, holding
// at most limit entries. Every mutation of the cached chat goes through it.
type chatLog struct {
	limit int
	msgs  []models.Message
}

func newChatLog(limit int) *chatLog {
	return &chatLog{limit: limit}
}

// append inserts m at its id position. A message already present is replaced.
func (l *chatLog) append(m models.Message) {
	i, found := slices.BinarySearchFunc(l.msgs, m.ID, func(e models.Message, id int64) int {
		switch {
		case e.ID < id:
			return -1
		case e.ID > id:
			return 1
		}
		return 0
	})
	if found {
		l.msgs[i] = m
		return
	}
	l.msgs = slices.Insert(l.msgs, i, m)
	l.trim()
}

// remove drops the message with id and reports whether it was present
func (l *chatLog) remove(id int64) bool {
	n := len(l.msgs)
	l.msgs = slices.DeleteFunc(l.msgs, func(m models.Message) bool { return m.ID == id })
	return len(l.msgs) != n
}

func (l *chatLog) clear() {
	l.msgs = nil
}

// replace swaps in a fetched page wholesale
func (l *chatLog) replace(msgs []models.Message) {
	l.msgs = slices.Clone(msgs)
	slices.SortStableFunc(l.msgs, func(a, b models.Message) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	l.msgs = slices.CompactFunc(l.msgs, func(a, b models.Message) bool { return a.ID == b.ID })
	l.trim()
}

// trim keeps the newest limit messages
func (l *chatLog) trim() {
	if l.limit > 0 && len(l.msgs) > l.limit {
		l.msgs = slices.Clone(l.msgs[len(l.msgs)-l.limit:])
	}
}

func (l *chatLog) snapshot() []models.Message {
	return slices.Clone(l.msgs)
}

// Messages returns the cached chat, oldest first
func (a *App) Messages() []models.Message {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.chat.snapshot()
}

// ChatEnabled reports the last known global chat flag
func (a *App) ChatEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.chatEnabled
}

// SendMessage posts text as the signed-in user. Sends blocked by the chat
// flag, a mute, or empty text never reach the network.
func (a *App) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	a.mu.RLock()
	gen := a.done
	var err error
	switch {
	case a.me == nil:
		err = ErrNoSession
	case !a.chatEnabled:
		err = ErrChatDisabled
	case a.me.IsChatMuted:
		err = ErrMuted
	case text == "":
		err = ErrEmptyMessage
	case utf8.RuneCountInString(text) > models.MaxMessageLength:
		err = ErrMessageTooLong
	}
	a.mu.RUnlock()
	if err != nil {
		return a.fail("Message not sent", err)
	}

	msg, err := a.api.SendMessage(ctx, text)
	if err != nil {
		return a.fail("Message not sent", err)
	}

	a.mu.Lock()
	if !a.staleLocked(gen) {
		a.chat.append(*msg)
	}
	a.mu.Unlock()
	return nil
}

func (a *App) DeleteMessage(ctx context.Context, id int64) error {
	gen := a.generation()
	if _, err := a.require(roles.ModerateChat); err != nil {
		return a.fail("Message not deleted", err)
	}
	if err := a.api.DeleteMessage(ctx, id); err != nil {
		return a.fail("Message not deleted", err)
	}

	a.mu.Lock()
	if !a.staleLocked(gen) {
		a.chat.remove(id)
	}
	a.mu.Unlock()
	a.notify.Info("Message deleted")
	return nil
}

func (a *App) ClearChat(ctx context.Context) error {
	gen := a.generation()
	if _, err := a.require(roles.ModerateChat); err != nil {
		return a.fail("Chat not cleared", err)
	}
	if _, err := a.api.ClearChat(ctx); err != nil {
		return a.fail("Chat not cleared", err)
	}

	a.mu.Lock()
	if !a.staleLocked(gen) {
		a.chat.clear()
	}
	a.mu.Unlock()
	a.notify.Info("Chat cleared")
	return nil
}

// SetChatEnabled turns chat on or off for everyone
func (a *App) SetChatEnabled(ctx context.Context, enabled bool) error {
	gen := a.generation()
	if _, err := a.require(roles.ToggleChat); err != nil {
		return a.fail("Chat settings not changed", err)
	}
	got, err := a.api.SetChatEnabled(ctx, enabled)
	if err != nil {
		return a.fail("Chat settings not changed", err)
	}

	a.mu.Lock()
	if !a.staleLocked(gen) {
		a.chatEnabled = got
	}
	a.mu.Unlock()
	if got {
		a.notify.Info("Chat enabled")
	} else {
		a.notify.Info("Chat disabled")
	}
	return nil
}

// ToggleChat flips the global chat flag
func (a *App) ToggleChat(ctx context.Context) error {
	return a.SetChatEnabled(ctx, !a.ChatEnabled())
}

// ReloadMessages replaces the cached chat with the server's newest messages
func (a *App) ReloadMessages(ctx context.Context) error {
	gen := a.generation()
	if gen == nil {
		return ErrNoSession
	}
	msgs, err := a.api.GetMessages(ctx, a.limit)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if !a.staleLocked(gen) {
		a.chat.replace(msgs)
	}
	a.mu.Unlock()
	return nil
}

func (a *App) ReloadChatSettings(ctx context.Context) error {
	gen := a.generation()
	if gen == nil {
		return ErrNoSession
	}
	enabled, err := a.api.GetChatSettings(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if !a.staleLocked(gen) {
		a.chatEnabled = enabled
	}
	a.mu.Unlock()
	return nil
}
