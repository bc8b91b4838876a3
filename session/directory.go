// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"slices"

	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
)

// Users returns the cached user directory
func (a *App) Users() []models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.users)
}

// EligibleTargets returns every user a moderation action may be aimed at,
// which is everyone except the signed-in user.
func (a *App) EligibleTargets() []models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]models.User, 0, len(a.users))
	for _, u := range a.users {
		if a.me != nil && u.ID == a.me.ID {
			continue
		}
		out = append(out, u)
	}
	return out
}

func (a *App) ToggleMute(ctx context.Context, userID int64) error {
	gen := a.generation()
	if err := a.checkTarget(roles.ManageUsers, userID); err != nil {
		return a.fail("Mute not changed", err)
	}
	muted, err := a.api.ToggleChatMute(ctx, userID)
	if err != nil {
		return a.fail("Mute not changed", err)
	}

	name := a.updateUser(gen, userID, func(u *models.User) { u.IsChatMuted = muted })
	if muted {
		a.notify.Info(name + " muted")
	} else {
		a.notify.Info(name + " unmuted")
	}
	return nil
}

func (a *App) ToggleBan(ctx context.Context, userID int64) error {
	gen := a.generation()
	if err := a.checkTarget(roles.ManageUsers, userID); err != nil {
		return a.fail("Ban not changed", err)
	}
	banned, err := a.api.ToggleBan(ctx, userID)
	if err != nil {
		return a.fail("Ban not changed", err)
	}

	name := a.updateUser(gen, userID, func(u *models.User) {
		u.IsBanned = banned
		if banned {
			u.IsOnline = false
		}
	})
	if banned {
		a.notify.Info(name + " banned")
	} else {
		a.notify.Info(name + " unbanned")
	}
	return nil
}

func (a *App) ChangeRole(ctx context.Context, userID int64, role roles.Role) error {
	gen := a.generation()
	if err := a.checkTarget(roles.ChangeRole, userID); err != nil {
		return a.fail("Role not changed", err)
	}
	if !role.Valid() {
		return a.fail("Role not changed", roles.ErrInvalidRole)
	}
	got, err := a.api.ChangeRole(ctx, userID, role)
	if err != nil {
		return a.fail("Role not changed", err)
	}

	name := a.updateUser(gen, userID, func(u *models.User) { u.Role = got })
	a.notify.Info(name + " is now " + string(got))
	return nil
}

// ReloadUsers replaces the cached directory. The signed-in user's own entry
// also refreshes the session's copy, so role and mute changes made by
// others take effect locally.
func (a *App) ReloadUsers(ctx context.Context) error {
	gen := a.generation()
	if gen == nil {
		return ErrNoSession
	}
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.staleLocked(gen) {
		return nil
	}
	a.users = users
	for _, u := range users {
		if u.ID == a.me.ID {
			me := u
			a.me = &me
			break
		}
	}
	return nil
}

func (a *App) checkTarget(action roles.Action, userID int64) error {
	me, err := a.require(action)
	if err != nil {
		return err
	}
	if me.ID == userID {
		return ErrSelfTarget
	}
	return nil
}

// updateUser applies fn to the cached entry for id and returns its username.
// The cache is left alone once gen has ended.
func (a *App) updateUser(gen chan struct{}, id int64, fn func(*models.User)) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := slices.IndexFunc(a.users, func(u models.User) bool { return u.ID == id })
	if i < 0 {
		return "User"
	}
	if a.staleLocked(gen) {
		return a.users[i].Username
	}
	fn(&a.users[i])
	return a.users[i].Username
}
