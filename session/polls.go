// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielhkuo/watchroom/client"
	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/poll"
	"github.com/danielhkuo/watchroom/roles"
)

// Poll returns the cached poll with percentages computed from its counts
func (a *App) Poll() models.ActivePoll {
	a.mu.RLock()
	p := a.poll
	p.Options = slices.Clone(p.Options)
	a.mu.RUnlock()

	if p.Active {
		p.Options, p.TotalVotes = poll.Tally(p.Options)
	}
	return p
}

// HasVoted reports whether this viewer already voted in the active poll
func (a *App) HasVoted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.poll.HasVoted
}

// CreatePoll opens a new poll, ending the active one. Invalid option lists
// are rejected locally and leave the current poll untouched.
func (a *App) CreatePoll(ctx context.Context, options []models.NewPollOption) error {
	gen := a.generation()
	if _, err := a.require(roles.ManagePolls); err != nil {
		return a.fail("Poll not created", err)
	}
	valid, err := poll.ValidateOptions(options)
	if err != nil {
		return a.fail("Poll not created", err)
	}
	if _, err := a.api.CreatePoll(ctx, valid); err != nil {
		return a.fail("Poll not created", err)
	}

	a.mu.Lock()
	if !a.staleLocked(gen) {
		a.poll.HasVoted = false
	}
	a.mu.Unlock()
	a.notify.Info("Poll started")
	return a.ReloadPoll(ctx)
}

// Vote casts the viewer's vote. Voting again in the same poll does nothing.
func (a *App) Vote(ctx context.Context, optionID int64) error {
	a.mu.RLock()
	gen := a.done
	signedIn := a.me != nil
	p := a.poll
	a.mu.RUnlock()

	if !signedIn {
		return a.fail("Vote not counted", ErrNoSession)
	}
	if p.HasVoted {
		return nil
	}
	if p.Active && poll.FindOption(p.Options, optionID) < 0 {
		return a.fail("Vote not counted", poll.ErrUnknownOption)
	}

	err := a.api.Vote(ctx, optionID)
	if client.IsStatus(err, http.StatusConflict) && p.Active {
		// Voted from another device, or the poll closed meanwhile. Either
		// way the reload below reconciles the counts and the flag.
		return a.ReloadPoll(ctx)
	}
	if err != nil {
		return a.fail("Vote not counted", err)
	}

	a.mu.Lock()
	if !a.staleLocked(gen) {
		a.poll.HasVoted = true
	}
	a.mu.Unlock()
	a.notify.Info("Vote counted")
	return a.ReloadPoll(ctx)
}

func (a *App) EndPoll(ctx context.Context) error {
	gen := a.generation()
	if _, err := a.require(roles.ManagePolls); err != nil {
		return a.fail("Poll not ended", err)
	}
	if err := a.api.EndPoll(ctx); err != nil {
		return a.fail("Poll not ended", err)
	}

	a.mu.Lock()
	if !a.staleLocked(gen) {
		a.poll = models.ActivePoll{}
	}
	a.mu.Unlock()
	a.notify.Info("Poll ended")
	return nil
}

// ReloadPoll replaces the cached poll with the server's view of it. A
// response that arrives after the session ended is dropped.
func (a *App) ReloadPoll(ctx context.Context) error {
	gen := a.generation()
	if gen == nil {
		return ErrNoSession
	}
	p, err := a.api.GetActivePoll(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.staleLocked(gen) {
		a.poll = *p
	}
	return nil
}
