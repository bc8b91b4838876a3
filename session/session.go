// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
)

var (
	ErrNoSession      = errors.New("not signed in")
	ErrEmptyCreds     = errors.New("username and password are required")
	ErrChatDisabled   = errors.New("chat is disabled")
	ErrMuted          = errors.New("you are muted")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message is too long")
	ErrForbidden      = errors.New("insufficient permissions")
	ErrSelfTarget     = errors.New("you cannot target yourself")
	ErrUnknownUser    = errors.New("unknown user")
	ErrEmptyVideo     = errors.New("title and link are required")
)

// API is the backend surface the session drives. *client.Client
// implements it.
type API interface {
	SetToken(token string)

	Register(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ToggleChatMute(ctx context.Context, userID int64) (bool, error)
	ToggleBan(ctx context.Context, userID int64) (bool, error)
	ChangeRole(ctx context.Context, userID int64, role roles.Role) (roles.Role, error)
	SetOffline(ctx context.Context, userID int64) error

	GetMessages(ctx context.Context, limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, text string) (*models.Message, error)
	DeleteMessage(ctx context.Context, id int64) error
	ClearChat(ctx context.Context) (int64, error)
	GetChatSettings(ctx context.Context) (bool, error)
	SetChatEnabled(ctx context.Context, enabled bool) (bool, error)

	GetCurrentVideo(ctx context.Context) (*models.Video, error)
	ChangeVideo(ctx context.Context, title, vkURL, description string) (*models.Video, error)
	GetActivePoll(ctx context.Context) (*models.ActivePoll, error)
	CreatePoll(ctx context.Context, options []models.NewPollOption) (int64, error)
	Vote(ctx context.Context, optionID int64) error
	EndPoll(ctx context.Context) error
}

// DefaultSyncInterval is how often RunSync refreshes chat and users.
const DefaultSyncInterval = 3 * time.Second

type Options struct {
	// MessageLimit bounds the local chat log and every fetch.
	MessageLimit int
	// VideoHost serves the embeddable player; empty means vkvideo.DefaultHost.
	VideoHost string
	Notifier  Notifier
}

// App is the client-side state of one viewer. All fields are guarded by mu;
// network calls are made without holding it.
type App struct {
	api    API
	limit  int
	host   string
	notify Notifier

	mu          sync.RWMutex
	me          *models.User
	done        chan struct{}
	users       []models.User
	chat        *chatLog
	chatEnabled bool
	poll        models.ActivePoll
	video       *models.Video
}

func New(api API, opts Options) *App {
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = models.DefaultMessageLimit
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Logger: slog.Default()}
	}
	return &App{
		api:         api,
		limit:       opts.MessageLimit,
		host:        opts.VideoHost,
		notify:      opts.Notifier,
		chat:        newChatLog(opts.MessageLimit),
		chatEnabled: true,
	}
}

// Register creates an account and starts a session for it
func (a *App) Register(ctx context.Context, username, password string) error {
	return a.start(ctx, "Registered", username, password, a.api.Register)
}

// Login starts a session for an existing account
func (a *App) Login(ctx context.Context, username, password string) error {
	return a.start(ctx, "Signed in", username, password, a.api.Login)
}

type authFunc func(ctx context.Context, username, password string) (*models.AuthResponse, error)

func (a *App) start(ctx context.Context, notice, username, password string, call authFunc) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return a.fail("Sign in failed", ErrEmptyCreds)
	}

	resp, err := call(ctx, username, password)
	if err != nil {
		return a.fail("Sign in failed", err)
	}

	a.mu.Lock()
	a.resetLocked()
	me := resp.User
	a.me = &me
	a.done = make(chan struct{})
	a.mu.Unlock()

	a.notify.Info(notice + " as " + me.Username)
	return nil
}

// Logout ends the session. The server is told the user went offline on a
// best-effort basis; local state is cleared either way.
func (a *App) Logout(ctx context.Context) {
	a.mu.Lock()
	me := a.me
	a.resetLocked()
	a.mu.Unlock()

	if me == nil {
		return
	}
	if err := a.api.SetOffline(ctx, me.ID); err != nil {
		slog.Warn("failed to mark user offline", "user_id", me.ID, "error", err)
	}
	a.api.SetToken("")
}

// resetLocked ends the running session, if any, and drops every cache
func (a *App) resetLocked() {
	if a.done != nil {
		close(a.done)
	}
	a.me = nil
	a.done = nil
	a.users = nil
	a.chat.clear()
	a.chatEnabled = true
	a.poll = models.ActivePoll{}
	a.video = nil
}

// Current returns a copy of the signed-in user, or nil
func (a *App) Current() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.me == nil {
		return nil
	}
	me := *a.me
	return &me
}

// Active reports whether a session is in progress
func (a *App) Active() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.me != nil
}

// Can reports whether the signed-in user's current role allows action
func (a *App) Can(action roles.Action) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.me != nil && roles.Can(a.me.Role, action)
}

// Load fetches every cached collection. Each read is independent, so they
// run concurrently; the first failure is returned after all finish.
func (a *App) Load(ctx context.Context) error {
	if !a.Active() {
		return ErrNoSession
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.ReloadMessages(ctx) })
	g.Go(func() error { return a.ReloadUsers(ctx) })
	g.Go(func() error { return a.ReloadChatSettings(ctx) })
	g.Go(func() error { return a.ReloadPoll(ctx) })
	g.Go(func() error { return a.ReloadVideo(ctx) })
	return g.Wait()
}

// currentOrErr returns the signed-in user or ErrNoSession. Callers must not
// hold mu.
func (a *App) currentOrErr() (models.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.me == nil {
		return models.User{}, ErrNoSession
	}
	return *a.me, nil
}

// generation identifies the running session. Results of a network call are
// applied only while it is still the running one; nil means signed out.
func (a *App) generation() chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// staleLocked reports whether gen has ended since it was read. Callers must
// hold mu.
func (a *App) staleLocked(gen chan struct{}) bool {
	return gen == nil || gen != a.done
}

// require checks the session and the role gate before any network call
func (a *App) require(action roles.Action) (models.User, error) {
	me, err := a.currentOrErr()
	if err != nil {
		return me, err
	}
	if !roles.Can(me.Role, action) {
		return me, ErrForbidden
	}
	return me, nil
}

func (a *App) fail(title string, err error) error {
	a.notify.Error(title, err)
	return err
}
