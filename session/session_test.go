// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"errors"
	"testing"

	"github.com/danielhkuo/watchroom/client"
	"github.com/danielhkuo/watchroom/roles"
)

var _ API = (*client.Client)(nil)

// signIn seeds name with role on api and returns a logged-in App for it
func signIn(t *testing.T, api *fakeAPI, name string, role roles.Role) (*App, *recorder) {
	t.Helper()
	api.addUser(name, role)
	return login(t, api, name)
}

// login opens another session for an existing account, like a second device
func login(t *testing.T, api *fakeAPI, name string) (*App, *recorder) {
	t.Helper()
	rec := &recorder{}
	app := New(api.conn(), Options{Notifier: rec})
	if err := app.Login(t.Context(), name, "pw"); err != nil {
		t.Fatalf("Login(%s) failed: %v", name, err)
	}
	if err := app.Load(t.Context()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return app, rec
}

func TestLoginAndRegister(t *testing.T) {
	api := newFakeAPI()
	api.addUser("alice", roles.Admin)
	ctx := t.Context()

	tests := []struct {
		name      string
		register  bool
		username  string
		password  string
		expectErr bool
	}{
		{"login", false, "alice", "pw", false},
		{"login trims username", false, "  alice ", "pw", false},
		{"wrong password", false, "alice", "nope", true},
		{"empty username", false, "   ", "pw", true},
		{"empty password", false, "alice", "", true},
		{"register new", true, "bob", "secret", false},
		{"register taken", true, "alice", "pw", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			app := New(api.conn(), Options{Notifier: rec})

			var err error
			if tt.register {
				err = app.Register(ctx, tt.username, tt.password)
			} else {
				err = app.Login(ctx, tt.username, tt.password)
			}

			if tt.expectErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if app.Active() {
					t.Error("Expected no session after failure")
				}
				if rec.errorCount() != 1 {
					t.Errorf("Expected one error notice, got %d", rec.errorCount())
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !app.Active() || app.Current() == nil {
				t.Fatal("Expected an active session")
			}
		})
	}
}

func TestEmptyCredentialsSkipNetwork(t *testing.T) {
	api := newFakeAPI()
	app := New(api.conn(), Options{Notifier: &recorder{}})

	err := app.Login(t.Context(), "", "")
	if !errors.Is(err, ErrEmptyCreds) {
		t.Errorf("Expected ErrEmptyCreds, got %v", err)
	}
	if api.callCount("Login") != 0 {
		t.Error("Expected no login call")
	}
}

func TestLogout(t *testing.T) {
	api := newFakeAPI()
	app, _ := signIn(t, api, "alice", roles.Creator)
	ctx := t.Context()

	if err := app.SendMessage(ctx, "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	app.Logout(ctx)

	if app.Active() || app.Current() != nil {
		t.Error("Expected session to be cleared")
	}
	if len(app.Messages()) != 0 || len(app.Users()) != 0 {
		t.Error("Expected caches to be cleared")
	}
	if api.callCount("SetOffline") != 1 {
		t.Errorf("Expected one SetOffline call, got %d", api.callCount("SetOffline"))
	}
	if api.users[0].IsOnline {
		t.Error("Expected server-side user to be offline")
	}

	// A second logout is a no-op
	app.Logout(ctx)
	if api.callCount("SetOffline") != 1 {
		t.Error("Expected no further SetOffline call")
	}
}

func TestLogout_OfflineFailureStillClears(t *testing.T) {
	api := newFakeAPI()
	app, _ := signIn(t, api, "alice", roles.User)

	api.failNext = errors.New("network down")
	app.Logout(t.Context())

	if app.Active() {
		t.Error("Expected session to be cleared even when set offline fails")
	}
}

func TestCurrentIsACopy(t *testing.T) {
	api := newFakeAPI()
	app, _ := signIn(t, api, "alice", roles.User)

	me := app.Current()
	me.Role = roles.Creator

	if app.Current().Role != roles.User {
		t.Error("Expected Current to return a copy")
	}
	if app.Can(roles.ChangeRole) {
		t.Error("Expected mutation of the copy not to grant permissions")
	}
}

func TestOperationsRequireSession(t *testing.T) {
	api := newFakeAPI()
	app := New(api.conn(), Options{Notifier: &recorder{}})
	ctx := t.Context()

	checks := map[string]error{
		"load":   app.Load(ctx),
		"send":   app.SendMessage(ctx, "hi"),
		"vote":   app.Vote(ctx, 1),
		"clear":  app.ClearChat(ctx),
		"mute":   app.ToggleMute(ctx, 1),
		"video":  app.ChangeVideo(ctx, "t", "https://vk.com/video1_1", ""),
		"create": app.CreatePoll(ctx, nil),
		"sync":   app.RunSync(ctx, 0),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNoSession) {
			t.Errorf("%s: expected ErrNoSession, got %v", name, err)
		}
	}
	if app.Can(roles.ManageUsers) {
		t.Error("Expected no permissions without a session")
	}
}
