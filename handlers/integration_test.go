// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
	"github.com/danielhkuo/watchroom/testutil"
)

// TestWatchPartyWorkflow walks through an evening:
// 1. Two viewers register
// 2. The first is made creator and promotes the second to admin
// 3. The admin opens a poll, both vote, a repeat vote is rejected
// 4. The creator sets the winning video
// 5. Chat is disabled, a send fails, chat is enabled, the same send succeeds
func TestWatchPartyWorkflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	authHandler := NewAuthHandler(db, cfg)
	chatHandler := NewChatHandler(db, cfg)
	videoHandler := NewVideoHandler(db, cfg)
	pollHandler := NewPollHandler(db, cfg)

	// Fresh user state, as Authenticate would load it per request
	as := func(req *http.Request, id int64) *http.Request {
		t.Helper()
		user, err := authHandler.LookupUser(context.Background(), id)
		if err != nil {
			t.Fatalf("lookup %d: %v", id, err)
		}
		return testutil.AsUser(req, user)
	}

	// Step 1
	register := func(name string) models.User {
		w := httptest.NewRecorder()
		authHandler.Register(w, testutil.MakeRequest("POST", "/auth/register", models.CredentialsRequest{Username: name, Password: "pw"}, nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 1 - register %s failed: %d - %s", name, w.Code, w.Body.String())
		}
		var resp models.AuthResponse
		testutil.AssertJSON(t, w, &resp)
		return resp.User
	}
	owner := register("owner")
	guest := register("guest")

	// Step 2
	if _, err := db.Exec("UPDATE users SET role = $1 WHERE id = $2", roles.Creator, owner.ID); err != nil {
		t.Fatal(err)
	}
	req := testutil.MakeRequest("PUT", "/users/"+strconv.FormatInt(guest.ID, 10)+"/role", models.ChangeRoleRequest{Role: roles.Admin}, nil)
	req.SetPathValue("id", strconv.FormatInt(guest.ID, 10))
	w := httptest.NewRecorder()
	authHandler.ChangeRole(w, as(req, owner.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 2 - promote failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 3
	w = httptest.NewRecorder()
	pollHandler.CreatePoll(w, as(testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{Options: []models.NewPollOption{
		{Title: "Comedy", VKURL: "https://vk.com/video-1_10"},
		{Title: "Drama", VKURL: "https://vk.com/video-1_20"},
	}}, nil), guest.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 3 - create poll failed: %d - %s", w.Code, w.Body.String())
	}

	active, err := pollHandler.activePoll(context.Background(), nil)
	if err != nil || !active.Active {
		t.Fatalf("Step 3 - expected an active poll: %v", err)
	}
	comedy := active.Options[0]

	for _, id := range []int64{owner.ID, guest.ID} {
		w = httptest.NewRecorder()
		pollHandler.Vote(w, as(testutil.MakeRequest("POST", "/polls/active/votes", models.VoteRequest{OptionID: comedy.ID}, nil), id))
		testutil.AssertStatus(t, w, http.StatusCreated)
	}
	w = httptest.NewRecorder()
	pollHandler.Vote(w, as(testutil.MakeRequest("POST", "/polls/active/votes", models.VoteRequest{OptionID: active.Options[1].ID}, nil), guest.ID))
	testutil.AssertStatus(t, w, http.StatusConflict)

	active, _ = pollHandler.activePoll(context.Background(), nil)
	if active.Options[0].Percent != 100 || active.TotalVotes != 2 {
		t.Errorf("Step 3 - expected Comedy at 100%% of 2 votes, got %+v", active)
	}

	// Step 4
	w = httptest.NewRecorder()
	videoHandler.ChangeVideo(w, as(testutil.MakeRequest("PUT", "/video/current", models.ChangeVideoRequest{
		Title: comedy.Title,
		VKURL: comedy.VKURL,
	}, nil), owner.ID))
	testutil.AssertStatus(t, w, http.StatusOK)

	var video models.Video
	testutil.AssertJSON(t, w, &video)
	if video.EmbedURL != "https://vk.com/video_ext.php?oid=-1&id=10&hd=2" {
		t.Errorf("Step 4 - unexpected embed %s", video.EmbedURL)
	}

	// Step 5
	setChat := func(enabled bool) {
		w := httptest.NewRecorder()
		chatHandler.SetSettings(w, as(testutil.MakeRequest("PUT", "/chat/settings", models.ChatSettingsRequest{Enabled: &enabled}, nil), owner.ID))
		testutil.AssertStatus(t, w, http.StatusOK)
	}
	send := func() int {
		w := httptest.NewRecorder()
		chatHandler.SendMessage(w, as(testutil.MakeRequest("POST", "/chat/messages", models.SendMessageRequest{Text: "great pick"}, nil), guest.ID))
		return w.Code
	}

	setChat(false)
	if code := send(); code != http.StatusForbidden {
		t.Errorf("Step 5 - expected 403 while disabled, got %d", code)
	}
	setChat(true)
	if code := send(); code != http.StatusCreated {
		t.Errorf("Step 5 - expected 201 once enabled, got %d", code)
	}

	w = httptest.NewRecorder()
	chatHandler.GetMessages(w, testutil.MakeRequest("GET", "/chat/messages", nil, nil))
	var msgs []models.Message
	testutil.AssertJSON(t, w, &msgs)
	if len(msgs) != 1 || msgs[0].Role != roles.Admin {
		t.Errorf("Step 5 - expected one message from an admin, got %+v", msgs)
	}
}
