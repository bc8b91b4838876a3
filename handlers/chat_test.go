// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
	"github.com/danielhkuo/watchroom/testutil"
)

func TestGetMessages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	cfg.ChatLimit = 5
	handler := NewChatHandler(db, cfg)

	alice := testutil.CreateTestUser(t, db, "alice", roles.User)
	var ids []int64
	for i := 0; i < 8; i++ {
		ids = append(ids, testutil.CreateTestMessage(t, db, alice, "msg "+strconv.Itoa(i)))
	}

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedIDs    []int64
	}{
		{"default capped by config", "", http.StatusOK, ids[3:]},
		{"newest two", "?limit=2", http.StatusOK, ids[6:]},
		{"over cap", "?limit=100", http.StatusOK, ids[3:]},
		{"zero", "?limit=0", http.StatusBadRequest, nil},
		{"garbage", "?limit=abc", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.GetMessages(w, testutil.MakeRequest("GET", "/chat/messages"+tt.query, nil, nil))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var msgs []models.Message
			testutil.AssertJSON(t, w, &msgs)
			if len(msgs) != len(tt.expectedIDs) {
				t.Fatalf("Expected %d messages, got %d", len(tt.expectedIDs), len(msgs))
			}
			for i, m := range msgs {
				if m.ID != tt.expectedIDs[i] {
					t.Errorf("Position %d: expected id %d, got %d", i, tt.expectedIDs[i], m.ID)
				}
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewChatHandler(db, testutil.GetTestConfig())
	alice := testutil.CreateTestUser(t, db, "alice", roles.Admin)
	muted := testutil.CreateTestUser(t, db, "muted", roles.User)
	testutil.SetUserFlags(t, db, muted, false, true)

	send := func(user *models.User, text string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/chat/messages", models.SendMessageRequest{Text: text}, nil)
		w := httptest.NewRecorder()
		handler.SendMessage(w, testutil.AsUser(req, user))
		return w
	}

	tests := []struct {
		name           string
		user           *models.User
		text           string
		expectedStatus int
	}{
		{"valid", alice, "  hello  ", http.StatusCreated},
		{"blank", alice, "   ", http.StatusBadRequest},
		{"too long", alice, strings.Repeat("я", models.MaxMessageLength+1), http.StatusBadRequest},
		{"max length", alice, strings.Repeat("я", models.MaxMessageLength), http.StatusCreated},
		{"muted", muted, "hi", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertStatus(t, send(tt.user, tt.text), tt.expectedStatus)
		})
	}

	t.Run("snapshot of author", func(t *testing.T) {
		w := send(alice, "snapshot")
		testutil.AssertStatus(t, w, http.StatusCreated)

		var msg models.Message
		testutil.AssertJSON(t, w, &msg)
		if msg.Username != "alice" || msg.Role != roles.Admin || msg.Text != "snapshot" {
			t.Errorf("Unexpected message: %+v", msg)
		}

		// Later role changes do not rewrite history
		db.Exec("UPDATE users SET role = 'user' WHERE id = $1", alice.ID)
		var role string
		db.QueryRow("SELECT role FROM messages WHERE id = $1", msg.ID).Scan(&role)
		if role != string(roles.Admin) {
			t.Errorf("Expected stored role admin, got %s", role)
		}
	})

	t.Run("disabled then enabled", func(t *testing.T) {
		testutil.SetChatEnabled(t, db, false)
		testutil.AssertStatus(t, send(alice, "same text"), http.StatusForbidden)

		testutil.SetChatEnabled(t, db, true)
		testutil.AssertStatus(t, send(alice, "same text"), http.StatusCreated)
	})

	t.Run("muted sends never stored", func(t *testing.T) {
		var count int
		db.QueryRow("SELECT COUNT(*) FROM messages WHERE user_id = $1", muted.ID).Scan(&count)
		if count != 0 {
			t.Errorf("Expected no messages from muted user, got %d", count)
		}
	})
}

func TestDeleteAndClearMessages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewChatHandler(db, testutil.GetTestConfig())
	creator := testutil.CreateTestUser(t, db, "owner", roles.Creator)
	first := testutil.CreateTestMessage(t, db, creator, "one")
	testutil.CreateTestMessage(t, db, creator, "two")
	testutil.CreateTestMessage(t, db, creator, "three")

	del := func(id int64) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("DELETE", idPath("/chat/messages/", id, ""), nil, nil)
		req.SetPathValue("id", strconv.FormatInt(id, 10))
		w := httptest.NewRecorder()
		handler.DeleteMessage(w, testutil.AsUser(req, creator))
		return w
	}

	testutil.AssertStatus(t, del(first), http.StatusOK)
	testutil.AssertStatus(t, del(first), http.StatusNotFound)

	w := httptest.NewRecorder()
	handler.ClearChat(w, testutil.AsUser(testutil.MakeRequest("DELETE", "/chat/messages", nil, nil), creator))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ClearChatResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", resp.Deleted)
	}

	next := testutil.CreateTestMessage(t, db, creator, "after clear")
	if next <= first {
		t.Errorf("Message ids must stay monotonic after clear, got %d <= %d", next, first)
	}
}

func TestChatSettings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewChatHandler(db, testutil.GetTestConfig())
	creator := testutil.CreateTestUser(t, db, "owner", roles.Creator)

	get := func() bool {
		w := httptest.NewRecorder()
		handler.GetSettings(w, testutil.MakeRequest("GET", "/chat/settings", nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		var s models.ChatSettings
		testutil.AssertJSON(t, w, &s)
		return s.Enabled
	}

	if !get() {
		t.Error("Chat should start enabled")
	}

	off := false
	w := httptest.NewRecorder()
	req := testutil.MakeRequest("PUT", "/chat/settings", models.ChatSettingsRequest{Enabled: &off}, nil)
	handler.SetSettings(w, testutil.AsUser(req, creator))
	testutil.AssertStatus(t, w, http.StatusOK)

	if get() {
		t.Error("Chat should be disabled")
	}

	w = httptest.NewRecorder()
	req = testutil.MakeRequest("PUT", "/chat/settings", map[string]string{}, nil)
	handler.SetSettings(w, testutil.AsUser(req, creator))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}
