// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/watchroom/auth"
	"github.com/danielhkuo/watchroom/cliparse"
	"github.com/danielhkuo/watchroom/db"
	"github.com/danielhkuo/watchroom/middleware"
	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
)

// TestPassword is the password of every user made by CreateTestUser
const TestPassword = "correct horse battery staple"

var (
	hashOnce sync.Once
	hashed   string
	hashErr  error
	hashFunc = auth.HashPassword
)

// SetupTestDB creates a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(GetTestConfig())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn, cliparse.DatabaseSQLite); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseType: cliparse.DatabaseSQLite,
		DatabaseURL:  ":memory:",
		TokenSecret:  "test-token-secret",
		TokenTTL:     time.Hour,
		ChatLimit:    500,
		VideoHost:    "vk.com",
	}
}

// passwordHash hashes TestPassword once and hands every caller the same
// result, error included
func passwordHash() (string, error) {
	hashOnce.Do(func() {
		hashed, hashErr = hashFunc(TestPassword)
	})
	return hashed, hashErr
}

func testPasswordHash(t *testing.T) string {
	t.Helper()
	h, err := passwordHash()
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}
	return h
}

// CreateTestUser inserts a user with the given role and TestPassword
func CreateTestUser(t *testing.T, conn *sql.DB, username string, role roles.Role) *models.User {
	t.Helper()

	now := time.Now().UTC()
	user := &models.User{Username: username, Role: role, CreatedAt: now}
	err := conn.QueryRow(`
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, username, testPasswordHash(t), role, now).Scan(&user.ID)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// SetUserFlags overwrites a user's ban and mute flags
func SetUserFlags(t *testing.T, conn *sql.DB, user *models.User, banned, muted bool) {
	t.Helper()

	_, err := conn.Exec(`UPDATE users SET is_banned = $1, is_chat_muted = $2 WHERE id = $3`, banned, muted, user.ID)
	if err != nil {
		t.Fatalf("Failed to update user flags: %v", err)
	}
	user.IsBanned = banned
	user.IsChatMuted = muted
}

// SetChatEnabled flips the global chat switch
func SetChatEnabled(t *testing.T, conn *sql.DB, enabled bool) {
	t.Helper()

	if _, err := conn.Exec(`UPDATE chat_settings SET enabled = $1 WHERE id = 1`, enabled); err != nil {
		t.Fatalf("Failed to update chat settings: %v", err)
	}
}

// CreateTestMessage inserts a chat message from user and returns its id
func CreateTestMessage(t *testing.T, conn *sql.DB, user *models.User, text string) int64 {
	t.Helper()

	var id int64
	err := conn.QueryRow(`
		INSERT INTO messages (user_id, username, role, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, user.ID, user.Username, user.Role, text, time.Now().UTC()).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test message: %v", err)
	}

	return id
}

// CreateTestPoll opens a poll with one option per title and returns the
// poll id and option ids in order
func CreateTestPoll(t *testing.T, conn *sql.DB, titles ...string) (int64, []int64) {
	t.Helper()

	var pollID int64
	err := conn.QueryRow(`
		INSERT INTO polls (is_active, created_at) VALUES (TRUE, $1) RETURNING id
	`, time.Now().UTC()).Scan(&pollID)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	optionIDs := make([]int64, 0, len(titles))
	for i, title := range titles {
		var id int64
		err := conn.QueryRow(`
			INSERT INTO poll_options (poll_id, title, vk_url) VALUES ($1, $2, $3) RETURNING id
		`, pollID, title, "https://vk.com/video-1_"+string(rune('1'+i))).Scan(&id)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
		optionIDs = append(optionIDs, id)
	}

	return pollID, optionIDs
}

// AsUser attaches user to the request context the way Authenticate does
func AsUser(req *http.Request, user *models.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

// BearerHeader issues a token for user and returns it as request headers
func BearerHeader(t *testing.T, cfg cliparse.Config, user *models.User) map[string]string {
	t.Helper()

	token, _, err := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL).Issue(user.ID, user.Username)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
