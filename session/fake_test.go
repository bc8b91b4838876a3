// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/danielhkuo/watchroom/client"
	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
)

// fakeAPI is an in-memory backend shared by every fakeConn. It enforces one
// vote per user per poll like the real server does.
type fakeAPI struct {
	mu          sync.Mutex
	users       []models.User
	passwords   map[string]string
	msgs        []models.Message
	nextMsgID   int64
	chatEnabled bool
	video       *models.Video
	polls       int64
	pollID      int64
	options     []models.PollOption
	votes       map[int64]bool
	calls       map[string]int
	failNext    error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		passwords:   map[string]string{},
		chatEnabled: true,
		votes:       map[int64]bool{},
		calls:       map[string]int{},
	}
}

// addUser seeds an account and returns its id
func (f *fakeAPI) addUser(name string, role roles.Role) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.users) + 1)
	f.users = append(f.users, models.User{ID: id, Username: name, Role: role, CreatedAt: time.Now()})
	f.passwords[name] = "pw"
	return id
}

func (f *fakeAPI) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) user(id int64) *models.User {
	for i := range f.users {
		if f.users[i].ID == id {
			return &f.users[i]
		}
	}
	return nil
}

// conn returns a per-viewer view of the backend, standing in for one
// client.Client with its own token.
func (f *fakeAPI) conn() *fakeConn {
	return &fakeConn{api: f}
}

type fakeConn struct {
	api *fakeAPI
	me  int64
}

func apiErr(code int, msg string) error {
	return &client.APIError{StatusCode: code, Message: msg}
}

// enter records the call and returns a queued failure, if any. It leaves
// the lock held; the caller must unlock.
func (c *fakeConn) enter(name string) error {
	c.api.mu.Lock()
	c.api.calls[name]++
	if err := c.api.failNext; err != nil {
		c.api.failNext = nil
		return err
	}
	return nil
}

func (c *fakeConn) SetToken(token string) {
	c.api.mu.Lock()
	defer c.api.mu.Unlock()
	if token == "" {
		c.me = 0
	}
}

func (c *fakeConn) Register(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	c.api.mu.Lock()
	_, taken := c.api.passwords[username]
	c.api.mu.Unlock()
	if taken {
		return nil, apiErr(http.StatusConflict, "Username already taken")
	}

	c.api.addUser(username, roles.User)
	c.api.mu.Lock()
	c.api.passwords[username] = password
	c.api.mu.Unlock()
	return c.Login(ctx, username, password)
}

func (c *fakeConn) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("Login"); err != nil {
		return nil, err
	}
	if c.api.passwords[username] != password {
		return nil, apiErr(http.StatusUnauthorized, "Invalid username or password")
	}
	for i := range c.api.users {
		u := &c.api.users[i]
		if u.Username == username {
			u.IsOnline = true
			c.me = u.ID
			return &models.AuthResponse{User: *u, Token: "token"}, nil
		}
	}
	return nil, apiErr(http.StatusUnauthorized, "Invalid username or password")
}

func (c *fakeConn) ListUsers(ctx context.Context) ([]models.User, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("ListUsers"); err != nil {
		return nil, err
	}
	out := make([]models.User, len(c.api.users))
	copy(out, c.api.users)
	return out, nil
}

func (c *fakeConn) ToggleChatMute(ctx context.Context, userID int64) (bool, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("ToggleChatMute"); err != nil {
		return false, err
	}
	u := c.api.user(userID)
	if u == nil {
		return false, apiErr(http.StatusNotFound, "User not found")
	}
	u.IsChatMuted = !u.IsChatMuted
	return u.IsChatMuted, nil
}

func (c *fakeConn) ToggleBan(ctx context.Context, userID int64) (bool, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("ToggleBan"); err != nil {
		return false, err
	}
	u := c.api.user(userID)
	if u == nil {
		return false, apiErr(http.StatusNotFound, "User not found")
	}
	u.IsBanned = !u.IsBanned
	if u.IsBanned {
		u.IsOnline = false
	}
	return u.IsBanned, nil
}

func (c *fakeConn) ChangeRole(ctx context.Context, userID int64, role roles.Role) (roles.Role, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("ChangeRole"); err != nil {
		return "", err
	}
	if me := c.api.user(c.me); me == nil || !roles.Can(me.Role, roles.ChangeRole) {
		return "", apiErr(http.StatusForbidden, "Insufficient permissions")
	}
	u := c.api.user(userID)
	if u == nil {
		return "", apiErr(http.StatusNotFound, "User not found")
	}
	u.Role = role
	return role, nil
}

func (c *fakeConn) SetOffline(ctx context.Context, userID int64) error {
	defer c.api.mu.Unlock()
	if err := c.enter("SetOffline"); err != nil {
		return err
	}
	if u := c.api.user(userID); u != nil {
		u.IsOnline = false
	}
	return nil
}

func (c *fakeConn) GetMessages(ctx context.Context, limit int) ([]models.Message, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("GetMessages"); err != nil {
		return nil, err
	}
	msgs := c.api.msgs
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (c *fakeConn) SendMessage(ctx context.Context, text string) (*models.Message, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("SendMessage"); err != nil {
		return nil, err
	}
	if !c.api.chatEnabled {
		return nil, apiErr(http.StatusForbidden, "Chat is disabled")
	}
	u := c.api.user(c.me)
	if u == nil {
		return nil, apiErr(http.StatusUnauthorized, "Authentication required")
	}
	c.api.nextMsgID++
	m := models.Message{ID: c.api.nextMsgID, UserID: u.ID, Username: u.Username, Role: u.Role, Text: text, Timestamp: time.Now()}
	c.api.msgs = append(c.api.msgs, m)
	return &m, nil
}

func (c *fakeConn) DeleteMessage(ctx context.Context, id int64) error {
	defer c.api.mu.Unlock()
	if err := c.enter("DeleteMessage"); err != nil {
		return err
	}
	for i, m := range c.api.msgs {
		if m.ID == id {
			c.api.msgs = append(c.api.msgs[:i], c.api.msgs[i+1:]...)
			return nil
		}
	}
	return apiErr(http.StatusNotFound, "Message not found")
}

func (c *fakeConn) ClearChat(ctx context.Context) (int64, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("ClearChat"); err != nil {
		return 0, err
	}
	n := int64(len(c.api.msgs))
	c.api.msgs = nil
	return n, nil
}

func (c *fakeConn) GetChatSettings(ctx context.Context) (bool, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("GetChatSettings"); err != nil {
		return false, err
	}
	return c.api.chatEnabled, nil
}

func (c *fakeConn) SetChatEnabled(ctx context.Context, enabled bool) (bool, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("SetChatEnabled"); err != nil {
		return false, err
	}
	c.api.chatEnabled = enabled
	return enabled, nil
}

func (c *fakeConn) GetCurrentVideo(ctx context.Context) (*models.Video, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("GetCurrentVideo"); err != nil {
		return nil, err
	}
	if c.api.video == nil {
		return nil, nil
	}
	v := *c.api.video
	return &v, nil
}

func (c *fakeConn) ChangeVideo(ctx context.Context, title, vkURL, description string) (*models.Video, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("ChangeVideo"); err != nil {
		return nil, err
	}
	id := int64(1)
	if c.api.video != nil {
		id = c.api.video.ID + 1
	}
	c.api.video = &models.Video{ID: id, Title: title, VKURL: vkURL, Description: description, ChangedAt: time.Now()}
	v := *c.api.video
	return &v, nil
}

func (c *fakeConn) GetActivePoll(ctx context.Context) (*models.ActivePoll, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("GetActivePoll"); err != nil {
		return nil, err
	}
	if c.api.pollID == 0 {
		return &models.ActivePoll{}, nil
	}
	opts := make([]models.PollOption, len(c.api.options))
	total := 0
	for i, o := range c.api.options {
		opts[i] = o
		total += o.Votes
	}
	return &models.ActivePoll{
		Active:     true,
		PollID:     c.api.pollID,
		Options:    opts,
		TotalVotes: total,
		HasVoted:   c.api.votes[c.me],
	}, nil
}

func (c *fakeConn) CreatePoll(ctx context.Context, options []models.NewPollOption) (int64, error) {
	defer c.api.mu.Unlock()
	if err := c.enter("CreatePoll"); err != nil {
		return 0, err
	}
	c.api.polls++
	c.api.pollID = c.api.polls
	c.api.options = nil
	c.api.votes = map[int64]bool{}
	for i, o := range options {
		c.api.options = append(c.api.options, models.PollOption{
			ID:    c.api.pollID*100 + int64(i) + 1,
			Title: o.Title,
			VKURL: o.VKURL,
		})
	}
	return c.api.pollID, nil
}

func (c *fakeConn) Vote(ctx context.Context, optionID int64) error {
	defer c.api.mu.Unlock()
	if err := c.enter("Vote"); err != nil {
		return err
	}
	if c.api.options == nil {
		return apiErr(http.StatusNotFound, "Option not found")
	}
	if c.api.votes[c.me] {
		return apiErr(http.StatusConflict, "Already voted")
	}
	for i := range c.api.options {
		if c.api.options[i].ID == optionID {
			c.api.options[i].Votes++
			c.api.votes[c.me] = true
			return nil
		}
	}
	return apiErr(http.StatusNotFound, "Option not found")
}

func (c *fakeConn) EndPoll(ctx context.Context) error {
	defer c.api.mu.Unlock()
	if err := c.enter("EndPoll"); err != nil {
		return err
	}
	c.api.options = nil
	c.api.pollID = 0
	return nil
}

// recorder collects notices for assertions
type recorder struct {
	mu     sync.Mutex
	infos  []string
	errors []error
}

func (r *recorder) Info(msg string) {
	r.mu.Lock()
	r.infos = append(r.infos, msg)
	r.mu.Unlock()
}

func (r *recorder) Error(title string, err error) {
	r.mu.Lock()
	r.errors = append(r.errors, err)
	r.mu.Unlock()
}

func (r *recorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}
