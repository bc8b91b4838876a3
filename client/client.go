// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
)

// DefaultTimeout bounds every request so a hung server cannot stall a caller
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server. Error returns the server's
// human-readable message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client calls the watchroom HTTP API
type Client struct {
	http *http.Client
	tr   *transport
}

// New returns a client for the server at baseURL
func New(baseURL string) *Client {
	tr := &transport{baseURL: baseURL, next: http.DefaultTransport}
	return &Client{
		http: &http.Client{Timeout: DefaultTimeout, Transport: tr},
		tr:   tr,
	}
}

// SetToken replaces the session token sent with every request.
// An empty token makes requests anonymous.
func (c *Client) SetToken(token string) {
	c.tr.setToken(token)
}

// Token returns the current session token
func (c *Client) Token() string {
	return c.tr.currentToken()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("json marshal error: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		var payload models.ErrorResponse
		if raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10)); json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("json decode error: %w", err)
	}
	return nil
}

func userPath(id int64, action string) string {
	return "/users/" + strconv.FormatInt(id, 10) + "/" + action
}

// Register creates an account and adopts its session token
func (c *Client) Register(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", models.CredentialsRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Login authenticates and adopts the returned session token
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", models.CredentialsRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ToggleChatMute flips the user's mute flag and returns the new value
func (c *Client) ToggleChatMute(ctx context.Context, userID int64) (bool, error) {
	var resp models.MuteResponse
	err := c.do(ctx, http.MethodPut, userPath(userID, "mute"), nil, &resp)
	return resp.IsChatMuted, err
}

// ToggleBan flips the user's ban flag and returns the new value
func (c *Client) ToggleBan(ctx context.Context, userID int64) (bool, error) {
	var resp models.BanResponse
	err := c.do(ctx, http.MethodPut, userPath(userID, "ban"), nil, &resp)
	return resp.IsBanned, err
}

func (c *Client) ChangeRole(ctx context.Context, userID int64, role roles.Role) (roles.Role, error) {
	var resp models.RoleResponse
	err := c.do(ctx, http.MethodPut, userPath(userID, "role"), models.ChangeRoleRequest{Role: role}, &resp)
	return resp.Role, err
}

func (c *Client) SetOffline(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodPut, userPath(userID, "offline"), nil, nil)
}

// GetMessages returns the newest limit messages in ascending order.
// A limit of 0 uses the server default.
func (c *Client) GetMessages(ctx context.Context, limit int) ([]models.Message, error) {
	path := "/chat/messages"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var msgs []models.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts text as the authenticated user
func (c *Client) SendMessage(ctx context.Context, text string) (*models.Message, error) {
	var msg models.Message
	if err := c.do(ctx, http.MethodPost, "/chat/messages", models.SendMessageRequest{Text: text}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/chat/messages/"+strconv.FormatInt(id, 10), nil, nil)
}

// ClearChat removes every message and returns how many were deleted
func (c *Client) ClearChat(ctx context.Context) (int64, error) {
	var resp models.ClearChatResponse
	err := c.do(ctx, http.MethodDelete, "/chat/messages", nil, &resp)
	return resp.Deleted, err
}

func (c *Client) GetChatSettings(ctx context.Context) (bool, error) {
	var resp models.ChatSettings
	err := c.do(ctx, http.MethodGet, "/chat/settings", nil, &resp)
	return resp.Enabled, err
}

func (c *Client) SetChatEnabled(ctx context.Context, enabled bool) (bool, error) {
	var resp models.ChatSettings
	err := c.do(ctx, http.MethodPut, "/chat/settings", models.ChatSettingsRequest{Enabled: &enabled}, &resp)
	return resp.Enabled, err
}

// GetCurrentVideo returns nil without error when no video was ever set
func (c *Client) GetCurrentVideo(ctx context.Context) (*models.Video, error) {
	var v models.Video
	err := c.do(ctx, http.MethodGet, "/video/current", nil, &v)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) ChangeVideo(ctx context.Context, title, vkURL, description string) (*models.Video, error) {
	var v models.Video
	req := models.ChangeVideoRequest{Title: title, VKURL: vkURL, Description: description}
	if err := c.do(ctx, http.MethodPut, "/video/current", req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) GetActivePoll(ctx context.Context) (*models.ActivePoll, error) {
	var p models.ActivePoll
	if err := c.do(ctx, http.MethodGet, "/polls/active", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePoll opens a poll, ending any active one, and returns its id
func (c *Client) CreatePoll(ctx context.Context, options []models.NewPollOption) (int64, error) {
	var resp models.CreatePollResponse
	err := c.do(ctx, http.MethodPost, "/polls", models.CreatePollRequest{Options: options}, &resp)
	return resp.PollID, err
}

// Vote casts the authenticated user's vote. A repeat vote fails with a 409
// APIError.
func (c *Client) Vote(ctx context.Context, optionID int64) error {
	return c.do(ctx, http.MethodPost, "/polls/active/votes", models.VoteRequest{OptionID: optionID}, nil)
}

func (c *Client) EndPoll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/polls/active/end", nil, nil)
}
