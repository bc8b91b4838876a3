package models

import (
	"time"

	"github.com/danielhkuo/watchroom/roles"
)

// Chat limits
const (
	DefaultMessageLimit = 100
	MaxMessageLength    = 1000
)

// Request types

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangeRoleRequest struct {
	Role roles.Role `json:"role"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

// Enabled is a pointer so a missing field is distinguishable from false.
type ChatSettingsRequest struct {
	Enabled *bool `json:"enabled"`
}

type ChangeVideoRequest struct {
	Title       string `json:"title"`
	VKURL       string `json:"vkUrl"`
	Description string `json:"description"`
}

type NewPollOption struct {
	Title string `json:"title"`
	VKURL string `json:"vkUrl"`
}

type CreatePollRequest struct {
	Options []NewPollOption `json:"options"`
}

type VoteRequest struct {
	OptionID int64 `json:"optionId"`
}

// Response types

type AuthResponse struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type MuteResponse struct {
	IsChatMuted bool `json:"isChatMuted"`
}

type BanResponse struct {
	IsBanned bool `json:"isBanned"`
}

type RoleResponse struct {
	Role roles.Role `json:"role"`
}

type OnlineResponse struct {
	IsOnline bool `json:"isOnline"`
}

type ClearChatResponse struct {
	Deleted int64 `json:"deleted"`
}

type CreatePollResponse struct {
	PollID int64 `json:"pollId"`
}

type VoteResponse struct {
	Message string `json:"message"`
}

// Domain types

// User is a registered identity. The password hash never leaves the server.
type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Role        roles.Role `json:"role"`
	IsBanned    bool       `json:"isBanned"`
	IsChatMuted bool       `json:"isChatMuted"`
	IsOnline    bool       `json:"isOnline"`
	LastSeen    *time.Time `json:"lastSeen,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Message is a chat entry. Username and Role are copied from the author
// when the message is sent and do not follow later role changes.
type Message struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Username  string     `json:"username"`
	Role      roles.Role `json:"role"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
}

type ChatSettings struct {
	Enabled bool `json:"enabled"`
}

type Video struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	VKURL       string    `json:"vkUrl"`
	Description string    `json:"description"`
	EmbedURL    string    `json:"embedUrl,omitempty"`
	ChangedAt   time.Time `json:"changedAt"`
}

type PollOption struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	VKURL   string `json:"vkUrl"`
	Votes   int    `json:"votes"`
	Percent int    `json:"percent"`
}

// ActivePoll is the state of the poll as seen by one viewer.
// When Active is false the other fields are zero.
type ActivePoll struct {
	Active     bool         `json:"active"`
	PollID     int64        `json:"pollId,omitempty"`
	Options    []PollOption `json:"options,omitempty"`
	TotalVotes int          `json:"totalVotes"`
	HasVoted   bool         `json:"hasVoted"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
