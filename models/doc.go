// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

Field names are camelCase on the wire; the same types are decoded by the
client package, so server and client never drift apart.

# Request Types

Types for parsing incoming JSON:

  - CredentialsRequest: username, password (register and login)
  - ChangeRoleRequest: role
  - SendMessageRequest: text
  - ChatSettingsRequest: enabled
  - ChangeVideoRequest: title, vkUrl, description
  - CreatePollRequest: options ([]NewPollOption)
  - VoteRequest: optionId

# Response Types

  - AuthResponse: user, token, expiresAt
  - MuteResponse, BanResponse, RoleResponse, OnlineResponse: new moderation state
  - ClearChatResponse: deleted
  - CreatePollResponse: pollId
  - ErrorResponse: error, message

# Domain Types

  - User: identity with role and ban/mute/online flags
  - Message: chat entry with author snapshot
  - ChatSettings: global chat switch
  - Video: currently playing video
  - PollOption, ActivePoll: poll state with per-option percentages

# Constants

	DefaultMessageLimit = 100
	MaxMessageLength    = 1000
*/
package models
