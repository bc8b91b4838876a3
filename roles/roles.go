// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package roles

import (
	"errors"
	"fmt"
)

// Role is one of the five privilege levels an identity can hold.
type Role string

const (
	User        Role = "user"
	JuniorAdmin Role = "junior-admin"
	Admin       Role = "admin"
	SeniorAdmin Role = "senior-admin"
	Creator     Role = "creator"
)

// Action is a privileged operation gated by an allow-set of roles.
type Action string

const (
	ManageUsers  Action = "manage_users"  // mute/ban toggles
	ChangeVideo  Action = "change_video"  // replace the playing video
	ManagePolls  Action = "manage_polls"  // create/end polls
	ChangeRole   Action = "change_role"   // assign roles to others
	ModerateChat Action = "moderate_chat" // delete/clear messages
	ToggleChat   Action = "toggle_chat"   // enable/disable chat globally
)

var ErrInvalidRole = errors.New("invalid role")

// all lists the roles from least to most privileged.
var all = []Role{User, JuniorAdmin, Admin, SeniorAdmin, Creator}

// Each action has its own explicit set. These are not derived from the
// ordering above; e.g. admin can manage polls but not change the video.
var allowed = map[Action]map[Role]bool{
	ManageUsers: {
		Creator:     true,
		SeniorAdmin: true,
		Admin:       true,
		JuniorAdmin: true,
	},
	ChangeVideo: {
		Creator:     true,
		SeniorAdmin: true,
	},
	ManagePolls: {
		Creator:     true,
		SeniorAdmin: true,
		Admin:       true,
	},
	ChangeRole: {
		Creator: true,
	},
	ModerateChat: {
		Creator: true,
	},
	ToggleChat: {
		Creator: true,
	},
}

// Can reports whether role r may perform action a.
func Can(r Role, a Action) bool {
	return allowed[a][r]
}

// Allowed returns the roles permitted to perform a, least privileged first.
func Allowed(a Action) []Role {
	var out []Role
	for _, r := range all {
		if allowed[a][r] {
			out = append(out, r)
		}
	}
	return out
}

// All returns every known role, least privileged first.
func All() []Role {
	out := make([]Role, len(all))
	copy(out, all)
	return out
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range all {
		if r == known {
			return true
		}
	}
	return false
}

// Parse converts s into a Role.
func Parse(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}
