// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchroom_auth_events_total",
			Help: "Registrations and login attempts by outcome",
		},
		[]string{"event"},
	)

	moderationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchroom_moderation_actions_total",
			Help: "Moderation actions applied to users and chat",
		},
		[]string{"action"},
	)

	chatMessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchroom_chat_messages_sent_total",
		Help: "Chat messages accepted",
	})

	pollVotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchroom_poll_votes_total",
			Help: "Vote attempts by outcome",
		},
		[]string{"outcome"},
	)

	videoChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchroom_video_changes_total",
		Help: "Times the current video was replaced",
	})
)
