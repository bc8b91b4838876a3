// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"strings"

	"github.com/danielhkuo/watchroom/models"
	"github.com/danielhkuo/watchroom/roles"
	"github.com/danielhkuo/watchroom/vkvideo"
)

// Video returns the current video, or nil when none was ever set. EmbedURL
// is empty when the link holds no VK video reference.
func (a *App) Video() *models.Video {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.video == nil {
		return nil
	}
	v := *a.video
	return &v
}

func (a *App) ReloadVideo(ctx context.Context) error {
	gen := a.generation()
	if gen == nil {
		return ErrNoSession
	}
	v, err := a.api.GetCurrentVideo(ctx)
	if err != nil {
		return err
	}
	a.setVideo(gen, v)
	return nil
}

// ChangeVideo replaces the video everyone is watching
func (a *App) ChangeVideo(ctx context.Context, title, vkURL, description string) error {
	gen := a.generation()
	if _, err := a.require(roles.ChangeVideo); err != nil {
		return a.fail("Video not changed", err)
	}
	title = strings.TrimSpace(title)
	vkURL = strings.TrimSpace(vkURL)
	if title == "" || vkURL == "" {
		return a.fail("Video not changed", ErrEmptyVideo)
	}

	v, err := a.api.ChangeVideo(ctx, title, vkURL, strings.TrimSpace(description))
	if err != nil {
		return a.fail("Video not changed", err)
	}
	a.setVideo(gen, v)
	a.notify.Info("Now playing: " + v.Title)
	return nil
}

func (a *App) setVideo(gen chan struct{}, v *models.Video) {
	if v != nil {
		if embed, ok := vkvideo.Embed(a.host, v.VKURL); ok {
			v.EmbedURL = embed
		} else {
			v.EmbedURL = ""
		}
	}

	a.mu.Lock()
	if !a.staleLocked(gen) {
		a.video = v
	}
	a.mu.Unlock()
}
