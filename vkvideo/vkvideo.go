// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package vkvideo extracts owner and video ids from VK video links and
// builds the embeddable player URL.
package vkvideo

import (
	"fmt"
	"regexp"
)

// DefaultHost serves the embeddable player.
const DefaultHost = "vk.com"

// Matches .../video-123_456 and ...?z=video123_456 alike.
var refPattern = regexp.MustCompile(`video(-?\d+)_(\d+)`)

// Ref identifies a single VK video. OwnerID is negative for community videos.
type Ref struct {
	OwnerID string
	VideoID string
}

// Parse extracts the first owner/video id pair from link.
func Parse(link string) (Ref, bool) {
	m := refPattern.FindStringSubmatch(link)
	if m == nil {
		return Ref{}, false
	}
	return Ref{OwnerID: m[1], VideoID: m[2]}, true
}

// EmbedURL returns the iframe source for ref on host.
func EmbedURL(host string, ref Ref) string {
	if host == "" {
		host = DefaultHost
	}
	return fmt.Sprintf("https://%s/video_ext.php?oid=%s&id=%s&hd=2", host, ref.OwnerID, ref.VideoID)
}

// Embed parses link and returns its embed URL. ok is false when link does
// not contain a video reference; callers render nothing in that case.
func Embed(host, link string) (url string, ok bool) {
	ref, ok := Parse(link)
	if !ok {
		return "", false
	}
	return EmbedURL(host, ref), true
}
