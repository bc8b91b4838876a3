// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"errors"
	"math"
	"strings"

	"github.com/danielhkuo/watchroom/models"
)

// MinOptions is the smallest number of valid options a poll can open with.
const MinOptions = 2

var (
	ErrNotEnoughOptions = errors.New("add at least 2 videos with a title and a link")
	ErrUnknownOption    = errors.New("option is not part of the active poll")
)

// ValidateOptions trims every entry and drops the ones missing a title or a
// video link. It fails when fewer than MinOptions entries remain.
func ValidateOptions(opts []models.NewPollOption) ([]models.NewPollOption, error) {
	valid := make([]models.NewPollOption, 0, len(opts))
	for _, o := range opts {
		o.Title = strings.TrimSpace(o.Title)
		o.VKURL = strings.TrimSpace(o.VKURL)
		if o.Title == "" || o.VKURL == "" {
			continue
		}
		valid = append(valid, o)
	}

	if len(valid) < MinOptions {
		return nil, ErrNotEnoughOptions
	}
	return valid, nil
}

// Percentages returns round(votes[i] / total * 100) for each entry.
// Every value is 0 when nobody has voted.
func Percentages(votes []int) []int {
	total := 0
	for _, v := range votes {
		total += v
	}

	out := make([]int, len(votes))
	if total == 0 {
		return out
	}
	for i, v := range votes {
		out[i] = int(math.Round(float64(v) / float64(total) * 100))
	}
	return out
}

// Tally returns a copy of options with Percent filled in, and the total
// number of votes.
func Tally(options []models.PollOption) ([]models.PollOption, int) {
	votes := make([]int, len(options))
	total := 0
	for i, o := range options {
		votes[i] = o.Votes
		total += o.Votes
	}

	pcts := Percentages(votes)
	out := make([]models.PollOption, len(options))
	for i, o := range options {
		o.Percent = pcts[i]
		out[i] = o
	}
	return out, total
}

// FindOption returns the index of the option with the given id, or -1.
func FindOption(options []models.PollOption, id int64) int {
	for i, o := range options {
		if o.ID == id {
			return i
		}
	}
	return -1
}
