package service

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// nonAlnumRun collapses every run of non-alphanumerics into one separator.
var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases a title, collapses non-alphanumeric runs to single
// hyphens, and trims leading/trailing hyphens.
func slugify(title string) string {
	s := nonAlnumRun.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// slugClock hands out strictly increasing millisecond stamps so two posts
// with identical titles created in the same millisecond still get distinct
// slugs.
type slugClock struct {
	mu   sync.Mutex
	last int64
}

func (c *slugClock) next(now time.Time) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := now.UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}

// generateSlug derives the unique post slug
// <lowercased-hyphenated-title>-<creation-epoch-millis>.
func (c *slugClock) generateSlug(title string, now time.Time) string {
	return fmt.Sprintf("%s-%d", slugify(title), c.next(now))
}
