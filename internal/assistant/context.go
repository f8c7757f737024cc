package assistant

import (
	"strings"
)

// windowSize bounds the rolling transcript window. Recency matters more
// than history for topic detection, and the bound keeps memory flat over
// arbitrarily long calls.
const windowSize = 10

// Context tracks the most recent transcript lines and which configured
// topics currently appear in them. One Context lives for exactly one call.
type Context struct {
	window  []string
	current []string // lowercased topic titles present in the window
}

// NewContext creates an empty tracker.
func NewContext() *Context {
	return &Context{}
}

// Observe appends a transcript line, evicts the oldest lines beyond the
// window bound, and recomputes which of titles appear in the window.
// Matching is a case-insensitive substring test.
func (c *Context) Observe(line string, titles []string) {
	c.window = append(c.window, line)
	if len(c.window) > windowSize {
		c.window = c.window[len(c.window)-windowSize:]
	}
	c.Refresh(titles)
}

// Refresh recomputes current topics against the existing window. Called on
// settings swaps so a changed topic list takes effect without new lines.
func (c *Context) Refresh(titles []string) {
	c.current = c.current[:0]
	for _, title := range titles {
		lower := strings.ToLower(title)
		for _, line := range c.window {
			if strings.Contains(strings.ToLower(line), lower) {
				c.current = append(c.current, lower)
				break
			}
		}
	}
}

// Has reports whether the given topic title is currently present.
func (c *Context) Has(title string) bool {
	lower := strings.ToLower(title)
	for _, t := range c.current {
		if t == lower {
			return true
		}
	}
	return false
}

// Window returns the current rolling window in observation order.
func (c *Context) Window() []string {
	return c.window
}

// Current returns the lowercased topic titles present in the window.
func (c *Context) Current() []string {
	return c.current
}
