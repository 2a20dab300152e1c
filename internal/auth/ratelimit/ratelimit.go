// Package ratelimit budgets verification attempts per account over a
// sliding window.
package ratelimit

import (
	"time"
)

const (
	DefaultLimit  = 5
	DefaultWindow = 15 * time.Minute
)

// Config sets how many attempts an account may make per Window.
type Config struct {
	Limit  int
	Window time.Duration
	Now    func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
