package scheduler

import "time"

// Config controls sweep cadence and staleness.
type Config struct {
	RunInterval    time.Duration
	StaleThreshold time.Duration
	TickTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval:    time.Hour,
		StaleThreshold: 24 * time.Hour,
		TickTimeout:    30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.StaleThreshold <= 0 {
		c.StaleThreshold = defaults.StaleThreshold
	}
	if c.TickTimeout <= 0 {
		c.TickTimeout = defaults.TickTimeout
	}
	return c
}
