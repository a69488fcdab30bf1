// Package numerator provides domain contracts for document auto-numbering.
package numerator

import "time"

// Options configure a single number generation.
type Options struct {
	// Date drives the date tokens and the GİB year. Zero means "now".
	Date time.Time
	// CheckRemote consults the e-invoice vendor for vendor-governed kinds.
	CheckRemote bool
}

// DefaultOptions returns options for a local-only generation dated now.
func DefaultOptions() *Options {
	return &Options{}
}

// Config holds the numbering tunables.
type Config struct {
	// MaxAttempts bounds the render/exists loop of a single generation.
	MaxAttempts int

	// CollisionDelay is the base pause inserted after every CollisionDelayEvery taken numbers.
	CollisionDelay      time.Duration
	CollisionDelayEvery int

	// CounterRetries bounds compare-and-swap attempts on a sequence counter.
	CounterRetries int

	// CounterBackoff is the base pause between counter attempts.
	CounterBackoff time.Duration

	// ScanLimit bounds how many persisted numbers the max scan looks at.
	ScanLimit int
}

// DefaultConfig returns the standard tunables.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:         100,
		CollisionDelay:      10 * time.Millisecond,
		CollisionDelayEvery: 5,
		CounterRetries:      3,
		CounterBackoff:      100 * time.Millisecond,
		ScanLimit:           100,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.CollisionDelay < 0 {
		c.CollisionDelay = 0
	}
	if c.CollisionDelayEvery <= 0 {
		c.CollisionDelayEvery = d.CollisionDelayEvery
	}
	if c.CounterRetries <= 0 {
		c.CounterRetries = d.CounterRetries
	}
	if c.CounterBackoff < 0 {
		c.CounterBackoff = 0
	}
	if c.ScanLimit <= 0 {
		c.ScanLimit = d.ScanLimit
	}
	return c
}
