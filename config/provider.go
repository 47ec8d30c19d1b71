package config

import "sync/atomic"

// Provider holds the current configuration and allows atomic,
// reader-safe swaps on reload (SIGHUP).
type Provider struct {
	value atomic.Value // holds *Config
}

// NewProvider creates a Provider seeded with the initial config. It
// panics if c is nil.
func NewProvider(c *Config) *Provider {
	if c == nil {
		panic("config: initial config cannot be nil")
	}
	p := &Provider{}
	p.value.Store(c)
	return p
}

// Get returns the current configuration snapshot. Safe for concurrent use.
func (p *Provider) Get() *Config {
	return p.value.Load().(*Config)
}

// Update atomically swaps in a new configuration. Callers validate
// newConfig before calling Update.
func (p *Provider) Update(newConfig *Config) {
	p.value.Store(newConfig)
}
