package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Default returns a Config with the TTLs and ports the reference
// deployment uses, before any file is applied on top.
func Default() *Config {
	return &Config{
		Session: Session{
			TimeoutIdleSecs:         600,
			TimeoutAbsoluteSecs:     86400,
			TimeoutAnonAbsoluteSecs: 86400,
			EmailExpireSecs:         86400,
		},
		Credential: Credential{
			GracePeriodSecs: 300,
		},
		Smtp: Smtp{
			Port:       587,
			AuthMethod: "plain",
		},
		Cache: Cache{
			Level: "small",
		},
		Scheduler: Scheduler{
			IntervalSecs: 5,
		},
		Server: Server{
			Addr:                  ":8080",
			ShutdownGracefulSecs:  10,
			ReadTimeoutSecs:       10,
			ReadHeaderTimeoutSecs: 5,
			WriteTimeoutSecs:      10,
			IdleTimeoutSecs:       120,
		},
	}
}

// Load reads a TOML document at path onto a Default() config and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
