// Package config loads the TOML configuration document for the session
// and credential subsystem and exposes it through an atomically
// swappable Provider so a SIGHUP reload never races request handlers.
package config

import (
	"fmt"
	"time"
)

// Admin holds the injected, never-persisted administrator identity.
type Admin struct {
	User         string `toml:"admin-user"`
	PasswordSha1 string `toml:"admin-password-sha1"`
}

// Session holds the cookie/TTL policy for the session registry.
type Session struct {
	TimeoutIdleSecs         int64 `toml:"timeout-idle-secs"`
	TimeoutAbsoluteSecs     int64 `toml:"timeout-absolute-secs"`
	TimeoutAnonAbsoluteSecs int64 `toml:"timeout-anon-absolute-secs"`
	EmailExpireSecs         int64 `toml:"email-expire"`
}

// IdleTimeout returns TimeoutIdleSecs as a time.Duration.
func (s Session) IdleTimeout() time.Duration { return time.Duration(s.TimeoutIdleSecs) * time.Second }

// AbsoluteTimeout returns TimeoutAbsoluteSecs as a time.Duration.
func (s Session) AbsoluteTimeout() time.Duration {
	return time.Duration(s.TimeoutAbsoluteSecs) * time.Second
}

// AnonAbsoluteTimeout returns TimeoutAnonAbsoluteSecs as a time.Duration.
func (s Session) AnonAbsoluteTimeout() time.Duration {
	return time.Duration(s.TimeoutAnonAbsoluteSecs) * time.Second
}

// Credential holds the policy knobs the credential manager needs beyond
// the bare admin identity.
type Credential struct {
	Confounder         string `toml:"confounder"`
	ConfirmURL         string `toml:"confirm-url"`
	GracePeriodSecs    int64  `toml:"grace-period-secs"`
	EmailTitle         string `toml:"email-title"`
	EmailContactPerson string `toml:"email-contact-person"`
}

// Smtp holds the outbound mail transport configuration.
type Smtp struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	From        string `toml:"from"`
	AuthMethod  string `toml:"auth-method"` // plain|login|cram-md5|none
	UseTLS      bool   `toml:"use-tls"`
	UseStartTLS bool   `toml:"use-start-tls"`
}

// Store holds the embedded relational store location.
type Store struct {
	SessionDB string `toml:"session-db"`
}

// Cache holds the ristretto cache sizing preset.
type Cache struct {
	Level string `toml:"level"` // small|medium|large|very-large
}

// Scheduler holds the email-worker tick interval.
type Scheduler struct {
	IntervalSecs int64 `toml:"interval-secs"`
}

// Interval returns IntervalSecs as a time.Duration.
func (s Scheduler) Interval() time.Duration { return time.Duration(s.IntervalSecs) * time.Second }

// Server holds the local demo HTTP listener settings.
type Server struct {
	Addr                  string `toml:"addr"`
	ShutdownGracefulSecs  int64  `toml:"shutdown-graceful-secs"`
	ReadTimeoutSecs       int64  `toml:"read-timeout-secs"`
	ReadHeaderTimeoutSecs int64  `toml:"read-header-timeout-secs"`
	WriteTimeoutSecs      int64  `toml:"write-timeout-secs"`
	IdleTimeoutSecs       int64  `toml:"idle-timeout-secs"`
}

func (s Server) ShutdownGraceful() time.Duration {
	return time.Duration(s.ShutdownGracefulSecs) * time.Second
}
func (s Server) ReadTimeout() time.Duration { return time.Duration(s.ReadTimeoutSecs) * time.Second }
func (s Server) ReadHeaderTimeout() time.Duration {
	return time.Duration(s.ReadHeaderTimeoutSecs) * time.Second
}
func (s Server) WriteTimeout() time.Duration { return time.Duration(s.WriteTimeoutSecs) * time.Second }
func (s Server) IdleTimeout() time.Duration  { return time.Duration(s.IdleTimeoutSecs) * time.Second }

// Config is the top-level document loaded from TOML.
type Config struct {
	Admin      Admin      `toml:"admin"`
	Session    Session    `toml:"session"`
	Credential Credential `toml:"credential"`
	Smtp       Smtp       `toml:"smtp"`
	Store      Store      `toml:"store"`
	Cache      Cache      `toml:"cache"`
	Scheduler  Scheduler  `toml:"scheduler"`
	Server     Server     `toml:"server"`
}

// Validate raises an error for the fields the spec calls out as
// fatal-if-empty at init (ConfigMissing, §7).
func (c *Config) Validate() error {
	if c.Admin.User == "" {
		return fmt.Errorf("config: admin-user is required")
	}
	if c.Admin.PasswordSha1 == "" {
		return fmt.Errorf("config: admin-password-sha1 is required")
	}
	if c.Store.SessionDB == "" {
		return fmt.Errorf("config: session-db is required")
	}
	return nil
}
