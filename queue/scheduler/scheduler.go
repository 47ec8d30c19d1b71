// Package scheduler implements the email worker (C5): a ticker-driven
// daemon that drains email_queue and garbage-collects stale unverified
// users, re-expressing the reference implementation's externally-driven
// on_next/check() pair as a time.Ticker plus an idempotent wake channel.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/lwsgs/lwsgs/config"
	"github.com/lwsgs/lwsgs/db"
)

// mailer is the narrow interface Scheduler needs from mail.Mailer.
type mailer interface {
	Send(ctx context.Context, to, content string) error
}

// Scheduler drains email_queue on every tick (or external wake) and runs
// the stale-unverified-user / stale-token GC pass first, matching the
// reference's on_next ordering.
type Scheduler struct {
	store db.Store
	mail  mailer
	cfg   config.Scheduler
	// emailExpireSecs is the GC threshold for both stale unverified
	// users and stale (abandoned) verification/reset tokens.
	emailExpireSecs int64
	log             *slog.Logger
	nowFn           func() int64

	wake         chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownDone chan struct{}
}

// New creates a Scheduler. emailExpireSecs is config.Session.EmailExpireSecs.
func New(store db.Store, mail mailer, cfg config.Scheduler, emailExpireSecs int64, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		store:           store,
		mail:            mail,
		cfg:             cfg,
		emailExpireSecs: emailExpireSecs,
		log:             log,
		nowFn:           func() int64 { return time.Now().Unix() },
		wake:            make(chan struct{}, 1),
	}
}

func (s *Scheduler) Name() string { return "email-scheduler" }

// Check is the idempotent external wake entry point: call it whenever a
// new message is enqueued so the worker doesn't wait for the next tick.
func (s *Scheduler) Check() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start begins the ticker loop in a background goroutine.
func (s *Scheduler) Start() error {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.shutdownDone = make(chan struct{})

	go func() {
		interval := s.cfg.Interval()
		if interval <= 0 {
			interval = 5 * time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(s.shutdownDone)

		for {
			select {
			case <-s.ctx.Done():
				s.log.Info("email scheduler received shutdown signal")
				return
			case <-ticker.C:
				s.onNext()
			case <-s.wake:
				s.onNext()
			}
		}
	}()
	return nil
}

// Stop cancels the loop and waits for it to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.shutdownDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// onNext runs one GC + drain pass: delete stale unverified users, clear
// stale tokens, then claim and attempt to send one queued message.
func (s *Scheduler) onNext() {
	now := s.nowFn()
	cutoff := now - s.emailExpireSecs

	if deleted, err := s.store.UserDeleteStaleUnverified(s.ctx, cutoff); err != nil {
		s.log.Error("scheduler: delete stale unverified users", "err", err)
	} else if len(deleted) > 0 {
		for _, username := range deleted {
			if err := s.store.EmailDelete(s.ctx, username); err != nil {
				s.log.Error("scheduler: purge queued email for deleted user", "username", username, "err", err)
			}
		}
		s.log.Info("scheduler: deleted stale unverified users", "count", len(deleted))
	}

	if err := s.store.UserClearStaleTokens(s.ctx, cutoff); err != nil {
		s.log.Error("scheduler: clear stale tokens", "err", err)
	}

	s.drainOne()
}

// drainOne claims a single queued message and attempts delivery. A send
// failure leaves the row queued for the next tick; there is no backoff.
func (s *Scheduler) drainOne() {
	username, err := s.store.EmailPeekOne(s.ctx)
	if err != nil {
		s.log.Error("scheduler: peek email queue", "err", err)
		return
	}
	if username == "" {
		return // idle, await next tick or Check()
	}

	content, err := s.store.EmailGetContent(s.ctx, username)
	if err != nil {
		s.log.Error("scheduler: load queued content", "username", username, "err", err)
		return
	}

	u, err := s.store.UserGet(s.ctx, username)
	if err != nil {
		s.log.Error("scheduler: load user for queued email", "username", username, "err", err)
		return
	}
	if u == nil {
		// User gone (e.g. GC'd this same pass): drop the orphaned row.
		if err := s.store.EmailDelete(s.ctx, username); err != nil {
			s.log.Error("scheduler: drop orphaned queued email", "username", username, "err", err)
		}
		return
	}

	sendCtx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	err = s.mail.Send(sendCtx, u.Email, content)
	cancel()
	if err != nil {
		s.log.Warn("scheduler: send failed, leaving message queued", "username", username, "err", err)
		return
	}

	// Registration mail flips verified 0 -> 1 (dispatched). A forgot-
	// password mail is sent to an already-verified (100) user and must
	// not be downgraded.
	if u.Verified == db.VerifiedNew {
		if err := s.store.UserUpdateVerified(s.ctx, username, db.VerifiedDispatched); err != nil {
			s.log.Error("scheduler: mark verified dispatched", "username", username, "err", err)
		}
	}
	if err := s.store.EmailDelete(s.ctx, username); err != nil {
		s.log.Error("scheduler: delete sent queue row", "username", username, "err", err)
	}
}
