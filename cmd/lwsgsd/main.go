// Command lwsgsd is the standalone demo host for the session and
// credential subsystem: it wires every package together behind a plain
// non-TLS HTTP listener so the module can be exercised end-to-end
// without an embedding host.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/lwsgs/lwsgs/authgate"
	"github.com/lwsgs/lwsgs/cache/ristretto"
	"github.com/lwsgs/lwsgs/config"
	"github.com/lwsgs/lwsgs/credential"
	"github.com/lwsgs/lwsgs/db/sqlitestore"
	"github.com/lwsgs/lwsgs/httpapi"
	"github.com/lwsgs/lwsgs/mail"
	"github.com/lwsgs/lwsgs/queue/scheduler"
	"github.com/lwsgs/lwsgs/router"
	"github.com/lwsgs/lwsgs/server"
	"github.com/lwsgs/lwsgs/session"
)

func main() {
	configPath := flag.String("config", "lwsgsd.toml", "path to the TOML configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	configProvider := config.NewProvider(cfg)

	store, err := sqlitestore.New(cfg.Store.SessionDB)
	if err != nil {
		logger.Error("failed to open store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	sessionCache, err := ristretto.New(cfg.Cache.Level)
	if err != nil {
		logger.Error("failed to build session cache", "err", err)
		os.Exit(1)
	}

	sm := session.NewManager(store, sessionCache, session.Config{
		TimeoutAbsoluteSecs:     cfg.Session.TimeoutAbsoluteSecs,
		TimeoutAnonAbsoluteSecs: cfg.Session.TimeoutAnonAbsoluteSecs,
		TimeoutIdleSecs:         cfg.Session.TimeoutIdleSecs,
	}, logger)

	mailer := mail.New(cfg.Smtp)

	credCfg := credential.Config{
		AdminUser:          cfg.Admin.User,
		AdminPasswordSha1:  cfg.Admin.PasswordSha1,
		ConfirmURL:         cfg.Credential.ConfirmURL,
		Confounder:         cfg.Credential.Confounder,
		GracePeriodSecs:    cfg.Credential.GracePeriodSecs,
		EmailTitle:         cfg.Credential.EmailTitle,
		EmailContactPerson: cfg.Credential.EmailContactPerson,
	}
	cred := credential.NewManager(store, store, credCfg, logger)

	gate := authgate.NewGate(sm, store, authgate.Config{
		AdminUser:       cfg.Admin.User,
		GracePeriodSecs: cfg.Credential.GracePeriodSecs,
	}, nil)

	api := httpapi.New(cred, sm, gate, httpapi.Config{ConfirmURL: cfg.Credential.ConfirmURL}, logger, nil)

	r := router.New()
	api.Register(r)

	srv := server.NewServer(configProvider, r, logger)
	srv.AddDaemon(scheduler.New(store, mailer, cfg.Scheduler, cfg.Session.EmailExpireSecs, logger))
	srv.SetReloadFunc(func() (*config.Config, error) { return config.Load(*configPath) })

	srv.Run()
}
