package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"vet-clinic/internal/adapters/auth/dev"
	"vet-clinic/internal/adapters/auth/odin"
	"vet-clinic/internal/adapters/notify/redisbus"
	pg "vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/config"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/ports/auth"
	"vet-clinic/internal/ports/notify"
	"vet-clinic/internal/router"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServer(cmd.Context())
	},
}

func runServer(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	verifier, err := newVerifier(cfg, log)
	if err != nil {
		return err
	}

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = pg.Open(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var bus notify.Bus
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		defer rdb.Close()

		rb := redisbus.New(rdb, cfg.Redis.Channel, log)
		go func() {
			if err := rb.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("role-change subscriber stopped", logger.Fields{"error": err})
			}
		}()
		bus = rb
	}

	handler, err := router.NewRouter(router.Options{
		Verifier:           verifier,
		DB:                 db,
		StoreTimeout:       cfg.Database.StoreTimeout,
		Bus:                bus,
		Location:           loc,
		SessionSecret:      cfg.Session.Secret,
		SessionTTL:         cfg.Session.TTL,
		SecureCookies:      cfg.IsProduction(),
		DevMode:            cfg.DevMode(),
		LoginRatePerMinute: cfg.Server.LoginRatePerMinute,
		TrustProxy:         cfg.Server.TrustProxy,
		Log:                log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", logger.Fields{"addr": srv.Addr, "env": cfg.App.Env, "timezone": loc.String()})
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down", nil)
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error("server shutdown error", logger.Fields{"error": err})
			return err
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Fields{"error": err})
			return err
		}
	}

	log.Info("server stopped", nil)
	return nil
}

// newVerifier usa Odin si está configurado; en desarrollo cae al verifier dev:<uid>.
func newVerifier(cfg *config.Config, log logger.Logger) (auth.AuthVerifier, error) {
	if cfg.Odin.BaseURL != "" {
		client, err := odin.NewClient(odin.Config{BaseURL: cfg.Odin.BaseURL, APIKey: cfg.Odin.APIKey})
		if err != nil {
			return nil, err
		}
		return odin.NewVerifier(client), nil
	}
	if cfg.DevMode() {
		log.Warn("ODIN_BASE_URL not set, accepting dev:<uid> tokens", nil)
		return dev.NewVerifier(), nil
	}
	return nil, errors.New("odin: base_url is required")
}
