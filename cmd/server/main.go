// @title        authportal API
// @version      1.0
// @description  Captcha-gated registration, login and cookie sessions for a small web application.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/webgate/authportal/internal/api"
	"github.com/webgate/authportal/internal/api/handler"
	"github.com/webgate/authportal/internal/core/ports"
	"github.com/webgate/authportal/internal/core/service"
	"github.com/webgate/authportal/internal/infrastructure/captcha"
	mongodb "github.com/webgate/authportal/internal/infrastructure/db/mongo"
	redisdb "github.com/webgate/authportal/internal/infrastructure/db/redis"
	"github.com/webgate/authportal/internal/infrastructure/filestore"
	"github.com/webgate/authportal/internal/infrastructure/queue"
	"github.com/webgate/authportal/internal/infrastructure/session"
	"github.com/webgate/authportal/internal/pkg/config"
	"github.com/webgate/authportal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "authportal",
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	for _, f := range []string{cfg.UsersFile, cfg.MessagesFile} {
		if err := os.MkdirAll(filepath.Dir(f), 0o750); err != nil {
			return err
		}
	}

	users := filestore.NewUserStore(cfg.UsersFile, logger.Component("userstore"))
	checks := map[string]handler.CheckFunc{"userstore": users.Check}

	// --- Optional MongoDB: contact messages and the audit trail ---
	var (
		messages  ports.MessageRepository = filestore.NewMessageStore(cfg.MessagesFile, logger.Component("messagestore"))
		auditRepo ports.AuditRepository   = queue.NewLogRepository(logger.Component("audit"))
		client    *mongo.Client
	)
	if cfg.Mongo.URI != "" {
		c, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		client = c
		audit := mongodb.NewAuditRepository(db)
		if err := audit.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("audit indexes not created")
		}
		messages = mongodb.NewMessageRepository(db)
		auditRepo = audit
		checks["mongodb"] = mongodb.NewPinger(db).Ping
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb enabled")
	}

	// --- Optional Redis: captcha replay guard ---
	var captchaOpts []captcha.Option
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		guard := redisdb.NewReplayGuard(rdb)
		captchaOpts = append(captchaOpts, captcha.WithReplayGuard(guard))
		checks["redis"] = guard.Ping
		log.Info().Str("addr", cfg.Redis.Addr).Msg("captcha replay guard enabled")
	}

	verifier := captcha.NewVerifier(captcha.Config{
		Secret:    cfg.Captcha.Secret,
		VerifyURL: cfg.Captcha.VerifyURL,
		Timeout:   cfg.Captcha.Timeout,
	}, logger.Component("captcha"), captchaOpts...)

	// --- Background workers ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, logger.Component("audit"))
	dispatcher.Start(workerCtx)

	sessions := session.NewManager(session.Config{
		TTL:           cfg.Session.TTL,
		IdleTimeout:   cfg.Session.IdleTimeout,
		SweepInterval: cfg.Session.SweepInterval,
	}, logger.Component("session"))
	go sessions.Run(workerCtx)

	cookies := session.NewCookieCodec(session.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secret: cfg.SessionSecret,
		Secure: cfg.Session.CookieSecure,
		MaxAge: sessions.TTL(),
	})

	// --- Services ---
	authService := service.NewAuthService(users, service.NewBcryptHasher(cfg.BcryptCost), verifier, dispatcher, logger.Component("auth"))
	contactService := service.NewContactService(messages, verifier, dispatcher, logger.Component("contact"))

	trusted, err := cfg.TrustedProxyNets()
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Log:                    logger.Component("http"),
		Auth:                   authService,
		Contact:                contactService,
		Sessions:               sessions,
		Cookies:                cookies,
		Access:                 service.NewAccessControl(sessions),
		Checks:                 checks,
		PublicDir:              cfg.PublicDir,
		HideLoginFailureReason: cfg.HideLoginFailureReason,
		RateLimitRPS:           cfg.RateLimit.RPS,
		RateLimitBurst:         cfg.RateLimit.Burst,
		TrustedProxies:         trusted,
		Metrics:                true,
	})
	e.Server.ReadHeaderTimeout = 5 * time.Second

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLS.Enabled() {
			log.Info().Str("addr", addr).Msg("listening (https)")
			err = e.StartTLS(addr, cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			log.Warn().Str("addr", addr).Msg("listening (http); TLS_CERT_FILE/TLS_KEY_FILE not set")
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	stopWorkers()
	dispatcher.Wait()

	if client != nil {
		if err := client.Disconnect(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}
	return serveErr
}
