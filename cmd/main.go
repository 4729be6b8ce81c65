package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	grpcHandler "github.com/dtroode/encuentro-server/internal/api/grpc/handler"
	grpcRouter "github.com/dtroode/encuentro-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/encuentro-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/encuentro-server/internal/api/http/context"
	httpRouter "github.com/dtroode/encuentro-server/internal/api/http/router"
	httpServer "github.com/dtroode/encuentro-server/internal/api/http/server"
	"github.com/dtroode/encuentro-server/internal/config"
	"github.com/dtroode/encuentro-server/internal/jobs"
	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/mail"
	"github.com/dtroode/encuentro-server/internal/model"
	"github.com/dtroode/encuentro-server/internal/observability"
	"github.com/dtroode/encuentro-server/internal/password"
	"github.com/dtroode/encuentro-server/internal/repository/memory"
	"github.com/dtroode/encuentro-server/internal/repository/mongodb"
	"github.com/dtroode/encuentro-server/internal/repository/postgres"
	"github.com/dtroode/encuentro-server/internal/server"
	"github.com/dtroode/encuentro-server/internal/service"
	storage "github.com/dtroode/encuentro-server/internal/storage/minio"
	"github.com/dtroode/encuentro-server/internal/throttle"
	"github.com/dtroode/encuentro-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const (
	shutdownTimeout     = 10 * time.Second
	healthProbeInterval = 15 * time.Second
	resetLimiterScope   = "password_reset"
)

type stores struct {
	users  model.UserStore
	resets model.PasswordResetStore
	pinger model.Pinger
	close  func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	logAppVersion()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", "driver", cfg.Database.Driver, "error", err)
	}
	defer st.close()

	mailSender, err := newMailSender(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize mail sender", "driver", cfg.Mail.Driver, "error", err)
	}
	mailNotifier := mail.NewNotifier(mailSender, cfg.Mail.From)

	var (
		limiter   model.ResetLimiter
		notifier  model.ResetNotifier = mailNotifier
		redisOpts asynq.RedisClientOpt
		useJobs   bool
	)
	if cfg.Redis.Enabled {
		rdb, err := throttle.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		}
		defer rdb.Close()

		limiter = throttle.NewRedisLimiter(rdb, resetLimiterScope, cfg.Auth.ResetRequestsPerHour, time.Hour)

		if cfg.Jobs.Enabled {
			useJobs = true
			redisOpts = asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
			enqueuer := jobs.NewEnqueuer(redisOpts)
			defer enqueuer.Close()
			notifier = enqueuer
		}
	} else {
		logger.Warn("redis disabled, password reset requests are not throttled and mail is sent inline")
	}

	authService := service.NewAuth(
		st.users,
		st.resets,
		token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL),
		password.NewBcrypt(cfg.Auth.BcryptCost),
		notifier,
		limiter,
		service.AuthConfig{
			MinPasswordLength: cfg.Auth.MinPasswordLength,
			ResetTokenTTL:     cfg.Auth.ResetTokenTTL,
			FrontendURL:       cfg.Auth.FrontendURL,
			ResetPath:         cfg.Auth.ResetPath,
		},
		logger,
	)

	metrics := observability.NewMetrics()
	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	routes := httpRouter.New(
		httpRouter.Config{
			BasePath:       cfg.HTTP.BasePath,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			RateLimit:      cfg.HTTP.RateLimit,
			Production:     cfg.HTTP.Production,
			TrustProxy:     cfg.HTTP.TrustProxy,
		},
		authService,
		authService,
		httpctx.NewManager(),
		st.pinger,
		metrics,
		logger,
	).Register()

	servers := []model.Server{httpServer.NewHTTPServer(routes, fmt.Sprintf(":%s", cfg.HTTP.Port))}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.GRPC.Enabled {
		health := grpcHandler.NewHealth(st.pinger, logger)
		s := grpcRouter.New(health, logger).Register()
		servers = append(servers, grpcServer.NewGRPCServer(s, fmt.Sprintf(":%s", cfg.GRPC.Port)))

		g.Go(func() error {
			health.Watch(gctx, healthProbeInterval)
			return nil
		})
	}

	if useJobs {
		worker, err := jobs.NewWorker(jobs.WorkerConfig{
			RedisOpts:       redisOpts,
			Concurrency:     cfg.Jobs.Concurrency,
			CleanupSchedule: cfg.Jobs.CleanupSchedule,
			Handlers:        jobs.NewHandlers(mailNotifier, authService, metrics, logger),
			Logger:          logger,
		})
		if err != nil {
			logger.Fatal("failed to initialize job worker", "error", err)
		}
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	for _, s := range servers {
		s := s
		g.Go(func() error {
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				return fmt.Errorf("server %s: %w", s.Address(), err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := s.Stop(shutdownCtx); err != nil {
				logger.Error("error during server shutdown", "error", err, "address", s.Address())
			}
			return nil
		})
	}

	<-gctx.Done()
	logger.Info("received interruption signal, shutting down")

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
	}
	logger.Info("shutdown complete")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:  postgres.NewUserRepository(db),
			resets: postgres.NewPasswordResetRepository(db),
			pinger: db,
			close:  func() { _ = db.Close() },
		}, nil
	case config.DriverMongo:
		store, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:  store.Users(),
			resets: store.PasswordResets(),
			pinger: store,
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = store.Close(closeCtx)
			},
		}, nil
	default:
		users := memory.NewUserRepo()
		return &stores{
			users:  users,
			resets: memory.NewPasswordResetRepo(),
			pinger: users,
			close:  func() {},
		}, nil
	}
}

func newMailSender(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.MailSender, error) {
	if cfg.Mail.Driver != config.MailDriverOutbox {
		return mail.NewLogSender(logger), nil
	}

	client, err := storage.Connect(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.UseSSL)
	if err != nil {
		return nil, err
	}
	return mail.NewOutboxSender(client, logger), nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
