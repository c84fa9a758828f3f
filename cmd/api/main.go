package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mynurseshift/backend/internal/auth"
	"github.com/mynurseshift/backend/internal/config"
	"github.com/mynurseshift/backend/internal/domain"
	"github.com/mynurseshift/backend/internal/handler"
	"github.com/mynurseshift/backend/internal/observability"
	"github.com/mynurseshift/backend/internal/queue"
	"github.com/mynurseshift/backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	/**********************************************
	 * Configuration and logger
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	/**********************************************
	 * Database
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not connect
	if err := dbpool.PingContext(ctx); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	repo := repository.NewRepository(cfg, dbpool)

	if cfg.Database.RunMigrations {
		if err := repo.RunMigrations(ctx, logger); err != nil {
			return err
		}
	}

	if err := ensureInitialAdmin(ctx, cfg, repo, logger); err != nil {
		return err
	}

	/**********************************************
	 * RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := queue.Declare(ch, cfg.RabbitMQ.Queue); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	publisher := queue.NewPublisher(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	/**********************************************
	 * Redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	redisTimeout := time.Duration(cfg.Redis.OperationTimeout) * time.Second
	resets := auth.NewRedisResetStore(rdb, redisTimeout)

	/**********************************************
	 * HTTP
	 **********************************************/
	h, err := handler.NewHandler(cfg, repo, publisher, resets, logger)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}
	h.RegisterRoutes()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     zap.NewStdLog(logger),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("serve: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// ensureInitialAdmin creates the configured super administrator, Active,
// unless an account with that email already exists.
func ensureInitialAdmin(ctx context.Context, cfg *config.Config, repo *repository.Repository, logger *zap.Logger) error {
	passwordHash, err := auth.HashPassword(cfg.InitialAdmin.Password, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash initial admin password: %w", err)
	}

	admin := &domain.Account{
		Email:        cfg.InitialAdmin.Email,
		PasswordHash: passwordHash,
		FirstName:    cfg.InitialAdmin.FirstName,
		LastName:     cfg.InitialAdmin.LastName,
		Role:         domain.RoleSuperAdministrator,
		Status:       domain.StatusActive,
	}
	if err := repo.CreateAccount(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			logger.Info("initial admin already exists", zap.String("email", admin.Email))
			return nil
		}
		return fmt.Errorf("create initial admin: %w", err)
	}

	logger.Info("initial admin created", zap.String("email", admin.Email))
	return nil
}
