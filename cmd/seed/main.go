package main

import (
	"context"
	"database/sql"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/mynurseshift/backend/internal/auth"
	"github.com/mynurseshift/backend/internal/config"
	"github.com/mynurseshift/backend/internal/observability"
	"github.com/mynurseshift/backend/internal/repository"
	"github.com/mynurseshift/backend/internal/seed"
	"github.com/mynurseshift/backend/internal/utils"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "operation (1: random poles, 2: random services, 3: random accounts, 4: import accounts from CSV)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.StringVar(&file, "file", "", "CSV roster for -op 4")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, true)
	if err != nil {
		os.Stderr.WriteString("create logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer dbpool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}

	repo := repository.NewRepository(cfg, dbpool)
	ctx = context.Background()

	if op != 4 && n <= 0 {
		logger.Error("n must be positive", zap.Int("n", n))
		return
	}

	switch op {
	case 0:
		logger.Error("no operation given")
	case 1:
		cnt := 0
		for i := 0; i < n; i++ {
			if err := repo.CreatePole(ctx, utils.GenerateRandomPole()); err != nil {
				logger.Error("failed to insert pole", zap.Error(err))
				continue
			}
			cnt++
		}
		logger.Info("poles inserted", zap.Int("count", cnt))
	case 2:
		poles, err := repo.ListPoles(ctx)
		if err != nil {
			logger.Error("failed to list poles", zap.Error(err))
			return
		}
		if len(poles) == 0 {
			logger.Error("insert poles first")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			pole := poles[rand.Intn(len(poles))]
			if err := repo.CreateService(ctx, utils.GenerateRandomService(pole.ID)); err != nil {
				logger.Error("failed to insert service", zap.Error(err))
				continue
			}
			cnt++
		}
		logger.Info("services inserted", zap.Int("count", cnt))
	case 3:
		services, err := repo.ListServices(ctx, nil)
		if err != nil {
			logger.Error("failed to list services", zap.Error(err))
			return
		}

		passwordHash, err := auth.HashPassword(cfg.Seed.User.Password, cfg.Auth.BcryptCost)
		if err != nil {
			logger.Error("failed to hash seed password", zap.Error(err))
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			var serviceID *int64
			if len(services) > 0 {
				id := services[rand.Intn(len(services))].ID
				serviceID = &id
			}

			account := utils.GenerateRandomAccount(passwordHash, cfg.Seed.EmailDomain, serviceID)
			if err := repo.CreateAccount(ctx, account); err != nil {
				logger.Error("failed to insert account", zap.Error(err))
				continue
			}
			cnt++
		}
		logger.Info("accounts inserted", zap.Int("count", cnt))
	case 4:
		if file == "" {
			logger.Error("-file is required")
			return
		}
		f, err := os.Open(file)
		if err != nil {
			logger.Error("failed to open roster", zap.Error(err))
			return
		}
		defer f.Close()

		passwordHash, err := auth.HashPassword(cfg.Seed.User.Password, cfg.Auth.BcryptCost)
		if err != nil {
			logger.Error("failed to hash seed password", zap.Error(err))
			return
		}

		created, err := seed.ImportAccounts(ctx, f, repo, passwordHash, cfg.Account.PhoneRegion, logger)
		if err != nil {
			logger.Error("import failed", zap.Int("created", created), zap.Error(err))
			return
		}
		logger.Info("accounts imported", zap.Int("count", created))
	default:
		logger.Error("unknown operation", zap.Int("op", op))
	}
}
