package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/bank_ledger/internal/accounts"
	"github.com/congo-pay/bank_ledger/internal/auth"
	"github.com/congo-pay/bank_ledger/internal/config"
	"github.com/congo-pay/bank_ledger/internal/events"
	"github.com/congo-pay/bank_ledger/internal/exchange"
	"github.com/congo-pay/bank_ledger/internal/funding"
	"github.com/congo-pay/bank_ledger/internal/history"
	"github.com/congo-pay/bank_ledger/internal/identity"
	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/middleware"
	"github.com/congo-pay/bank_ledger/internal/money"
	"github.com/congo-pay/bank_ledger/internal/reconcile"
	"github.com/congo-pay/bank_ledger/internal/seed"
	"github.com/congo-pay/bank_ledger/internal/transfer"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Publisher events.Publisher
	Logger    *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Publisher == nil {
		d.Publisher = events.NewLoggerPublisher(d.Logger)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var (
		store ledger.Store
		users identity.Repository
	)
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB, d.Cfg.LedgerMaxAttempts)
		users = identity.NewPostgresRepository(d.DB)
	} else {
		store = ledger.NewInMemory()
		users = identity.NewMemoryRepository()
	}

	ctx := context.Background()
	rate, err := money.NewRate(money.USD, money.EUR, d.Cfg.USDEURRate)
	if err != nil {
		return fmt.Errorf("exchange rate: %w", err)
	}
	issuer, err := auth.NewIssuer(d.Cfg.JWTSecret, d.Cfg.TokenTTL)
	if err != nil {
		return err
	}

	identitySvc := identity.NewService(users)
	accountSvc := accounts.NewService(store)
	authSvc := auth.NewService(identitySvc, issuer, accountSvc)
	fundingSvc, err := funding.NewService(ctx, store, funding.StaticAcquirer{}, d.Publisher, d.Logger)
	if err != nil {
		return err
	}
	transferEngine := transfer.NewEngine(store, d.Publisher, d.Logger)
	exchangeEngine := exchange.NewEngine(store, rate, d.Publisher, d.Logger)
	reconcileSvc := reconcile.NewService(store, d.Logger)
	historySvc := history.NewService(store)

	seedUsers := d.Cfg.SeedUsers
	if len(seedUsers) == 0 && d.Cfg.IsDevelopment() {
		seedUsers = seed.DemoUsers()
	}
	if err := seed.Apply(ctx, seedUsers, identitySvc, accountSvc, store, d.Logger); err != nil {
		return err
	}

	d.Logger.Info("exchange rate loaded", "rate", rate.String())

	authHandler := auth.NewHandler(authSvc)
	reconcileHandler := reconcile.NewHandler(reconcileSvc)

	RegisterAuthRoutes(app, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginMaxPerMinute))

	protected := app.Group("",
		middleware.JWTAuth(issuer, users),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	)
	RegisterProfileRoutes(protected, authHandler)
	RegisterAccountRoutes(protected, accounts.NewHandler(accountSvc), reconcileHandler, funding.NewHandler(fundingSvc))
	RegisterTransactionRoutes(protected, history.NewHandler(historySvc), transfer.NewHandler(transferEngine), exchange.NewHandler(exchangeEngine))
	RegisterAdminRoutes(protected, reconcileHandler)

	return nil
}
