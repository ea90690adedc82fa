package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dimworks/dimpay-backend/api/routes"
	efiacquirer "github.com/dimworks/dimpay-backend/internal/acquirers/efi"
	interacquirer "github.com/dimworks/dimpay-backend/internal/acquirers/inter"
	mpacquirer "github.com/dimworks/dimpay-backend/internal/acquirers/mercadopago"
	"github.com/dimworks/dimpay-backend/internal/fees"
	"github.com/dimworks/dimpay-backend/internal/invoices"
	"github.com/dimworks/dimpay-backend/internal/notifications"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	"github.com/dimworks/dimpay-backend/internal/transactions"
	"github.com/dimworks/dimpay-backend/internal/wallets"
	"github.com/dimworks/dimpay-backend/internal/webhooks"
	efiwebhook "github.com/dimworks/dimpay-backend/internal/webhooks/efi"
	interwebhook "github.com/dimworks/dimpay-backend/internal/webhooks/inter"
	mercadopagowebhook "github.com/dimworks/dimpay-backend/internal/webhooks/mercadopago"
	"github.com/dimworks/dimpay-backend/pkg/config"
	"github.com/dimworks/dimpay-backend/pkg/db"
	"github.com/dimworks/dimpay-backend/pkg/env"
	"github.com/dimworks/dimpay-backend/pkg/logger"
	"github.com/dimworks/dimpay-backend/pkg/metrics"
	"github.com/dimworks/dimpay-backend/pkg/migrate"
	"github.com/dimworks/dimpay-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	transactionsRepo := transactions.NewRepository(dbClient.DB())
	invoicesRepo := invoices.NewRepository(dbClient.DB())
	walletsRepo := wallets.NewRepository(dbClient.DB())
	exceptionsRepo := reconciliation.NewExceptionsRepository(dbClient.DB())
	notificationsSvc, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	walletsSvc, err := wallets.NewService(walletsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallets service", err)
		os.Exit(1)
	}
	invoicesSvc, err := invoices.NewService(invoices.ServiceParams{
		Repo:      invoicesRepo,
		FeePolicy: fees.NewPolicy(cfg.Fees),
		BankCode:  cfg.Invoices.BankCode,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}

	reconciliationSvc, err := reconciliation.NewService(reconciliation.ServiceParams{
		TransactionsRepo:  transactionsRepo,
		InvoicesRepo:      invoicesRepo,
		WalletsRepo:       walletsRepo,
		ExceptionsRepo:    exceptionsRepo,
		Notifications:     notificationsSvc,
		FeePolicy:         fees.NewPolicy(cfg.Fees),
		TransactionRunner: dbClient,
		Logger:            logg,
		HouseWalletName:   cfg.Wallets.HouseWalletName,
		DefaultCurrency:   cfg.Wallets.DefaultCurrency,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation service", err)
		os.Exit(1)
	}

	mpClient, err := mpacquirer.NewClient(cfg.MercadoPago)
	if err != nil {
		logg.Error(context.Background(), "failed to create mercado pago client", err)
		os.Exit(1)
	}
	efiClient, err := efiacquirer.NewClient(cfg.EFI)
	if err != nil {
		logg.Error(context.Background(), "failed to create efi client", err)
		os.Exit(1)
	}
	interClient, err := interacquirer.NewClient(cfg.Inter)
	if err != nil {
		logg.Error(context.Background(), "failed to create inter client", err)
		os.Exit(1)
	}

	mpWebhookSvc, err := mercadopagowebhook.NewService(mercadopagowebhook.ServiceParams{
		Payments:   mpClient,
		Reconciler: reconciliationSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create mercado pago webhook service", err)
		os.Exit(1)
	}
	efiWebhookSvc, err := efiwebhook.NewService(efiwebhook.ServiceParams{
		Payments:   efiClient,
		Reconciler: reconciliationSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create efi webhook service", err)
		os.Exit(1)
	}
	interWebhookSvc, err := interwebhook.NewService(interwebhook.ServiceParams{
		Payments:   interClient,
		Reconciler: reconciliationSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inter webhook service", err)
		os.Exit(1)
	}

	mpGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, "mercadopago-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create mercado pago guard", err)
		os.Exit(1)
	}
	efiGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, "efi-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create efi guard", err)
		os.Exit(1)
	}
	interGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, "inter-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create inter guard", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:                cfg,
			Logger:                logg,
			DB:                    dbClient,
			Redis:                 redisClient,
			WalletsService:        walletsSvc,
			InvoicesService:       invoicesSvc,
			TransactionsRepo:      transactionsRepo,
			ReconciliationService: reconciliationSvc,
			NotificationsService:  notificationsSvc,
			MercadoPagoWebhook:    mpWebhookSvc,
			MercadoPagoGuard:      mpGuard,
			EFIWebhook:            efiWebhookSvc,
			EFIGuard:              efiGuard,
			InterWebhook:          interWebhookSvc,
			InterGuard:            interGuard,
			WebhookMetrics:        webhookMetrics,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
