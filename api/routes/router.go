package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dimworks/dimpay-backend/api/controllers"
	webhookcontrollers "github.com/dimworks/dimpay-backend/api/controllers/webhooks"
	"github.com/dimworks/dimpay-backend/api/middleware"
	"github.com/dimworks/dimpay-backend/internal/invoices"
	"github.com/dimworks/dimpay-backend/internal/notifications"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	"github.com/dimworks/dimpay-backend/internal/transactions"
	"github.com/dimworks/dimpay-backend/internal/wallets"
	"github.com/dimworks/dimpay-backend/internal/webhooks"
	"github.com/dimworks/dimpay-backend/pkg/config"
	"github.com/dimworks/dimpay-backend/pkg/db"
	"github.com/dimworks/dimpay-backend/pkg/logger"
	"github.com/dimworks/dimpay-backend/pkg/metrics"
	"github.com/dimworks/dimpay-backend/pkg/redis"
)

type Params struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis redis.Pinger

	WalletsService        wallets.Service
	InvoicesService       invoices.Service
	TransactionsRepo      transactions.Repository
	ReconciliationService *reconciliation.Service
	NotificationsService  notifications.Service

	MercadoPagoWebhook webhookcontrollers.MercadoPagoWebhookService
	MercadoPagoGuard   *webhooks.IdempotencyGuard
	EFIWebhook         webhookcontrollers.EFIWebhookService
	EFIGuard           *webhooks.IdempotencyGuard
	InterWebhook       webhookcontrollers.InterWebhookService
	InterGuard         *webhooks.IdempotencyGuard

	WebhookMetrics *metrics.WebhookMetrics
}

func NewRouter(p Params) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Get("/mercadopago", webhookcontrollers.Probe())
		r.Post("/mercadopago", webhookcontrollers.MercadoPagoWebhook(p.MercadoPagoWebhook, p.MercadoPagoGuard, p.WebhookMetrics, p.Logger))

		r.Get("/efi", webhookcontrollers.Probe())
		r.Post("/efi", webhookcontrollers.EFIWebhook(p.EFIWebhook, p.EFIGuard, p.Config.EFI.SigningSecret, p.WebhookMetrics, p.Logger))

		r.Get("/inter", webhookcontrollers.Probe())
		r.Post("/inter", webhookcontrollers.InterWebhook(p.InterWebhook, p.InterGuard, p.Config.Inter.SigningSecret, p.WebhookMetrics, p.Logger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/wallets/{walletID}", func(r chi.Router) {
			r.Get("/", controllers.WalletDetail(p.WalletsService, p.Logger))
			r.Get("/statement", controllers.WalletStatement(p.WalletsService, p.Logger))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", controllers.InvoiceCreate(p.InvoicesService, p.Logger))
			r.Get("/{invoiceID}", controllers.InvoiceDetail(p.InvoicesService, p.Logger))
		})

		r.Route("/transactions/{transactionID}", func(r chi.Router) {
			r.Get("/", controllers.TransactionDetail(p.TransactionsRepo, p.Logger))
			r.Post("/status", controllers.TransactionStatusUpdate(p.ReconciliationService, p.Logger))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.NotificationsService, p.Logger))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(p.NotificationsService, p.Logger))
		})
	})

	return r
}
