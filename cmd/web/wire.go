package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"stakdcards.com/app/internal/auth"
	"stakdcards.com/app/internal/config"
	apphttp "stakdcards.com/app/internal/http"
	"stakdcards.com/app/internal/http/handlers"
	"stakdcards.com/app/internal/http/handlers/admin"
	"stakdcards.com/app/internal/mailer"
	"stakdcards.com/app/internal/modules/accounts"
	"stakdcards.com/app/internal/modules/catalog"
	"stakdcards.com/app/internal/modules/checkout"
	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/modules/orders"
	"stakdcards.com/app/internal/modules/payments"
	"stakdcards.com/app/internal/modules/shipping"
	"stakdcards.com/app/internal/storage"
)

type application struct {
	router *gin.Engine
	outbox *email.OutboxWorker
}

func build(ctx context.Context, cfg config.Config, db *gorm.DB, logger *slog.Logger) (*application, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	// email
	var sender email.Sender
	switch cfg.Email.Driver {
	case "smtp":
		sender = email.NewMailerAdapter(mailer.NewSMTPMailer(cfg.Email.SMTP), cfg.Email.From, cfg.Email.FromName)
	default:
		sender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.FromName, httpClient)
	}
	if !sender.Configured() {
		logger.Warn("email provider not configured; sends will be rejected", "driver", cfg.Email.Driver)
	}
	emailRepo := email.NewRepo(db)
	dispatcher := email.NewDispatcher(sender, emailRepo, cfg.Email.BulkInterval, logger)
	worker := email.NewOutboxWorker(emailRepo, dispatcher, email.WorkerOptions{
		PollInterval: cfg.Outbox.PollInterval,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		BatchSize:    cfg.Outbox.BatchSize,
	}, logger)
	outbox := email.NewOutboxService(emailRepo, worker)

	// catalog + checkout
	catalogRepo := catalog.NewRepo(db)
	pricer := checkout.NewPricer(cfg.Pricing.TaxRate, cfg.Pricing.ExpressShipping)
	snapshots := checkout.NewSnapshotRepo(db)
	stripe := payments.NewStripeProvider(cfg.Stripe, httpClient, logger)
	checkoutSvc := checkout.NewService(catalogRepo, stripe, snapshots, pricer, checkout.Options{
		Currency:      cfg.Pricing.Currency,
		ShipCountry:   cfg.Pricing.ShipCountry,
		PublicBaseURL: cfg.PublicBaseURL,
	}, logger)
	webhookSvc := payments.NewWebhookService(payments.NewGormStore(db), snapshots, catalogRepo, pricer, worker,
		payments.WebhookOptions{PublicBaseURL: cfg.PublicBaseURL, ShipCountry: cfg.Pricing.ShipCountry}, logger)

	// orders + shipping
	orderRepo := orders.NewRepo(db)
	shipRepo := shipping.NewRepo(db)
	st, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	var archiver shipping.Archiver
	if st.Storage != nil {
		archiver = shipping.NewLabelArchiver(st.Storage, httpClient)
	}
	shipSvc := shipping.NewService(orderRepo, shipRepo, shipping.NewEasyPost(cfg.Shipping.EasyPostAPIKey, httpClient),
		shipFrom(cfg.Shipping), archiver, outbox, logger)

	// marketing email
	nudges := email.NewNudgeService(emailRepo, dispatcher, email.NudgeDelay(cfg.AbandonedCartDelayHours), cfg.PublicBaseURL+"/cart", logger)
	newsletter := email.NewNewsletterService(emailRepo, dispatcher, cfg.PublicBaseURL+"/api/newsletter/unsubscribe", logger)
	welcome := email.NewWelcomeService(accounts.NewRepo(db), dispatcher, cfg.PublicBaseURL, logger)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	deps := apphttp.Deps{
		Logger:        logger,
		Verifier:      auth.NewVerifier(cfg.Auth.JWTSecret),
		AdminAPIKey:   cfg.Auth.AdminAPIKey,
		CronSecret:    cfg.Auth.CronSecret,
		CORSOrigins:   append([]string{cfg.PublicBaseURL}, cfg.CORSOrigins...),
		Health:        &handlers.HealthHandler{DB: sqlDB, Driver: cfg.DB.Driver},
		Products:      handlers.NewProductsHandler(catalogRepo, pricer),
		Checkout:      handlers.NewCheckoutHandler(checkoutSvc),
		Webhooks:      handlers.NewWebhookHandler(logger, stripe, webhookSvc),
		Emails:        handlers.NewEmailHandler(dispatcher),
		AbandonedCart: handlers.NewAbandonedCartHandler(nudges),
		Newsletter:    handlers.NewNewsletterHandler(newsletter),
		Account:       handlers.NewAccountHandler(welcome),
		Orders:        admin.NewOrdersHandler(orderRepo, shipRepo, orders.NewAdminService(orderRepo, logger)),
		Shipping:      admin.NewShippingHandler(shipSvc),
	}
	if local, ok := st.Storage.(*storage.Local); ok {
		deps.LabelDir = local.BaseDir
		deps.LabelURLPrefix = local.URLPrefix
	}

	logger.Info("application wired",
		"payments_configured", cfg.Stripe.SecretKey != "",
		"webhook_secrets", len(cfg.Stripe.WebhookSecrets()),
		"email_driver", cfg.Email.Driver,
		"shipping_configured", cfg.Shipping.EasyPostAPIKey != "",
		"storage", st.Driver,
	)
	return &application{router: apphttp.NewRouter(deps), outbox: worker}, nil
}

func shipFrom(c config.ShippingConfig) shipping.Address {
	return shipping.Address{
		Name:    c.FromName,
		Company: c.FromCompany,
		Street1: c.FromStreet1,
		Street2: c.FromStreet2,
		City:    c.FromCity,
		State:   c.FromState,
		Zip:     c.FromZip,
		Country: c.FromCountry,
		Phone:   c.FromPhone,
	}
}
