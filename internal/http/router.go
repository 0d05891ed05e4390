package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/auth"
	"stakdcards.com/app/internal/http/handlers"
	"stakdcards.com/app/internal/http/handlers/admin"
	"stakdcards.com/app/internal/http/middleware"
	"stakdcards.com/app/internal/shared/apperr"
)

// Deps carries the wired handlers. Nil handlers leave their routes out.
type Deps struct {
	Logger      *slog.Logger
	Verifier    *auth.Verifier
	AdminAPIKey string
	CronSecret  string
	CORSOrigins []string

	// LabelDir is served at LabelURLPrefix when labels are archived locally.
	LabelDir       string
	LabelURLPrefix string

	Health        *handlers.HealthHandler
	Products      *handlers.ProductsHandler
	Checkout      *handlers.CheckoutHandler
	Webhooks      *handlers.WebhookHandler
	Emails        *handlers.EmailHandler
	AbandonedCart *handlers.AbandonedCartHandler
	Newsletter    *handlers.NewsletterHandler
	Account       *handlers.AccountHandler
	Orders        *admin.OrdersHandler
	Shipping      *admin.ShippingHandler
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger, "/healthz"),
		middleware.ErrorHandler(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.CORS(d.CORSOrigins...),
		middleware.Authenticate(d.Verifier),
	)
	r.NoRoute(func(c *gin.Context) {
		middleware.Fail(c, apperr.NotFoundErr("Not found."))
	})

	if d.Health != nil {
		r.GET("/healthz", d.Health.Check)
	}
	if d.LabelDir != "" && d.LabelURLPrefix != "" {
		r.Static(d.LabelURLPrefix, d.LabelDir)
	}

	api := r.Group("/api")
	api.GET("/production/spec", handlers.ProductionSpec)
	if d.Products != nil {
		api.GET("/products", d.Products.List)
	}
	if d.Checkout != nil {
		api.POST("/checkout/session", d.Checkout.CreateSession)
	}
	if d.Webhooks != nil {
		api.POST("/webhooks/stripe", d.Webhooks.Handle)
	}
	if d.AbandonedCart != nil {
		api.POST("/abandoned-cart", d.AbandonedCart.Record)
		api.GET("/cron/abandoned-cart", middleware.RequireCronSecret(d.CronSecret), d.AbandonedCart.Sweep)
	}
	if d.Newsletter != nil {
		api.POST("/newsletter/subscribe", d.Newsletter.Subscribe)
		api.GET("/newsletter/unsubscribe", d.Newsletter.Unsubscribe)
		api.POST("/newsletter/unsubscribe", d.Newsletter.Unsubscribe)
	}
	if d.Account != nil {
		api.POST("/account/welcome", middleware.RequireUser(), d.Account.SendWelcome)
	}

	requireAdmin := middleware.RequireAdmin(d.AdminAPIKey)
	if d.Emails != nil {
		api.POST("/emails/send", requireAdmin, d.Emails.Send)
	}

	adm := api.Group("/admin", requireAdmin)
	if d.Orders != nil {
		adm.GET("/orders", d.Orders.List)
		adm.GET("/orders/:id", d.Orders.Detail)
		adm.PATCH("/orders/:id/status", d.Orders.UpdateStatus)
	}
	if d.Shipping != nil {
		adm.POST("/shipping/label", d.Shipping.CreateLabel)
	}
	if d.Newsletter != nil {
		adm.POST("/newsletter", d.Newsletter.Send)
	}

	return r
}
