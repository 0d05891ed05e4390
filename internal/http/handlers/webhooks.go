package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/http/render"
	"stakdcards.com/app/internal/modules/payments"
)

// maxWebhookBody caps what is read before signature verification.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	Logger     *slog.Logger
	Provider   payments.Provider
	WebhookSvc *payments.WebhookService
}

func NewWebhookHandler(logger *slog.Logger, p payments.Provider, svc *payments.WebhookService) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Provider: p, WebhookSvc: svc}
}

// POST /api/webhooks/stripe
// Body is read raw; the signature covers the exact bytes.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	ev, err := h.Provider.VerifyWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			// reason stays in the log
			h.Logger.WarnContext(c.Request.Context(), "webhook verification failed", "err", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		render.Error(c, err)
		return
	}

	res, err := h.WebhookSvc.Handle(c.Request.Context(), h.Provider.Name(), ev, body)
	if err != nil {
		// 5xx => provider retries; the event journal makes that safe
		render.Error(c, err)
		return
	}

	out := gin.H{"received": true}
	if res.OrderID != "" {
		out["order_id"] = res.OrderID
	}
	if res.Duplicate {
		out["duplicate"] = true
	}
	c.JSON(http.StatusOK, out)
}
