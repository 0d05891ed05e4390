package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/http/render"
	"stakdcards.com/app/internal/modules/email"
	"stakdcards.com/app/internal/shared/apperr"
)

type EmailHandler struct {
	Dispatcher *email.Dispatcher
}

func NewEmailHandler(d *email.Dispatcher) *EmailHandler {
	return &EmailHandler{Dispatcher: d}
}

// recipients accepts a single address, a comma separated list or an array.
type recipients []string

func (r *recipients) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*r = nil
		for _, p := range strings.Split(one, ",") {
			if p = strings.TrimSpace(p); p != "" {
				*r = append(*r, p)
			}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*r = many
	return nil
}

type sendEmailRequest struct {
	To       recipients `json:"to" binding:"required,min=1,dive,email"`
	Subject  string     `json:"subject" binding:"required,max=255"`
	BodyHTML string     `json:"bodyHtml" binding:"required"`
	Type     string     `json:"type" binding:"omitempty,max=32"`
	OrderID  string     `json:"orderId" binding:"omitempty,max=64"`
}

// POST /api/emails/send
func (h *EmailHandler) Send(c *gin.Context) {
	var req sendEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	out := email.Outgoing{
		To:      req.To,
		Subject: req.Subject,
		HTML:    req.BodyHTML,
		Type:    req.Type,
	}
	if id := strings.TrimSpace(req.OrderID); id != "" {
		out.OrderID = &id
	}

	res, err := h.Dispatcher.Send(c.Request.Context(), out)
	if err != nil {
		if errors.Is(err, email.ErrInvalidMessage) || errors.Is(err, email.ErrNotConfigured) {
			render.Error(c, err)
			return
		}
		render.Error(c, apperr.UpstreamErr("Email delivery failed.", err).WithCode("email_send_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true, "message_id": res.MessageID})
}
