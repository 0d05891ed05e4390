package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/http/render"
	"stakdcards.com/app/internal/modules/email"
)

type NewsletterHandler struct {
	Svc *email.NewsletterService
}

func NewNewsletterHandler(svc *email.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{Svc: svc}
}

type subscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"max=255"`
}

// POST /api/newsletter/subscribe
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.Subscribe(c.Request.Context(), req.Email, req.Name); err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": true})
}

// GET|POST /api/newsletter/unsubscribe?email=
// GET serves the link in every newsletter footer.
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	addr := c.Query("email")
	if addr == "" && c.Request.Method == http.MethodPost {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if !bindJSON(c, &req) {
			return
		}
		addr = req.Email
	}
	if addr == "" {
		render.Error(c, email.ErrInvalidEmail)
		return
	}
	removed, err := h.Svc.Unsubscribe(c.Request.Context(), addr)
	if err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unsubscribed": removed})
}

type newsletterRequest struct {
	Subject    string   `json:"subject" binding:"required,max=255"`
	Headline   string   `json:"headline" binding:"max=255"`
	Body       string   `json:"body" binding:"required"`
	CTAText    string   `json:"cta_text" binding:"max=80"`
	CTAURL     string   `json:"cta_url" binding:"omitempty,url"`
	Recipients []string `json:"recipients" binding:"omitempty,dive,email"`
}

// POST /api/admin/newsletter
func (h *NewsletterHandler) Send(c *gin.Context) {
	var req newsletterRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svc.Send(c.Request.Context(), email.NewsletterInput{
		Subject:    req.Subject,
		Headline:   req.Headline,
		Body:       req.Body,
		CTAText:    req.CTAText,
		CTAURL:     req.CTAURL,
		Recipients: req.Recipients,
	})
	if err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
