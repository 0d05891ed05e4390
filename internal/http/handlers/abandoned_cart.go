package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stakdcards.com/app/internal/http/render"
	"stakdcards.com/app/internal/modules/email"
)

type AbandonedCartHandler struct {
	Nudges *email.NudgeService
}

func NewAbandonedCartHandler(n *email.NudgeService) *AbandonedCartHandler {
	return &AbandonedCartHandler{Nudges: n}
}

type cartLineRequest struct {
	ProductID string          `json:"product_id"`
	ID        string          `json:"id"`
	Name      string          `json:"name" binding:"max=255"`
	Quantity  int             `json:"quantity" binding:"gte=0,lte=99"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
}

type abandonedCartRequest struct {
	Email string            `json:"email" binding:"required,email"`
	Name  string            `json:"name" binding:"max=255"`
	Cart  []cartLineRequest `json:"cart" binding:"required,min=1,dive"`
}

// POST /api/abandoned-cart
func (h *AbandonedCartHandler) Record(c *gin.Context) {
	var req abandonedCartRequest
	if !bindJSON(c, &req) {
		return
	}

	in := email.RecordInput{Email: req.Email, Name: req.Name}
	for _, l := range req.Cart {
		id := strings.TrimSpace(l.ProductID)
		if id == "" {
			id = strings.TrimSpace(l.ID)
		}
		in.Cart = append(in.Cart, email.CartLine{
			ProductID: id,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
			ImageURL:  l.ImageURL,
		})
	}

	id, err := h.Nudges.Record(c.Request.Context(), in)
	if err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": true, "id": id})
}

// GET /api/cron/abandoned-cart
func (h *AbandonedCartHandler) Sweep(c *gin.Context) {
	res, err := h.Nudges.Sweep(c.Request.Context())
	if err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
