package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stakdcards.com/app/internal/http/middleware"
	"stakdcards.com/app/internal/http/render"
	"stakdcards.com/app/internal/modules/checkout"
	"stakdcards.com/app/internal/shared/apperr"
)

type CheckoutHandler struct {
	Svc *checkout.Service
}

func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{Svc: svc}
}

type checkoutItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name" binding:"max=255"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" binding:"lte=99"`
	ImageURL  string          `json:"image_url"`
}

type checkoutRequest struct {
	Items          []checkoutItem   `json:"items" binding:"required,min=1,dive"`
	SuccessURLBase string           `json:"successUrlBase" binding:"omitempty,url"`
	Email          string           `json:"email" binding:"omitempty,email"`
	ShippingMethod string           `json:"shipping_method"`
	Subtotal       *decimal.Decimal `json:"subtotal"`
	Tax            *decimal.Decimal `json:"tax"`
	ShippingCost   *decimal.Decimal `json:"shipping_cost"`
}

// POST /api/checkout/session
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req checkoutRequest
	if !bindJSON(c, &req) {
		return
	}

	in := checkout.CreateSessionInput{
		SuccessURLBase: req.SuccessURLBase,
		ShippingMethod: req.ShippingMethod,
		CustomerEmail:  req.Email,
		Subtotal:       req.Subtotal,
		Tax:            req.Tax,
		ShippingCost:   req.ShippingCost,
	}
	for i, it := range req.Items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			id = strings.TrimSpace(it.ID)
		}
		if id == "" {
			middleware.Fail(c, apperr.InvalidErr("Please check the highlighted fields.", map[string]string{
				itemField(i, "product_id"): "This field is required.",
			}))
			return
		}
		if it.Price.IsNegative() {
			middleware.Fail(c, apperr.InvalidErr("Please check the highlighted fields.", map[string]string{
				itemField(i, "price"): "Must be zero or more.",
			}))
			return
		}
		in.Items = append(in.Items, checkout.CartLineInput{
			ProductID: id,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		})
	}

	res, err := h.Svc.CreateSession(c.Request.Context(), in)
	if err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": res.URL, "session_id": res.SessionID})
}

func itemField(i int, name string) string {
	return fmt.Sprintf("items[%d].%s", i, name)
}
