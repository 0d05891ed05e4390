package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stakdcards.com/app/internal/http/render"
	"stakdcards.com/app/internal/modules/catalog"
	"stakdcards.com/app/internal/modules/checkout"
	"stakdcards.com/app/internal/modules/production"
)

type ProductLister interface {
	ListActive(ctx context.Context) ([]catalog.Product, error)
}

type ProductsHandler struct {
	Catalog ProductLister
	Pricer  checkout.Pricer
}

func NewProductsHandler(cat ProductLister, pricer checkout.Pricer) *ProductsHandler {
	return &ProductsHandler{Catalog: cat, Pricer: pricer}
}

type shippingMethodView struct {
	ID   string          `json:"id"`
	Cost decimal.Decimal `json:"cost"`
}

// GET /api/products
func (h *ProductsHandler) List(c *gin.Context) {
	items, err := h.Catalog.ListActive(c.Request.Context())
	if err != nil {
		render.Error(c, err)
		return
	}
	if items == nil {
		items = []catalog.Product{}
	}

	methods := h.Pricer.Methods()
	ship := make([]shippingMethodView, 0, len(methods))
	for _, id := range h.Pricer.MethodNames() {
		ship = append(ship, shippingMethodView{ID: id, Cost: methods[id]})
	}

	c.JSON(http.StatusOK, gin.H{
		"products":         items,
		"shipping_methods": ship,
		"tax_rate":         h.Pricer.TaxRate,
	})
}

// GET /api/production/spec
func ProductionSpec(c *gin.Context) {
	c.JSON(http.StatusOK, production.Current())
}
