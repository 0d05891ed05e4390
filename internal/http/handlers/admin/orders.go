package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/http/middleware"
	"stakdcards.com/app/internal/http/render"
	"stakdcards.com/app/internal/http/validation"
	"stakdcards.com/app/internal/modules/orders"
	"stakdcards.com/app/internal/modules/shipping"
	"stakdcards.com/app/internal/shared/apperr"
)

const defaultPageSize = 30

type OrderQueries interface {
	AdminList(ctx context.Context, in orders.AdminListParams) (orders.AdminListResult, error)
	AdminGetDetail(ctx context.Context, orderID string) (orders.Order, []orders.OrderItem, []orders.OrderEvent, error)
}

type ShipmentLister interface {
	ListByOrder(ctx context.Context, orderID string) ([]shipping.Shipment, error)
}

type OrdersHandler struct {
	Orders    OrderQueries
	Shipments ShipmentLister
	Svc       *orders.AdminService
}

func NewOrdersHandler(q OrderQueries, shipments ShipmentLister, svc *orders.AdminService) *OrdersHandler {
	return &OrdersHandler{Orders: q, Shipments: shipments, Svc: svc}
}

// GET /api/admin/orders?q=&status=&page=&page_size=
func (h *OrdersHandler) List(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	status := strings.TrimSpace(c.Query("status"))
	if status != "" && !orders.IsCanonical(strings.ToLower(status)) {
		render.Error(c, orders.ErrUnknownStatus)
		return
	}
	page := parseInt(c.Query("page"), 1)
	size := parseInt(c.Query("page_size"), defaultPageSize)

	res, err := h.Orders.AdminList(c.Request.Context(), orders.AdminListParams{
		Q: q, Status: strings.ToLower(status), Page: page, PageSize: size,
	})
	if err != nil {
		render.Error(c, err)
		return
	}

	items := make([]orderSummary, 0, len(res.Items))
	for _, o := range res.Items {
		items = append(items, summarize(o))
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"total":       res.Total,
		"page":        res.Page,
		"page_size":   res.PageSize,
		"total_pages": pagesFromTotal(res.Total, res.PageSize),
		"statuses":    orders.Statuses(),
	})
}

// GET /api/admin/orders/:id
func (h *OrdersHandler) Detail(c *gin.Context) {
	id := c.Param("id")

	o, items, ev, err := h.Orders.AdminGetDetail(c.Request.Context(), id)
	if err != nil {
		render.Error(c, err)
		return
	}

	vm := orderDetail{
		Order:     newOrderView(o),
		Items:     make([]itemView, 0, len(items)),
		Events:    make([]eventView, 0, len(ev)),
		Shipments: []shipping.Shipment{},
	}
	for _, it := range items {
		vm.Items = append(vm.Items, itemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.PriceAtTime,
			LineTotal: it.LineTotal(),
		})
	}
	for _, e := range ev {
		vm.Events = append(vm.Events, eventView{
			Actor: e.Actor,
			From:  e.FromStatus,
			To:    e.ToStatus,
			Note:  ptrStr(e.Note),
			At:    e.CreatedAt,
		})
	}
	if h.Shipments != nil {
		sh, err := h.Shipments.ListByOrder(c.Request.Context(), o.ID)
		if err != nil {
			render.Error(c, err)
			return
		}
		vm.Shipments = append(vm.Shipments, sh...)
	}

	c.JSON(http.StatusOK, vm)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=500"`
}

// PATCH /api/admin/orders/:id/status
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Please check the highlighted fields.", validation.FromBindError(err, &req)).WithErr(err))
		return
	}

	res, err := h.Svc.Transition(c.Request.Context(), orders.TransitionInput{
		OrderID: c.Param("id"),
		Actor:   middleware.Actor(c),
		Status:  req.Status,
		Note:    req.Note,
	})
	if err != nil {
		ae := render.AppError(err)
		if errors.Is(err, orders.ErrInvalidTransition) {
			ae.Fields = map[string]string{
				"status":  "Allowed: " + strings.Join(res.Allowed, ", "),
				"current": res.From,
			}
		}
		middleware.Fail(c, ae)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":         res.OrderID,
		"from":             res.From,
		"status":           res.To,
		"changed":          res.Changed,
		"allowed_statuses": res.Allowed,
	})
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
