package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stakdcards.com/app/internal/http/middleware"
	"stakdcards.com/app/internal/http/render"
	"stakdcards.com/app/internal/http/validation"
	"stakdcards.com/app/internal/modules/shipping"
	"stakdcards.com/app/internal/shared/apperr"
)

type ShippingHandler struct {
	Svc *shipping.Service
}

func NewShippingHandler(svc *shipping.Service) *ShippingHandler {
	return &ShippingHandler{Svc: svc}
}

type labelRequest struct {
	OrderID     string   `json:"orderId" binding:"required,max=64"`
	FromName    string   `json:"fromName" binding:"max=120"`
	FromCompany string   `json:"fromCompany" binding:"max=120"`
	FromStreet1 string   `json:"fromStreet1" binding:"max=255"`
	FromStreet2 string   `json:"fromStreet2" binding:"max=255"`
	FromCity    string   `json:"fromCity" binding:"max=120"`
	FromState   string   `json:"fromState" binding:"max=64"`
	FromZip     string   `json:"fromZip" binding:"max=32"`
	FromCountry string   `json:"fromCountry" binding:"omitempty,len=2"`
	FromPhone   string   `json:"fromPhone" binding:"max=64"`
	WeightOz    *float64 `json:"weightOz" binding:"omitempty,gt=0,lte=1120"`
	LengthIn    *float64 `json:"lengthIn" binding:"omitempty,gt=0,lte=108"`
	WidthIn     *float64 `json:"widthIn" binding:"omitempty,gt=0,lte=108"`
	HeightIn    *float64 `json:"heightIn" binding:"omitempty,gt=0,lte=108"`
	Notify      bool     `json:"notifyCustomer"`
}

// POST /api/admin/shipping/label
func (h *ShippingHandler) CreateLabel(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Please check the highlighted fields.", validation.FromBindError(err, &req)).WithErr(err))
		return
	}

	res, err := h.Svc.CreateLabel(c.Request.Context(), shipping.LabelInput{
		OrderID: req.OrderID,
		From: shipping.Address{
			Name:    req.FromName,
			Company: req.FromCompany,
			Street1: req.FromStreet1,
			Street2: req.FromStreet2,
			City:    req.FromCity,
			State:   req.FromState,
			Zip:     req.FromZip,
			Country: req.FromCountry,
			Phone:   req.FromPhone,
		},
		WeightOz:       req.WeightOz,
		LengthIn:       req.LengthIn,
		WidthIn:        req.WidthIn,
		HeightIn:       req.HeightIn,
		NotifyCustomer: req.Notify,
	})
	if err != nil {
		render.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"order_id":           res.OrderID,
		"shipment_id":        res.ShipmentID,
		"label_url":          res.LabelURL,
		"archived_label_url": res.ArchivedLabelURL,
		"tracking_number":    res.TrackingNumber,
		"carrier":            res.Carrier,
		"service":            res.Service,
		"rate":               res.Rate,
	})
}
