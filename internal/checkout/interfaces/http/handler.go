package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/trainly/internal/checkout/application"
	"github.com/wyfcoding/trainly/internal/checkout/domain"
	"github.com/wyfcoding/trainly/pkg/contextx"
	"github.com/wyfcoding/trainly/pkg/logger"
	"github.com/wyfcoding/trainly/pkg/response"
)

// CheckoutHandler HTTP 处理器
type CheckoutHandler struct {
	svc *application.CheckoutService
}

// 创建 HTTP 处理器实例
func NewCheckoutHandler(svc *application.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// 注册路由
func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/checkout", h.Checkout)
}

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	ShippingName    string `json:"shipping_name" binding:"required"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
	ShippingCity    string `json:"shipping_city" binding:"required"`
	ShippingZip     string `json:"shipping_zip" binding:"required"`
	ContactEmail    string `json:"contact_email" binding:"required,email"`
	ContactPhone    string `json:"contact_phone"`
	PaymentMethod   string `json:"payment_method" binding:"required"`
}

// Checkout 结算购物车
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_ARGUMENT")
		return
	}

	ctx := c.Request.Context()
	result, err := h.svc.Checkout(ctx, application.CheckoutCommand{
		UserID:          contextx.UserID(ctx),
		ShippingName:    req.ShippingName,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingZip:     req.ShippingZip,
		ContactEmail:    req.ContactEmail,
		ContactPhone:    req.ContactPhone,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, result)
}

func (h *CheckoutHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		response.ErrorWithStatus(c, http.StatusBadRequest, "cart is empty", "EMPTY_CART")
	case errors.Is(err, domain.ErrPricingMismatch):
		response.ErrorWithStatus(c, http.StatusConflict, "cart references a product that cannot be priced", "PRICING_MISMATCH")
	case errors.Is(err, domain.ErrPaymentDeclined):
		response.ErrorWithStatus(c, http.StatusPaymentRequired, "payment declined", "PAYMENT_DECLINED")
	case errors.Is(err, domain.ErrPaymentUnavailable):
		response.ErrorWithStatus(c, http.StatusServiceUnavailable, "payment gateway unavailable", "PAYMENT_UNAVAILABLE")
	default:
		logger.Error(c.Request.Context(), "Checkout failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "checkout failed", "PERSISTENCE_FAILURE")
	}
}
