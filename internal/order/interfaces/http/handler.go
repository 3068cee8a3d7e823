package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/trainly/internal/order/application"
	"github.com/wyfcoding/trainly/internal/order/domain"
	"github.com/wyfcoding/trainly/pkg/contextx"
	"github.com/wyfcoding/trainly/pkg/logger"
	"github.com/wyfcoding/trainly/pkg/response"
)

// OrderHandler HTTP 处理器
// 负责处理与订单相关的 HTTP 请求
type OrderHandler struct {
	svc *application.OrderService
}

// 创建 HTTP 处理器实例
func NewOrderHandler(svc *application.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes 注册用户侧路由
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/user/orders", h.ListOrders) // 订单历史
	router.GET("/order/:id", h.GetOrder)     // 订单详情
}

// RegisterAdminRoutes 注册管理端路由
func (h *OrderHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	router.GET("/orders", h.ListAllOrders)
	router.PUT("/orders/:id/status", h.UpdateStatus)
}

// ListOrders 用户订单历史，最新优先
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := contextx.UserID(c.Request.Context())
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	orders, err := h.svc.ListOrders(c.Request.Context(), userID, limit)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list orders", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to list orders", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, orders)
}

// GetOrder 订单详情，非本人订单按不存在处理
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx := c.Request.Context()
	requester := contextx.UserID(ctx)
	privileged := contextx.UserRole(ctx) == "admin"

	order, err := h.svc.GetOrder(ctx, c.Param("id"), requester, privileged)
	if errors.Is(err, domain.ErrOrderNotFound) {
		response.ErrorWithStatus(c, http.StatusNotFound, "order not found", "ORDER_NOT_FOUND")
		return
	}
	if err != nil {
		logger.Error(ctx, "Failed to get order", "order_no", c.Param("id"), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to get order", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, order)
}

// ListAllOrders 管理端全量订单
func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	orders, pagination, err := h.svc.ListAllOrders(c.Request.Context(), page, pageSize)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to list orders", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, gin.H{"orders": orders, "pagination": pagination})
}

// UpdateStatusRequest 状态变更请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus 管理端订单状态变更
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_ARGUMENT")
		return
	}

	err := h.svc.UpdateStatus(c.Request.Context(), application.UpdateStatusCommand{
		OrderNo: c.Param("id"),
		Status:  req.Status,
	})
	switch {
	case errors.Is(err, domain.ErrInvalidStatus):
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid order status", "INVALID_STATUS")
	case errors.Is(err, domain.ErrOrderNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, "order not found", "ORDER_NOT_FOUND")
	case err != nil:
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to update order status", "PERSISTENCE_FAILURE")
	default:
		response.Success(c, gin.H{"order_no": c.Param("id"), "status": req.Status})
	}
}
