package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/trainly/internal/cart/application"
	"github.com/wyfcoding/trainly/internal/cart/domain"
	"github.com/wyfcoding/trainly/pkg/contextx"
	"github.com/wyfcoding/trainly/pkg/logger"
	"github.com/wyfcoding/trainly/pkg/response"
)

// CartHandler HTTP 处理器
// 负责处理与购物车相关的 HTTP 请求，所有路由要求登录态
type CartHandler struct {
	svc *application.CartService
}

// 创建 HTTP 处理器实例
func NewCartHandler(svc *application.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

// 注册路由
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/cart")
	{
		api.GET("", h.GetCart)                            // 定价视图
		api.POST("", h.AddLine)                           // 加购（累加）
		api.PUT("/product/:productId", h.SetLineQuantity) // 覆盖数量
		api.DELETE("/product/:productId", h.RemoveLine)   // 删行
		api.DELETE("/all", h.ClearCart)                   // 清空
		api.POST("/merge", h.MergeLocalCart)              // 本地购物车合并
	}
}

// GetCart 购物车定价视图
func (h *CartHandler) GetCart(c *gin.Context) {
	userID := contextx.UserID(c.Request.Context())

	cart, err := h.svc.GetPricedLines(c.Request.Context(), userID)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get cart", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to load cart", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, cart)
}

// AddLineRequest 加购请求
type AddLineRequest struct {
	ProductID uint64 `json:"product_id" binding:"required"`
	// 数量校验交给应用层，0 与负数要报 INVALID_QUANTITY 而非绑定错误
	Quantity int `json:"quantity"`
}

// AddLine 加购
func (h *CartHandler) AddLine(c *gin.Context) {
	var req AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_ARGUMENT")
		return
	}

	err := h.svc.AddLine(c.Request.Context(), application.AddLineCommand{
		UserID:    contextx.UserID(c.Request.Context()),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	response.Success(c, gin.H{"product_id": req.ProductID, "quantity": req.Quantity})
}

// SetLineQuantityRequest 覆盖数量请求
type SetLineQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetLineQuantity 覆盖数量，0 或负数删除该行
func (h *CartHandler) SetLineQuantity(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "INVALID_ARGUMENT")
		return
	}

	var req SetLineQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_ARGUMENT")
		return
	}

	err = h.svc.SetLineQuantity(c.Request.Context(), application.SetLineQuantityCommand{
		UserID:    contextx.UserID(c.Request.Context()),
		ProductID: productID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	response.Success(c, gin.H{"product_id": productID, "quantity": req.Quantity})
}

// RemoveLine 删行
func (h *CartHandler) RemoveLine(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "INVALID_ARGUMENT")
		return
	}

	userID := contextx.UserID(c.Request.Context())
	if err := h.svc.RemoveLine(c.Request.Context(), userID, productID); err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to remove cart line", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, gin.H{"product_id": productID})
}

// ClearCart 清空购物车
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID := contextx.UserID(c.Request.Context())
	if err := h.svc.Clear(c.Request.Context(), userID); err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to clear cart", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, gin.H{"cleared": true})
}

// MergeLocalCartRequest 本地购物车合并请求
type MergeLocalCartRequest struct {
	Pairs []domain.MergePair `json:"pairs" binding:"required"`
}

// MergeLocalCart 登录时合并本地购物车，逐对独立，失败对汇总在报告中返回
func (h *CartHandler) MergeLocalCart(c *gin.Context) {
	var req MergeLocalCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_ARGUMENT")
		return
	}

	userID := contextx.UserID(c.Request.Context())
	report := h.svc.MergeLocalCart(c.Request.Context(), userID, req.Pairs)
	response.Success(c, report)
}

func (h *CartHandler) writeCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		response.ErrorWithStatus(c, http.StatusBadRequest, "quantity must be a positive integer", "INVALID_QUANTITY")
	case errors.Is(err, domain.ErrInvalidReference):
		response.ErrorWithStatus(c, http.StatusBadRequest, "product cannot be priced", "INVALID_REFERENCE")
	default:
		logger.Error(c.Request.Context(), "Cart command failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "cart operation failed", "PERSISTENCE_FAILURE")
	}
}
