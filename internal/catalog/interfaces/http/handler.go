package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/trainly/internal/catalog/application"
	"github.com/wyfcoding/trainly/internal/catalog/domain"
	"github.com/wyfcoding/trainly/pkg/logger"
	"github.com/wyfcoding/trainly/pkg/response"
)

// ProductHandler HTTP 处理器
// 负责处理与商品目录相关的 HTTP 请求
type ProductHandler struct {
	svc *application.ProductService
}

// 创建 HTTP 处理器实例
func NewProductHandler(svc *application.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// RegisterRoutes 注册公开路由
func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/products")
	{
		api.GET("", h.ListProducts)   // 在售商品列表
		api.GET("/:id", h.GetProduct) // 商品详情
	}
}

// RegisterAdminRoutes 注册管理端路由
func (h *ProductHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	api := router.Group("/products")
	{
		api.GET("", h.ListAllProducts)
		api.GET("/:id", h.GetProductAny) // 含下架商品
		api.POST("", h.CreateProduct)
		api.PUT("/:id", h.UpdateProduct)
		api.DELETE("/:id", h.DeleteProduct)
	}
}

// ListProducts 在售商品列表
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.svc.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list products", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to list products", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, products)
}

// GetProduct 商品详情
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "INVALID_ARGUMENT")
		return
	}

	product, err := h.svc.GetProduct(c.Request.Context(), id)
	if err == domain.ErrProductNotFound {
		response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "PRODUCT_NOT_FOUND")
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get product", "product_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to get product", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, product)
}

// GetProductAny 管理端商品详情，下架商品同样可见
func (h *ProductHandler) GetProductAny(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "INVALID_ARGUMENT")
		return
	}

	product, err := h.svc.GetProductAny(c.Request.Context(), id)
	if err == domain.ErrProductNotFound {
		response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "PRODUCT_NOT_FOUND")
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get product", "product_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to get product", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, product)
}

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	ImageURL    string          `json:"image_url"`
	Available   *bool           `json:"available"`
}

// CreateProduct 创建商品
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_ARGUMENT")
		return
	}
	if req.Price.IsNegative() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "price must not be negative", "INVALID_ARGUMENT")
		return
	}

	product, err := h.svc.CreateProduct(c.Request.Context(), application.CreateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to create product", "PERSISTENCE_FAILURE")
		return
	}

	response.Created(c, product)
}

// UpdateProduct 更新商品
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "INVALID_ARGUMENT")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_ARGUMENT")
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	err = h.svc.UpdateProduct(c.Request.Context(), application.UpdateProductCommand{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Available:   available,
	})
	if err == domain.ErrProductNotFound {
		response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "PRODUCT_NOT_FOUND")
		return
	}
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to update product", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, gin.H{"id": id})
}

// DeleteProduct 下架商品
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "INVALID_ARGUMENT")
		return
	}

	err = h.svc.DeleteProduct(c.Request.Context(), id)
	if err == domain.ErrProductNotFound {
		response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "PRODUCT_NOT_FOUND")
		return
	}
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to delete product", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, gin.H{"id": id})
}

// ListAllProducts 管理端商品列表
func (h *ProductHandler) ListAllProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	products, pagination, err := h.svc.ListAllProducts(c.Request.Context(), page, pageSize)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to list products", "PERSISTENCE_FAILURE")
		return
	}

	response.Success(c, gin.H{"products": products, "pagination": pagination})
}
