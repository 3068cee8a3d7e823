package application

import "github.com/wyfcoding/trainly/internal/catalog/domain"

// ProductService 商品目录门面，聚合命令与查询服务
type ProductService struct {
	*ProductCommandService
	*ProductQueryService
}

// NewProductService 创建商品目录门面
func NewProductService(repo domain.ProductRepository) *ProductService {
	return &ProductService{
		ProductCommandService: NewProductCommandService(repo),
		ProductQueryService:   NewProductQueryService(repo),
	}
}
