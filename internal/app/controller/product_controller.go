package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/vibe-storefront/internal/app/service"
	apperrors "github.com/ikkim/vibe-storefront/internal/errors"
	"github.com/ikkim/vibe-storefront/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ListProducts returns the whole catalogue
// GET /v1/api/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := ctrl.productService.ListProducts()
	if err != nil {
		log.Error("Failed to list products", err)
		apperrors.ParseAndRespond(c, err, "list products")
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, newProductResponse(p))
	}
	respondOK(c, "", resp)
}
