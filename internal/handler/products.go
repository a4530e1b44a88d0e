package handler

import (
	"net/http"

	"foodie/internal/dto"
	"foodie/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductsHandler serves the public price check endpoint.
// No authentication required, no side effects.
type ProductsHandler struct{ catalog service.Catalog }

func NewProductsHandler(catalog service.Catalog) *ProductsHandler {
	return &ProductsHandler{catalog: catalog}
}

// Get godoc
// @Summary Current name and price of a product (no authentication)
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProductResponse{ID: p.ID.String(), Name: p.Name, Price: p.Price})
}
