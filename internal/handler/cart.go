package handler

import (
	"net/http"

	"foodie/internal/dto"
	"foodie/internal/middleware"
	"foodie/internal/service"

	"github.com/gin-gonic/gin"
)

type CartHandler struct{ svc service.CartService }

func NewCartHandler(svc service.CartService) *CartHandler { return &CartHandler{svc: svc} }

// Get godoc
// @Summary Returns the session cart
// @Tags cart
// @Produce json
// @Param X-Session-ID header string false "Cart session"
// @Success 200 {object} dto.CartResponse
// @Router /v1/cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary Adds a product to the cart, merging with an existing line
// @Tags cart
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Cart session"
// @Param body body dto.AddCartItemRequest true "Product and quantity"
// @Success 200 {object} dto.CartResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateQuantity godoc
// @Summary Sets the quantity of a cart line; zero or less removes it
// @Tags cart
// @Accept json
// @Produce json
// @Param product_id path string true "Product ID"
// @Param body body dto.UpdateQuantityRequest true "New quantity"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cart/items/{product_id} [put]
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	productID, ok := paramUUID(c, "product_id")
	if !ok {
		return
	}
	var req dto.UpdateQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, found, err := h.svc.UpdateQuantity(c.Request.Context(), middleware.GetSession(c), productID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary Removes a product from the cart
// @Tags cart
// @Produce json
// @Param product_id path string true "Product ID"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} dto.CartResponse
// @Router /v1/cart/items/{product_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := paramUUID(c, "product_id")
	if !ok {
		return
	}
	resp, found, err := h.svc.RemoveItem(c.Request.Context(), middleware.GetSession(c), productID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Clear godoc
// @Summary Empties the cart
// @Tags cart
// @Success 204
// @Router /v1/cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context(), middleware.GetSession(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
