package handler

import (
	"context"
	"net/http"

	"foodie/internal/dto"
	"foodie/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentsHandler struct{ svc service.PaymentService }

func NewPaymentsHandler(svc service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

// Get godoc
// @Summary Returns a payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/payments/{id} [get]
func (h *PaymentsHandler) Get(c *gin.Context) {
	h.apply(c, h.svc.GetPayment)
}

// ByOrder godoc
// @Summary Returns the payment of an order
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/orders/{id}/payment [get]
func (h *PaymentsHandler) ByOrder(c *gin.Context) {
	h.apply(c, h.svc.GetPaymentByOrder)
}

// Process godoc
// @Summary Completes a pending payment with the method actually used
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param body body dto.PaymentMethodRequest true "Method"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/payments/{id}/process [post]
func (h *PaymentsHandler) Process(c *gin.Context) {
	h.applyWithMethod(c, h.svc.ProcessPayment)
}

// ChangeMethod godoc
// @Summary Changes the method of a pending payment
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param body body dto.PaymentMethodRequest true "Method"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/payments/{id}/method [put]
func (h *PaymentsHandler) ChangeMethod(c *gin.Context) {
	h.applyWithMethod(c, h.svc.UpdatePaymentMethod)
}

// Refund godoc
// @Summary Refunds a completed payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/payments/{id}/refund [post]
func (h *PaymentsHandler) Refund(c *gin.Context) {
	h.apply(c, h.svc.RefundPayment)
}

// Cancel godoc
// @Summary Cancels a payment that has not completed
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/payments/{id}/cancel [post]
func (h *PaymentsHandler) Cancel(c *gin.Context) {
	h.apply(c, h.svc.CancelPayment)
}

// Fail godoc
// @Summary Marks a pending payment as failed
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/payments/{id}/fail [post]
func (h *PaymentsHandler) Fail(c *gin.Context) {
	h.apply(c, h.svc.MarkFailed)
}

func (h *PaymentsHandler) apply(c *gin.Context, op func(context.Context, uuid.UUID) (*dto.PaymentResponse, error)) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := op(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentsHandler) applyWithMethod(c *gin.Context, op func(context.Context, uuid.UUID, dto.PaymentMethodRequest) (*dto.PaymentResponse, error)) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentMethodRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := op(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
