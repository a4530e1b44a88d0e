package handler

import (
	"net/http"

	"foodie/internal/dto"
	"foodie/internal/service"

	"github.com/gin-gonic/gin"
)

type TillHandler struct{ svc service.TillService }

func NewTillHandler(svc service.TillService) *TillHandler { return &TillHandler{svc: svc} }

// Today godoc
// @Summary Returns today's till record, open or closed
// @Tags till
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TillResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/till/today [get]
func (h *TillHandler) Today(c *gin.Context) {
	resp, err := h.svc.TodaysTill(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Sales godoc
// @Summary Completed-order revenue per payment method for a date (default today)
// @Tags till
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} dto.SalesResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/till/sales [get]
func (h *TillHandler) Sales(c *gin.Context) {
	var (
		resp *dto.SalesResponse
		err  error
	)
	if date := c.Query("date"); date != "" {
		resp, err = h.svc.SalesByMethod(c.Request.Context(), date)
	} else {
		resp, err = h.svc.TodaysSales(c.Request.Context())
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Open godoc
// @Summary Opens today's till with a per-method opening balance
// @Tags till
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenTillRequest true "Opening balance"
// @Success 201 {object} dto.TillResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/till/open [post]
func (h *TillHandler) Open(c *gin.Context) {
	var req dto.OpenTillRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.OpenTill(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Closes today's till against the counted amounts
// @Tags till
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseTillRequest true "Counted amounts and notes"
// @Success 200 {object} dto.TillResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/till/close [post]
func (h *TillHandler) Close(c *gin.Context) {
	var req dto.CloseTillRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CloseTill(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary Lists closed tills, newest first
// @Tags till
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TillResponse
// @Router /v1/till/history [get]
func (h *TillHandler) History(c *gin.Context) {
	resp, err := h.svc.ClosedTills(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ByDate godoc
// @Summary Returns the closed till of a date
// @Tags till
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} dto.TillResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/till/history/{date} [get]
func (h *TillHandler) ByDate(c *gin.Context) {
	resp, err := h.svc.TillByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Range godoc
// @Summary Lists closed tills between two dates, inclusive
// @Tags till
// @Produce json
// @Security BearerAuth
// @Param start query string true "From date (YYYY-MM-DD)"
// @Param end query string true "To date (YYYY-MM-DD)"
// @Success 200 {array} dto.TillResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/till/range [get]
func (h *TillHandler) Range(c *gin.Context) {
	resp, err := h.svc.TillsInRange(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
