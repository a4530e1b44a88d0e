package handler

import (
	"errors"
	"net/http"
	"reflect"

	"foodie/internal/apierror"
	"foodie/internal/infra"
	"foodie/internal/middleware"
	"foodie/internal/model"
	"foodie/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0 work on money fields.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramUUID parses a path parameter, answering 400 when it is malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user id from the JWT claims.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("authentication required"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("invalid token subject"))
		return uuid.Nil, false
	}
	return id, true
}

// ── Error mapping ─────────────────────────────────────────────────────────────

type errorKind struct {
	err    error
	status int
	code   string
}

var errorKinds = []errorKind{
	// validation
	{model.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{model.ErrInvalidPrice, http.StatusBadRequest, "invalid_price"},
	{model.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{model.ErrInvalidPaymentMethod, http.StatusBadRequest, "invalid_payment_method"},
	{model.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{model.ErrInvalidDateRange, http.StatusBadRequest, "invalid_date_range"},
	{model.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id"},
	{model.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	// state machines
	{model.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{model.ErrIllegalPaymentTransition, http.StatusConflict, "illegal_payment_transition"},
	{model.ErrOrderLocked, http.StatusConflict, "order_locked"},
	{model.ErrAlreadyCompleted, http.StatusConflict, "already_completed"},
	{model.ErrNotRefundable, http.StatusConflict, "not_refundable"},
	{model.ErrCannotCancelCompleted, http.StatusConflict, "cannot_cancel_completed"},
	{model.ErrInvalidStateForFailure, http.StatusConflict, "invalid_state_for_failure"},
	// till
	{model.ErrTillAlreadyOpen, http.StatusConflict, "till_already_open"},
	{model.ErrTillAlreadyClosed, http.StatusConflict, "till_already_closed"},
	{model.ErrNoOpenTill, http.StatusConflict, "no_open_till"},
	// not found
	{model.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{model.ErrPaymentNotFound, http.StatusNotFound, "payment_not_found"},
	{model.ErrTillNotFound, http.StatusNotFound, "till_not_found"},
	{model.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	// collaborators
	{repository.ErrCartContention, http.StatusConflict, "cart_contention"},
	{infra.ErrCatalogUnavailable, http.StatusServiceUnavailable, "catalog_unavailable"},
}

// writeError answers with the status of the first matching error kind.
// Unknown errors are logged and reported as a bare 500.
func writeError(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.err) {
			continue
		}
		body := apierror.WithCode(k.code, err.Error())
		var se *model.StateError
		if errors.As(err, &se) {
			body.Current = se.Current
		}
		c.JSON(k.status, body)
		return
	}
	log.Error().
		Err(err).
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("path", c.FullPath()).
		Msg("unhandled service error")
	c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
}
