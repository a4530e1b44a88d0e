package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodie/internal/dto"
	"foodie/internal/events"
	"foodie/internal/metrics"
	"foodie/internal/model"
	"foodie/internal/repository"
	"foodie/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type OrderService interface {
	// Checkout turns the session cart into a PENDING order with a PENDING
	// payment, then removes the ordered lines from the cart.
	Checkout(ctx context.Context, sessionID string, userID uuid.UUID, req dto.CheckoutRequest) (*dto.OrderResponse, error)
	PlaceOrder(ctx context.Context, userID uuid.UUID, cart *model.Cart, req dto.CheckoutRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]dto.OrderResponse, error)
	Transition(ctx context.Context, id uuid.UUID, target string) (*dto.OrderResponse, error)
	CancelByCustomer(ctx context.Context, id, userID uuid.UUID) (*dto.OrderResponse, error)
	AddItem(ctx context.Context, id uuid.UUID, req dto.OrderItemRequest) (*dto.OrderResponse, error)
	UpdateItemQuantity(ctx context.Context, id, productID uuid.UUID, qty int) (*dto.OrderResponse, bool, error)
	RemoveItem(ctx context.Context, id, productID uuid.UUID) (*dto.OrderResponse, bool, error)
	ClearItems(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
}

// ReceiptQueue schedules the receipt of a completed order.
type ReceiptQueue interface {
	EnqueueReceipt(ctx context.Context, payload worker.ReceiptJobPayload) error
}

type orderService struct {
	orders    repository.OrderRepository
	payments  PaymentService
	carts     repository.CartStore
	catalog   Catalog
	receipts  ReceiptQueue
	publisher events.Publisher
	now       Clock
}

func NewOrderService(
	orders repository.OrderRepository,
	payments PaymentService,
	carts repository.CartStore,
	catalog Catalog,
	receipts ReceiptQueue,
	publisher events.Publisher,
	now Clock,
) OrderService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &orderService{
		orders:    orders,
		payments:  payments,
		carts:     carts,
		catalog:   catalog,
		receipts:  receipts,
		publisher: publisher,
		now:       now,
	}
}

// ── Checkout ──────────────────────────────────────────────────────────────────
// Order, items and payment are written in one transaction. The cart is only
// trimmed after commit, and only by the quantities that were ordered, so lines
// added concurrently survive.

func (s *orderService) Checkout(ctx context.Context, sessionID string, userID uuid.UUID, req dto.CheckoutRequest) (*dto.OrderResponse, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp, err := s.PlaceOrder(ctx, userID, cart, req)
	if err != nil {
		return nil, err
	}

	ordered := cart.Items()
	if _, err := s.carts.Update(ctx, sessionID, func(c *model.Cart) error {
		for _, line := range ordered {
			for _, cur := range c.Lines {
				if cur.ProductID == line.ProductID {
					c.UpdateQuantity(line.ProductID, cur.Quantity-line.Quantity)
					break
				}
			}
		}
		return nil
	}); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Str("order_id", resp.ID).Msg("checkout: cart not cleared")
	}
	return resp, nil
}

func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, cart *model.Cart, req dto.CheckoutRequest) (*dto.OrderResponse, error) {
	if _, err := model.ParsePaymentMethod(req.PaymentMethod); err != nil {
		return nil, err
	}
	order, err := model.NewOrderFromCart(userID, cart, s.now())
	if err != nil {
		return nil, err
	}
	order.ReceiptEmail = strings.TrimSpace(req.ReceiptEmail)

	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if err := s.orders.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		p, err := s.payments.CreatePayment(ctx, tx, order, req.PaymentMethod)
		if err != nil {
			return err
		}
		order.Payment = p
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	metrics.OrdersCreatedTotal.Inc()
	log.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID.String()).
		Str("total", order.Total().StringFixed(2)).
		Str("method", string(order.Payment.Method)).
		Msg("order placed")

	evt := events.New(events.OrderCreated)
	evt.OrderID = &order.ID
	evt.Status = string(order.Status)
	evt.Amount = &order.Payment.Amount
	evt.Method = string(order.Payment.Method)
	evt.Date = order.OrderDate.Format(model.DateLayout)
	s.publish(ctx, evt)

	return toOrderResponse(order), nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(o), nil
}

func (s *orderService) ListOrders(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	q, err := parseOrderFilter(filter)
	if err != nil {
		return nil, err
	}
	orders, total, err := s.orders.List(ctx, q)
	if err != nil {
		return nil, err
	}
	resp := &dto.OrderListResponse{
		Data:  make([]dto.OrderResponse, 0, len(orders)),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}
	for i := range orders {
		resp.Data = append(resp.Data, *toOrderResponse(&orders[i]))
	}
	return resp, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]dto.OrderResponse, error) {
	orders, _, err := s.orders.List(ctx, repository.OrderQuery{UserID: &userID})
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, *toOrderResponse(&orders[i]))
	}
	return out, nil
}

func parseOrderFilter(f dto.OrderFilter) (repository.OrderQuery, error) {
	q := repository.OrderQuery{Page: f.Page, Limit: f.Limit}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 50
	}
	if f.Status != "" {
		st, err := model.ParseOrderStatus(f.Status)
		if err != nil {
			return q, err
		}
		q.Status = &st
	}
	if f.Start != "" {
		d, err := model.ParseDate(f.Start)
		if err != nil {
			return q, fmt.Errorf("%w: start %q", model.ErrInvalidDateRange, f.Start)
		}
		q.Start = &d
	}
	if f.End != "" {
		d, err := model.ParseDate(f.End)
		if err != nil {
			return q, fmt.Errorf("%w: end %q", model.ErrInvalidDateRange, f.End)
		}
		q.End = &d
	}
	if q.Start != nil && q.End != nil && q.Start.After(*q.End) {
		return q, model.ErrInvalidDateRange
	}
	if f.UserID != "" {
		uid, err := uuid.Parse(f.UserID)
		if err != nil {
			return q, fmt.Errorf("%w: %q", model.ErrInvalidUserID, f.UserID)
		}
		q.UserID = &uid
	}
	return q, nil
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func (s *orderService) Transition(ctx context.Context, id uuid.UUID, target string) (*dto.OrderResponse, error) {
	to, err := model.ParseOrderStatus(target)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, id, func(o *model.Order) error { return o.Transition(to) })
}

func (s *orderService) CancelByCustomer(ctx context.Context, id, userID uuid.UUID) (*dto.OrderResponse, error) {
	return s.applyTransition(ctx, id, func(o *model.Order) error {
		// someone else's order is reported as missing, not as forbidden
		if o.UserID != userID {
			return model.ErrOrderNotFound
		}
		return o.CancelByCustomer()
	})
}

func (s *orderService) applyTransition(ctx context.Context, id uuid.UUID, fn func(*model.Order) error) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if err := fn(o); err != nil {
		s.rejected(id, from, err)
		return nil, err
	}

	swapped, err := s.orders.UpdateStatus(ctx, id, from, o.Status)
	if err != nil {
		return nil, err
	}
	if !swapped {
		current := string(from)
		if fresh, ferr := s.orders.FindByID(ctx, id); ferr == nil {
			current = string(fresh.Status)
		}
		stale := &model.StateError{Err: model.ErrIllegalTransition, Current: current, Target: string(o.Status)}
		s.rejected(id, from, stale)
		return nil, stale
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(o.Status)).Inc()
	log.Info().
		Str("order_id", id.String()).
		Str("from", string(from)).
		Str("to", string(o.Status)).
		Msg("order status changed")

	evt := events.New(events.OrderStatusChanged)
	evt.OrderID = &o.ID
	evt.Status = string(o.Status)
	evt.Previous = string(from)
	evt.Date = o.OrderDate.Format(model.DateLayout)
	s.publish(ctx, evt)

	if o.Status == model.OrderCompleted && s.receipts != nil {
		if err := s.receipts.EnqueueReceipt(ctx, worker.ReceiptJobPayload{OrderID: id.String()}); err != nil {
			log.Warn().Err(err).Str("order_id", id.String()).Msg("receipt job not enqueued")
		}
	}
	return toOrderResponse(o), nil
}

func (s *orderService) rejected(id uuid.UUID, from model.OrderStatus, err error) {
	to := ""
	var se *model.StateError
	if errors.As(err, &se) {
		to = se.Target
	}
	metrics.OrderTransitionsRejectedTotal.WithLabelValues(string(from), to).Inc()
	log.Debug().Err(err).Str("order_id", id.String()).Str("from", string(from)).Msg("order transition rejected")
}

// ── Item mutations ────────────────────────────────────────────────────────────
// Only PENDING orders can change. The order row is locked for the whole
// read-modify-write so a concurrent transition cannot slip in between.

func (s *orderService) AddItem(ctx context.Context, id uuid.UUID, req dto.OrderItemRequest) (*dto.OrderResponse, error) {
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrProductNotFound, req.ProductID)
	}
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.mutateItems(ctx, id, func(o *model.Order) error {
		return o.AddItem(product.ID, product.Name, product.Price, req.Quantity)
	})
}

func (s *orderService) UpdateItemQuantity(ctx context.Context, id, productID uuid.UUID, qty int) (*dto.OrderResponse, bool, error) {
	var found bool
	resp, err := s.mutateItems(ctx, id, func(o *model.Order) error {
		var err error
		found, err = o.UpdateItemQuantity(productID, qty)
		return err
	})
	return resp, found, err
}

func (s *orderService) RemoveItem(ctx context.Context, id, productID uuid.UUID) (*dto.OrderResponse, bool, error) {
	var found bool
	resp, err := s.mutateItems(ctx, id, func(o *model.Order) error {
		var err error
		found, err = o.RemoveItem(productID)
		return err
	})
	return resp, found, err
}

func (s *orderService) ClearItems(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	return s.mutateItems(ctx, id, (*model.Order).ClearItems)
}

func (s *orderService) mutateItems(ctx context.Context, id uuid.UUID, fn func(*model.Order) error) (*dto.OrderResponse, error) {
	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		o, err := s.orders.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		return s.orders.ReplaceItems(ctx, tx, id, o.Items)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.GetOrder(ctx, id)
}

func (s *orderService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).Str("type", evt.Type).Msg("event not published")
	}
}
