package service

import (
	"context"

	"foodie/internal/dto"
	"foodie/internal/events"
	"foodie/internal/metrics"
	"foodie/internal/model"
	"foodie/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type PaymentService interface {
	// CreatePayment persists the PENDING payment of order inside tx.
	CreatePayment(ctx context.Context, tx *gorm.DB, order *model.Order, method string) (*model.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error)
	GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*dto.PaymentResponse, error)
	ProcessPayment(ctx context.Context, id uuid.UUID, req dto.PaymentMethodRequest) (*dto.PaymentResponse, error)
	RefundPayment(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error)
	CancelPayment(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error)
	UpdatePaymentMethod(ctx context.Context, id uuid.UUID, req dto.PaymentMethodRequest) (*dto.PaymentResponse, error)
}

type paymentService struct {
	repo      repository.PaymentRepository
	publisher events.Publisher
}

func NewPaymentService(repo repository.PaymentRepository, publisher events.Publisher) PaymentService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &paymentService{repo: repo, publisher: publisher}
}

func (s *paymentService) CreatePayment(ctx context.Context, tx *gorm.DB, order *model.Order, method string) (*model.Payment, error) {
	pm, err := model.ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}
	p := model.NewPayment(order, pm)
	if err := s.repo.Create(ctx, tx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *paymentService) GetPayment(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(p), nil
}

func (s *paymentService) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*dto.PaymentResponse, error) {
	p, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(p), nil
}

// ── State changes ─────────────────────────────────────────────────────────────
// Each operation validates against the loaded record, then writes with a
// compare-and-swap on the status it validated against. Losing the race
// reports the status the winner left behind.

func (s *paymentService) ProcessPayment(ctx context.Context, id uuid.UUID, req dto.PaymentMethodRequest) (*dto.PaymentResponse, error) {
	pm, err := model.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, "process", func(p *model.Payment) error { return p.Process(pm) })
}

func (s *paymentService) RefundPayment(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error) {
	return s.mutate(ctx, id, "refund", (*model.Payment).Refund)
}

func (s *paymentService) CancelPayment(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error) {
	return s.mutate(ctx, id, "cancel", (*model.Payment).Cancel)
}

func (s *paymentService) MarkFailed(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error) {
	return s.mutate(ctx, id, "fail", (*model.Payment).MarkFailed)
}

func (s *paymentService) UpdatePaymentMethod(ctx context.Context, id uuid.UUID, req dto.PaymentMethodRequest) (*dto.PaymentResponse, error) {
	pm, err := model.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, "change_method", func(p *model.Payment) error { return p.ChangeMethod(pm) })
}

func (s *paymentService) mutate(ctx context.Context, id uuid.UUID, op string, fn func(*model.Payment) error) (*dto.PaymentResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prior := p.Status
	if err := fn(p); err != nil {
		log.Debug().Err(err).Str("payment_id", id.String()).Str("op", op).Msg("payment operation rejected")
		return nil, err
	}

	swapped, err := s.repo.UpdateState(ctx, p, prior)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, s.staleError(ctx, id, prior, fn)
	}

	metrics.PaymentsTotal.WithLabelValues(string(p.Status), string(p.Method)).Inc()
	log.Info().
		Str("payment_id", id.String()).
		Str("op", op).
		Str("from", string(prior)).
		Str("to", string(p.Status)).
		Msg("payment updated")

	evt := events.New(events.PaymentStatusChanged)
	evt.PaymentID = &p.ID
	evt.OrderID = &p.OrderID
	evt.Status = string(p.Status)
	evt.Previous = string(prior)
	evt.Amount = &p.Amount
	evt.Method = string(p.Method)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).Str("payment_id", id.String()).Msg("payment event not published")
	}
	return toPaymentResponse(p), nil
}

// staleError explains a lost compare-and-swap by replaying the operation
// against the fresh record, so the loser sees the same error it would have
// got had it arrived second.
func (s *paymentService) staleError(ctx context.Context, id uuid.UUID, prior model.PaymentStatus, fn func(*model.Payment) error) error {
	fresh, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return &model.StateError{Err: model.ErrIllegalPaymentTransition, Current: string(prior)}
	}
	if err := fn(fresh); err != nil {
		return err
	}
	return &model.StateError{Err: model.ErrIllegalPaymentTransition, Current: string(fresh.Status)}
}
