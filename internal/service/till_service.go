package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodie/internal/dto"
	"foodie/internal/events"
	"foodie/internal/metrics"
	"foodie/internal/model"
	"foodie/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TillService interface {
	SalesByMethod(ctx context.Context, date string) (*dto.SalesResponse, error)
	TodaysSales(ctx context.Context) (*dto.SalesResponse, error)
	OpenTill(ctx context.Context, req dto.OpenTillRequest) (*dto.TillResponse, error)
	CloseTill(ctx context.Context, req dto.CloseTillRequest) (*dto.TillResponse, error)
	// TodaysTill returns today's record whether open or closed.
	TodaysTill(ctx context.Context) (*dto.TillResponse, error)
	ClosedTills(ctx context.Context) ([]dto.TillResponse, error)
	TillByDate(ctx context.Context, date string) (*dto.TillResponse, error)
	TillsInRange(ctx context.Context, start, end string) ([]dto.TillResponse, error)
}

type tillService struct {
	repo      repository.CashClosingRepository
	orders    repository.OrderRepository
	publisher events.Publisher
	now       Clock
}

func NewTillService(
	repo repository.CashClosingRepository,
	orders repository.OrderRepository,
	publisher events.Publisher,
	now Clock,
) TillService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &tillService{repo: repo, orders: orders, publisher: publisher, now: now}
}

func (s *tillService) today() time.Time { return model.CalendarDate(s.now()) }

// ── Sales ─────────────────────────────────────────────────────────────────────

func (s *tillService) SalesByMethod(ctx context.Context, date string) (*dto.SalesResponse, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidDateRange, date)
	}
	return s.sales(ctx, d)
}

func (s *tillService) TodaysSales(ctx context.Context) (*dto.SalesResponse, error) {
	return s.sales(ctx, s.today())
}

func (s *tillService) sales(ctx context.Context, date time.Time) (*dto.SalesResponse, error) {
	sums, err := s.orders.SumCompletedByMethod(ctx, nil, date)
	if err != nil {
		return nil, fmt.Errorf("sum sales: %w", err)
	}
	return &dto.SalesResponse{
		Date:  date.Format(model.DateLayout),
		Sales: amountsToDTO(sums),
		Total: sums.Total(),
	}, nil
}

// ── Open ──────────────────────────────────────────────────────────────────────
// Exclusivity comes from the unique index on the date: of two concurrent
// opens exactly one insert succeeds.

func (s *tillService) OpenTill(ctx context.Context, req dto.OpenTillRequest) (*dto.TillResponse, error) {
	opening, err := model.ParseMethodAmounts(req.OpeningBalance)
	if err != nil {
		return nil, err
	}
	now := s.now()
	c := model.OpenCashClosing(model.CalendarDate(now), opening, now)

	if err := s.repo.Create(ctx, c); err != nil {
		if !errors.Is(err, repository.ErrDuplicateDate) {
			return nil, fmt.Errorf("create till: %w", err)
		}
		existing, ferr := s.repo.FindByDate(ctx, c.Date)
		if ferr == nil && existing.IsClosed {
			return nil, model.ErrTillAlreadyClosed
		}
		return nil, model.ErrTillAlreadyOpen
	}

	metrics.TillOpenedTotal.Inc()
	log.Info().
		Str("date", c.Date.Format(model.DateLayout)).
		Str("opening_total", c.OpeningBalance.Total().StringFixed(2)).
		Msg("till opened")

	evt := events.New(events.TillOpened)
	evt.Date = c.Date.Format(model.DateLayout)
	evt.Amounts = amountsToDTO(c.OpeningBalance)
	s.publish(ctx, evt)

	return toTillResponse(c), nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// The day's record is row-locked, sales are aggregated once inside the same
// transaction, and the update only applies while the record is still open.

func (s *tillService) CloseTill(ctx context.Context, req dto.CloseTillRequest) (*dto.TillResponse, error) {
	counted, err := model.ParseMethodAmounts(req.RealAmount)
	if err != nil {
		return nil, err
	}
	now := s.now()
	date := model.CalendarDate(now)

	var closed *model.CashClosing
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		c, err := s.repo.FindByDateForUpdate(ctx, tx, date)
		if errors.Is(err, model.ErrTillNotFound) {
			return model.ErrNoOpenTill
		}
		if err != nil {
			return err
		}
		if c.IsClosed {
			return model.ErrTillAlreadyClosed
		}

		sales, err := s.orders.SumCompletedByMethod(ctx, tx, date)
		if err != nil {
			return fmt.Errorf("sum sales: %w", err)
		}
		if err := c.Close(sales, counted, req.Notes, now); err != nil {
			return err
		}
		ok, err := s.repo.MarkClosed(ctx, tx, c)
		if err != nil {
			return fmt.Errorf("close till: %w", err)
		}
		if !ok {
			return model.ErrTillAlreadyClosed
		}
		closed = c
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	metrics.TillClosedTotal.Inc()
	for pm, diff := range closed.Difference {
		metrics.TillDifference.WithLabelValues(string(pm)).Set(diff.InexactFloat64())
	}
	log.Info().
		Str("date", closed.Date.Format(model.DateLayout)).
		Str("expected_total", closed.ExpectedAmount.Total().StringFixed(2)).
		Str("difference_total", closed.Difference.Total().StringFixed(2)).
		Msg("till closed")

	evt := events.New(events.TillClosed)
	evt.Date = closed.Date.Format(model.DateLayout)
	evt.Amounts = amountsToDTO(closed.Difference)
	s.publish(ctx, evt)

	return toTillResponse(closed), nil
}

// ── History ───────────────────────────────────────────────────────────────────

func (s *tillService) TodaysTill(ctx context.Context) (*dto.TillResponse, error) {
	c, err := s.repo.FindByDate(ctx, s.today())
	if err != nil {
		return nil, err
	}
	return toTillResponse(c), nil
}

func (s *tillService) ClosedTills(ctx context.Context) ([]dto.TillResponse, error) {
	list, err := s.repo.ListClosed(ctx)
	if err != nil {
		return nil, err
	}
	return toTillResponses(list), nil
}

// TillByDate only answers for closed records; an open till is not history yet.
func (s *tillService) TillByDate(ctx context.Context, date string) (*dto.TillResponse, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidDateRange, date)
	}
	c, err := s.repo.FindByDate(ctx, d)
	if err != nil {
		return nil, err
	}
	if !c.IsClosed {
		return nil, model.ErrTillNotFound
	}
	return toTillResponse(c), nil
}

func (s *tillService) TillsInRange(ctx context.Context, start, end string) ([]dto.TillResponse, error) {
	from, err := model.ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q", model.ErrInvalidDateRange, start)
	}
	to, err := model.ParseDate(end)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q", model.ErrInvalidDateRange, end)
	}
	if from.After(to) {
		return nil, model.ErrInvalidDateRange
	}
	list, err := s.repo.ListClosedInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return toTillResponses(list), nil
}

func toTillResponses(list []model.CashClosing) []dto.TillResponse {
	out := make([]dto.TillResponse, 0, len(list))
	for i := range list {
		out = append(out, *toTillResponse(&list[i]))
	}
	return out
}

func (s *tillService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).Str("type", evt.Type).Msg("event not published")
	}
}
