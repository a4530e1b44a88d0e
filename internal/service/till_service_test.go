package service_test

import (
	"context"
	"sync"
	"testing"

	"foodie/internal/dto"
	"foodie/internal/events"
	"foodie/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amounts(kv ...string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = decimal.RequireFromString(kv[i+1])
	}
	return out
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, label ...any) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s got %s %v", want, got.String(), label)
}

func TestEndToEndCheckoutToTillClose(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	order := checkoutScenario(t, h, uuid.New(), "CASH")
	assertAmount(t, "24.48", order.Total)
	assertAmount(t, "24.48", order.Payment.Amount)
	assert.Equal(t, "PENDING", order.Payment.Status)

	id := mustUUID(t, order.ID)
	for _, st := range []string{"CONFIRMED", "PREPARING", "READY", "COMPLETED"} {
		_, err := h.orders.Transition(ctx, id, st)
		require.NoError(t, err, st)
	}

	_, err := h.till.OpenTill(ctx, dto.OpenTillRequest{OpeningBalance: amounts("CASH", "50.0")})
	require.NoError(t, err)

	closed, err := h.till.CloseTill(ctx, dto.CloseTillRequest{RealAmount: amounts("CASH", "74.48")})
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	require.NotNil(t, closed.ClosedAt)
	assertAmount(t, "74.48", closed.ExpectedAmount["CASH"])
	assertAmount(t, "0", closed.Difference["CASH"])
	for _, pm := range model.PaymentMethods() {
		require.Contains(t, closed.Difference, string(pm))
		if pm != model.MethodCash {
			assertAmount(t, "0", closed.Difference[string(pm)], pm)
		}
	}

	assert.Subset(t, h.publisher.types(), []string{events.TillOpened, events.TillClosed})
}

func TestReconciliationIdentityWithoutSales(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	opening := amounts("CASH", "100.00", "CARD", "20.00")

	_, err := h.till.OpenTill(ctx, dto.OpenTillRequest{OpeningBalance: opening})
	require.NoError(t, err)
	closed, err := h.till.CloseTill(ctx, dto.CloseTillRequest{RealAmount: opening, Notes: "quiet day"})
	require.NoError(t, err)

	assert.Equal(t, "quiet day", closed.Notes)
	require.Len(t, closed.Difference, len(model.PaymentMethods()))
	for m, diff := range closed.Difference {
		assertAmount(t, "0", diff, m)
	}
}

func TestCloseTillDifferencePerMethod(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	order := checkoutScenario(t, h, uuid.New(), "CARD")
	id := mustUUID(t, order.ID)
	for _, st := range []string{"CONFIRMED", "PREPARING", "READY", "ON_THE_WAY", "COMPLETED"} {
		_, err := h.orders.Transition(ctx, id, st)
		require.NoError(t, err, st)
	}

	_, err := h.till.OpenTill(ctx, dto.OpenTillRequest{OpeningBalance: amounts("CASH", "50")})
	require.NoError(t, err)
	closed, err := h.till.CloseTill(ctx, dto.CloseTillRequest{RealAmount: amounts("CASH", "49.50", "CARD", "24.48")})
	require.NoError(t, err)

	assertAmount(t, "-0.50", closed.Difference["CASH"])
	assertAmount(t, "24.48", closed.ExpectedAmount["CARD"])
	assertAmount(t, "0", closed.Difference["CARD"])
	assertAmount(t, "0", closed.RealAmount["BIZUM"])
}

func TestCloseTillTwiceFails(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.till.OpenTill(ctx, dto.OpenTillRequest{OpeningBalance: amounts("CASH", "10")})
	require.NoError(t, err)
	_, err = h.till.CloseTill(ctx, dto.CloseTillRequest{RealAmount: amounts("CASH", "10")})
	require.NoError(t, err)

	_, err = h.till.CloseTill(ctx, dto.CloseTillRequest{RealAmount: amounts("CASH", "99")})
	assert.ErrorIs(t, err, model.ErrTillAlreadyClosed)

	// the first close is what history keeps
	got, err := h.till.TillByDate(ctx, "2025-03-14")
	require.NoError(t, err)
	assertAmount(t, "10", got.RealAmount["CASH"])
}

func TestCloseTillWithoutOpen(t *testing.T) {
	h := newHarness()

	_, err := h.till.CloseTill(context.Background(), dto.CloseTillRequest{RealAmount: amounts("CASH", "10")})
	assert.ErrorIs(t, err, model.ErrNoOpenTill)
}

func TestOpenTillTwice(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.till.OpenTill(ctx, dto.OpenTillRequest{})
	require.NoError(t, err)
	_, err = h.till.OpenTill(ctx, dto.OpenTillRequest{})
	assert.ErrorIs(t, err, model.ErrTillAlreadyOpen)

	_, err = h.till.CloseTill(ctx, dto.CloseTillRequest{})
	require.NoError(t, err)
	_, err = h.till.OpenTill(ctx, dto.OpenTillRequest{})
	assert.ErrorIs(t, err, model.ErrTillAlreadyClosed)
}

func TestConcurrentOpenTillHasOneWinner(t *testing.T) {
	h := newHarness()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.till.OpenTill(context.Background(), dto.OpenTillRequest{OpeningBalance: amounts("CASH", "50")})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, model.ErrTillAlreadyOpen)
	}
	assert.Equal(t, 1, wins)
}

func TestOpenTillRejectsBadBalances(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.till.OpenTill(ctx, dto.OpenTillRequest{OpeningBalance: amounts("CASH", "-1")})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = h.till.OpenTill(ctx, dto.OpenTillRequest{OpeningBalance: amounts("GOLD", "1")})
	assert.ErrorIs(t, err, model.ErrInvalidPaymentMethod)
}

func TestOpenTillDefaultsMissingMethods(t *testing.T) {
	h := newHarness()

	resp, err := h.till.OpenTill(context.Background(), dto.OpenTillRequest{OpeningBalance: amounts("CASH", "50")})
	require.NoError(t, err)
	assert.False(t, resp.IsClosed)
	assert.Equal(t, "2025-03-14", resp.Date)
	require.Len(t, resp.OpeningBalance, len(model.PaymentMethods()))
	assertAmount(t, "0", resp.OpeningBalance["PAYPAL"])
	assert.Empty(t, resp.ExpectedAmount)

	today, err := h.till.TodaysTill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, resp.ID, today.ID)
}

func TestSalesByMethodIsStable(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	order := checkoutScenario(t, h, uuid.New(), "BIZUM")
	id := mustUUID(t, order.ID)
	for _, st := range []string{"CONFIRMED", "PREPARING", "READY", "COMPLETED"} {
		_, err := h.orders.Transition(ctx, id, st)
		require.NoError(t, err)
	}

	first, err := h.till.SalesByMethod(ctx, "2025-03-14")
	require.NoError(t, err)
	second, err := h.till.TodaysSales(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Date, second.Date)
	require.Len(t, first.Sales, len(model.PaymentMethods()))
	for m, v := range first.Sales {
		assertAmount(t, v.String(), second.Sales[m], m)
	}
	assertAmount(t, "24.48", first.Sales["BIZUM"])
	assertAmount(t, "0", first.Sales["CASH"])
	assertAmount(t, "24.48", first.Total)

	other, err := h.till.SalesByMethod(ctx, "2025-03-13")
	require.NoError(t, err)
	assert.True(t, other.Total.IsZero())

	_, err = h.till.SalesByMethod(ctx, "14/03/2025")
	assert.ErrorIs(t, err, model.ErrInvalidDateRange)
}

func TestSalesIgnoreUncompletedOrders(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	order := checkoutScenario(t, h, uuid.New(), "CASH")
	_, err := h.orders.Transition(ctx, mustUUID(t, order.ID), "CONFIRMED")
	require.NoError(t, err)

	sales, err := h.till.TodaysSales(ctx)
	require.NoError(t, err)
	assert.True(t, sales.Total.IsZero())
}

func TestTillHistoryOnlyShowsClosedRecords(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.till.OpenTill(ctx, dto.OpenTillRequest{})
	require.NoError(t, err)

	_, err = h.till.TillByDate(ctx, "2025-03-14")
	assert.ErrorIs(t, err, model.ErrTillNotFound)
	list, err := h.till.ClosedTills(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = h.till.CloseTill(ctx, dto.CloseTillRequest{})
	require.NoError(t, err)

	list, err = h.till.ClosedTills(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	ranged, err := h.till.TillsInRange(ctx, "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.Len(t, ranged, 1)

	ranged, err = h.till.TillsInRange(ctx, "2025-04-01", "2025-04-30")
	require.NoError(t, err)
	assert.Empty(t, ranged)

	_, err = h.till.TillsInRange(ctx, "2025-03-31", "2025-03-01")
	assert.ErrorIs(t, err, model.ErrInvalidDateRange)

	_, err = h.till.TillByDate(ctx, "2025-01-01")
	assert.ErrorIs(t, err, model.ErrTillNotFound)
}
