package service_test

import (
	"context"
	"sync"
	"time"

	"foodie/internal/events"
	"foodie/internal/model"
	"foodie/internal/repository"
	"foodie/internal/service"
	"foodie/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store shared by the repository stubs ───────────────────────────
// Records are copied on the way in and out so a service can never mutate
// stored state without going through a repository call.

type memStore struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]model.Order
	payments map[uuid.UUID]model.Payment
	tills    map[string]model.CashClosing
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[uuid.UUID]model.Order),
		payments: make(map[uuid.UUID]model.Payment),
		tills:    make(map[string]model.CashClosing),
	}
}

func copyOrder(o model.Order) *model.Order {
	o.Items = append([]model.OrderItem(nil), o.Items...)
	o.Payment = nil
	return &o
}

func copyTill(c model.CashClosing) *model.CashClosing {
	cp := func(m model.MethodAmounts) model.MethodAmounts {
		out := model.MethodAmounts{}
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	c.OpeningBalance = cp(c.OpeningBalance)
	c.ExpectedAmount = cp(c.ExpectedAmount)
	c.RealAmount = cp(c.RealAmount)
	c.Difference = cp(c.Difference)
	return &c
}

// ── OrderRepository ──────────────────────────────────────────────────────────

type memOrderRepo struct{ *memStore }

func (r memOrderRepo) DB() *gorm.DB { return nil }

func (r memOrderRepo) Create(_ context.Context, _ *gorm.DB, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	r.orders[o.ID] = *copyOrder(*o)
	return nil
}

func (r memOrderRepo) withPayment(o *model.Order) *model.Order {
	for _, p := range r.payments {
		if p.OrderID == o.ID {
			pc := p
			o.Payment = &pc
		}
	}
	return o
}

func (r memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return r.withPayment(copyOrder(o)), nil
}

func (r memOrderRepo) FindForUpdate(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r memOrderRepo) List(_ context.Context, q repository.OrderQuery) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if q.Status != nil && o.Status != *q.Status {
			continue
		}
		if q.UserID != nil && o.UserID != *q.UserID {
			continue
		}
		if q.Start != nil && o.OrderDate.Before(*q.Start) {
			continue
		}
		if q.End != nil && o.OrderDate.After(*q.End) {
			continue
		}
		out = append(out, *r.withPayment(copyOrder(o)))
	}
	return out, int64(len(out)), nil
}

func (r memOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	r.orders[id] = o
	return true, nil
}

func (r memOrderRepo) ReplaceItems(_ context.Context, _ *gorm.DB, orderID uuid.UUID, items []model.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.orders[orderID]
	o.Items = append([]model.OrderItem(nil), items...)
	r.orders[orderID] = o
	return nil
}

func (r memOrderRepo) SumCompletedByMethod(_ context.Context, _ *gorm.DB, date time.Time) (model.MethodAmounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := model.NewMethodAmounts()
	day := model.CalendarDate(date)
	for _, p := range r.payments {
		o, ok := r.orders[p.OrderID]
		if !ok || o.Status != model.OrderCompleted || !o.OrderDate.Equal(day) {
			continue
		}
		out[p.Method] = out[p.Method].Add(p.Amount)
	}
	return out, nil
}

var _ repository.OrderRepository = memOrderRepo{}

// ── PaymentRepository ────────────────────────────────────────────────────────

type memPaymentRepo struct{ *memStore }

func (r memPaymentRepo) Create(_ context.Context, _ *gorm.DB, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = *p
	return nil
}

func (r memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}
	return &p, nil
}

func (r memPaymentRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.OrderID == orderID {
			return &p, nil
		}
	}
	return nil, model.ErrPaymentNotFound
}

func (r memPaymentRepo) UpdateState(_ context.Context, p *model.Payment, expected model.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.payments[p.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	cur.Status = p.Status
	cur.Method = p.Method
	r.payments[p.ID] = cur
	return true, nil
}

var _ repository.PaymentRepository = memPaymentRepo{}

// ── CashClosingRepository ────────────────────────────────────────────────────

type memTillRepo struct{ *memStore }

func dayKey(t time.Time) string { return model.CalendarDate(t).Format(model.DateLayout) }

func (r memTillRepo) DB() *gorm.DB { return nil }

func (r memTillRepo) Create(_ context.Context, c *model.CashClosing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tills[dayKey(c.Date)]; exists {
		return repository.ErrDuplicateDate
	}
	r.tills[dayKey(c.Date)] = *copyTill(*c)
	return nil
}

func (r memTillRepo) FindByDate(_ context.Context, date time.Time) (*model.CashClosing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.tills[dayKey(date)]
	if !ok {
		return nil, model.ErrTillNotFound
	}
	return copyTill(c), nil
}

func (r memTillRepo) FindByDateForUpdate(ctx context.Context, _ *gorm.DB, date time.Time) (*model.CashClosing, error) {
	return r.FindByDate(ctx, date)
}

func (r memTillRepo) MarkClosed(_ context.Context, _ *gorm.DB, c *model.CashClosing) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.tills[dayKey(c.Date)]
	if !ok || cur.IsClosed {
		return false, nil
	}
	r.tills[dayKey(c.Date)] = *copyTill(*c)
	return true, nil
}

func (r memTillRepo) ListClosed(_ context.Context) ([]model.CashClosing, error) {
	return r.closedWhere(func(model.CashClosing) bool { return true }), nil
}

func (r memTillRepo) ListClosedInRange(_ context.Context, start, end time.Time) ([]model.CashClosing, error) {
	from, to := model.CalendarDate(start), model.CalendarDate(end)
	return r.closedWhere(func(c model.CashClosing) bool {
		return !c.Date.Before(from) && !c.Date.After(to)
	}), nil
}

func (r memTillRepo) closedWhere(keep func(model.CashClosing) bool) []model.CashClosing {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashClosing
	for _, c := range r.tills {
		if c.IsClosed && keep(c) {
			out = append(out, *copyTill(c))
		}
	}
	return out
}

var _ repository.CashClosingRepository = memTillRepo{}

// ── Catalog, queue and publisher fakes ───────────────────────────────────────

type stubCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: make(map[uuid.UUID]model.Product)}
}

func (c *stubCatalog) add(name, price string) uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.New()
	c.products[id] = model.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Available: true}
	return id
}

func (c *stubCatalog) setPrice(id uuid.UUID, price string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.products[id]
	p.Price = decimal.RequireFromString(price)
	c.products[id] = p
}

func (c *stubCatalog) GetProduct(_ context.Context, id uuid.UUID) (*model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok || !p.Available {
		return nil, model.ErrProductNotFound
	}
	return &p, nil
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []worker.ReceiptJobPayload
}

func (q *recordingQueue) EnqueueReceipt(_ context.Context, p worker.ReceiptJobPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, p)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fixedClock pins "today" to 2025-03-14 evening in Madrid.
func fixedClock() time.Time {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		loc = time.UTC
	}
	return time.Date(2025, 3, 14, 21, 15, 0, 0, loc)
}

// ── Harness ──────────────────────────────────────────────────────────────────

type harness struct {
	store     *memStore
	catalog   *stubCatalog
	carts     repository.CartStore
	receipts  *recordingQueue
	publisher *recordingPublisher

	cart     service.CartService
	orders   service.OrderService
	payments service.PaymentService
	till     service.TillService
}

func newHarness() *harness {
	h := &harness{
		store:     newMemStore(),
		catalog:   newStubCatalog(),
		carts:     repository.NewMemoryCartStore(time.Hour),
		receipts:  &recordingQueue{},
		publisher: &recordingPublisher{},
	}
	orderRepo := memOrderRepo{h.store}
	h.cart = service.NewCartService(h.carts, h.catalog)
	h.payments = service.NewPaymentService(memPaymentRepo{h.store}, h.publisher)
	h.orders = service.NewOrderService(orderRepo, h.payments, h.carts, h.catalog, h.receipts, h.publisher, fixedClock)
	h.till = service.NewTillService(memTillRepo{h.store}, orderRepo, h.publisher, fixedClock)
	return h
}
