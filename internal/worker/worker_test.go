package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"foodie/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrders struct{ orders map[uuid.UUID]*model.Order }

func (s *stubOrders) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return o, nil
}

type recordingEmails struct{ jobs []EmailJobPayload }

func (r *recordingEmails) EnqueueEmail(_ context.Context, p EmailJobPayload) error {
	r.jobs = append(r.jobs, p)
	return nil
}

type fakeMailer struct {
	enabled bool
	sent    []string
	err     error
}

func (m *fakeMailer) Enabled() bool { return m.enabled }
func (m *fakeMailer) SendReceipt(to, _, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func completedOrder(t *testing.T, email string) *model.Order {
	t.Helper()
	cart := model.NewCart("s1")
	require.NoError(t, cart.Add(uuid.New(), "Pizza", decimal.RequireFromString("10.50"), 2))
	o, err := model.NewOrderFromCart(uuid.New(), cart, time.Now())
	require.NoError(t, err)
	o.Status = model.OrderCompleted
	o.ReceiptEmail = email
	return o
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestReceiptWorkerRendersAndQueuesEmail(t *testing.T) {
	o := completedOrder(t, "ana@example.com")
	emails := &recordingEmails{}
	dir := t.TempDir()
	w := NewReceiptWorker(&stubOrders{orders: map[uuid.UUID]*model.Order{o.ID: o}}, emails, "Foodie", dir)

	require.NoError(t, w.Process(context.Background(), payload(t, ReceiptJobPayload{OrderID: o.ID.String()})))

	require.Len(t, emails.jobs, 1)
	assert.Equal(t, "ana@example.com", emails.jobs[0].ToEmail)
	_, err := os.Stat(emails.jobs[0].PDFPath)
	assert.NoError(t, err)
}

func TestReceiptWorkerSkipsEmailWithoutAddress(t *testing.T) {
	o := completedOrder(t, "")
	emails := &recordingEmails{}
	w := NewReceiptWorker(&stubOrders{orders: map[uuid.UUID]*model.Order{o.ID: o}}, emails, "Foodie", t.TempDir())

	require.NoError(t, w.Process(context.Background(), payload(t, ReceiptJobPayload{OrderID: o.ID.String()})))
	assert.Empty(t, emails.jobs)
}

func TestReceiptWorkerPermanentFailures(t *testing.T) {
	w := NewReceiptWorker(&stubOrders{orders: map[uuid.UUID]*model.Order{}}, nil, "Foodie", t.TempDir())

	err := w.Process(context.Background(), json.RawMessage(`{"order_id":"nope"}`))
	assert.ErrorIs(t, err, ErrPermanent)

	err = w.Process(context.Background(), payload(t, ReceiptJobPayload{OrderID: uuid.NewString()}))
	assert.ErrorIs(t, err, ErrPermanent)
}

func TestEmailWorker(t *testing.T) {
	m := &fakeMailer{enabled: true}
	w := NewEmailWorker(m)
	require.NoError(t, w.Process(context.Background(), payload(t, EmailJobPayload{ToEmail: "ana@example.com"})))
	assert.Equal(t, []string{"ana@example.com"}, m.sent)

	m.err = errors.New("smtp down")
	assert.Error(t, w.Process(context.Background(), payload(t, EmailJobPayload{ToEmail: "ana@example.com"})))

	disabled := NewEmailWorker(&fakeMailer{})
	assert.NoError(t, disabled.Process(context.Background(), payload(t, EmailJobPayload{ToEmail: "x@example.com"})))
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), MaxJobAttempts, func(int) error {
		calls++
		return ErrPermanent
	})
	assert.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, 1, calls)
}

func TestWithRetryReturnsOnSuccess(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), MaxJobAttempts, func(int) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWorkerHandlersRouting(t *testing.T) {
	r := &ReceiptWorker{}
	e := &EmailWorker{}
	h := WorkerHandlers{Receipt: r, Email: e}
	assert.Same(t, r, h.processorFor(JobReceipt))
	assert.Same(t, e, h.processorFor(JobEmail))
	assert.Nil(t, h.processorFor("invoice"))
}

func TestDecideRedrive(t *testing.T) {
	failed := time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		entry DLQEntry
		now   time.Time
		want  redriveAction
	}{
		{"permanent is parked", DLQEntry{Permanent: true, FailedAt: failed}, failed.Add(time.Hour), redrivePark},
		{"exhausted is parked", DLQEntry{Redrives: MaxRedrives, FailedAt: failed}, failed.Add(time.Hour), redrivePark},
		{"fresh failure waits", DLQEntry{FailedAt: failed}, failed.Add(30 * time.Second), redriveWait},
		{"due after backoff", DLQEntry{FailedAt: failed}, failed.Add(time.Minute), redriveRequeue},
		{"backoff grows", DLQEntry{Redrives: 2, FailedAt: failed}, failed.Add(3 * time.Minute), redriveWait},
		{"grown backoff elapsed", DLQEntry{Redrives: 2, FailedAt: failed}, failed.Add(4 * time.Minute), redriveRequeue},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decideRedrive(tc.entry, tc.now))
		})
	}
}
