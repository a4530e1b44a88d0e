package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders the PDF receipt of a
// completed order and, when the order carries a receipt email, enqueues the
// email job.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"foodie/internal/infra"
	"foodie/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
type ReceiptJobPayload struct {
	OrderID string `json:"order_id"`
}

// OrderFinder is the slice of the order repository the worker needs.
type OrderFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

// EmailQueue receives follow-up email jobs.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type ReceiptWorker struct {
	orders      OrderFinder
	emails      EmailQueue
	restaurant  string
	storagePath string
}

func NewReceiptWorker(orders OrderFinder, emails EmailQueue, restaurant, storagePath string) *ReceiptWorker {
	return &ReceiptWorker{
		orders:      orders,
		emails:      emails,
		restaurant:  restaurant,
		storagePath: storagePath,
	}
}

func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: receipt payload: %v", ErrPermanent, err)
	}
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		return fmt.Errorf("%w: invalid order_id %q", ErrPermanent, payload.OrderID)
	}

	order, err := w.orders.FindByID(ctx, orderID)
	if errors.Is(err, model.ErrOrderNotFound) {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	if err != nil {
		return err
	}
	if order.Status != model.OrderCompleted {
		log.Warn().Str("order_id", payload.OrderID).Str("status", string(order.Status)).
			Msg("receipt_worker: order not completed, skipping")
		return nil
	}

	pdfPath, err := infra.GenerateReceiptPDF(order, w.restaurant, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("pdf", pdfPath).Str("order_id", payload.OrderID).Msg("receipt_worker: receipt generated")

	if order.ReceiptEmail == "" || w.emails == nil {
		return nil
	}
	job := EmailJobPayload{
		ToEmail: order.ReceiptEmail,
		Subject: fmt.Sprintf("%s receipt for order %s", w.restaurant, order.ID),
		Body:    fmt.Sprintf("Thank you for your order.\nTotal: %s", order.Total().StringFixed(2)),
		PDFPath: pdfPath,
	}
	if err := w.emails.EnqueueEmail(ctx, job); err != nil {
		// the receipt exists; losing the email is not worth re-rendering
		log.Warn().Err(err).Str("order_id", payload.OrderID).Msg("receipt_worker: failed to enqueue email")
	}
	return nil
}
