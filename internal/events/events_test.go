package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventKey(t *testing.T) {
	e := New(TillClosed)
	assert.Equal(t, TillClosed, e.Key())

	id := uuid.New()
	e = New(OrderCreated)
	e.OrderID = &id
	assert.Equal(t, id.String(), e.Key())
}

func TestEventJSONKeepsDecimalStrings(t *testing.T) {
	amount := decimal.RequireFromString("24.48")
	e := New(OrderCreated)
	e.Amount = &amount

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"amount":"24.48"`)
	assert.NotContains(t, string(raw), "payment_id")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), New(OrderCreated)))
	assert.NoError(t, p.Close())
}
