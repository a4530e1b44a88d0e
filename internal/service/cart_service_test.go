package service_test

import (
	"context"
	"testing"

	"foodie/internal/dto"
	"foodie/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddMergesSameProduct(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	burger := h.catalog.add("Burger", "7.99")

	_, err := h.cart.AddItem(ctx, "s1", dto.AddCartItemRequest{ProductID: burger.String(), Quantity: 2})
	require.NoError(t, err)
	resp, err := h.cart.AddItem(ctx, "s1", dto.AddCartItemRequest{ProductID: burger.String(), Quantity: 3})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].Quantity)
	assert.Equal(t, 5, resp.ItemCount)
	assert.True(t, decimal.RequireFromString("39.95").Equal(resp.Total), resp.Total.String())
}

func TestCartAddRejectsNonPositiveQuantity(t *testing.T) {
	h := newHarness()
	burger := h.catalog.add("Burger", "7.99")

	for _, qty := range []int{0, -1} {
		_, err := h.cart.AddItem(context.Background(), "s1", dto.AddCartItemRequest{ProductID: burger.String(), Quantity: qty})
		assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	}
}

func TestCartAddUnknownProduct(t *testing.T) {
	h := newHarness()

	_, err := h.cart.AddItem(context.Background(), "s1", dto.AddCartItemRequest{ProductID: uuid.NewString(), Quantity: 1})
	assert.ErrorIs(t, err, model.ErrProductNotFound)

	_, err = h.cart.AddItem(context.Background(), "s1", dto.AddCartItemRequest{ProductID: "not-a-uuid", Quantity: 1})
	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestCartUpdateQuantityAndRemove(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	burger := h.catalog.add("Burger", "7.99")
	pizza := h.catalog.add("Pizza", "8.50")
	_, err := h.cart.AddItem(ctx, "s1", dto.AddCartItemRequest{ProductID: burger.String(), Quantity: 1})
	require.NoError(t, err)
	_, err = h.cart.AddItem(ctx, "s1", dto.AddCartItemRequest{ProductID: pizza.String(), Quantity: 1})
	require.NoError(t, err)

	resp, found, err := h.cart.UpdateQuantity(ctx, "s1", burger, 4)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 5, resp.ItemCount)

	// zero quantity deletes the line
	resp, found, err = h.cart.UpdateQuantity(ctx, "s1", burger, 0)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, pizza.String(), resp.Items[0].ProductID)

	_, found, err = h.cart.RemoveItem(ctx, "s1", burger)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, h.cart.Clear(ctx, "s1"))
	resp, err = h.cart.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Total.IsZero())
}

func TestCartSessionsAreIsolated(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	burger := h.catalog.add("Burger", "7.99")

	_, err := h.cart.AddItem(ctx, "s1", dto.AddCartItemRequest{ProductID: burger.String(), Quantity: 2})
	require.NoError(t, err)

	other, err := h.cart.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 0, other.ItemCount)
}
