package model_test

import (
	"testing"

	"foodie/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddMergesSameProduct(t *testing.T) {
	c := model.NewCart("s1")
	pizza := uuid.New()

	require.NoError(t, c.Add(pizza, "Pizza", decimal.RequireFromString("10.50"), 2))
	require.NoError(t, c.Add(pizza, "Pizza renamed", decimal.RequireFromString("99.00"), 3))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	// first snapshot wins
	assert.Equal(t, "Pizza", items[0].ProductName)
	assert.Equal(t, "10.5", items[0].UnitPrice.String())
}

func TestCartAddRejectsNonPositiveQuantity(t *testing.T) {
	c := model.NewCart("s1")
	assert.ErrorIs(t, c.Add(uuid.New(), "Agua", decimal.NewFromInt(1), 0), model.ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(uuid.New(), "Agua", decimal.NewFromInt(1), -2), model.ErrInvalidQuantity)
	assert.True(t, c.IsEmpty())
}

func TestCartAddRejectsNegativePrice(t *testing.T) {
	c := model.NewCart("s1")
	assert.ErrorIs(t, c.Add(uuid.New(), "Agua", decimal.NewFromInt(-1), 1), model.ErrInvalidPrice)
}

func TestCartUpdateQuantity(t *testing.T) {
	c := model.NewCart("s1")
	a, b := uuid.New(), uuid.New()
	require.NoError(t, c.Add(a, "A", decimal.NewFromInt(2), 1))
	require.NoError(t, c.Add(b, "B", decimal.NewFromInt(3), 1))

	assert.True(t, c.UpdateQuantity(a, 4))
	assert.Equal(t, 4, c.Items()[0].Quantity)

	assert.True(t, c.UpdateQuantity(a, 0), "zero quantity removes the line")
	require.Len(t, c.Items(), 1)
	assert.Equal(t, b, c.Items()[0].ProductID)

	assert.False(t, c.UpdateQuantity(uuid.New(), 3))
}

func TestCartRemoveAndClear(t *testing.T) {
	c := model.NewCart("s1")
	a := uuid.New()
	require.NoError(t, c.Add(a, "A", decimal.NewFromInt(2), 1))

	assert.False(t, c.Remove(uuid.New()))
	assert.True(t, c.Remove(a))
	assert.True(t, c.IsEmpty())

	require.NoError(t, c.Add(a, "A", decimal.NewFromInt(2), 1))
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
}

func TestCartTotalsAndCount(t *testing.T) {
	c := model.NewCart("s1")
	require.NoError(t, c.Add(uuid.New(), "Pizza", decimal.RequireFromString("10.50"), 2))
	require.NoError(t, c.Add(uuid.New(), "Agua", decimal.RequireFromString("1.20"), 3))

	assert.Equal(t, "24.6", c.Total().String())
	assert.Equal(t, 5, c.ItemCount())
}

func TestCartItemsIsACopy(t *testing.T) {
	c := model.NewCart("s1")
	require.NoError(t, c.Add(uuid.New(), "A", decimal.NewFromInt(2), 1))
	items := c.Items()
	items[0].Quantity = 100
	assert.Equal(t, 1, c.Items()[0].Quantity)
}
